package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/danielpatrickdp/ifdd/internal/ifdd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startServer(t *testing.T, e *ifdd.Engine, logger *slog.Logger) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(NewServer(e, logger), logger)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, initial, actions int) *ifdd.Engine {
	t.Helper()
	e, err := ifdd.New(initial, actions, ifdd.DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestResolveAndDiscover(t *testing.T) {
	c := startServer(t, newEngine(t, 41, 2), quietLogger())
	ctx := context.Background()

	active, err := c.Resolve(ctx, []int{20, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 20}, active)

	res, err := c.Discover(ctx, active, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{41}, res.Added)
	assert.Equal(t, 42, res.FeaturesNum)

	active, err = c.Resolve(ctx, []int{0, 20})
	require.NoError(t, err)
	assert.Equal(t, []int{41}, active)
}

func TestBatchDiscover(t *testing.T) {
	c := startServer(t, newEngine(t, 4, 1), quietLogger())
	ctx := context.Background()

	added, err := c.BatchDiscover(ctx, []Sample{
		{Active: []int{0, 1}, TDError: 3},
		{Active: []int{0, 1}, TDError: 3},
		{Active: []int{2, 3}, TDError: 1},
	})
	require.NoError(t, err)
	assert.True(t, added)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.FeaturesNum)
	assert.Equal(t, 4, st.InitialFeaturesNum)
	assert.Equal(t, 1, st.Discoveries)

	_, err = c.BatchDiscover(ctx, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestThetaRoundTrip(t *testing.T) {
	c := startServer(t, newEngine(t, 2, 2), quietLogger())
	ctx := context.Background()

	require.NoError(t, c.SetTheta(ctx, []float64{1, 2, 3, 4}))
	th, err := c.Theta(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, th.Values)
	assert.Equal(t, 2, th.FeaturesNum)
	assert.Equal(t, 2, th.ActionsNum)

	_, err = c.Discover(ctx, []int{0, 1}, 5)
	require.NoError(t, err)
	th, err = c.Theta(ctx)
	require.NoError(t, err)
	// sparsify: the conjunction starts at the sum of its parents
	assert.Equal(t, []float64{1, 2, 3, 3, 4, 7}, th.Values)

	err = c.SetTheta(ctx, []float64{1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestInvalidArguments(t *testing.T) {
	c := startServer(t, newEngine(t, 4, 1), quietLogger())
	ctx := context.Background()

	_, err := c.Resolve(ctx, []int{9})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Discover(ctx, []int{0, 7}, 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	bad := &structpb.Struct{Fields: map[string]*structpb.Value{
		"active_base": structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{structpb.NewNumberValue(1.5)}}),
	}}
	_, err = c.invoke(ctx, MethodResolve, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.invoke(ctx, MethodDiscover, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestInterceptorLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := startServer(t, newEngine(t, 4, 1), logger)

	_, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "/ifdd.v1.Representation/Stats")
	assert.Contains(t, buf.String(), "code=OK")
}

func TestWithEngine(t *testing.T) {
	e := newEngine(t, 4, 1)
	srv := NewServer(e, quietLogger())
	var features int
	require.NoError(t, srv.WithEngine(func(e *ifdd.Engine) error {
		features = e.FeaturesNum()
		return nil
	}))
	assert.Equal(t, 4, features)
	assert.Contains(t, srv.String(), "features=4")
}
