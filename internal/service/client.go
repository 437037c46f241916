package service

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region types
// Sample is one observation of a batch discovery round.
type Sample struct {
	Active  []int
	TDError float64
}

// DiscoverResult holds the response of a Discover call.
type DiscoverResult struct {
	Added       []int
	FeaturesNum int
}

// ThetaResult holds the weights and their shape.
type ThetaResult struct {
	Values      []float64
	FeaturesNum int
	ActionsNum  int
}

// StatsResult mirrors the Stats response.
type StatsResult struct {
	FeaturesNum        int
	InitialFeaturesNum int
	ActionsNum         int
	Potentials         int
	Discoveries        int
	Vetoes             int
	MaxRelevance       float64
	CacheHits          int
	CacheMisses        int
	CacheEntries       int
}

// #endregion types

// #region client-struct
// Client calls a remote ifdd.v1.Representation service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// Dial connects to the service at addr.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClient wraps an existing connection. Close is then a no-op.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down a connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion client-struct

// #region calls
// Resolve returns the features covering activeBase.
func (c *Client) Resolve(ctx context.Context, activeBase []int) ([]int, error) {
	out, err := c.invoke(ctx, MethodResolve, newStruct(map[string]*structpb.Value{
		"active_base": intsList(activeBase),
	}))
	if err != nil {
		return nil, err
	}
	return intsField(out, "active")
}

// Discover credits tdError to the active features.
func (c *Client) Discover(ctx context.Context, active []int, tdError float64) (DiscoverResult, error) {
	out, err := c.invoke(ctx, MethodDiscover, newStruct(map[string]*structpb.Value{
		"active":   intsList(active),
		"td_error": structpb.NewNumberValue(tdError),
	}))
	if err != nil {
		return DiscoverResult{}, err
	}
	added, err := intsField(out, "added")
	if err != nil {
		return DiscoverResult{}, err
	}
	n, err := numberField(out, "features_num")
	if err != nil {
		return DiscoverResult{}, err
	}
	return DiscoverResult{Added: added, FeaturesNum: int(n)}, nil
}

// BatchDiscover runs one batch round and reports whether features were added.
func (c *Client) BatchDiscover(ctx context.Context, samples []Sample) (bool, error) {
	values := make([]*structpb.Value, len(samples))
	for i, s := range samples {
		values[i] = structpb.NewStructValue(newStruct(map[string]*structpb.Value{
			"active":   intsList(s.Active),
			"td_error": structpb.NewNumberValue(s.TDError),
		}))
	}
	out, err := c.invoke(ctx, MethodBatchDiscover, newStruct(map[string]*structpb.Value{
		"samples": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}))
	if err != nil {
		return false, err
	}
	return out.GetFields()["added"].GetBoolValue(), nil
}

// Stats returns growth and cache counters.
func (c *Client) Stats(ctx context.Context) (StatsResult, error) {
	out, err := c.invoke(ctx, MethodStats, newStruct(nil))
	if err != nil {
		return StatsResult{}, err
	}
	f := func(name string) int { return int(out.GetFields()[name].GetNumberValue()) }
	return StatsResult{
		FeaturesNum:        f("features_num"),
		InitialFeaturesNum: f("initial_features_num"),
		ActionsNum:         f("actions_num"),
		Potentials:         f("potentials"),
		Discoveries:        f("discoveries"),
		Vetoes:             f("vetoes"),
		MaxRelevance:       out.GetFields()["max_relevance"].GetNumberValue(),
		CacheHits:          f("cache_hits"),
		CacheMisses:        f("cache_misses"),
		CacheEntries:       f("cache_entries"),
	}, nil
}

// Theta returns the weights.
func (c *Client) Theta(ctx context.Context) (ThetaResult, error) {
	out, err := c.invoke(ctx, MethodTheta, newStruct(nil))
	if err != nil {
		return ThetaResult{}, err
	}
	values, err := floatsField(out, "theta")
	if err != nil {
		return ThetaResult{}, err
	}
	return ThetaResult{
		Values:      values,
		FeaturesNum: int(out.GetFields()["features_num"].GetNumberValue()),
		ActionsNum:  int(out.GetFields()["actions_num"].GetNumberValue()),
	}, nil
}

// SetTheta replaces the weights.
func (c *Client) SetTheta(ctx context.Context, values []float64) error {
	_, err := c.invoke(ctx, MethodSetTheta, newStruct(map[string]*structpb.Value{
		"theta": floatsList(values),
	}))
	return err
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return nil, fmt.Errorf("%s rpc: %w", method, err)
	}
	return out, nil
}

// #endregion calls
