package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielpatrickdp/ifdd/internal/ifdd"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server
// Server serves one engine. Calls are serialized because the engine has a
// single owner.
type Server struct {
	mu     sync.Mutex
	engine *ifdd.Engine
	logger *slog.Logger
}

var _ RepresentationServer = (*Server)(nil)

// NewServer wraps e.
func NewServer(e *ifdd.Engine, logger *slog.Logger) *Server {
	return &Server{engine: e, logger: logger}
}

// WithEngine runs fn while holding the engine, e.g. to snapshot it.
func (s *Server) WithEngine(fn func(*ifdd.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// #endregion server

// #region handlers
// Resolve maps {"active_base": [...]} to {"active": [...]}.
func (s *Server) Resolve(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	base, err := intsField(in, "active_base")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	active, err := s.engine.ActiveFeatures(base)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]*structpb.Value{
		"active": intsList(active),
	}), nil
}

// Discover credits {"td_error": x} to {"active": [...]} and returns the new features.
func (s *Server) Discover(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	active, err := intsField(in, "active")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	td, err := numberField(in, "td_error")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added, err := s.engine.Discover(active, td)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]*structpb.Value{
		"added":        intsList(added),
		"features_num": structpb.NewNumberValue(float64(s.engine.FeaturesNum())),
	}), nil
}

// BatchDiscover runs one batch round over {"samples": [{"active": [...], "td_error": x}, ...]}.
func (s *Server) BatchDiscover(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	samples := in.GetFields()["samples"].GetListValue()
	if samples == nil || len(samples.GetValues()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "field \"samples\" must be a non-empty list")
	}
	sets := make([][]int, 0, len(samples.GetValues()))
	errs := make([]float64, 0, len(samples.GetValues()))
	for i, v := range samples.GetValues() {
		sample := v.GetStructValue()
		if sample == nil {
			return nil, status.Errorf(codes.InvalidArgument, "samples[%d] must be an object", i)
		}
		active, err := intsField(sample, "active")
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "samples[%d]: %v", i, err)
		}
		td, err := numberField(sample, "td_error")
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "samples[%d]: %v", i, err)
		}
		sets = append(sets, active)
		errs = append(errs, td)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	phi, err := s.engine.PhiMatrix(sets)
	if err != nil {
		return nil, toStatus(err)
	}
	added, err := s.engine.BatchDiscover(errs, phi)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]*structpb.Value{
		"added":        structpb.NewBoolValue(added),
		"features_num": structpb.NewNumberValue(float64(s.engine.FeaturesNum())),
	}), nil
}

// Stats reports growth and cache counters.
func (s *Server) Stats(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	st := s.engine.Stats()
	s.mu.Unlock()
	return newStruct(map[string]*structpb.Value{
		"features_num":         structpb.NewNumberValue(float64(st.FeaturesNum)),
		"initial_features_num": structpb.NewNumberValue(float64(st.InitialFeaturesNum)),
		"actions_num":          structpb.NewNumberValue(float64(st.ActionsNum)),
		"potentials":           structpb.NewNumberValue(float64(st.Potentials)),
		"discoveries":          structpb.NewNumberValue(float64(st.Discoveries)),
		"vetoes":               structpb.NewNumberValue(float64(st.Vetoes)),
		"max_relevance":        structpb.NewNumberValue(st.MaxRelevance),
		"cache_hits":           structpb.NewNumberValue(float64(st.Cache.Hits)),
		"cache_misses":         structpb.NewNumberValue(float64(st.Cache.Misses)),
		"cache_entries":        structpb.NewNumberValue(float64(st.Cache.Entries)),
	}), nil
}

// Theta returns a copy of the weights, action-major.
func (s *Server) Theta(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newStruct(map[string]*structpb.Value{
		"theta":        floatsList(s.engine.Theta()),
		"features_num": structpb.NewNumberValue(float64(s.engine.FeaturesNum())),
		"actions_num":  structpb.NewNumberValue(float64(s.engine.ActionsNum())),
	}), nil
}

// SetTheta replaces the weights with {"theta": [...]}. The length must match the
// current features_num times actions_num.
func (s *Server) SetTheta(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	values, err := floatsField(in, "theta")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetTheta(values); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return newStruct(map[string]*structpb.Value{
		"features_num": structpb.NewNumberValue(float64(s.engine.FeaturesNum())),
	}), nil
}

// #endregion handlers

// #region errors
func toStatus(err error) error {
	switch {
	case errors.Is(err, ifdd.ErrShapeMismatch), errors.Is(err, ifdd.ErrIndexOutOfRange):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// #endregion errors

// #region interceptor
// UnaryLogger logs every call with its method, status code and latency.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "rpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed", time.Since(start),
		)
		return resp, err
	}
}

// #endregion interceptor

// NewGRPCServer builds a gRPC server with the logging interceptor and registers srv.
func NewGRPCServer(srv *Server, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryLogger(logger)))
	gs := grpc.NewServer(opts...)
	RegisterRepresentationServer(gs, srv)
	return gs
}

// String describes the served representation.
func (s *Server) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s features=%d actions=%d", ServiceName, s.engine.FeaturesNum(), s.engine.ActionsNum())
}
