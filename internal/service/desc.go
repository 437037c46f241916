// Package service exposes an ifdd engine over gRPC. Messages are
// google.protobuf.Struct values so the wire contract needs no generated code.
package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ifdd.v1.Representation"

// Method names.
const (
	MethodResolve       = "Resolve"
	MethodDiscover      = "Discover"
	MethodBatchDiscover = "BatchDiscover"
	MethodStats         = "Stats"
	MethodTheta         = "Theta"
	MethodSetTheta      = "SetTheta"
)

// #region server-interface
// RepresentationServer is the server side of ifdd.v1.Representation.
type RepresentationServer interface {
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Discover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BatchDiscover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Theta(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetTheta(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRepresentationServer attaches srv to a gRPC server.
func RegisterRepresentationServer(s grpc.ServiceRegistrar, srv RepresentationServer) {
	s.RegisterService(&serviceDesc, srv)
}

// #endregion server-interface

// #region service-desc
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RepresentationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodResolve, Handler: unary(MethodResolve, RepresentationServer.Resolve)},
		{MethodName: MethodDiscover, Handler: unary(MethodDiscover, RepresentationServer.Discover)},
		{MethodName: MethodBatchDiscover, Handler: unary(MethodBatchDiscover, RepresentationServer.BatchDiscover)},
		{MethodName: MethodStats, Handler: unary(MethodStats, RepresentationServer.Stats)},
		{MethodName: MethodTheta, Handler: unary(MethodTheta, RepresentationServer.Theta)},
		{MethodName: MethodSetTheta, Handler: unary(MethodSetTheta, RepresentationServer.SetTheta)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ifdd/v1/representation.proto",
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary(method string, call func(RepresentationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RepresentationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RepresentationServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion service-desc
