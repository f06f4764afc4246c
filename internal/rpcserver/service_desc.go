package rpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// pluginServiceDesc hand-registers the Plugin service described in
// proto/omniled.proto directly against *Server, standing in for the
// protoc-gen-go-grpc-generated ServiceDesc that would normally back
// this binding (protoc is not invoked in this build).
var pluginServiceDesc = grpc.ServiceDesc{
	ServiceName: "omniled.Plugin",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Event",
			Handler:    eventHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Log",
			Handler:       logHandler,
			ClientStreams: true,
		},
	},
	Metadata: "omniled.proto",
}

func eventHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(structpb.Struct)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.event(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/omniled.Plugin/Event"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.event(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

func logHandler(srv any, stream grpc.ServerStream) error {
	return srv.(*Server).logStream(stream)
}
