package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are google.protobuf.Struct documents with the same JSON shapes as
// the REST API.
const (
	TelemetryService_Ingest_FullMethodName           = "/telemetry.TelemetryService/Ingest"
	TelemetryService_GetAnalytics_FullMethodName     = "/telemetry.TelemetryService/GetAnalytics"
	TelemetryService_ListDevices_FullMethodName      = "/telemetry.TelemetryService/ListDevices"
	TelemetryService_PostLimiter_FullMethodName      = "/telemetry.TelemetryService/PostLimiter"
	TelemetryService_GetSessionIssues_FullMethodName = "/telemetry.TelemetryService/GetSessionIssues"
)

type TelemetryServiceServer interface {
	Ingest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAnalytics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDevices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostLimiter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSessionIssues(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterTelemetryServiceServer(s grpc.ServiceRegistrar, srv TelemetryServiceServer) {
	s.RegisterService(&TelemetryService_ServiceDesc, srv)
}

func unaryHandler(
	fullMethod string,
	call func(TelemetryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TelemetryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TelemetryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var TelemetryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "telemetry.TelemetryService",
	HandlerType: (*TelemetryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ingest",
			Handler:    unaryHandler(TelemetryService_Ingest_FullMethodName, TelemetryServiceServer.Ingest),
		},
		{
			MethodName: "GetAnalytics",
			Handler:    unaryHandler(TelemetryService_GetAnalytics_FullMethodName, TelemetryServiceServer.GetAnalytics),
		},
		{
			MethodName: "ListDevices",
			Handler:    unaryHandler(TelemetryService_ListDevices_FullMethodName, TelemetryServiceServer.ListDevices),
		},
		{
			MethodName: "PostLimiter",
			Handler:    unaryHandler(TelemetryService_PostLimiter_FullMethodName, TelemetryServiceServer.PostLimiter),
		},
		{
			MethodName: "GetSessionIssues",
			Handler:    unaryHandler(TelemetryService_GetSessionIssues_FullMethodName, TelemetryServiceServer.GetSessionIssues),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "telemetry.proto",
}

type TelemetryServiceClient interface {
	Ingest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAnalytics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListDevices(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	PostLimiter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetSessionIssues(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type telemetryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTelemetryServiceClient(cc grpc.ClientConnInterface) TelemetryServiceClient {
	return &telemetryServiceClient{cc}
}

func (c *telemetryServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *telemetryServiceClient) Ingest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TelemetryService_Ingest_FullMethodName, in, opts...)
}

func (c *telemetryServiceClient) GetAnalytics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TelemetryService_GetAnalytics_FullMethodName, in, opts...)
}

func (c *telemetryServiceClient) ListDevices(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TelemetryService_ListDevices_FullMethodName, in, opts...)
}

func (c *telemetryServiceClient) PostLimiter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TelemetryService_PostLimiter_FullMethodName, in, opts...)
}

func (c *telemetryServiceClient) GetSessionIssues(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TelemetryService_GetSessionIssues_FullMethodName, in, opts...)
}
