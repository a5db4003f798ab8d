package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
)

// CreateRateLimitInterceptor limits the listed methods by the request's
// device_id field. Requests without one are left to the handler to reject.
func (s *TelemetryServer) CreateRateLimitInterceptor(targetMethods []string) grpc.UnaryServerInterceptor {
	targetMethodMap := common.Reducer(targetMethods,
		func(m map[string]bool, method string) map[string]bool {
			m[method] = true
			return m
		},
		map[string]bool{},
	)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if targetMethodMap[info.FullMethod] {
			if r, ok := req.(*structpb.Struct); ok {
				deviceID := r.GetFields()["device_id"].GetStringValue()
				if deviceID != "" && !s.CheckDeviceLimiter(deviceID) {
					return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
				}
			}
		}

		return handler(ctx, req)
	}
}
