package grpc

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
)

type TelemetryServer struct {
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
}

// NewGrpcServer registers a TelemetryServer with the per-device rate limit
// applied to the write methods.
func NewGrpcServer(iotCore *iot.IOT, limiters *iot.RateLimiterStore, opts ...grpc.ServerOption) *grpc.Server {
	ts := &TelemetryServer{Iot: iotCore, RateLimiterStore: limiters}
	opts = append(opts, grpc.UnaryInterceptor(ts.CreateRateLimitInterceptor([]string{
		TelemetryService_Ingest_FullMethodName,
	})))
	server := grpc.NewServer(opts...)
	RegisterTelemetryServiceServer(server, ts)
	return server
}

func (s *TelemetryServer) CheckDeviceLimiter(deviceID string) bool {
	return s.RateLimiterStore.Allow(deviceID)
}

// toStruct round-trips v through JSON so the Struct carries exactly what the
// REST API would have returned.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(in *structpb.Struct, out any) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func toStatus(err error) error {
	var ve *iot.ValidationError
	var lt *iot.LockTimeoutError
	var se *iot.StoreError

	switch {
	case errors.As(err, &ve):
		return status.Errorf(codes.InvalidArgument, "%v", ve)
	case errors.As(err, &lt):
		return status.Errorf(codes.ResourceExhausted, "%v", lt)
	case errors.As(err, &se):
		return status.Errorf(codes.Unavailable, "%v", se)
	case iot.IsAggregationUnavailable(err):
		return status.Error(codes.Unavailable, "data unavailable")
	case errors.Is(err, iot.ErrDeviceNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Unhandled error", zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	}
}
