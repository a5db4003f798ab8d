package grpc

import (
	"context"
	"fmt"
	"time"

	z "github.com/Oudwins/zog"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

func (s *TelemetryServer) Ingest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var payload iot.Payload
	if err := fromStruct(req, &payload); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed payload: %v", err)
	}

	result, err := s.Iot.Ingestion.Ingest(ctx, &payload)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

type analyticsRequest struct {
	WindowSeconds int `json:"window_seconds"`
}

func (s *TelemetryServer) GetAnalytics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r analyticsRequest
	if err := fromStruct(req, &r); err != nil || r.WindowSeconds < 0 {
		return nil, status.Error(codes.InvalidArgument, "window_seconds must not be negative")
	}

	snapshot, err := s.Iot.Analytics.Compute(ctx, time.Duration(r.WindowSeconds)*time.Second)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(snapshot)
}

func (s *TelemetryServer) ListDevices(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	views, err := s.Iot.Analytics.ListDeviceViews(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if views == nil {
		views = []models.DeviceView{}
	}
	return toStruct(map[string]any{"devices": views})
}

type sessionIssuesRequest struct {
	DeviceID string `json:"device_id"`
	Hours    int    `json:"hours"`
}

var sessionIssuesHoursSchema = z.Int().GTE(0).LTE(24 * 30)

func (s *TelemetryServer) GetSessionIssues(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r sessionIssuesRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	// zero means the default period
	if len(sessionIssuesHoursSchema.Validate(&r.Hours)) != 0 {
		return nil, status.Error(codes.InvalidArgument, "hours must be between 1 and 720")
	}

	report, err := s.Iot.Analytics.SessionIssues(ctx, r.DeviceID, r.Hours)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(report)
}

type limiterRequest struct {
	DeviceID string  `json:"device_id"`
	Rate     float64 `json:"rate"`
	Burst    int     `json:"burst"`
}

var limiterRequestValidator = z.Struct(z.Shape{
	"DeviceID": z.String().Min(1).Max(50).Required(),
	"Rate":     z.Float64().Required().GT(0),
	"Burst":    z.Int().Required().GTE(1),
})

func (s *TelemetryServer) PostLimiter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r limiterRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if errs := limiterRequestValidator.Validate(&r); len(errs) != 0 {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("validation error: %v", errs))
	}

	config := models.LimiterConfig{DeviceID: iot.NormalizeDeviceID(r.DeviceID), Rate: r.Rate, Burst: r.Burst}
	if config.DeviceID == "" {
		return nil, status.Error(codes.InvalidArgument, "validation error: device_id is required")
	}
	if err := s.Iot.Config.UpsertLimiterConfig(ctx, &config); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	applied := s.RateLimiterStore != nil
	if applied {
		s.RateLimiterStore.SetLimiter(config.DeviceID, rate.Limit(config.Rate), config.Burst)
	}
	return toStruct(map[string]any{
		"device_id": config.DeviceID,
		"rate":      config.Rate,
		"burst":     config.Burst,
		"applied":   applied,
	})
}
