package iot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

func (i *IOT) ingest(ctx context.Context, p *Payload) (*IngestResult, error) {
	// receipt time is taken before waiting on the device lock, so a request
	// that loses the race for the lock is seen as the older one
	return i.ingestAt(ctx, p, i.Clock.Now().UTC())
}

func (i *IOT) ingestAt(ctx context.Context, p *Payload, receivedAt time.Time) (*IngestResult, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTIngest),
	)

	if p == nil {
		return nil, &ValidationError{Field: "payload", Value: nil, Reason: "is required"}
	}
	payload := *p
	payload.DeviceID = NormalizeDeviceID(p.DeviceID)

	if err := ValidatePayload(&payload); err != nil {
		logger.Info("Rejected payload", zap.String("device_id", payload.DeviceID), zap.Error(err))
		return nil, err
	}

	release, err := i.Locks.Acquire(ctx, payload.DeviceID, i.Options.LockTimeout)
	if err != nil {
		logger.Warn("Device lock not acquired", zap.String("device_id", payload.DeviceID), zap.Error(err))
		return nil, err
	}
	defer release()

	storeCtx, cancel := context.WithTimeout(ctx, i.Options.StoreTimeout)
	defer cancel()

	result := &IngestResult{
		DeviceID:   payload.DeviceID,
		ReceivedAt: receivedAt,
		Events:     []models.SessionEvent{},
	}

	err = i.Db.Conn.WithContext(storeCtx).Transaction(func(tx *gorm.DB) error {
		created, err := i.Registry.UpsertDevice(tx, &models.Device{
			DeviceID:       payload.DeviceID,
			DeviceName:     payload.DeviceName,
			Location:       payload.Location,
			AndroidVersion: payload.AndroidVersion,
			AppVersion:     payload.AppVersion,
		}, receivedAt)
		if err != nil {
			return err
		}
		result.DeviceCreated = created

		var foreground *string
		if payload.AppMetrics != nil {
			foreground = payload.AppMetrics.AppForeground
		}
		result.DetectionResult = i.Detector.Detect(foreground, payload.SessionHints)

		counts, err := i.Metric.AppendMetrics(tx, payload.DeviceID, receivedAt, &payload, result.DetectionResult)
		if err != nil {
			return err
		}

		// a repeated app sample was evaluated when it first arrived
		if payload.AppMetrics != nil && counts.AppMetrics > 0 {
			inactive := 0
			if payload.AppMetrics.InactiveSeconds != nil {
				inactive = *payload.AppMetrics.InactiveSeconds
			}
			outcome, err := i.Session.EvaluateSession(tx, payload.DeviceID, Observation{
				MyobActive:      result.DetectionResult.MyobActive,
				InactiveSeconds: inactive,
				ReceivedAt:      receivedAt,
			})
			if err != nil {
				return err
			}
			result.SessionState = outcome.State
			result.TimeoutRisk = outcome.AtRisk
			result.OutOfOrder = outcome.OutOfOrder
			result.Events = outcome.Events
			counts.SessionEvents = len(outcome.Events)
		} else {
			var state models.DeviceSession
			if err := tx.Where("device_id = ?", payload.DeviceID).Limit(1).Find(&state).Error; err != nil {
				return err
			}
			result.SessionState = state.State
			if result.SessionState == "" {
				result.SessionState = models.SessionNone
			}
			result.TimeoutRisk = state.State == models.SessionTimeoutRisk
		}

		result.RecordsStored = counts
		hasSamples := payload.DeviceMetrics != nil || payload.NetworkMetrics != nil || payload.AppMetrics != nil
		result.Duplicate = hasSamples && counts.Total() == 0
		return nil
	})
	if err != nil {
		logger.Error("Ingestion rolled back", zap.String("device_id", payload.DeviceID), zap.Error(err))
		return nil, &StoreError{DeviceID: payload.DeviceID, Err: err}
	}

	if result.Duplicate {
		logger.Info("Duplicate payload ignored", zap.String("device_id", payload.DeviceID))
	} else {
		logger.Info("Ingested payload",
			zap.String("device_id", payload.DeviceID),
			zap.Reflect("records", result.RecordsStored),
			zap.String("session_state", string(result.SessionState)),
			zap.Bool("timeout_risk", result.TimeoutRisk))
	}

	return result, nil
}

type IIngestImpl struct {
	iot *IOT
}

func (ii *IIngestImpl) Ingest(ctx context.Context, payload *Payload) (*IngestResult, error) {
	return ii.iot.ingest(ctx, payload)
}

func (i *IOT) GetIIngest() IIngest {
	return &IIngestImpl{iot: i}
}
