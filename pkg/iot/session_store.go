package iot

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

type SessionOutcome struct {
	State      models.SessionState
	SessionID  string
	Events     []models.SessionEvent
	AtRisk     bool
	OutOfOrder bool
}

func (i *IOT) evaluateSession(tx *gorm.DB, deviceID string, obs Observation) (*SessionOutcome, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTSession),
	)

	obs.ReceivedAt = obs.ReceivedAt.UTC()

	var cur models.DeviceSession
	if err := tx.Where("device_id = ?", deviceID).Limit(1).Find(&cur).Error; err != nil {
		return nil, err
	}
	if cur.DeviceID == "" {
		cur = models.DeviceSession{DeviceID: deviceID, State: models.SessionNone}
	}

	if obs.ReceivedAt.Before(cur.LastEvaluated) {
		logger.Info("Out-of-order sample stored without transition",
			zap.String("device_id", deviceID),
			zap.Time("received_at", obs.ReceivedAt),
			zap.Time("last_evaluated", cur.LastEvaluated))
		return &SessionOutcome{
			State:      cur.State,
			SessionID:  cur.SessionID,
			AtRisk:     cur.State == models.SessionTimeoutRisk,
			OutOfOrder: true,
		}, nil
	}

	step := Transition(cur, obs, i.Options.Session)
	next := step.Next
	if step.NewSession {
		next.SessionID = uuid.NewString()
	}

	events := make([]models.SessionEvent, 0, len(step.Events))
	for _, pending := range step.Events {
		events = append(events, models.SessionEvent{
			DeviceID:   deviceID,
			SessionID:  next.SessionID,
			EventType:  pending.Type,
			Duration:   pending.Duration,
			ReceivedAt: obs.ReceivedAt,
		})
	}
	if len(events) > 0 {
		if err := tx.Create(&events).Error; err != nil {
			return nil, err
		}
		if err := i.bumpSessionCounters(tx, deviceID, events); err != nil {
			return nil, err
		}
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		UpdateAll: true,
	}).Create(&next).Error
	if err != nil {
		return nil, err
	}

	if step.Changed(cur) {
		logger.Info("Session transition",
			zap.String("device_id", deviceID),
			zap.String("session_id", next.SessionID),
			zap.String("from", string(cur.State)),
			zap.String("to", string(next.State)),
			zap.Int("events", len(events)))
	}

	return &SessionOutcome{
		State:     next.State,
		SessionID: next.SessionID,
		Events:    events,
		AtRisk:    step.AtRisk,
	}, nil
}

func (i *IOT) getSessionState(ctx context.Context, deviceID string) (*models.DeviceSession, error) {
	var state models.DeviceSession
	err := i.Db.Conn.WithContext(ctx).First(&state, "device_id = ?", deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DeviceSession{DeviceID: deviceID, State: models.SessionNone}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (i *IOT) listSessionStates(ctx context.Context) ([]models.DeviceSession, error) {
	var states []models.DeviceSession
	err := i.Db.Conn.WithContext(ctx).Find(&states).Error
	return states, err
}

func (i *IOT) getSessionEvents(ctx context.Context, deviceID string) ([]models.SessionEvent, error) {
	var events []models.SessionEvent
	err := i.Db.Conn.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("id").
		Find(&events).Error
	return events, err
}

type ISessionImpl struct {
	iot *IOT
}

func (is *ISessionImpl) EvaluateSession(tx *gorm.DB, deviceID string, obs Observation) (*SessionOutcome, error) {
	return is.iot.evaluateSession(tx, deviceID, obs)
}

func (is *ISessionImpl) GetSessionState(ctx context.Context, deviceID string) (*models.DeviceSession, error) {
	return is.iot.getSessionState(ctx, deviceID)
}

func (is *ISessionImpl) ListSessionStates(ctx context.Context) ([]models.DeviceSession, error) {
	return is.iot.listSessionStates(ctx)
}

func (is *ISessionImpl) GetSessionEvents(ctx context.Context, deviceID string) ([]models.SessionEvent, error) {
	return is.iot.getSessionEvents(ctx, deviceID)
}

func (i *IOT) GetISession() ISession {
	return &ISessionImpl{iot: i}
}
