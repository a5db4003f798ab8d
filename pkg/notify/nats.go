package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

// Publisher is the part of *nats.Conn used here.
type Publisher interface {
	Publish(subj string, data []byte) error
}

type NatsConfig struct {
	URL               string
	Name              string
	ReconnectInterval time.Duration
	MaxReconnects     int
}

func NewNatsConn(config NatsConfig) (*nats.Conn, error) {
	logger := common.GetLoggerWith(common.LoggerNameNatsPublisher)

	if config.ReconnectInterval <= 0 {
		config.ReconnectInterval = 2 * time.Second
	}
	if config.MaxReconnects == 0 {
		config.MaxReconnects = -1
	}

	nc, err := nats.Connect(config.URL,
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectInterval),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", config.URL, err)
	}
	return nc, nil
}

// Attach republishes every changed analytics snapshot on subject as JSON.
// The returned function detaches it again.
func Attach(notifier *iot.Notifier, publisher Publisher, subject string) (detach func()) {
	logger := common.GetLoggerWith(common.LoggerNameNatsPublisher, zap.String("subject", subject))

	return notifier.OnSnapshotChanged(func(snapshot models.AnalyticsSnapshot) {
		data, err := json.Marshal(snapshot)
		if err != nil {
			logger.Error("Failed to encode snapshot", zap.Error(err))
			return
		}
		if err := publisher.Publish(subject, data); err != nil {
			logger.Warn("Failed to publish snapshot", zap.Error(err))
			return
		}
		logger.Debug("Published snapshot", zap.Int("total_devices", snapshot.TotalDevices))
	})
}
