package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
)

const (
	ingestTimeout = 10 * time.Second
	subscribeQos  = 1
)

type ClientConfig struct {
	Broker   string
	ClientID string
}

// Connect opens an auto-reconnecting client to the broker.
func Connect(config ClientConfig) (paho.Client, error) {
	logger := common.GetLoggerWith(common.LoggerNameMqttSubscriber)

	opts := paho.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("Connected to broker", zap.String("broker", config.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("Connection lost", zap.Error(err))
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// Subscriber feeds telemetry published on tablets/<device_id>/telemetry into
// the ingestion engine. It shares the HTTP server's per-device limits.
type Subscriber struct {
	client   paho.Client
	topic    string
	iot      *iot.IOT
	limiters *iot.RateLimiterStore
}

func NewSubscriber(client paho.Client, topic string, iotCore *iot.IOT, limiters *iot.RateLimiterStore) *Subscriber {
	return &Subscriber{
		client:   client,
		topic:    topic,
		iot:      iotCore,
		limiters: limiters,
	}
}

func (s *Subscriber) Subscribe() error {
	token := s.client.Subscribe(s.topic, subscribeQos, s.HandleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.topic, token.Error())
	}
	common.GetLoggerWith(common.LoggerNameMqttSubscriber).Info("Subscribed", zap.String("topic", s.topic))
	return nil
}

func (s *Subscriber) Close() {
	s.client.Unsubscribe(s.topic).Wait()
	s.client.Disconnect(250)
}

// DeviceIDFromTopic returns the segment after the first one, or "" if the
// topic has fewer than three segments.
func DeviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

func (s *Subscriber) HandleMessage(_ paho.Client, msg paho.Message) {
	_, _ = s.handle(context.Background(), msg)
}

func (s *Subscriber) handle(ctx context.Context, msg paho.Message) (*iot.IngestResult, error) {
	logger := common.GetLoggerWith(common.LoggerNameMqttSubscriber, zap.String("topic", msg.Topic()))

	var payload iot.Payload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		logger.Info("Dropped malformed message", zap.Error(err))
		return nil, err
	}

	if topicID := DeviceIDFromTopic(msg.Topic()); payload.DeviceID == "" {
		payload.DeviceID = topicID
	} else if topicID != "" && iot.NormalizeDeviceID(topicID) != iot.NormalizeDeviceID(payload.DeviceID) {
		logger.Warn("Topic and payload disagree on device id, using payload",
			zap.String("topic_device_id", topicID),
			zap.String("device_id", payload.DeviceID))
	}

	if !s.limiters.Allow(payload.DeviceID) {
		logger.Warn("Dropped rate limited message", zap.String("device_id", payload.DeviceID))
		return nil, fmt.Errorf("rate limit exceeded for device %s", payload.DeviceID)
	}

	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	result, err := s.iot.Ingestion.Ingest(ctx, &payload)
	if err != nil {
		if iot.IsValidationError(err) {
			logger.Info("Dropped invalid message", zap.Error(err))
		} else {
			logger.Warn("Ingestion failed", zap.Bool("retryable", iot.IsRetryable(err)), zap.Error(err))
		}
		return nil, err
	}
	return result, nil
}
