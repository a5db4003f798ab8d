package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
)

const (
	DBTypeFile   = "file"
	DBTypeMemory = "memory"

	DefaultHTTPHostPort = ":1080"
	DefaultMQTTTopic    = "tablets/+/telemetry"
	DefaultMQTTClientID = "tablet-telemetry-service"
	DefaultNATSSubject  = "telemetry.analytics"
)

// Config is everything cmd/server needs, read once from the environment.
// Empty GRPCHostPort, MQTTBroker or NATSURL switches that adapter off.
type Config struct {
	DBType       string
	DBPath       string
	HTTPHostPort string
	GRPCHostPort string

	DefaultRate  float64
	DefaultBurst int

	AnalyticsInterval time.Duration

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	NATSURL     string
	NATSSubject string

	IOT iot.Options
}

var (
	dbTypeSchema   = z.String().Required().OneOf([]string{DBTypeFile, DBTypeMemory})
	rateSchema     = z.Float64().Required().GT(0)
	burstSchema    = z.Int().Required().GTE(1)
	thresholdRange = z.Int().Required().GTE(1).LTE(86400)
)

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be a duration like 30s or 5m: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s, should be positive: %v", key, d)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be an int value: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be a float64 value: %w", key, err)
	}
	return f, nil
}

// Load reads the environment (after godotenv has filled it) and applies the
// service defaults for anything unset.
func Load() (*Config, error) {
	var err error
	opts := iot.DefaultOptions()

	cfg := &Config{
		DBType:       env(common.EnvKeyIOTDBType, DBTypeMemory),
		DBPath:       env(common.EnvKeyIOTDbPath, "telemetry.db"),
		HTTPHostPort: env(common.EnvKeyIOTHttpHostPort, DefaultHTTPHostPort),
		GRPCHostPort: env(common.EnvKeyIOTGrpcHostPort, ""),
		MQTTBroker:   env(common.EnvKeyIOTMqttBroker, ""),
		MQTTTopic:    env(common.EnvKeyIOTMqttTopic, DefaultMQTTTopic),
		MQTTClientID: env(common.EnvKeyIOTMqttClientID, DefaultMQTTClientID),
		NATSURL:      env(common.EnvKeyIOTNatsURL, ""),
		NATSSubject:  env(common.EnvKeyIOTNatsSubject, DefaultNATSSubject),
	}
	if len(dbTypeSchema.Validate(&cfg.DBType)) != 0 {
		return nil, fmt.Errorf("unknown %s: %q", common.EnvKeyIOTDBType, cfg.DBType)
	}

	if cfg.DefaultRate, err = envFloat(common.EnvKeyIOTDefaultRate, 2); err != nil {
		return nil, err
	}
	if len(rateSchema.Validate(&cfg.DefaultRate)) != 0 {
		return nil, fmt.Errorf("invalid %s, should be greater than 0", common.EnvKeyIOTDefaultRate)
	}
	if cfg.DefaultBurst, err = envInt(common.EnvKeyIOTDefaultBurst, 10); err != nil {
		return nil, err
	}
	if len(burstSchema.Validate(&cfg.DefaultBurst)) != 0 {
		return nil, fmt.Errorf("invalid %s, should be at least 1", common.EnvKeyIOTDefaultBurst)
	}

	thresholdSeconds, err := envInt(common.EnvKeyIOTTimeoutRiskSeconds, int(opts.Session.RiskThreshold/time.Second))
	if err != nil {
		return nil, err
	}
	if len(thresholdRange.Validate(&thresholdSeconds)) != 0 {
		return nil, fmt.Errorf("invalid %s, should be between 1 and 86400", common.EnvKeyIOTTimeoutRiskSeconds)
	}
	opts.Session.RiskThreshold = time.Duration(thresholdSeconds) * time.Second

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{common.EnvKeyIOTStalenessWindow, &opts.StalenessWindow},
		{common.EnvKeyIOTRiskStalenessWindow, &opts.RiskStalenessWindow},
		{common.EnvKeyIOTReconnectGrace, &opts.Session.ReconnectGrace},
		{common.EnvKeyIOTLockTimeout, &opts.LockTimeout},
		{common.EnvKeyIOTStoreTimeout, &opts.StoreTimeout},
	}
	for _, d := range durations {
		if *d.target, err = envDuration(d.key, *d.target); err != nil {
			return nil, err
		}
	}
	if cfg.AnalyticsInterval, err = envDuration(common.EnvKeyIOTAnalyticsInterval, iot.DefaultAnalyticsInterval); err != nil {
		return nil, err
	}

	if path := env(common.EnvKeyIOTDetectionPatternsFile, ""); path != "" {
		if opts.Patterns, err = iot.LoadDetectionPatterns(path); err != nil {
			return nil, err
		}
	}

	cfg.IOT = opts
	return cfg, nil
}
