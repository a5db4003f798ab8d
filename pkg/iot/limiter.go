package iot

import (
	"sync"

	"golang.org/x/time/rate"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

// RateLimiterStore manages per-device rate limiters: device_id -> rate limiter.
// Ids are normalized the same way ingestion does, so a tablet cannot dodge
// its limit by changing case or spacing.
type RateLimiterStore struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(deviceID string) *rate.Limiter {
	deviceID = NormalizeDeviceID(deviceID)

	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[deviceID]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[deviceID] = limiter
	}
	return limiter
}

func (s *RateLimiterStore) SetLimiter(deviceID string, deviceRate rate.Limit, deviceBurst int) {
	deviceID = NormalizeDeviceID(deviceID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[deviceID] = rate.NewLimiter(deviceRate, deviceBurst)
}

// Allow takes one token from the device's bucket. A nil store allows
// everything.
func (s *RateLimiterStore) Allow(deviceID string) bool {
	if s == nil {
		return true
	}
	return s.GetLimiter(deviceID).Allow()
}

// Restore installs persisted overrides, typically once at startup.
func (s *RateLimiterStore) Restore(configs []models.LimiterConfig) {
	for _, c := range configs {
		s.SetLimiter(c.DeviceID, rate.Limit(c.Rate), c.Burst)
	}
}
