package iot

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

func TestRateLimiterStore_Basic(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	limiter := store.GetLimiter("tablet1")
	require.NotNil(t, limiter)
	assert.Equal(t, rate.Limit(1), limiter.Limit())
	assert.Equal(t, 2, limiter.Burst())
}

func TestRateLimiterStore_CustomLimit(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	store.SetLimiter("Front Desk", 5, 10)
	limiter := store.GetLimiter("front_desk")

	assert.Equal(t, rate.Limit(5), limiter.Limit(), "ids are normalized before lookup")
	assert.Equal(t, 10, limiter.Burst())
}

func TestRateLimiterStore_Concurrency(t *testing.T) {
	store := NewRateLimiterStore(10, 5)
	deviceID := uuid.NewString()

	var wg sync.WaitGroup
	limiters := make(chan *rate.Limiter, 100)

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiters <- store.GetLimiter(deviceID)
		}()
	}
	wg.Wait()
	close(limiters)

	first := store.GetLimiter(deviceID)
	for l := range limiters {
		assert.Same(t, first, l)
	}
}

func TestRateLimiter_Enforcement(t *testing.T) {
	store := NewRateLimiterStore(2, 2) // 2 events/sec

	deviceID := uuid.NewString()

	assert.True(t, store.Allow(deviceID))
	assert.True(t, store.Allow(deviceID))
	assert.False(t, store.Allow(deviceID), "expected third call to be rate limited")

	// Wait for refill
	time.Sleep(600 * time.Millisecond)
	assert.True(t, store.Allow(deviceID), "expected one token to be available after refill")
}

func TestRateLimiterStore_NilAllowsAll(t *testing.T) {
	var store *RateLimiterStore
	for range 10 {
		assert.True(t, store.Allow("tablet1"))
	}
}

func TestRateLimiterStore_Restore(t *testing.T) {
	store := NewRateLimiterStore(1, 1)
	store.Restore([]models.LimiterConfig{
		{DeviceID: "tablet1", Rate: 7, Burst: 3},
		{DeviceID: "tablet2", Rate: 0.5, Burst: 1},
	})

	assert.Equal(t, rate.Limit(7), store.GetLimiter("tablet1").Limit())
	assert.Equal(t, 3, store.GetLimiter("tablet1").Burst())
	assert.Equal(t, rate.Limit(0.5), store.GetLimiter("tablet2").Limit())
	assert.Equal(t, rate.Limit(1), store.GetLimiter("tablet3").Limit())
}
