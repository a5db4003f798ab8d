package iot

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DeviceLockStore hands out one single-holder semaphore per device:
// device_id -> semaphore. Different devices never wait on each other.
type DeviceLockStore struct {
	locks map[string]*semaphore.Weighted
	mu    sync.Mutex
}

func NewDeviceLockStore() *DeviceLockStore {
	return &DeviceLockStore{
		locks: make(map[string]*semaphore.Weighted),
	}
}

func (s *DeviceLockStore) get(deviceID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.locks[deviceID]
	if !exists {
		lock = semaphore.NewWeighted(1)
		s.locks[deviceID] = lock
	}
	return lock
}

// Acquire blocks until the device's critical section is free, timeout
// elapses or ctx is done. A timeout yields *LockTimeoutError; a cancelled
// ctx yields ctx.Err().
func (s *DeviceLockStore) Acquire(ctx context.Context, deviceID string, timeout time.Duration) (release func(), err error) {
	lock := s.get(deviceID)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := lock.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &LockTimeoutError{DeviceID: deviceID, Waited: timeout}
		}
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { lock.Release(1) }) }, nil
}
