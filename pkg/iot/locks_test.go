package iot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceLockStore_Exclusive(t *testing.T) {
	store := NewDeviceLockStore()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := store.Acquire(context.Background(), "d1", time.Second)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestDeviceLockStore_Timeout(t *testing.T) {
	store := NewDeviceLockStore()

	release, err := store.Acquire(context.Background(), "d1", time.Second)
	require.NoError(t, err)
	defer release()

	_, err = store.Acquire(context.Background(), "d1", 20*time.Millisecond)
	var lt *LockTimeoutError
	require.ErrorAs(t, err, &lt)
	assert.Equal(t, "d1", lt.DeviceID)
	assert.True(t, IsRetryable(err))

	// other devices are independent
	other, err := store.Acquire(context.Background(), "d2", 20*time.Millisecond)
	require.NoError(t, err)
	other()
}

func TestDeviceLockStore_CancelledContext(t *testing.T) {
	store := NewDeviceLockStore()

	release, err := store.Acquire(context.Background(), "d1", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Acquire(ctx, "d1", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeviceLockStore_ReleaseTwice(t *testing.T) {
	store := NewDeviceLockStore()

	release, err := store.Acquire(context.Background(), "d1", time.Second)
	require.NoError(t, err)
	release()
	release()

	again, err := store.Acquire(context.Background(), "d1", 20*time.Millisecond)
	require.NoError(t, err)
	again()
}
