package iot

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError rejects a whole payload. The caller fixes the named field
// and resubmits; the engine never retries it.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s=%v %s", e.Field, e.Value, e.Reason)
}

// LockTimeoutError means the device's critical section stayed busy for the
// whole budget. Retryable.
type LockTimeoutError struct {
	DeviceID string
	Waited   time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("device %s busy: lock not acquired within %v", e.DeviceID, e.Waited)
}

// StoreError wraps a failed or timed-out write of one ingestion unit. Nothing
// of the unit was committed. Retryable.
type StoreError struct {
	DeviceID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store write for device %s failed: %v", e.DeviceID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// AggregationUnavailableError is returned instead of a snapshot whenever a
// read dependency fails.
type AggregationUnavailableError struct {
	Err error
}

func (e *AggregationUnavailableError) Error() string {
	return fmt.Sprintf("aggregation unavailable: %v", e.Err)
}

func (e *AggregationUnavailableError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAggregationUnavailable(err error) bool {
	var ae *AggregationUnavailableError
	return errors.As(err, &ae)
}

// IsRetryable reports whether resubmitting the same payload later may succeed.
func IsRetryable(err error) bool {
	var lt *LockTimeoutError
	var se *StoreError
	return errors.As(err, &lt) || errors.As(err, &se)
}
