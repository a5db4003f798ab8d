package iot

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
	_ "liyu1981.xyz/tablet-telemetry-service/pkg/testing"
)

func countRows(t *testing.T, iotObj *IOT, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, iotObj.Db.Conn.Model(model).Count(&n).Error)
	return n
}

func TestIngest_FullPayload(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{})

	p := fullPayload()
	p.DeviceID = "  Front Desk 1 "
	res, err := iotObj.Ingestion.Ingest(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "front_desk_1", res.DeviceID)
	assert.True(t, res.DeviceCreated)
	assert.False(t, res.Duplicate)
	assert.True(t, res.ReceivedAt.Equal(testEpoch))
	assert.Equal(t, RecordCounts{DeviceMetrics: 1, NetworkMetrics: 1, AppMetrics: 1, SessionEvents: 1}, res.RecordsStored)
	assert.Equal(t, Detection{MyobActive: true, ScannerActive: true}, res.DetectionResult)
	assert.Equal(t, models.SessionStarted, res.SessionState)

	latest, err := iotObj.Metric.LatestMetrics(context.Background(), "front_desk_1")
	require.NoError(t, err)
	require.NotNil(t, latest.Network)
	require.NotNil(t, latest.Network.IPAddress)
	assert.Equal(t, "fe80::1ff:fe23:4567:890a", *latest.Network.IPAddress)
	require.NotNil(t, latest.Device.SampledAt)
	assert.True(t, latest.Device.SampledAt.Equal(testEpoch))
	require.NotNil(t, latest.App)
	assert.True(t, latest.App.MyobActive)
	assert.True(t, latest.App.ScannerActive)
}

func TestIngest_RejectedPayloadWritesNothing(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{})

	p := fullPayload()
	p.DeviceMetrics.BatteryLevel = common.Ptr(150)
	_, err := iotObj.Ingestion.Ingest(context.Background(), p)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "battery_level")

	for _, model := range []any{&models.Device{}, &models.DeviceMetric{}, &models.NetworkMetric{}, &models.AppMetric{}, &models.SessionEvent{}, &models.DeviceSession{}} {
		assert.Zero(t, countRows(t, iotObj, model))
	}

	_, err = iotObj.Ingestion.Ingest(context.Background(), nil)
	assert.True(t, IsValidationError(err))
}

func TestIngest_SamePayloadTwiceEmitsOnce(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, clock := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	ts := testEpoch
	p := appPayload("tab1", "myob", 0)
	p.AppMetrics.Timestamp = &ts

	first, err := iotObj.Ingestion.Ingest(ctx, p)
	require.NoError(t, err)
	require.Len(t, first.Events, 1)

	clock.Advance(5 * time.Second)
	second, err := iotObj.Ingestion.Ingest(ctx, p)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Empty(t, second.Events)
	assert.Equal(t, models.SessionStarted, second.SessionState)

	assert.Equal(t, int64(1), countRows(t, iotObj, &models.SessionEvent{}))
	assert.Equal(t, int64(1), countRows(t, iotObj, &models.AppMetric{}))
}

// replaySessionEvents walks events in id order and fails on any event the
// state machine could not have produced from the state before it.
func replaySessionEvents(t *testing.T, events []models.SessionEvent) (open, atRisk bool) {
	t.Helper()
	ended := false
	for _, e := range events {
		switch e.EventType {
		case models.EventSessionStart:
			require.False(t, open, "session_start while open (event %d)", e.ID)
			open, atRisk, ended = true, false, false
		case models.EventTimeout:
			require.True(t, open && !atRisk, "timeout outside an open, unflagged session (event %d)", e.ID)
			atRisk = true
		case models.EventReconnect:
			require.True(t, atRisk || (ended && !open), "reconnect with nothing to resume (event %d)", e.ID)
			if atRisk {
				atRisk = false
			} else {
				open, ended = true, false
			}
		case models.EventSessionEnd:
			require.True(t, open, "session_end without an open session (event %d)", e.ID)
			open, atRisk, ended = false, false, true
		default:
			t.Fatalf("unexpected event type %q", e.EventType)
		}
	}
	return open, atRisk
}

func TestIngest_ConcurrentSameDevice(t *testing.T) {
	common.SetTestLoggerNop()

	// the clock never moves, so every request shares one receipt time
	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{LockTimeout: 10 * time.Second})
	ctx := context.Background()

	payloads := func(i int) *Payload {
		switch i % 4 {
		case 0:
			return appPayload("tab1", "myob", 5)
		case 1:
			return appPayload("tab1", "myob", 400)
		case 2:
			return appPayload("tab1", "com.android.launcher", 0)
		default:
			return appPayload("tab1", "myob", 30)
		}
	}

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := iotObj.Ingestion.Ingest(ctx, payloads(i))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(n), countRows(t, iotObj, &models.AppMetric{}), "untimed samples are all kept")
	assert.Equal(t, int64(1), countRows(t, iotObj, &models.Device{}))

	events, err := iotObj.Session.GetSessionEvents(ctx, "tab1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventSessionStart, events[0].EventType)

	open, atRisk := replaySessionEvents(t, events)

	state, err := iotObj.Session.GetSessionState(ctx, "tab1")
	require.NoError(t, err)
	switch {
	case open && atRisk:
		assert.Equal(t, models.SessionTimeoutRisk, state.State)
	case open:
		assert.True(t, state.State == models.SessionStarted || state.State == models.SessionActive, "state %s", state.State)
	default:
		assert.Equal(t, models.SessionEnded, state.State)
	}

	// every close happened inside the grace window, so one session id spans all events
	for _, e := range events {
		assert.Equal(t, events[0].SessionID, e.SessionID)
	}

	device, err := iotObj.Registry.GetDevice(ctx, "tab1")
	require.NoError(t, err)
	assert.True(t, device.LastSeen.Equal(testEpoch))
	assert.Equal(t, 1, device.TotalSessions)
}

func TestIngest_ConcurrentSameDeviceDistinctReceipts(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{LockTimeout: 10 * time.Second})
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			at := testEpoch.Add(time.Duration(i) * time.Second)
			fg := "myob"
			if i%5 == 4 {
				fg = "com.android.launcher"
			}
			_, err := iotObj.ingestAt(ctx, appPayload("tab1", fg, (i%3)*200), at)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(n), countRows(t, iotObj, &models.AppMetric{}))

	events, err := iotObj.Session.GetSessionEvents(ctx, "tab1")
	require.NoError(t, err)
	replaySessionEvents(t, events)

	device, err := iotObj.Registry.GetDevice(ctx, "tab1")
	require.NoError(t, err)
	assert.True(t, device.LastSeen.Equal(testEpoch.Add((n-1)*time.Second)))
}

func TestIngest_ConcurrentDevices(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{LockTimeout: 10 * time.Second})
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := iotObj.Ingestion.Ingest(ctx, &Payload{
				DeviceID:      fmt.Sprintf("tab%02d", i),
				DeviceMetrics: &DeviceMetrics{BatteryLevel: common.Ptr(50)},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	devices, err := iotObj.Registry.ListDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, n)
}

func TestIngest_LockTimeout(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{LockTimeout: 20 * time.Millisecond})

	release, err := iotObj.Locks.Acquire(context.Background(), "tab1", time.Second)
	require.NoError(t, err)
	defer release()

	_, err = iotObj.Ingestion.Ingest(context.Background(), &Payload{DeviceID: "TAB1"})
	var lt *LockTimeoutError
	require.ErrorAs(t, err, &lt)
	assert.True(t, IsRetryable(err))
	assert.Zero(t, countRows(t, iotObj, &models.Device{}))
}

func TestIngest_StoreFailureRollsBack(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{})

	// dropping a metric table makes the append fail after the registry write
	require.NoError(t, iotObj.Db.Conn.Migrator().DropTable(&models.NetworkMetric{}))

	_, err := iotObj.Ingestion.Ingest(context.Background(), fullPayload())
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.True(t, IsRetryable(err))

	assert.Zero(t, countRows(t, iotObj, &models.Device{}), "registry write is rolled back")
	assert.Zero(t, countRows(t, iotObj, &models.DeviceMetric{}))
	assert.Zero(t, countRows(t, iotObj, &models.AppMetric{}))
}

func TestIngest_Logs(t *testing.T) {
	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	defer common.SetTestLoggerNop()

	iotObj, clock := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	ts := testEpoch
	p := &Payload{DeviceID: "tab1", DeviceMetrics: &DeviceMetrics{BatteryLevel: common.Ptr(10), Timestamp: &ts}}
	_, err := iotObj.Ingestion.Ingest(ctx, p)
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = iotObj.Ingestion.Ingest(ctx, p)
	require.NoError(t, err)

	logs := ParseLogs(&buf)

	registered := findLog(logs, "Registered device")
	require.NotNil(t, registered)
	assert.Equal(t, "registry", registered["category"])
	assert.Equal(t, "tab1", registered["device_id"])

	ingested := findLog(logs, "Ingested payload")
	require.NotNil(t, ingested)
	assert.Equal(t, "ingest", ingested["category"])

	assert.NotNil(t, findLog(logs, "Duplicate payload ignored"))
}
