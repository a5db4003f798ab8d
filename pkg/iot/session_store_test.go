package iot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
	_ "liyu1981.xyz/tablet-telemetry-service/pkg/testing"
)

func TestSessionLifecycle_Persisted(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, clock := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	res, err := iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "com.myob.accountright", 0))
	require.NoError(t, err)
	assert.Equal(t, models.SessionStarted, res.SessionState)
	require.Len(t, res.Events, 1)
	sessionID := res.Events[0].SessionID
	assert.NotEmpty(t, sessionID)

	clock.Advance(time.Minute)
	res, err = iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "com.myob.accountright", 300))
	require.NoError(t, err)
	assert.Equal(t, models.SessionTimeoutRisk, res.SessionState)
	assert.True(t, res.TimeoutRisk)
	require.Len(t, res.Events, 1)
	assert.Equal(t, models.EventTimeout, res.Events[0].EventType)
	assert.Equal(t, 300, res.Events[0].Duration)

	clock.Advance(time.Minute)
	res, err = iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "com.myob.accountright", 420))
	require.NoError(t, err)
	assert.True(t, res.TimeoutRisk, "risk is reported on every qualifying sample")
	assert.Empty(t, res.Events, "but stored only once per risk period")

	clock.Advance(time.Minute)
	res, err = iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "com.android.launcher", 0))
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, res.SessionState)
	require.Len(t, res.Events, 1)
	assert.Equal(t, models.EventSessionEnd, res.Events[0].EventType)
	assert.Equal(t, 180, res.Events[0].Duration)

	events, err := iotObj.Session.GetSessionEvents(ctx, "tab1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, sessionID, e.SessionID)
	}

	state, err := iotObj.Session.GetSessionState(ctx, "tab1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, state.State)
	require.NotNil(t, state.EndedAt)
}

func TestSession_OutOfOrderSampleDoesNotTransition(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	_, err := iotObj.ingestAt(ctx, appPayload("tab1", "myob", 0), testEpoch.Add(2*time.Minute))
	require.NoError(t, err)

	res, err := iotObj.ingestAt(ctx, appPayload("tab1", "launcher", 0), testEpoch.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.OutOfOrder)
	assert.Equal(t, 1, res.RecordsStored.AppMetrics, "late samples are still stored")
	assert.Equal(t, models.SessionStarted, res.SessionState)
	assert.Empty(t, res.Events)

	device, err := iotObj.Registry.GetDevice(ctx, "tab1")
	require.NoError(t, err)
	assert.True(t, device.LastSeen.Equal(testEpoch.Add(2*time.Minute)))
}

func TestSession_ReconnectWithinDefaultGrace(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, clock := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	first, err := iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "myob", 0))
	require.NoError(t, err)
	require.Len(t, first.Events, 1)
	sessionID := first.Events[0].SessionID

	clock.Advance(time.Second)
	res, err := iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "com.android.launcher", 0))
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, res.SessionState)

	clock.Advance(time.Second)
	res, err = iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "myob", 0))
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, res.SessionState)
	require.Len(t, res.Events, 1)
	assert.Equal(t, models.EventReconnect, res.Events[0].EventType)
	assert.Equal(t, sessionID, res.Events[0].SessionID)
	assert.Equal(t, 1, res.Events[0].Duration)

	device, err := iotObj.Registry.GetDevice(ctx, "tab1")
	require.NoError(t, err)
	assert.Equal(t, 1, device.TotalSessions)
}

func TestSession_NegativeGraceDisablesReconnect(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, clock := GetTestIOTWithMemorySqliteDialector(t, Options{Session: SessionPolicy{ReconnectGrace: -1}})
	ctx := context.Background()

	_, err := iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "myob", 0))
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "launcher", 0))
	require.NoError(t, err)
	clock.Advance(time.Second)
	res, err := iotObj.Ingestion.Ingest(ctx, appPayload("tab1", "myob", 0))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, models.EventSessionStart, res.Events[0].EventType)
	assert.Equal(t, models.SessionStarted, res.SessionState)
}

func TestSession_CountersFollowEvents(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, clock := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	// start+timeout, recover, timeout again, then end and start fresh after the grace
	for _, step := range []struct {
		fg       string
		inactive int
		advance  time.Duration
	}{
		{"myob", 400, time.Minute},
		{"myob", 10, time.Minute},
		{"myob", 500, time.Minute},
		{"launcher", 0, time.Hour},
		{"myob", 0, 0},
	} {
		_, err := iotObj.Ingestion.Ingest(ctx, appPayload("tab1", step.fg, step.inactive))
		require.NoError(t, err)
		clock.Advance(step.advance)
	}

	device, err := iotObj.Registry.GetDevice(ctx, "tab1")
	require.NoError(t, err)
	assert.Equal(t, 2, device.TotalSessions)
	assert.Equal(t, 2, device.TotalTimeouts)
}

func TestSession_UnknownDeviceHasNoSession(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{})

	state, err := iotObj.Session.GetSessionState(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, models.SessionNone, state.State)
}
