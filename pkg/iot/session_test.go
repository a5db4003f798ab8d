package iot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

func observe(myob bool, inactive int, at time.Time) Observation {
	return Observation{MyobActive: myob, InactiveSeconds: inactive, ReceivedAt: at}
}

func eventTypes(step Step) []models.SessionEventType {
	types := make([]models.SessionEventType, 0, len(step.Events))
	for _, e := range step.Events {
		types = append(types, e.Type)
	}
	return types
}

func TestTransition_StartActiveRiskRecover(t *testing.T) {
	policy := DefaultSessionPolicy()
	at := testEpoch

	step := Transition(models.DeviceSession{DeviceID: "d1"}, observe(true, 0, at), policy)
	assert.True(t, step.NewSession)
	assert.Equal(t, models.SessionStarted, step.Next.State)
	assert.Equal(t, []models.SessionEventType{models.EventSessionStart}, eventTypes(step))
	assert.Equal(t, at, step.Next.StartedAt)
	assert.False(t, step.AtRisk)

	cur := step.Next
	cur.SessionID = "s1"

	at = at.Add(time.Minute)
	step = Transition(cur, observe(true, 299, at), policy)
	assert.Equal(t, models.SessionActive, step.Next.State)
	assert.Empty(t, step.Events)
	assert.False(t, step.AtRisk, "299s is below the threshold")
	cur = step.Next

	at = at.Add(time.Minute)
	step = Transition(cur, observe(true, 300, at), policy)
	assert.Equal(t, models.SessionTimeoutRisk, step.Next.State)
	require.Len(t, step.Events, 1)
	assert.Equal(t, PendingEvent{Type: models.EventTimeout, Duration: 300}, step.Events[0])
	assert.True(t, step.AtRisk)
	assert.Equal(t, "s1", step.Next.SessionID)
	cur = step.Next

	// staying at risk reports risk but records nothing new
	at = at.Add(time.Minute)
	step = Transition(cur, observe(true, 360, at), policy)
	assert.Equal(t, models.SessionTimeoutRisk, step.Next.State)
	assert.Empty(t, step.Events)
	assert.True(t, step.AtRisk)
	assert.False(t, step.Changed(cur))
	cur = step.Next

	at = at.Add(30 * time.Second)
	step = Transition(cur, observe(true, 5, at), policy)
	assert.Equal(t, models.SessionActive, step.Next.State)
	require.Len(t, step.Events, 1)
	assert.Equal(t, PendingEvent{Type: models.EventReconnect, Duration: 90}, step.Events[0])
	assert.False(t, step.AtRisk)
	assert.Nil(t, step.Next.RiskSince)
}

func TestTransition_FirstSampleAlreadyRisky(t *testing.T) {
	step := Transition(models.DeviceSession{}, observe(true, 600, testEpoch), DefaultSessionPolicy())

	assert.True(t, step.NewSession)
	assert.Equal(t, models.SessionTimeoutRisk, step.Next.State)
	assert.Equal(t, []models.SessionEventType{models.EventSessionStart, models.EventTimeout}, eventTypes(step))
	assert.True(t, step.AtRisk)
}

func TestTransition_EndAndReconnectWithinGrace(t *testing.T) {
	policy := DefaultSessionPolicy()
	started := testEpoch
	cur := models.DeviceSession{
		DeviceID:      "d1",
		State:         models.SessionActive,
		SessionID:     "s1",
		StartedAt:     started,
		LastEvaluated: started,
	}

	endAt := started.Add(10 * time.Minute)
	step := Transition(cur, observe(false, 0, endAt), policy)
	assert.Equal(t, models.SessionEnded, step.Next.State)
	require.Len(t, step.Events, 1)
	assert.Equal(t, PendingEvent{Type: models.EventSessionEnd, Duration: 600}, step.Events[0])
	require.NotNil(t, step.Next.EndedAt)
	cur = step.Next

	// a closed app stays closed without more events
	step = Transition(cur, observe(false, 0, endAt.Add(10*time.Second)), policy)
	assert.Equal(t, models.SessionEnded, step.Next.State)
	assert.Empty(t, step.Events)
	cur = step.Next

	step = Transition(cur, observe(true, 0, endAt.Add(time.Minute)), policy)
	assert.False(t, step.NewSession)
	assert.Equal(t, models.SessionActive, step.Next.State)
	assert.Equal(t, "s1", step.Next.SessionID)
	assert.Equal(t, []models.SessionEventType{models.EventReconnect}, eventTypes(step))
	assert.Nil(t, step.Next.EndedAt)
}

func TestTransition_NewSessionAfterGrace(t *testing.T) {
	policy := DefaultSessionPolicy()
	endedAt := testEpoch
	cur := models.DeviceSession{
		DeviceID:  "d1",
		State:     models.SessionEnded,
		SessionID: "s1",
		EndedAt:   &endedAt,
	}

	step := Transition(cur, observe(true, 0, endedAt.Add(policy.ReconnectGrace+time.Second)), policy)
	assert.True(t, step.NewSession)
	assert.Equal(t, models.SessionStarted, step.Next.State)
	assert.Equal(t, []models.SessionEventType{models.EventSessionStart}, eventTypes(step))
}

func TestTransition_NoSessionWithoutMyob(t *testing.T) {
	step := Transition(models.DeviceSession{}, observe(false, 900, testEpoch), DefaultSessionPolicy())

	assert.Equal(t, models.SessionNone, step.Next.State)
	assert.Empty(t, step.Events)
	assert.False(t, step.AtRisk)
	assert.Equal(t, testEpoch, step.Next.LastEvaluated)
}

func TestTransition_RiskEndsOnClose(t *testing.T) {
	riskSince := testEpoch.Add(time.Minute)
	cur := models.DeviceSession{
		State:     models.SessionTimeoutRisk,
		SessionID: "s1",
		StartedAt: testEpoch,
		RiskSince: &riskSince,
	}

	step := Transition(cur, observe(false, 400, testEpoch.Add(2*time.Minute)), DefaultSessionPolicy())
	assert.Equal(t, models.SessionEnded, step.Next.State)
	assert.Equal(t, []models.SessionEventType{models.EventSessionEnd}, eventTypes(step))
	assert.Nil(t, step.Next.RiskSince)
	assert.False(t, step.AtRisk)
}

func TestTransition_CustomThreshold(t *testing.T) {
	policy := SessionPolicy{RiskThreshold: time.Minute}
	cur := models.DeviceSession{State: models.SessionActive, SessionID: "s1"}

	step := Transition(cur, observe(true, 60, testEpoch), policy)
	assert.Equal(t, models.SessionTimeoutRisk, step.Next.State)
}
