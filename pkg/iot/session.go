package iot

import (
	"time"

	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

// SessionPolicy holds the thresholds of the session state machine.
type SessionPolicy struct {
	// RiskThreshold is the inactivity at which an open session becomes a
	// timeout risk.
	RiskThreshold time.Duration
	// ReconnectGrace is how long after session_end a returning MYOB
	// foreground reopens the same session instead of starting a new one.
	// Zero disables reconnects.
	ReconnectGrace time.Duration
}

func DefaultSessionPolicy() SessionPolicy {
	return SessionPolicy{
		RiskThreshold:  300 * time.Second,
		ReconnectGrace: 2 * time.Minute,
	}
}

// Observation is what one ingestion tells the state machine.
type Observation struct {
	MyobActive      bool
	InactiveSeconds int
	ReceivedAt      time.Time
}

// PendingEvent is an event the transition wants recorded. The caller assigns
// the session id for session_start.
type PendingEvent struct {
	Type     models.SessionEventType
	Duration int
}

// Step is the outcome of one transition.
type Step struct {
	Next   models.DeviceSession
	Events []PendingEvent
	// AtRisk is level-triggered: true for every observation made while the
	// session sits in TIMEOUT_RISK, even when no event is stored.
	AtRisk bool
	// NewSession asks the caller for a fresh session id.
	NewSession bool
}

// Changed reports whether the step has anything to persist besides the
// evaluation timestamp.
func (s Step) Changed(cur models.DeviceSession) bool {
	return len(s.Events) > 0 || s.Next.State != cur.State
}

func seconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Transition computes the next session state of a device. It is pure: it
// reads cur and obs and touches nothing else. cur.State == "" is NO_SESSION.
func Transition(cur models.DeviceSession, obs Observation, policy SessionPolicy) Step {
	next := cur
	if next.State == "" {
		next.State = models.SessionNone
	}
	next.LastEvaluated = obs.ReceivedAt

	risky := time.Duration(obs.InactiveSeconds)*time.Second >= policy.RiskThreshold
	step := Step{}

	emit := func(t models.SessionEventType, duration int) {
		step.Events = append(step.Events, PendingEvent{Type: t, Duration: duration})
		next.LastEvent = t
	}
	enterRisk := func() {
		next.State = models.SessionTimeoutRisk
		at := obs.ReceivedAt
		next.RiskSince = &at
		emit(models.EventTimeout, obs.InactiveSeconds)
	}

	if !obs.MyobActive {
		if next.State.IsOpen() {
			next.State = models.SessionEnded
			ended := obs.ReceivedAt
			next.EndedAt = &ended
			next.RiskSince = nil
			emit(models.EventSessionEnd, seconds(obs.ReceivedAt.Sub(cur.StartedAt)))
		}
		step.Next = next
		return step
	}

	switch next.State {
	case models.SessionNone, models.SessionEnded:
		withinGrace := policy.ReconnectGrace > 0 && next.State == models.SessionEnded && next.EndedAt != nil &&
			obs.ReceivedAt.Sub(*next.EndedAt) <= policy.ReconnectGrace
		if withinGrace {
			emit(models.EventReconnect, seconds(obs.ReceivedAt.Sub(*next.EndedAt)))
			next.State = models.SessionActive
			next.EndedAt = nil
			if risky {
				enterRisk()
			}
			break
		}

		step.NewSession = true
		next.State = models.SessionStarted
		next.StartedAt = obs.ReceivedAt
		next.EndedAt = nil
		next.RiskSince = nil
		emit(models.EventSessionStart, 0)
		if risky {
			enterRisk()
		}

	case models.SessionStarted, models.SessionActive:
		if risky {
			enterRisk()
		} else {
			next.State = models.SessionActive
		}

	case models.SessionTimeoutRisk:
		if !risky {
			var atRisk int
			if cur.RiskSince != nil {
				atRisk = seconds(obs.ReceivedAt.Sub(*cur.RiskSince))
			}
			next.State = models.SessionActive
			next.RiskSince = nil
			emit(models.EventReconnect, atRisk)
		}
	}

	step.Next = next
	step.AtRisk = next.State == models.SessionTimeoutRisk
	return step
}
