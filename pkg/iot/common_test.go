package iot

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/db"
)

var testEpoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// GetTestIOTWithMemorySqliteDialector returns an engine on its own in-memory
// database, driven by a manual clock that starts at testEpoch.
func GetTestIOTWithMemorySqliteDialector(t *testing.T, opts Options) (*IOT, *common.ManualClock) {
	t.Helper()

	dbInstance, err := db.NewInstance(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbInstance.Close() })

	clock := common.NewManualClock(testEpoch)
	opts.Clock = clock
	return New(dbInstance, opts), clock
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

// findLog returns the first captured entry whose msg equals msg.
func findLog(logs []any, msg string) map[string]any {
	for _, l := range logs {
		if m, ok := l.(map[string]any); ok && m["msg"] == msg {
			return m
		}
	}
	return nil
}

func appPayload(deviceID, foreground string, inactive int) *Payload {
	return &Payload{
		DeviceID: deviceID,
		AppMetrics: &AppMetrics{
			ScreenState:     "active",
			AppForeground:   common.Ptr(foreground),
			InactiveSeconds: common.Ptr(inactive),
		},
	}
}
