package iot

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

const (
	DefaultSessionIssueHours = 24
	weakSignalThreshold      = -70
)

type average struct {
	sum   float64
	count int
}

func (a *average) add(v float64) {
	a.sum += v
	a.count++
}

func (a average) value() *float64 {
	if a.count == 0 {
		return nil
	}
	v := math.Round(a.sum/float64(a.count)*100) / 100
	return &v
}

type issueAccumulator struct {
	row      models.SessionIssueRow
	sessions map[string]struct{}
	days     map[string]struct{}
	battery  average
	wifi     average
}

func (a *issueAccumulator) touch(at time.Time) {
	at = at.UTC()
	if a.row.LastActivity == nil || at.After(*a.row.LastActivity) {
		a.row.LastActivity = &at
	}
}

type networkAccumulator struct {
	row    models.NetworkCorrelationRow
	signal average
	ssids  map[string]struct{}
}

// scopedFind loads rows of one family received since the cut-off, narrowed to
// a single device when deviceID is set.
func scopedFind[T any](conn *gorm.DB, deviceID string, since time.Time) ([]T, error) {
	var rows []T
	q := conn.Where("received_at >= ?", since)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	err := q.Order("id").Find(&rows).Error
	return rows, err
}

// sessionIssues reports, per device, the session events and device/network
// samples received in the last hours. session_analysis only lists devices
// with activity in the period; network_correlation lists every registered
// device in scope.
func (i *IOT) sessionIssues(ctx context.Context, deviceID string, hours int) (*models.SessionIssuesReport, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAnalytics),
	)

	if hours <= 0 {
		hours = DefaultSessionIssueHours
	}
	deviceID = NormalizeDeviceID(deviceID)
	now := i.Clock.Now().UTC()
	since := now.Add(-time.Duration(hours) * time.Hour)
	conn := i.Db.Conn.WithContext(ctx)

	report := &models.SessionIssuesReport{
		SessionAnalysis:     []models.SessionIssueRow{},
		NetworkCorrelation:  []models.NetworkCorrelationRow{},
		AnalysisPeriodHours: hours,
		GeneratedAt:         now,
	}

	unavailable := func(err error) error {
		logger.Error("Session issues unavailable", zap.Error(err))
		return &AggregationUnavailableError{Err: err}
	}

	devices, err := i.Registry.ListDevices(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	events, err := scopedFind[models.SessionEvent](conn, deviceID, since)
	if err != nil {
		return nil, unavailable(err)
	}
	deviceRows, err := scopedFind[models.DeviceMetric](conn, deviceID, since)
	if err != nil {
		return nil, unavailable(err)
	}
	networkRows, err := scopedFind[models.NetworkMetric](conn, deviceID, since)
	if err != nil {
		return nil, unavailable(err)
	}
	fillSessionIssues(report, devices, deviceID, events, deviceRows, networkRows)

	logger.Debug("Computed session issues",
		zap.String("device_id", deviceID),
		zap.Int("hours", hours),
		zap.Int("devices", len(report.SessionAnalysis)))
	return report, nil
}

func fillSessionIssues(
	report *models.SessionIssuesReport,
	devices []models.Device,
	deviceID string,
	events []models.SessionEvent,
	deviceRows []models.DeviceMetric,
	networkRows []models.NetworkMetric,
) {
	issues := map[string]*issueAccumulator{}
	networks := map[string]*networkAccumulator{}
	for _, d := range devices {
		if deviceID != "" && d.DeviceID != deviceID {
			continue
		}
		issues[d.DeviceID] = &issueAccumulator{
			row: models.SessionIssueRow{
				DeviceID:   d.DeviceID,
				DeviceName: d.DeviceName,
				Location:   d.Location,
			},
			sessions: map[string]struct{}{},
			days:     map[string]struct{}{},
		}
		networks[d.DeviceID] = &networkAccumulator{
			row:   models.NetworkCorrelationRow{DeviceID: d.DeviceID},
			ssids: map[string]struct{}{},
		}
	}

	for _, e := range events {
		acc, ok := issues[e.DeviceID]
		if !ok {
			continue
		}
		acc.row.EventCount++
		if e.SessionID != "" {
			acc.sessions[e.SessionID] = struct{}{}
		}
		switch e.EventType {
		case models.EventSessionStart, models.EventLogin:
			acc.row.StartCount++
		case models.EventTimeout:
			acc.row.TimeoutCount++
		case models.EventReconnect:
			acc.row.ReconnectCount++
		}
		acc.days[e.ReceivedAt.UTC().Format(time.DateOnly)] = struct{}{}
		acc.touch(e.ReceivedAt)
	}

	for _, m := range deviceRows {
		acc, ok := issues[m.DeviceID]
		if !ok {
			continue
		}
		if m.BatteryLevel != nil {
			acc.battery.add(float64(*m.BatteryLevel))
		}
		acc.touch(m.ReceivedAt)
	}

	for _, m := range networkRows {
		acc, ok := issues[m.DeviceID]
		if !ok {
			continue
		}
		net := networks[m.DeviceID]
		if m.WifiSignalStrength != nil {
			acc.wifi.add(float64(*m.WifiSignalStrength))
			net.signal.add(float64(*m.WifiSignalStrength))
			if *m.WifiSignalStrength < weakSignalThreshold {
				net.row.WeakSignalCount++
			}
		}
		if m.ConnectivityStatus == models.ConnectivityOffline {
			net.row.OfflineCount++
		}
		if m.WifiSSID != nil {
			net.ssids[*m.WifiSSID] = struct{}{}
		}
		acc.touch(m.ReceivedAt)
	}

	for _, acc := range issues {
		if acc.row.LastActivity == nil {
			continue
		}
		acc.row.UniqueSessions = len(acc.sessions)
		acc.row.ActiveDays = len(acc.days)
		acc.row.AvgBattery = acc.battery.value()
		acc.row.AvgWifiSignal = acc.wifi.value()
		report.SessionAnalysis = append(report.SessionAnalysis, acc.row)
	}
	sort.Slice(report.SessionAnalysis, func(a, b int) bool {
		ra, rb := report.SessionAnalysis[a], report.SessionAnalysis[b]
		if ra.EventCount != rb.EventCount {
			return ra.EventCount > rb.EventCount
		}
		if ra.TimeoutCount != rb.TimeoutCount {
			return ra.TimeoutCount > rb.TimeoutCount
		}
		return ra.DeviceID < rb.DeviceID
	})

	for _, net := range networks {
		net.row.AvgSignalStrength = net.signal.value()
		net.row.NetworkCount = len(net.ssids)
		report.NetworkCorrelation = append(report.NetworkCorrelation, net.row)
	}
	sort.Slice(report.NetworkCorrelation, func(a, b int) bool {
		return report.NetworkCorrelation[a].DeviceID < report.NetworkCorrelation[b].DeviceID
	})
}
