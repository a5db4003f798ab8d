package iot

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

const (
	lowBatteryLevel    = 20
	lowBatteryPenalty  = 30
	offlinePenalty     = 40
	quietDevicePenalty = 20
)

// deviceReading is one device as the aggregator sees it at call time.
type deviceReading struct {
	device  models.Device
	latest  LatestMetrics
	session models.DeviceSession
	online  bool
}

// readFleet loads the registry, each device's latest samples and session
// state. Any store error comes back as *AggregationUnavailableError.
func (i *IOT) readFleet(ctx context.Context, now time.Time, window time.Duration) ([]deviceReading, error) {
	devices, err := i.Registry.ListDevices(ctx)
	if err != nil {
		return nil, &AggregationUnavailableError{Err: err}
	}

	states, err := i.Session.ListSessionStates(ctx)
	if err != nil {
		return nil, &AggregationUnavailableError{Err: err}
	}
	byDevice := make(map[string]models.DeviceSession, len(states))
	for _, s := range states {
		byDevice[s.DeviceID] = s
	}

	readings := make([]deviceReading, 0, len(devices))
	for _, d := range devices {
		latest, err := i.Metric.LatestMetrics(ctx, d.DeviceID)
		if err != nil {
			return nil, &AggregationUnavailableError{Err: err}
		}
		if latest == nil {
			latest = &LatestMetrics{}
		}
		session, ok := byDevice[d.DeviceID]
		if !ok {
			session = models.DeviceSession{DeviceID: d.DeviceID, State: models.SessionNone}
		}
		readings = append(readings, deviceReading{
			device:  d,
			latest:  *latest,
			session: session,
			online:  IsOnline(&d, now, window),
		})
	}
	return readings, nil
}

func (i *IOT) compute(ctx context.Context, window time.Duration) (*models.AnalyticsSnapshot, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAnalytics),
	)

	if window <= 0 {
		window = i.Options.StalenessWindow
	}
	now := i.Clock.Now().UTC()

	readings, err := i.readFleet(ctx, now, window)
	if err != nil {
		logger.Error("Analytics unavailable", zap.Error(err))
		return nil, err
	}

	snapshot := models.AnalyticsSnapshot{
		TotalDevices:  len(readings),
		WindowSeconds: int(window / time.Second),
		GeneratedAt:   now,
	}

	var batterySum, batteryCount int
	for _, r := range readings {
		if r.latest.Device != nil && r.latest.Device.BatteryLevel != nil {
			batterySum += *r.latest.Device.BatteryLevel
			batteryCount++
		}
		if r.online {
			snapshot.OnlineDevices++
		} else {
			snapshot.OfflineDevices++
		}
		// session and scanner counts cover the whole registry, not only online devices
		if r.session.State.IsOpen() {
			snapshot.MyobActiveCount++
		}
		if r.session.State == models.SessionTimeoutRisk {
			snapshot.TimeoutRiskCount++
		}
		if r.latest.App != nil && r.latest.App.ScannerActive {
			snapshot.ScannerActiveCount++
		}
	}
	if batteryCount > 0 {
		avg := math.Round(float64(batterySum)/float64(batteryCount)*100) / 100
		snapshot.AvgBattery = &avg
	}

	// only the configured window feeds subscribers, so ad hoc windows never
	// flip the change detector back and forth
	if i.Notifier != nil && window == i.Options.StalenessWindow && i.Notifier.Publish(snapshot) {
		logger.Info("Analytics snapshot changed", zap.Reflect("snapshot", snapshot))
	}
	return &snapshot, nil
}

// HealthScore starts at 100 and subtracts penalties for a low battery, an
// offline device and a device that has been quiet for longer than
// riskWindow. It never goes below zero.
func HealthScore(battery *int, online bool, lastSeen, now time.Time, riskWindow time.Duration) int {
	score := 100
	if battery != nil && *battery < lowBatteryLevel {
		score -= lowBatteryPenalty
	}
	if !online {
		score -= offlinePenalty
	}
	if now.Sub(lastSeen) > riskWindow {
		score -= quietDevicePenalty
	}
	return max(score, 0)
}

func (i *IOT) listDeviceViews(ctx context.Context) ([]models.DeviceView, error) {
	now := i.Clock.Now().UTC()
	readings, err := i.readFleet(ctx, now, i.Options.StalenessWindow)
	if err != nil {
		return nil, err
	}

	return common.Mapper(readings, func(r deviceReading) models.DeviceView {
		view := models.DeviceView{
			DeviceID:       r.device.DeviceID,
			DeviceName:     r.device.DeviceName,
			Location:       r.device.Location,
			AndroidVersion: r.device.AndroidVersion,
			AppVersion:     r.device.AppVersion,
			FirstSeen:      r.device.FirstSeen,
			LastSeen:       r.device.LastSeen,
			IsActive:       r.online,
			Status:         models.DeviceStatusOffline,
			SessionState:   r.session.State,
			SessionID:      r.session.SessionID,
			TimeoutRisk:    r.session.State == models.SessionTimeoutRisk,
			TotalSessions:  r.device.TotalSessions,
			TotalTimeouts:  r.device.TotalTimeouts,
		}
		if r.online {
			view.Status = models.DeviceStatusOnline
		}
		if m := r.latest.Device; m != nil {
			view.BatteryLevel = m.BatteryLevel
			view.CPUUsage = m.CPUUsage
		}
		if m := r.latest.Network; m != nil {
			view.WifiSignalStrength = m.WifiSignalStrength
			view.ConnectivityStatus = &m.ConnectivityStatus
		}
		if m := r.latest.App; m != nil {
			view.ScreenState = &m.ScreenState
			view.AppForeground = m.AppForeground
			view.InactiveSeconds = &m.InactiveSeconds
			view.MyobActive = m.MyobActive
			view.ScannerActive = m.ScannerActive
		}
		view.HealthScore = HealthScore(view.BatteryLevel, r.online, r.device.LastSeen, now, i.Options.RiskStalenessWindow)
		return view
	}), nil
}

type IAnalyticsImpl struct {
	iot *IOT
}

func (ia *IAnalyticsImpl) Compute(ctx context.Context, window time.Duration) (*models.AnalyticsSnapshot, error) {
	return ia.iot.compute(ctx, window)
}

func (ia *IAnalyticsImpl) ListDeviceViews(ctx context.Context) ([]models.DeviceView, error) {
	return ia.iot.listDeviceViews(ctx)
}

func (ia *IAnalyticsImpl) SessionIssues(ctx context.Context, deviceID string, hours int) (*models.SessionIssuesReport, error) {
	return ia.iot.sessionIssues(ctx, deviceID, hours)
}

func (i *IOT) GetIAnalytics() IAnalytics {
	return &IAnalyticsImpl{iot: i}
}
