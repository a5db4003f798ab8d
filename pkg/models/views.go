package models

import "time"

type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

// AnalyticsSnapshot is a derived rollup. It is never read back as the source
// of any other record.
type AnalyticsSnapshot struct {
	TotalDevices       int       `json:"total_devices"`
	OnlineDevices      int       `json:"online_devices"`
	OfflineDevices     int       `json:"offline_devices"`
	AvgBattery         *float64  `json:"avg_battery"`
	MyobActiveCount    int       `json:"myob_active_count"`
	ScannerActiveCount int       `json:"scanner_active_count"`
	TimeoutRiskCount   int       `json:"timeout_risk_count"`
	WindowSeconds      int       `json:"window_seconds"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// SameCounts compares every counted field, ignoring GeneratedAt.
func (s AnalyticsSnapshot) SameCounts(o AnalyticsSnapshot) bool {
	if s.TotalDevices != o.TotalDevices ||
		s.OnlineDevices != o.OnlineDevices ||
		s.OfflineDevices != o.OfflineDevices ||
		s.MyobActiveCount != o.MyobActiveCount ||
		s.ScannerActiveCount != o.ScannerActiveCount ||
		s.TimeoutRiskCount != o.TimeoutRiskCount ||
		s.WindowSeconds != o.WindowSeconds {
		return false
	}
	if (s.AvgBattery == nil) != (o.AvgBattery == nil) {
		return false
	}
	return s.AvgBattery == nil || *s.AvgBattery == *o.AvgBattery
}

// DeviceView merges a registry row with its latest samples and the derived
// status fields for the dashboard.
type DeviceView struct {
	DeviceID       string    `json:"device_id"`
	DeviceName     string    `json:"device_name"`
	Location       string    `json:"location"`
	AndroidVersion string    `json:"android_version"`
	AppVersion     string    `json:"app_version"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	IsActive       bool      `json:"is_active"`

	Status      DeviceStatus `json:"status"`
	HealthScore int          `json:"health_score"`

	BatteryLevel       *int                `json:"battery_level"`
	CPUUsage           *float64            `json:"cpu_usage"`
	WifiSignalStrength *int                `json:"wifi_signal_strength"`
	ConnectivityStatus *ConnectivityStatus `json:"connectivity_status"`
	ScreenState        *ScreenState        `json:"screen_state"`
	AppForeground      *string             `json:"app_foreground"`
	InactiveSeconds    *int                `json:"inactive_seconds"`
	MyobActive         bool                `json:"myob_active"`
	ScannerActive      bool                `json:"scanner_active"`

	SessionState  SessionState `json:"session_state"`
	SessionID     string       `json:"session_id,omitempty"`
	TimeoutRisk   bool         `json:"timeout_risk"`
	TotalSessions int          `json:"total_sessions"`
	TotalTimeouts int          `json:"total_timeouts"`
}

// SessionIssueRow summarizes one device's session events and samples inside
// the analysis period.
type SessionIssueRow struct {
	DeviceID       string     `json:"device_id"`
	DeviceName     string     `json:"device_name"`
	Location       string     `json:"location"`
	EventCount     int        `json:"event_count"`
	UniqueSessions int        `json:"unique_sessions"`
	StartCount     int        `json:"session_start_count"`
	TimeoutCount   int        `json:"timeout_count"`
	ReconnectCount int        `json:"reconnect_count"`
	AvgBattery     *float64   `json:"avg_battery"`
	AvgWifiSignal  *float64   `json:"avg_wifi_signal"`
	LastActivity   *time.Time `json:"last_activity"`
	ActiveDays     int        `json:"active_days"`
}

// NetworkCorrelationRow is the network side of a device's session issues.
type NetworkCorrelationRow struct {
	DeviceID          string   `json:"device_id"`
	OfflineCount      int      `json:"offline_count"`
	WeakSignalCount   int      `json:"weak_signal_count"`
	AvgSignalStrength *float64 `json:"avg_signal_strength"`
	NetworkCount      int      `json:"network_count"`
}

type SessionIssuesReport struct {
	SessionAnalysis     []SessionIssueRow       `json:"session_analysis"`
	NetworkCorrelation  []NetworkCorrelationRow `json:"network_correlation"`
	AnalysisPeriodHours int                     `json:"analysis_period_hours"`
	GeneratedAt         time.Time               `json:"generated_at"`
}
