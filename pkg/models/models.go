package models

import "time"

type ConnectivityStatus string

const (
	ConnectivityOnline  ConnectivityStatus = "online"
	ConnectivityOffline ConnectivityStatus = "offline"
	ConnectivityLimited ConnectivityStatus = "limited"
	ConnectivityUnknown ConnectivityStatus = "unknown"
)

type ScreenState string

const (
	ScreenActive ScreenState = "active"
	ScreenLocked ScreenState = "locked"
	ScreenDimmed ScreenState = "dimmed"
	ScreenOff    ScreenState = "off"
)

type SessionEventType string

const (
	EventSessionStart SessionEventType = "session_start"
	EventLogin        SessionEventType = "login"
	EventLogout       SessionEventType = "logout"
	EventTimeout      SessionEventType = "timeout"
	EventReconnect    SessionEventType = "reconnect"
	EventError        SessionEventType = "error"
	EventSessionEnd   SessionEventType = "session_end"
)

type SessionState string

const (
	SessionNone        SessionState = "NO_SESSION"
	SessionStarted     SessionState = "STARTED"
	SessionActive      SessionState = "ACTIVE"
	SessionTimeoutRisk SessionState = "TIMEOUT_RISK"
	SessionEnded       SessionState = "ENDED"
)

// IsOpen reports whether the monitored app is considered running for the
// session in this state.
func (s SessionState) IsOpen() bool {
	return s == SessionStarted || s == SessionActive || s == SessionTimeoutRisk
}

// Device is one registry row. LastSeen only moves forward and is only
// written by a successful ingestion.
type Device struct {
	DeviceID       string    `gorm:"primaryKey;size:50" json:"device_id"`
	DeviceName     string    `gorm:"size:100" json:"device_name"`
	Location       string    `gorm:"size:100" json:"location"`
	AndroidVersion string    `gorm:"size:50" json:"android_version"`
	AppVersion     string    `gorm:"size:50" json:"app_version"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `gorm:"index" json:"last_seen"`
	TotalSessions  int       `json:"total_sessions"`
	TotalTimeouts  int       `json:"total_timeouts"`

	DeviceMetrics  []DeviceMetric  `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
	NetworkMetrics []NetworkMetric `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
	AppMetrics     []AppMetric     `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
	SessionEvents  []SessionEvent  `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
	Session        *DeviceSession  `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
}

// DeviceMetric, NetworkMetric and AppMetric are append-only samples. SampledAt
// is the device clock, nil when the device sent none; a repeated
// (device_id, sampled_at) pair is a duplicate submission. ReceivedAt is the
// server receipt time and the ordering key.
type DeviceMetric struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	DeviceID           string     `gorm:"size:50;uniqueIndex:idx_device_metrics_sample" json:"device_id"`
	SampledAt          *time.Time `gorm:"uniqueIndex:idx_device_metrics_sample" json:"sampled_at,omitempty"`
	ReceivedAt         time.Time  `gorm:"index" json:"received_at"`
	BatteryLevel       *int       `json:"battery_level,omitempty"`
	BatteryTemperature *float64   `json:"battery_temperature,omitempty"`
	MemoryAvailable    *int64     `json:"memory_available,omitempty"`
	MemoryTotal        *int64     `json:"memory_total,omitempty"`
	StorageAvailable   *int64     `json:"storage_available,omitempty"`
	CPUUsage           *float64   `json:"cpu_usage,omitempty"`
}

type NetworkMetric struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	DeviceID           string             `gorm:"size:50;uniqueIndex:idx_network_metrics_sample" json:"device_id"`
	SampledAt          *time.Time         `gorm:"uniqueIndex:idx_network_metrics_sample" json:"sampled_at,omitempty"`
	ReceivedAt         time.Time          `gorm:"index" json:"received_at"`
	WifiSignalStrength *int               `json:"wifi_signal_strength,omitempty"`
	WifiSSID           *string            `gorm:"size:100" json:"wifi_ssid,omitempty"`
	ConnectivityStatus ConnectivityStatus `gorm:"type:varchar(20);check:connectivity_status IN ('online','offline','limited','unknown')" json:"connectivity_status"`
	NetworkType        *string            `gorm:"size:50" json:"network_type,omitempty"`
	IPAddress          *string            `gorm:"size:45" json:"ip_address,omitempty"`
	DNSResponseTime    *float64           `json:"dns_response_time,omitempty"`
	DataUsageMB        *float64           `json:"data_usage_mb,omitempty"`
}

type AppMetric struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	DeviceID             string      `gorm:"size:50;uniqueIndex:idx_app_metrics_sample" json:"device_id"`
	SampledAt            *time.Time  `gorm:"uniqueIndex:idx_app_metrics_sample" json:"sampled_at,omitempty"`
	ReceivedAt           time.Time   `gorm:"index" json:"received_at"`
	ScreenState          ScreenState `gorm:"type:varchar(20);check:screen_state IN ('active','locked','dimmed','off')" json:"screen_state"`
	AppForeground        *string     `gorm:"size:200" json:"app_foreground,omitempty"`
	AppMemoryUsage       *int64      `json:"app_memory_usage,omitempty"`
	ScreenTimeoutSetting *int        `json:"screen_timeout_setting,omitempty"`
	NotificationCount    *int        `json:"notification_count,omitempty"`
	AppCrashes           *int        `json:"app_crashes,omitempty"`
	InactiveSeconds      int         `json:"inactive_seconds"`
	MyobActive           bool        `json:"myob_active"`
	ScannerActive        bool        `json:"scanner_active"`
}

// SessionEvent is written only by the session state machine, never taken
// from a caller.
type SessionEvent struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	DeviceID     string           `gorm:"size:50;index" json:"device_id"`
	SessionID    string           `gorm:"size:100;index" json:"session_id"`
	EventType    SessionEventType `gorm:"type:varchar(30);check:event_type IN ('session_start','login','logout','timeout','reconnect','error','session_end')" json:"event_type"`
	Duration     int              `json:"duration"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	ReceivedAt   time.Time        `gorm:"index" json:"received_at"`
}

// DeviceSession is the current session state of a device, one row per
// device, mutated only while the device lock is held.
type DeviceSession struct {
	DeviceID      string           `gorm:"primaryKey;size:50" json:"device_id"`
	State         SessionState     `gorm:"type:varchar(20)" json:"state"`
	SessionID     string           `gorm:"size:100" json:"session_id"`
	StartedAt     time.Time        `json:"started_at"`
	RiskSince     *time.Time       `json:"risk_since,omitempty"`
	EndedAt       *time.Time       `json:"ended_at,omitempty"`
	LastEvaluated time.Time        `json:"last_evaluated"`
	LastEvent     SessionEventType `gorm:"type:varchar(30)" json:"last_event"`
}

// LimiterConfig is a per-device ingestion rate override. Devices without a
// row use the service default.
type LimiterConfig struct {
	DeviceID string  `gorm:"primaryKey;size:50" json:"device_id"`
	Rate     float64 `json:"rate"`
	Burst    int     `json:"burst"`
}
