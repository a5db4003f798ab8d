package iot

import (
	"strings"
	"time"

	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

// Payload is one telemetry submission from a tablet. Every block is optional;
// timestamps are the device clock and are stored, never trusted for ordering.
type Payload struct {
	DeviceID       string          `json:"device_id"`
	DeviceName     string          `json:"device_name,omitempty"`
	Location       string          `json:"location,omitempty"`
	AndroidVersion string          `json:"android_version,omitempty"`
	AppVersion     string          `json:"app_version,omitempty"`
	DeviceMetrics  *DeviceMetrics  `json:"device_metrics,omitempty"`
	NetworkMetrics *NetworkMetrics `json:"network_metrics,omitempty"`
	AppMetrics     *AppMetrics     `json:"app_metrics,omitempty"`
	SessionHints   []string        `json:"session_hints,omitempty"`
}

type DeviceMetrics struct {
	BatteryLevel       *int       `json:"battery_level,omitempty"`
	BatteryTemperature *float64   `json:"battery_temperature,omitempty"`
	MemoryAvailable    *int64     `json:"memory_available,omitempty"`
	MemoryTotal        *int64     `json:"memory_total,omitempty"`
	StorageAvailable   *int64     `json:"storage_available,omitempty"`
	CPUUsage           *float64   `json:"cpu_usage,omitempty"`
	Timestamp          *time.Time `json:"timestamp,omitempty"`
}

type NetworkMetrics struct {
	WifiSignalStrength *int       `json:"wifi_signal_strength,omitempty"`
	WifiSSID           *string    `json:"wifi_ssid,omitempty"`
	ConnectivityStatus string     `json:"connectivity_status"`
	NetworkType        *string    `json:"network_type,omitempty"`
	IPAddress          *string    `json:"ip_address,omitempty"`
	DNSResponseTime    *float64   `json:"dns_response_time,omitempty"`
	DataUsageMB        *float64   `json:"data_usage_mb,omitempty"`
	Timestamp          *time.Time `json:"timestamp,omitempty"`
}

type AppMetrics struct {
	ScreenState          string     `json:"screen_state"`
	AppForeground        *string    `json:"app_foreground,omitempty"`
	AppMemoryUsage       *int64     `json:"app_memory_usage,omitempty"`
	ScreenTimeoutSetting *int       `json:"screen_timeout_setting,omitempty"`
	NotificationCount    *int       `json:"notification_count,omitempty"`
	AppCrashes           *int       `json:"app_crashes,omitempty"`
	InactiveSeconds      *int       `json:"inactive_seconds,omitempty"`
	Timestamp            *time.Time `json:"timestamp,omitempty"`
}

// NormalizeDeviceID gives one canonical spelling per tablet so that
// "Front Desk 1" and "front_desk_1" land on the same registry row.
func NormalizeDeviceID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), " ", "_"))
}

// IngestResult describes what one ingestion committed.
type IngestResult struct {
	DeviceID        string                `json:"device_id"`
	ReceivedAt      time.Time             `json:"received_at"`
	RecordsStored   RecordCounts          `json:"records_stored"`
	Events          []models.SessionEvent `json:"events"`
	SessionState    models.SessionState   `json:"session_state"`
	TimeoutRisk     bool                  `json:"timeout_risk"`
	OutOfOrder      bool                  `json:"out_of_order"`
	Duplicate       bool                  `json:"duplicate"`
	DeviceCreated   bool                  `json:"device_created"`
	DetectionResult Detection             `json:"detection"`
}

type RecordCounts struct {
	DeviceMetrics  int `json:"device_metrics"`
	NetworkMetrics int `json:"network_metrics"`
	AppMetrics     int `json:"app_metrics"`
	SessionEvents  int `json:"session_events"`
}

func (r RecordCounts) Total() int {
	return r.DeviceMetrics + r.NetworkMetrics + r.AppMetrics + r.SessionEvents
}
