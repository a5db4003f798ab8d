package iot

import (
	"math"
	"time"

	z "github.com/Oudwins/zog"
)

const maxSessionHints = 50

var (
	deviceIDSchema     = z.String().Min(1).Max(50).Required()
	shortTextSchema    = z.String().Max(50)
	labelSchema        = z.String().Max(100)
	foregroundSchema   = z.String().Max(200)
	ipAddressSchema    = z.String().Max(45)
	percentSchema      = z.Float64().GTE(0).LTE(100)
	batteryLevelSchema = z.Int().GTE(0).LTE(100)
	wifiSignalSchema   = z.Int().GTE(-100).LTE(0)
	nonNegIntSchema    = z.Int().GTE(0)
	nonNegFloatSchema  = z.Float64().GTE(0)

	connectivitySchema = z.String().Required().OneOf([]string{"online", "offline", "limited", "unknown"})
	screenStateSchema  = z.String().Required().OneOf([]string{"active", "locked", "dimmed", "off"})
)

type rule struct {
	field  string
	value  any
	ok     bool
	reason string
}

func required[T any](field string, v T, reason string, valid func(*T) bool) rule {
	return rule{field: field, value: v, ok: valid(&v), reason: reason}
}

func optional[T any](field string, v *T, reason string, valid func(*T) bool) rule {
	if v == nil {
		return rule{ok: true}
	}
	return rule{field: field, value: *v, ok: valid(v), reason: reason}
}

func optionalText(field string, v string, reason string, valid func(*string) bool) rule {
	if v == "" {
		return rule{ok: true}
	}
	return required(field, v, reason, valid)
}

var (
	validDeviceID     = func(v *string) bool { return len(deviceIDSchema.Validate(v)) == 0 }
	validShortText    = func(v *string) bool { return len(shortTextSchema.Validate(v)) == 0 }
	validLabel        = func(v *string) bool { return len(labelSchema.Validate(v)) == 0 }
	validForeground   = func(v *string) bool { return len(foregroundSchema.Validate(v)) == 0 }
	validIPAddress    = func(v *string) bool { return len(ipAddressSchema.Validate(v)) == 0 }
	validConnectivity = func(v *string) bool { return len(connectivitySchema.Validate(v)) == 0 }
	validScreenState  = func(v *string) bool { return len(screenStateSchema.Validate(v)) == 0 }
	validBatteryLevel = func(v *int) bool { return len(batteryLevelSchema.Validate(v)) == 0 }
	validWifiSignal   = func(v *int) bool { return len(wifiSignalSchema.Validate(v)) == 0 }
	validNonNegInt    = func(v *int) bool { return len(nonNegIntSchema.Validate(v)) == 0 }
	validPercent      = func(v *float64) bool { return finite(v) && len(percentSchema.Validate(v)) == 0 }
	validNonNegFloat  = func(v *float64) bool { return finite(v) && len(nonNegFloatSchema.Validate(v)) == 0 }
	validNonNegInt64  = func(v *int64) bool {
		n := int(*v)
		return int64(n) == *v && validNonNegInt(&n)
	}
)

func finite(v *float64) bool {
	return !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func validTimestamp(v *time.Time) bool {
	return !v.IsZero()
}

// ValidatePayload checks every present field of p. The first violation
// rejects the whole payload; absent optional blocks and fields are fine.
// p.DeviceID is expected to be normalized already.
func ValidatePayload(p *Payload) error {
	if p == nil {
		return &ValidationError{Field: "payload", Value: nil, Reason: "is required"}
	}

	rules := []rule{
		required("device_id", p.DeviceID, "must be 1..50 characters", validDeviceID),
		optionalText("device_name", p.DeviceName, "must be at most 100 characters", validLabel),
		optionalText("location", p.Location, "must be at most 100 characters", validLabel),
		optionalText("android_version", p.AndroidVersion, "must be at most 50 characters", validShortText),
		optionalText("app_version", p.AppVersion, "must be at most 50 characters", validShortText),
	}

	if m := p.DeviceMetrics; m != nil {
		rules = append(rules,
			optional("device_metrics.battery_level", m.BatteryLevel, "must be between 0 and 100", validBatteryLevel),
			optional("device_metrics.battery_temperature", m.BatteryTemperature, "must be a finite number", finite),
			optional("device_metrics.memory_available", m.MemoryAvailable, "must be non-negative", validNonNegInt64),
			optional("device_metrics.memory_total", m.MemoryTotal, "must be non-negative", validNonNegInt64),
			optional("device_metrics.storage_available", m.StorageAvailable, "must be non-negative", validNonNegInt64),
			optional("device_metrics.cpu_usage", m.CPUUsage, "must be between 0 and 100", validPercent),
			optional("device_metrics.timestamp", m.Timestamp, "must be a valid time", validTimestamp),
		)
	}

	if m := p.NetworkMetrics; m != nil {
		rules = append(rules,
			optional("network_metrics.wifi_signal_strength", m.WifiSignalStrength, "must be between -100 and 0 dBm", validWifiSignal),
			optional("network_metrics.wifi_ssid", m.WifiSSID, "must be at most 100 characters", validLabel),
			required("network_metrics.connectivity_status", m.ConnectivityStatus, "must be one of online|offline|limited|unknown", validConnectivity),
			optional("network_metrics.network_type", m.NetworkType, "must be at most 50 characters", validShortText),
			optional("network_metrics.ip_address", m.IPAddress, "must be at most 45 characters", validIPAddress),
			optional("network_metrics.dns_response_time", m.DNSResponseTime, "must be non-negative", validNonNegFloat),
			optional("network_metrics.data_usage_mb", m.DataUsageMB, "must be non-negative", validNonNegFloat),
			optional("network_metrics.timestamp", m.Timestamp, "must be a valid time", validTimestamp),
		)
	}

	if m := p.AppMetrics; m != nil {
		rules = append(rules,
			required("app_metrics.screen_state", m.ScreenState, "must be one of active|locked|dimmed|off", validScreenState),
			optional("app_metrics.app_foreground", m.AppForeground, "must be at most 200 characters", validForeground),
			optional("app_metrics.app_memory_usage", m.AppMemoryUsage, "must be non-negative", validNonNegInt64),
			optional("app_metrics.screen_timeout_setting", m.ScreenTimeoutSetting, "must be non-negative", validNonNegInt),
			optional("app_metrics.notification_count", m.NotificationCount, "must be non-negative", validNonNegInt),
			optional("app_metrics.app_crashes", m.AppCrashes, "must be non-negative", validNonNegInt),
			optional("app_metrics.inactive_seconds", m.InactiveSeconds, "must be non-negative", validNonNegInt),
			optional("app_metrics.timestamp", m.Timestamp, "must be a valid time", validTimestamp),
		)
	}

	if len(p.SessionHints) > maxSessionHints {
		rules = append(rules, rule{field: "session_hints", value: len(p.SessionHints), reason: "must have at most 50 entries"})
	}
	for _, hint := range p.SessionHints {
		rules = append(rules, required("session_hints[]", hint, "must be at most 200 characters", validForeground))
	}

	for _, r := range rules {
		if !r.ok {
			return &ValidationError{Field: r.field, Value: r.value, Reason: r.reason}
		}
	}
	return nil
}
