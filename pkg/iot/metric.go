package iot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

// LatestMetrics holds the newest sample of each family; a nil field means the
// device never reported that family.
type LatestMetrics struct {
	Device  *models.DeviceMetric
	Network *models.NetworkMetric
	App     *models.AppMetric
}

type MetricHistory struct {
	DeviceMetrics  []models.DeviceMetric  `json:"device_metrics"`
	NetworkMetrics []models.NetworkMetric `json:"network_metrics"`
	AppMetrics     []models.AppMetric     `json:"app_metrics"`
}

// sampledAt is nil when the device sent no timestamp. Such rows never collide
// on the (device_id, sampled_at) index, so every untimed sample is kept.
func sampledAt(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.UTC()
	return &t
}

// appendRow inserts row unless (device_id, sampled_at) already exists, and
// reports whether a row was written.
func appendRow(tx *gorm.DB, row any) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (i *IOT) appendMetrics(tx *gorm.DB, deviceID string, receivedAt time.Time, p *Payload, detection Detection) (RecordCounts, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTMetric),
	)

	receivedAt = receivedAt.UTC()
	var counts RecordCounts

	if m := p.DeviceMetrics; m != nil {
		row := models.DeviceMetric{
			DeviceID:           deviceID,
			SampledAt:          sampledAt(m.Timestamp),
			ReceivedAt:         receivedAt,
			BatteryLevel:       m.BatteryLevel,
			BatteryTemperature: m.BatteryTemperature,
			MemoryAvailable:    m.MemoryAvailable,
			MemoryTotal:        m.MemoryTotal,
			StorageAvailable:   m.StorageAvailable,
			CPUUsage:           m.CPUUsage,
		}
		written, err := appendRow(tx, &row)
		if err != nil {
			return counts, err
		}
		if written {
			counts.DeviceMetrics++
		}
	}

	if m := p.NetworkMetrics; m != nil {
		row := models.NetworkMetric{
			DeviceID:           deviceID,
			SampledAt:          sampledAt(m.Timestamp),
			ReceivedAt:         receivedAt,
			WifiSignalStrength: m.WifiSignalStrength,
			WifiSSID:           m.WifiSSID,
			ConnectivityStatus: models.ConnectivityStatus(m.ConnectivityStatus),
			NetworkType:        m.NetworkType,
			IPAddress:          m.IPAddress,
			DNSResponseTime:    m.DNSResponseTime,
			DataUsageMB:        m.DataUsageMB,
		}
		written, err := appendRow(tx, &row)
		if err != nil {
			return counts, err
		}
		if written {
			counts.NetworkMetrics++
		}
	}

	if m := p.AppMetrics; m != nil {
		inactive := 0
		if m.InactiveSeconds != nil {
			inactive = *m.InactiveSeconds
		}
		row := models.AppMetric{
			DeviceID:             deviceID,
			SampledAt:            sampledAt(m.Timestamp),
			ReceivedAt:           receivedAt,
			ScreenState:          models.ScreenState(m.ScreenState),
			AppForeground:        m.AppForeground,
			AppMemoryUsage:       m.AppMemoryUsage,
			ScreenTimeoutSetting: m.ScreenTimeoutSetting,
			NotificationCount:    m.NotificationCount,
			AppCrashes:           m.AppCrashes,
			InactiveSeconds:      inactive,
			MyobActive:           detection.MyobActive,
			ScannerActive:        detection.ScannerActive,
		}
		written, err := appendRow(tx, &row)
		if err != nil {
			return counts, err
		}
		if written {
			counts.AppMetrics++
		}
	}

	logger.Debug("Appended metrics for device", zap.String("device_id", deviceID), zap.Reflect("counts", counts))
	return counts, nil
}

// latestRow loads the newest row by receipt time, ties broken by row id.
func latestRow[T any](ctx context.Context, conn *gorm.DB, deviceID string) (*T, error) {
	var row T
	err := conn.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("received_at desc").
		Order("id desc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (i *IOT) latestMetrics(ctx context.Context, deviceID string) (*LatestMetrics, error) {
	var latest LatestMetrics
	var err error

	if latest.Device, err = latestRow[models.DeviceMetric](ctx, i.Db.Conn, deviceID); err != nil {
		return nil, err
	}
	if latest.Network, err = latestRow[models.NetworkMetric](ctx, i.Db.Conn, deviceID); err != nil {
		return nil, err
	}
	if latest.App, err = latestRow[models.AppMetric](ctx, i.Db.Conn, deviceID); err != nil {
		return nil, err
	}
	return &latest, nil
}

func (i *IOT) getDeviceMetrics(ctx context.Context, deviceID string, since time.Time) (*MetricHistory, error) {
	var history MetricHistory
	conn := i.Db.Conn.WithContext(ctx)
	since = since.UTC()

	if err := conn.Where("device_id = ? AND received_at >= ?", deviceID, since).
		Order("received_at").Order("id").Find(&history.DeviceMetrics).Error; err != nil {
		return nil, err
	}
	if err := conn.Where("device_id = ? AND received_at >= ?", deviceID, since).
		Order("received_at").Order("id").Find(&history.NetworkMetrics).Error; err != nil {
		return nil, err
	}
	if err := conn.Where("device_id = ? AND received_at >= ?", deviceID, since).
		Order("received_at").Order("id").Find(&history.AppMetrics).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

type IMetricImpl struct {
	iot *IOT
}

func (im *IMetricImpl) AppendMetrics(tx *gorm.DB, deviceID string, receivedAt time.Time, payload *Payload, detection Detection) (RecordCounts, error) {
	return im.iot.appendMetrics(tx, deviceID, receivedAt, payload, detection)
}

func (im *IMetricImpl) LatestMetrics(ctx context.Context, deviceID string) (*LatestMetrics, error) {
	return im.iot.latestMetrics(ctx, deviceID)
}

func (im *IMetricImpl) GetDeviceMetrics(ctx context.Context, deviceID string, since time.Time) (*MetricHistory, error) {
	return im.iot.getDeviceMetrics(ctx, deviceID, since)
}

func (i *IOT) GetIMetric() IMetric {
	return &IMetricImpl{iot: i}
}
