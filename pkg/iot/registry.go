package iot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

var ErrDeviceNotFound = errors.New("device not found")

func (i *IOT) upsertDevice(tx *gorm.DB, input *models.Device, receivedAt time.Time) (bool, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTRegistry),
	)

	receivedAt = receivedAt.UTC()

	var device models.Device
	err := tx.Where("device_id = ?", input.DeviceID).Limit(1).Find(&device).Error
	if err != nil {
		return false, err
	}

	if device.DeviceID == "" {
		device = models.Device{
			DeviceID:       input.DeviceID,
			DeviceName:     input.DeviceName,
			Location:       input.Location,
			AndroidVersion: input.AndroidVersion,
			AppVersion:     input.AppVersion,
			FirstSeen:      receivedAt,
			LastSeen:       receivedAt,
		}
		if err := tx.Create(&device).Error; err != nil {
			return false, err
		}
		logger.Info("Registered device", zap.String("device_id", device.DeviceID), zap.Time("first_seen", receivedAt))
		return true, nil
	}

	// absent attributes keep their stored value
	if input.DeviceName != "" {
		device.DeviceName = input.DeviceName
	}
	if input.Location != "" {
		device.Location = input.Location
	}
	if input.AndroidVersion != "" {
		device.AndroidVersion = input.AndroidVersion
	}
	if input.AppVersion != "" {
		device.AppVersion = input.AppVersion
	}
	if receivedAt.Before(device.LastSeen) {
		logger.Info("Delayed payload does not move last_seen",
			zap.String("device_id", device.DeviceID),
			zap.Time("last_seen", device.LastSeen),
			zap.Time("received_at", receivedAt))
	}
	device.LastSeen = common.MaxTime(device.LastSeen.UTC(), receivedAt)

	err = tx.Model(&models.Device{}).
		Where("device_id = ?", device.DeviceID).
		Updates(map[string]any{
			"device_name":     device.DeviceName,
			"location":        device.Location,
			"android_version": device.AndroidVersion,
			"app_version":     device.AppVersion,
			"last_seen":       device.LastSeen,
		}).Error
	return false, err
}

// bumpSessionCounters adds the recorded events to the device's lifetime
// session and timeout totals.
func (i *IOT) bumpSessionCounters(tx *gorm.DB, deviceID string, events []models.SessionEvent) error {
	var sessions, timeouts int
	for _, e := range events {
		switch e.EventType {
		case models.EventSessionStart, models.EventLogin:
			sessions++
		case models.EventTimeout:
			timeouts++
		}
	}
	if sessions == 0 && timeouts == 0 {
		return nil
	}
	return tx.Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]any{
			"total_sessions": gorm.Expr("total_sessions + ?", sessions),
			"total_timeouts": gorm.Expr("total_timeouts + ?", timeouts),
		}).Error
}

func (i *IOT) getDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	err := i.Db.Conn.WithContext(ctx).First(&device, "device_id = ?", deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	return &device, err
}

func (i *IOT) listDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := i.Db.Conn.WithContext(ctx).Order("device_id").Find(&devices).Error
	return devices, err
}

// IsOnline is the derived online view of a device: it has been heard from
// within window. Nothing stores it.
func IsOnline(device *models.Device, now time.Time, window time.Duration) bool {
	return now.Sub(device.LastSeen) < window
}

type IRegistryImpl struct {
	iot *IOT
}

func (ir *IRegistryImpl) UpsertDevice(tx *gorm.DB, input *models.Device, receivedAt time.Time) (bool, error) {
	return ir.iot.upsertDevice(tx, input, receivedAt)
}

func (ir *IRegistryImpl) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return ir.iot.getDevice(ctx, deviceID)
}

func (ir *IRegistryImpl) ListDevices(ctx context.Context) ([]models.Device, error) {
	return ir.iot.listDevices(ctx)
}

func (i *IOT) GetIRegistry() IRegistry {
	return &IRegistryImpl{iot: i}
}
