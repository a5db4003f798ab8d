package iot

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

func (i *IOT) upsertLimiterConfig(ctx context.Context, input *models.LimiterConfig) error {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTConfig),
	)

	config := models.LimiterConfig{
		DeviceID: NormalizeDeviceID(input.DeviceID),
		Rate:     input.Rate,
		Burst:    input.Burst,
	}

	err := i.Db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		UpdateAll: true,
	}).Create(&config).Error

	if err == nil {
		logger.Info("Upserted limiter config for device", zap.Reflect("config", config))
	}

	return err
}

func (i *IOT) listLimiterConfigs(ctx context.Context) ([]models.LimiterConfig, error) {
	var configs []models.LimiterConfig
	err := i.Db.Conn.WithContext(ctx).Order("device_id").Find(&configs).Error
	return configs, err
}

type IConfigImpl struct {
	iot *IOT
}

func (ic *IConfigImpl) UpsertLimiterConfig(ctx context.Context, input *models.LimiterConfig) error {
	return ic.iot.upsertLimiterConfig(ctx, input)
}

func (ic *IConfigImpl) ListLimiterConfigs(ctx context.Context) ([]models.LimiterConfig, error) {
	return ic.iot.listLimiterConfigs(ctx)
}

func (i *IOT) GetIConfig() IConfig {
	return &IConfigImpl{iot: i}
}
