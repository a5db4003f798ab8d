package iot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
	_ "liyu1981.xyz/tablet-telemetry-service/pkg/testing"
)

func TestUpsertLimiterConfig(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, _ := GetTestIOTWithMemorySqliteDialector(t, Options{})
	ctx := context.Background()

	require.NoError(t, iotObj.Config.UpsertLimiterConfig(ctx, &models.LimiterConfig{DeviceID: "Tab 2", Rate: 1, Burst: 1}))
	require.NoError(t, iotObj.Config.UpsertLimiterConfig(ctx, &models.LimiterConfig{DeviceID: "tab1", Rate: 2, Burst: 4}))
	require.NoError(t, iotObj.Config.UpsertLimiterConfig(ctx, &models.LimiterConfig{DeviceID: "tab1", Rate: 5, Burst: 10}))

	configs, err := iotObj.Config.ListLimiterConfigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.LimiterConfig{
		{DeviceID: "tab1", Rate: 5, Burst: 10},
		{DeviceID: "tab_2", Rate: 1, Burst: 1},
	}, configs)

	// limiter overrides do not require the device to be registered
	_, err = iotObj.Registry.GetDevice(ctx, "tab1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
