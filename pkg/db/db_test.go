package db

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
	_ "liyu1981.xyz/tablet-telemetry-service/pkg/testing"
)

func tableExists(db *gorm.DB, tableName string) bool {
	var count int64
	err := db.Raw(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, tableName,
	).Scan(&count).Error
	return err == nil && count > 0
}

func TestWithMemorySqlite(t *testing.T) {
	common.SetTestLoggerNop()

	instance := GetInstance(UseMemorySqliteDialector())
	if instance == nil {
		t.Fatal("Expected non-nil DB instance")
	}

	var tables = []string{
		"devices", "device_metrics", "network_metrics", "app_metrics", "session_events", "device_sessions", "limiter_configs",
	}
	for _, table := range tables {
		if !tableExists(instance.Conn, table) {
			t.Errorf("Expected table %q to exist after migration", table)
		}
	}
}

func TestSingletonConcurrency(t *testing.T) {
	common.SetTestLoggerNop()

	const goroutineCount = 20

	var wg sync.WaitGroup
	instances := make(chan *DB, goroutineCount)

	for range goroutineCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			instance := GetInstance(UseMemorySqliteDialector())
			instances <- instance
		}()
	}

	wg.Wait()
	close(instances)

	var first *DB
	for inst := range instances {
		if first == nil {
			first = inst
			continue
		}
		if inst != first {
			t.Error("Expected all instances to be the same (singleton), but found different ones")
		}
	}
}

func TestIsolatedInstances(t *testing.T) {
	common.SetTestLoggerNop()

	a, err := NewInstance(UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	b, err := NewInstance(UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)

	require.NoError(t, a.Conn.Create(&models.Device{DeviceID: "tab-1"}).Error)

	var count int64
	require.NoError(t, b.Conn.Model(&models.Device{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestForeignKeysEnforced(t *testing.T) {
	common.SetTestLoggerNop()

	instance, err := NewInstance(UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)

	err = instance.Conn.Create(&models.AppMetric{
		DeviceID:    "no-such-device",
		ScreenState: models.ScreenActive,
	}).Error
	assert.Error(t, err, "metric rows must reference a registered device")
}

func TestClosedInstanceFails(t *testing.T) {
	common.SetTestLoggerNop()

	instance, err := NewInstance(UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	require.NoError(t, instance.Close())

	var devices []models.Device
	assert.Error(t, instance.Conn.Find(&devices).Error)
}

func TestWithFilePath(t *testing.T) {
	common.SetTestLoggerNop()

	testPath := filepath.Join(t.TempDir(), "nested-name.db")
	// the environment must not override the path handed in
	t.Setenv(common.EnvKeyIOTDbPath, filepath.Join(t.TempDir(), "ignored.db"))

	instance, err := NewInstance(UseSqliteDialector(testPath))
	require.NoError(t, err)
	defer instance.Close()

	require.NoError(t, instance.Conn.Create(&models.Device{DeviceID: "tab-1"}).Error)

	_, err = os.Stat(testPath)
	assert.NoError(t, err, "database file is created at the given path")
	_, err = os.Stat(os.Getenv(common.EnvKeyIOTDbPath))
	assert.True(t, os.IsNotExist(err))
}
