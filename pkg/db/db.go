package db

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	constant "liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// GetInstance returns the process-wide database, opening and migrating it on
// first use.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		if instance, err = NewInstance(dialector); err != nil {
			log.Fatal("Failed to open database:", err)
		}
	})
	return instance
}

// NewInstance opens a fresh connection and migrates it. Tests use it with a
// named memory dialector so each test owns its database.
func NewInstance(dialector gorm.Dialector) (*DB, error) {
	var logger = constant.GetLogger()

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	// sqlite allows one writer; a single pooled connection keeps transactions
	// serialized and keeps a memory database alive for the life of the pool
	sqlDB.SetMaxOpenConns(1)

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign key support: %w", err)
	}

	err = conn.AutoMigrate(
		&models.Device{},
		&models.DeviceMetric{},
		&models.NetworkMetric{},
		&models.AppMetric{},
		&models.SessionEvent{},
		&models.DeviceSession{},
		&models.LimiterConfig{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Database migration completed")

	if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("set sqlite journal mode: %w", err)
	}

	return &DB{Conn: conn}, nil
}

// Close releases the underlying pool. Reads after Close fail, which is how
// tests take the store offline.
func (d *DB) Close() error {
	sqlDB, err := d.Conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UseSqliteDialector opens the sqlite file at path, creating it if needed.
func UseSqliteDialector(path string) gorm.Dialector {
	return sqlite.Open(path + "?_foreign_keys=on")
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared&_foreign_keys=on")
}

// UseIsolatedMemorySqliteDialector names the memory database so that it is
// not shared with any other connection pool in the process.
func UseIsolatedMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
}
