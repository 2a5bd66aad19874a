package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"groscales/models"
)

// ConnectDB opens the postgres pool. The handle is returned to the caller
// and injected into the repositories.
func ConnectDB(cfg *Config, logger logrus.FieldLogger) (*gorm.DB, error) {
	logger.Info("Attempting to connect to database...")
	dsn := cfg.DSN()
	logger.WithField("dsn", maskPassword(dsn)).Debug("Using connection string")

	gormCfg := &gorm.Config{
		// Multi-statement writes open their own transactions explicitly.
		SkipDefaultTransaction: true,
	}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	} else {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("✅ Successfully connected to the database")
	return db, nil
}

// MigrateDB creates or updates every table the service owns.
func MigrateDB(db *gorm.DB, logger logrus.FieldLogger) error {
	logger.Info("🔄 Starting database migration...")
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("✅ Database migration completed")
	return nil
}
