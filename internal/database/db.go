package database

import (
	"fmt"

	"line-gateway/internal/config"
	"line-gateway/internal/logging"
	"line-gateway/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Init opens the configured database and runs migrations. DB_DRIVER selects
// sqlite (default, DB_PATH) or postgres (DB_DSN).
func Init(cfg *config.Config) (*gorm.DB, error) {
	logger := logging.GetLogger("database")

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.RuleRow{},
		&models.FriendRow{},
		&models.ActivityRow{},
	); err != nil {
		return nil, fmt.Errorf("auto-migration: %w", err)
	}

	logger.Info().Str("driver", cfg.DBDriver).Msg("Database initialized")
	return db, nil
}
