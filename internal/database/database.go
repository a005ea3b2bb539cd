package database

import (
	"fmt"

	"github.com/mx-space/publisher/internal/config"
	"github.com/mx-space/publisher/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Unique violations surface as gorm.ErrDuplicatedKey for the slug retry path.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve sql db: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	return db, nil
}

// Migrate runs GORM auto-migration for all models. Dialect-specific column
// tweaks only apply to MySQL so the same call works against SQLite in tests.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.TenantModel{},
		&models.CategoryModel{},
		&models.TagModel{},
		&models.PostModel{},
		&models.PostViewModel{},
		&models.MediaModel{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "mysql" {
		if err := db.Exec("ALTER TABLE `tenants` MODIFY COLUMN `settings` JSON NULL").Error; err != nil {
			return err
		}
		if err := db.Exec("ALTER TABLE `posts` MODIFY COLUMN `views_total` BIGINT UNSIGNED NOT NULL DEFAULT 0").Error; err != nil {
			return err
		}
		if err := db.Exec("ALTER TABLE `posts` MODIFY COLUMN `views_weekly` BIGINT UNSIGNED NOT NULL DEFAULT 0").Error; err != nil {
			return err
		}
	}
	return nil
}
