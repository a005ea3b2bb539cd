// Package dbtest opens migrated in-memory SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mx-space/publisher/internal/database"
	"github.com/mx-space/publisher/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a fresh database private to the calling test. A single
// connection keeps the shared-cache database alive and serializes writers.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared&_busy_timeout=5000", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedTenant inserts an active tenant whose domain derives from slug.
func SeedTenant(t testing.TB, db *gorm.DB, slug string) *models.TenantModel {
	t.Helper()
	tn := &models.TenantModel{Name: slug, Slug: slug, Domain: slug + ".example.com", IsActive: true}
	require.NoError(t, db.Create(tn).Error)
	return tn
}
