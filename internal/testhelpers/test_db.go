package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"randomchallenge/api/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
	}
	migrateSchema = func(db *gorm.DB) error {
		return db.AutoMigrate(&models.Category{}, &models.Challenge{}, &models.User{}, &models.CompletionEntry{})
	}
	dropTableFn = func(db *gorm.DB, table interface{}) error { return db.Migrator().DropTable(table) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// DropTable removes table to force repository errors.
func DropTable(t *testing.T, db *gorm.DB, table interface{}) {
	t.Helper()
	if err := dropTableFn(db, table); err != nil {
		panic(fmt.Sprintf("failed to drop table: %v", err))
	}
}
