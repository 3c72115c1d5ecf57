package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/krishkalaria12/snapvault/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns a migrated in-memory SQLite database private to t.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps the shared in-memory database alive for the whole test.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get DB object: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
