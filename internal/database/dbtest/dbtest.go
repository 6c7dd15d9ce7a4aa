// Package dbtest gives tests a private, migrated in-memory database.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"taskmanager-backend/internal/database"

	"gorm.io/gorm"
)

var seq atomic.Int64

// New opens a fresh in-memory SQLite database, migrates it and installs it
// as database.DB for the duration of the test.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))

	db, err := database.Open("sqlite", dsn, "silent")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
