// Package testdb gives tests a migrated in-memory SQLite database installed
// as the global connection.
package testdb

import (
	"context"
	"io"
	"testing"

	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/orderdesk/database/migrations"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/event"
	"github.com/shashiranjanraj/orderdesk/pkg/migration"
)

// Open migrates a fresh database, installs it as database.DB and clears
// event listeners. Both are restored when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("testdb: open: %v", err)
	}
	if _, err := migration.New(db, io.Discard).Run(context.Background()); err != nil {
		t.Fatalf("testdb: migrate: %v", err)
	}

	restore := database.SetTestDB(db)
	event.Flush()
	t.Cleanup(func() {
		event.Flush()
		restore()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
