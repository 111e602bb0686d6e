package db

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewTestDB creates a fresh in-memory SQLite database with all tables migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := Open(DriverSQLite, ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(gdb); err != nil {
		Close(gdb)
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { Close(gdb) })

	return gdb
}
