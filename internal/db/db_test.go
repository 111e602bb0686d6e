package db

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/erazemk/supermercado/internal/model"
)

func TestMigrateCreatesTables(t *testing.T) {
	gdb := NewTestDB(t)

	for _, table := range []string{"producto", "categoria"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}
	for _, column := range []string{"descripcion", "precio", "categoria_id", "estado", "imagen"} {
		if !gdb.Migrator().HasColumn(&model.Product{}, column) {
			t.Errorf("expected producto.%s to exist", column)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	gdb := NewTestDB(t)
	if err := Migrate(gdb); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite3")
	gdb, err := Open(DriverSQLite, path, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(gdb)

	var fk int
	if err := gdb.Raw("PRAGMA foreign_keys").Scan(&fk).Error; err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever", zap.NewNop()); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
