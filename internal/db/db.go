package db

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/erazemk/supermercado/internal/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to the database described by driver and dsn and returns a
// GORM handle that logs through log.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:                 NewLogger(log, 200*time.Millisecond),
		SkipDefaultTransaction: true,
	}

	switch driver {
	case DriverSQLite, "":
		conn, err := openSQLite(dsn)
		if err != nil {
			return nil, err
		}
		gdb, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", Conn: conn}, cfg)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return gdb, nil
	case DriverPostgres:
		gdb, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return gdb, configurePool(gdb)
	case DriverMySQL:
		gdb, err := gorm.Open(mysql.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return gdb, configurePool(gdb)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// openSQLite opens a SQLite database with the modernc driver and configures
// pragmas. SQLite has a single writer, so the pool is held to one connection,
// which also keeps ":memory:" databases shared.
func openSQLite(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return conn, nil
}

func configurePool(gdb *gorm.DB) error {
	conn, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("getting connection pool: %w", err)
	}
	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

// Migrate creates or updates the tables of all models.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(model.Tables...); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	conn, err := gdb.DB()
	if err != nil {
		return err
	}
	return conn.Close()
}
