package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/volhours/internal/config"
	"github.com/balkashynov/volhours/internal/models"
)

// DB is the process-wide handle used by the CLI commands
var DB *gorm.DB

// Initialize opens the configured database into DB and runs migrations
func Initialize(cfg config.Database) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open connects to the configured database and migrates the schema
func Open(cfg config.Database) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Quiet by default
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite(cfg) {
		// One connection serialises writers; the busy timeout covers the rest
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			// Ensure the directory exists
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(withSQLitePragmas(dsn)), nil
	case "postgres":
		// lib/pq is the database/sql driver; gorm only supplies the dialect
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.DSN,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func isSQLite(cfg config.Database) bool {
	d := strings.ToLower(cfg.Driver)
	return d == "" || d == "sqlite"
}

// withSQLitePragmas appends foreign key enforcement and a busy timeout
func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate creates/updates the database schema
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Registration{},
		&models.HourSession{},
	); err != nil {
		return err
	}

	// At most one open session per (user, event); the ledger relies on this
	// index instead of a read-then-insert check
	return conn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_hour_sessions_open
		ON hour_sessions (user_id, event_id) WHERE status = 'open'`).Error
}

// Close closes the given connection
func Close(conn *gorm.DB) error {
	if conn != nil {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
