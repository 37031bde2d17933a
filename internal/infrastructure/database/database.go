package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o600

	// openTimeout bounds the connectivity and pragma checks in Open.
	openTimeout = 5 * time.Second

	connMaxIdleTime = 30 * time.Minute
)

// ErrForeignKeysOff is returned when the driver did not enable foreign key
// enforcement on the connection. Cascades and reference clearing in the
// inventory schema depend on it.
var ErrForeignKeysOff = errors.New("sqlite foreign key enforcement is off")

// DB is the Circuit Stash store: a single-connection SQLite pool with the
// migration runner attached. The embedded *sql.DB is what repositories take.
type DB struct {
	*sql.DB
	path string
}

// Config maps the database section of config.yaml.
type Config struct {
	// Path of the SQLite file; missing parent directories are created.
	Path string

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is how long a connection waits on a lock, in seconds.
	BusyTimeout int
}

// Open opens (creating if needed) the database at cfg.Path and checks that
// the connection enforces foreign keys.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Opens the file with WAL, busy timeout and foreign key pragmas
//  3. Limits the pool to a single connection
//  4. Pings and confirms PRAGMA foreign_keys is on
//  5. Restricts the file permissions (0600)
//
// Parameters:
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: If the path is empty, the connection fails, or ErrForeignKeysOff
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open(driverName, dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite allows a single writer, and with BEGIN
	// IMMEDIATE on every transaction the pool queues writers in-process.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	db := &DB{DB: sqlDB, path: cfg.Path}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	if err := db.checkPragmas(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // already failing
		return nil, err
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // the file appears on first write with some drivers

	return db, nil
}

// checkPragmas pings the database and confirms foreign keys are enforced.
func (db *DB) checkPragmas(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("verifying database connection: %w", err)
	}
	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return fmt.Errorf("reading foreign_keys pragma: %w", err)
	}
	if fk != 1 {
		return ErrForeignKeysOff
	}
	return nil
}

// Close closes the pool. Closing twice is harmless.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database %s: %w", db.path, err)
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query and re-checks foreign key enforcement.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.checkPragmas(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}

// busyTimeoutMS converts the configured busy timeout to milliseconds.
func busyTimeoutMS(cfg Config) int {
	return int((time.Duration(cfg.BusyTimeout) * time.Second).Milliseconds())
}
