//go:build cgo

package database

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// driverName is the database/sql driver used for SQLite.
const driverName = "sqlite3"

// dsn builds a mattn/go-sqlite3 connection string.
// See: https://github.com/mattn/go-sqlite3#connection-string
func dsn(cfg Config) string {
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_txlock=immediate",
		cfg.Path,
		busyTimeoutMS(cfg),
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return connStr
}
