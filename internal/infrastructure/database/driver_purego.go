//go:build !cgo

package database

import (
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver for CGO_ENABLED=0 builds
)

// driverName is the database/sql driver used for SQLite.
const driverName = "sqlite"

// dsn builds a modernc.org/sqlite connection string. Pragmas are applied to
// every new connection.
func dsn(cfg Config) string {
	connStr := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_txlock=immediate",
		cfg.Path,
		busyTimeoutMS(cfg),
	)
	if cfg.WALMode {
		connStr += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	return connStr
}
