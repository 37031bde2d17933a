// Package database provides the SQLite store used by Circuit Stash.
//
// It manages the connection, the embedded migration runner and a small
// transaction helper shared by the auth and inventory repositories.
//
// The pool holds a single connection and every transaction starts with
// BEGIN IMMEDIATE, so writers are serialised by SQLite itself and a
// read-check-write sequence inside WithTx sees no interleaved writes.
// Foreign keys are enforced on every connection.
//
// The driver is chosen at build time: mattn/go-sqlite3 when cgo is
// available, modernc.org/sqlite otherwise.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are embedded by the top-level migrations package and are
// applied in version order, one transaction each.
package database
