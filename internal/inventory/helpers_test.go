package inventory

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/circuitstash/core/internal/infrastructure/database"
	_ "github.com/circuitstash/core/migrations"
)

// testEngine returns an engine over a fresh migrated database file.
func testEngine(t *testing.T) (*Engine, *sql.DB) {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "inventory-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	return NewEngine(db.DB, slog.New(slog.NewTextHandler(io.Discard, nil))), db.DB
}

func ptr[T any](v T) *T { return &v }

func mustPart(t *testing.T, e *Engine, in PartInput) *Part {
	t.Helper()
	p, err := e.CreatePart(context.Background(), in)
	if err != nil {
		t.Fatalf("CreatePart(%+v) error = %v", in, err)
	}
	return p
}

func mustLocation(t *testing.T, e *Engine, in LocationInput) *Location {
	t.Helper()
	l, err := e.CreateLocation(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateLocation(%+v) error = %v", in, err)
	}
	return l
}

func mustInventory(t *testing.T, e *Engine, in InventoryInput) *Inventory {
	t.Helper()
	inv, err := e.CreateInventory(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateInventory(%+v) error = %v", in, err)
	}
	return inv
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

// assertStockInvariant checks part.stock == SUM(inventory.stock) for every part.
func assertStockInvariant(t *testing.T, db *sql.DB) {
	t.Helper()
	rows, err := db.Query(`
		SELECT p.id, p.stock, COALESCE(SUM(i.stock), 0)
		FROM parts p LEFT JOIN inventory i ON i.part_id = p.id
		GROUP BY p.id, p.stock`)
	if err != nil {
		t.Fatalf("querying stock: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var stock, sum int
		if err := rows.Scan(&id, &stock, &sum); err != nil {
			t.Fatalf("scanning stock: %v", err)
		}
		if stock != sum {
			t.Errorf("part %s: stock = %d, sum of inventory = %d", id, stock, sum)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating stock: %v", err)
	}
}
