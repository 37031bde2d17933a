package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/circuitstash/core/internal/infrastructure/database"
	_ "github.com/circuitstash/core/migrations"
)

// testSecret is 32 bytes, the minimum accepted.
var testSecret = []byte("test-secret-key-32-bytes-long!!!")

// testDB creates a temporary SQLite database with the full schema applied.
// The database file is removed when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
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
	return db.DB
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable time source for token tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testTokens(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	opts := []TokenOption{}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	svc, err := NewTokenService(testSecret, DefaultTokenTTL, opts...)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

// seedTestAccount inserts an account with the given password and returns it.
func seedTestAccount(t *testing.T, store AccountStore, username, password string, role Role) *Account {
	t.Helper()

	account, err := newAccount(username, password, role)
	if err != nil {
		t.Fatalf("preparing account %s: %v", username, err)
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("creating test account %s: %v", username, err)
	}
	return account
}
