package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/circuitstash/core/internal/auth"
	"github.com/circuitstash/core/internal/infrastructure/config"
	"github.com/circuitstash/core/internal/infrastructure/database"
)

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// writeConfig writes a config file into dir and points CIRCUITSTASH_CONFIG at it.
func writeConfig(t *testing.T, dir, dbPath, secretFile string) {
	t.Helper()
	content := fmt.Sprintf(`
database:
  path: %q
  wal_mode: true
  busy_timeout: 5

api:
  host: "127.0.0.1"
  port: %d

security:
  secret_file: %q
  token_ttl: 30
  seed_admin:
    username: "root"
    password: "first-login-pw"

storage:
  images_dir: %q
  datasheets_dir: %q

logging:
  level: info
  format: text
  output: stdout
`, dbPath, freePort(t), secretFile, filepath.Join(dir, "images"), filepath.Join(dir, "datasheets"))

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("CIRCUITSTASH_CONFIG", configPath)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("CIRCUITSTASH_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_MissingSecretFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stash.db")
	writeConfig(t, dir, dbPath, filepath.Join(dir, "missing.txt"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail without a secret file")
	}
	if !strings.Contains(err.Error(), "signing secret") {
		t.Errorf("error = %v, want signing secret failure", err)
	}
	if _, statErr := os.Stat(dbPath); !os.IsNotExist(statErr) {
		t.Error("database should not be created when the secret is missing")
	}
}

func TestRun_ShortSecret(t *testing.T) {
	dir := t.TempDir()
	secretFile := filepath.Join(dir, "jwt.txt")
	if err := os.WriteFile(secretFile, []byte("c2hvcnQ=\n"), 0600); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, dir, filepath.Join(dir, "stash.db"), secretFile)

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() should fail with a short secret")
	}
	if strings.Contains(err.Error(), "c2hvcnQ") {
		t.Errorf("error leaks secret contents: %v", err)
	}
}

func TestRun_StartupAndShutdown(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stash.db")
	secretFile := filepath.Join(dir, "secrets", "jwt.txt")
	if err := auth.WriteSecretFile(secretFile, false); err != nil {
		t.Fatalf("WriteSecretFile() error = %v", err)
	}
	writeConfig(t, dir, dbPath, secretFile)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	for _, sub := range []string{"images", "datasheets"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("storage dir %s not created: %v", sub, err)
		}
	}

	db, err := database.Open(database.Config{Path: dbPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close()

	var role int
	err = db.QueryRowContext(context.Background(), "SELECT role FROM accounts WHERE username = ?", "root").Scan(&role)
	if err == sql.ErrNoRows {
		t.Fatal("seed admin was not created")
	}
	if err != nil {
		t.Fatalf("querying seed admin: %v", err)
	}
	if auth.Role(role) != auth.RoleAdmin {
		t.Errorf("seed role = %d, want admin", role)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("CIRCUITSTASH_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("CIRCUITSTASH_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestEnsureStorageDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{ImagesDir: filepath.Join(dir, "a", "img")}

	if err := ensureStorageDirs(cfg); err != nil {
		t.Fatalf("ensureStorageDirs() error = %v", err)
	}
	if _, err := os.Stat(cfg.ImagesDir); err != nil {
		t.Errorf("images dir missing: %v", err)
	}
}
