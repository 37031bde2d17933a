// Command circuitstash serves the Circuit Stash inventory API.
//
// On start it loads configs/config.yaml (or $CIRCUITSTASH_CONFIG), reads
// the token signing secret, migrates the SQLite store, seeds the first
// admin account and then serves until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/circuitstash/core/migrations"

	"github.com/circuitstash/core/internal/api"
	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/auth"
	"github.com/circuitstash/core/internal/infrastructure/config"
	"github.com/circuitstash/core/internal/infrastructure/database"
	"github.com/circuitstash/core/internal/infrastructure/logging"
	"github.com/circuitstash/core/internal/inventory"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// storageDirPermissions is applied to the asset directories created at startup.
const storageDirPermissions = 0o750

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts Circuit Stash and blocks until ctx is cancelled. Startup
// failures are returned; a clean shutdown returns nil.
func run(ctx context.Context) error {
	boot := logging.Default()
	boot.Info("starting Circuit Stash", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "log_level", cfg.Logging.Level)

	// The secret is checked before anything touches disk.
	tokens, err := loadTokens(cfg.Security)
	if err != nil {
		return err
	}
	log.Info("signing secret loaded", "path", cfg.Security.SecretFile, "token_ttl", tokens.TTL().String())

	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("closing database", "error", err)
		}
	}()
	log.Info("database ready", "path", db.Path())

	if err := ensureStorageDirs(cfg.Storage); err != nil {
		return err
	}

	accounts := auth.NewAccountStore(db.DB)
	if err := seedAdmin(ctx, accounts, cfg.Security.SeedAdmin, log); err != nil {
		return err
	}

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		Storage:   cfg.Storage,
		Logger:    log,
		DB:        db,
		Accounts:  auth.NewService(accounts, tokens, log.Component("auth")),
		Guard:     auth.NewGuard(tokens, accounts, log.Component("auth")),
		Inventory: inventory.NewEngine(db.DB, log.Component("inventory")),
		Audit:     audit.NewSQLiteRepository(db.DB),
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Error("stopping API server", "error", err)
		}
	}()

	log.Info("Circuit Stash ready", "address", cfg.API.Addr())
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// loadTokens reads the signing secret and builds the token service. A
// missing, unreadable or short secret file is fatal.
func loadTokens(cfg config.SecurityConfig) (*auth.TokenService, error) {
	secret, err := auth.LoadSecret(cfg.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("loading signing secret: %w", err)
	}
	tokens, err := auth.NewTokenService(secret, cfg.TokenLifetime())
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	return tokens, nil
}

// openStore opens the database, applies pending migrations and confirms
// foreign keys are enforced.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking database: %w", err)
	}
	return db, nil
}

// seedAdmin creates the first admin when there are no accounts. A generated
// password goes to stderr once and never to the log.
func seedAdmin(ctx context.Context, accounts auth.AccountStore, cfg config.SeedAdminConfig, log *logging.Logger) error {
	generated, err := auth.SeedAdmin(ctx, accounts, auth.SeedConfig{
		Username: cfg.Username,
		Password: cfg.Password,
	}, log.Component("auth"))
	if err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	if generated != "" {
		fmt.Fprintf(os.Stderr, "\nInitial admin account %q created with password: %s\nChange it after first login.\n\n",
			cfg.Username, generated)
	}
	return nil
}

// getConfigPath honours CIRCUITSTASH_CONFIG.
func getConfigPath() string {
	if path := os.Getenv("CIRCUITSTASH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// ensureStorageDirs creates the image and datasheet directories scanned by
// the catalogue reload endpoints.
func ensureStorageDirs(cfg config.StorageConfig) error {
	for _, dir := range []string{cfg.ImagesDir, cfg.DatasheetsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, storageDirPermissions); err != nil {
			return fmt.Errorf("creating storage directory %s: %w", dir, err)
		}
	}
	return nil
}
