// Command stash-migrate inspects and changes the Circuit Stash schema
// outside the server: "status" lists applied and pending migrations, "up"
// applies pending ones and "down" rolls back the most recent.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	_ "github.com/circuitstash/core/migrations"

	"github.com/circuitstash/core/internal/infrastructure/config"
	"github.com/circuitstash/core/internal/infrastructure/database"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("stash-migrate: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	configPath := defaultConfigPath
	if v := os.Getenv("CIRCUITSTASH_CONFIG"); v != "" {
		configPath = v
	}

	fs := flag.NewFlagSet("stash-migrate", flag.ContinueOnError)
	cfgFlag := fs.String("config", configPath, "path to the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: stash-migrate [-config path] up|down|status")
	}

	cfg, err := config.Load(*cfgFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	switch cmd := fs.Arg(0); cmd {
	case "up":
		err = db.Migrate(ctx)
	case "down":
		err = db.MigrateDown(ctx)
	case "status":
		err = printStatus(ctx, db, stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", fs.Arg(0), err)
	}
	return nil
}

func printStatus(ctx context.Context, db *database.DB, w io.Writer) error {
	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}
	for _, m := range applied {
		fmt.Fprintf(w, "applied  %s  %s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range pending {
		fmt.Fprintf(w, "pending  %s  %s\n", m.Version, m.Name)
	}
	return nil
}
