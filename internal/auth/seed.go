package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for a generated admin password.
const seedPasswordBytes = 16

// SeedConfig names the admin account created on first boot.
type SeedConfig struct {
	Username string
	// Password is used as given. When empty a random one is generated.
	Password string
}

// SeedAdmin creates an admin account if none exists yet.
//
// It returns the generated password when one had to be generated, and an
// empty string otherwise (including when seeding was skipped). The
// password is never logged; the caller decides how to show it.
func SeedAdmin(ctx context.Context, accounts AccountStore, cfg SeedConfig, logger *slog.Logger) (string, error) {
	admins, err := accounts.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("checking admin count: %w", err)
	}

	if admins > 0 {
		logger.Info("admin account exists, skipping seed")
		return "", nil
	}

	password := cfg.Password
	generated := ""
	if password == "" {
		b := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(b); err != nil { //nolint:govet // shadow: err re-declared in nested scope
			return "", fmt.Errorf("generating seed password: %w", err)
		}
		password = hex.EncodeToString(b)
		generated = password
	}

	account, err := newAccount(cfg.Username, password, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("preparing seed admin: %w", err)
	}

	if err := accounts.CreateAccount(ctx, account); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", account.Username,
		"generated_password", generated != "",
		"action_required", "change this password after first login",
	)

	return generated, nil
}
