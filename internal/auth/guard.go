package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Guard resolves bearer tokens to principals.
type Guard struct {
	tokens   *TokenService
	accounts AccountStore
	logger   *slog.Logger
}

// NewGuard creates an access guard.
func NewGuard(tokens *TokenService, accounts AccountStore, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, accounts: accounts, logger: logger}
}

// CurrentPrincipal validates token and re-reads its account. A token for
// an account that has since been disabled or removed fails even before it
// expires, and the returned role is the account's current one.
//
// Failures are ErrUnauthorized, ErrTokenInvalid or ErrAccountDisabled;
// callers render all three the same way.
func (g *Guard) CurrentPrincipal(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		reason := "invalid_token"
		if IsExpired(err) {
			reason = "expired_token"
		}
		g.logger.DebugContext(ctx, "token rejected", "reason", reason, "error", err)
		return Principal{}, err
	}

	account, err := g.accounts.FindAccount(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			g.logger.InfoContext(ctx, "token rejected", "reason", "unknown_user", "username", claims.Username)
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, fmt.Errorf("loading account: %w", err)
	}

	if account.Disabled {
		g.logger.InfoContext(ctx, "token rejected", "reason", "disabled_account", "username", account.Username)
		return Principal{}, ErrAccountDisabled
	}

	return Principal{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	}, nil
}

// RequireRole returns p unchanged if its role satisfies required, and
// ErrForbidden otherwise.
func RequireRole(p Principal, required Role) (Principal, error) {
	if !p.Role.Satisfies(required) {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

// RequirePermission is RequireRole for the role that holds perm.
func RequirePermission(p Principal, perm Permission) (Principal, error) {
	if !HasPermission(p.Role, perm) {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
