package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Service implements login and account administration on top of an
// AccountStore and a TokenService.
type Service struct {
	accounts AccountStore
	tokens   *TokenService
	logger   *slog.Logger

	dummyOnce sync.Once
	dummySalt string
	dummyHash string
}

// NewService creates an account service.
func NewService(accounts AccountStore, tokens *TokenService, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, tokens: tokens, logger: logger}
}

// Tokens returns the token service used for issuing sessions.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Login verifies a username and password and issues a session token.
//
// Unknown users, disabled accounts and wrong passwords all return
// ErrInvalidCredentials. The reason is logged, the password never is.
// A legacy or outdated hash is replaced after a successful verify.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := s.accounts.FindAccount(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.burnVerify(password)
			s.logger.InfoContext(ctx, "login failed", "reason", "unknown_user", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	ok, err := VerifyPassword(password, account.Salt, account.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored password hash unreadable", "username", username, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.InfoContext(ctx, "login failed", "reason", "bad_password", "username", username)
		return nil, ErrInvalidCredentials
	}

	// Checked after the password so a disabled account costs the same as
	// an enabled one.
	if account.Disabled {
		s.logger.InfoContext(ctx, "login failed", "reason", "disabled_account", "username", username)
		return nil, ErrInvalidCredentials
	}

	if NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, account, password)
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.InfoContext(ctx, "login succeeded", "username", username, "role", account.Role.String())

	return &Session{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: expiresAt,
		Username:  account.Username,
		Role:      account.Role,
	}, nil
}

// rehash stores a fresh Argon2id hash and salt for account. Failure is
// logged and does not fail the login.
func (s *Service) rehash(ctx context.Context, account *Account, password string) {
	salt, err := GenerateSalt()
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash skipped", "username", account.Username, "error", err)
		return
	}
	hash, err := HashPassword(password, salt)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash skipped", "username", account.Username, "error", err)
		return
	}
	if err := s.accounts.UpdatePassword(ctx, account.Username, hash, salt); err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "username", account.Username, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "username", account.Username)
}

// burnVerify runs one hash verification against a throwaway hash so an
// unknown username takes as long as a wrong password.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		salt, err := GenerateSalt()
		if err != nil {
			return
		}
		hash, err := HashPassword("circuitstash-unknown-user", salt)
		if err != nil {
			return
		}
		s.dummySalt, s.dummyHash = salt, hash
	})
	if s.dummyHash != "" {
		_, _ = VerifyPassword(password, s.dummySalt, s.dummyHash) //nolint:errcheck // result is discarded
	}
}

// newAccount validates input and builds an account with a fresh salt.
func newAccount(username, password string, role Role) (*Account, error) {
	if !IsValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password, salt)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return &Account{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Role:         role,
	}, nil
}

// CreateAccount creates an account. Only admins may call it.
func (s *Service) CreateAccount(ctx context.Context, actor Principal, username, password string, role Role) (*Account, error) {
	if _, err := RequirePermission(actor, PermAccountManage); err != nil {
		return nil, err
	}

	account, err := newAccount(username, password, role)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created",
		"username", account.Username,
		"role", account.Role.String(),
		"created_by", actor.Username,
	)
	return account, nil
}

// ListAccounts returns every account. Only admins may call it.
func (s *Service) ListAccounts(ctx context.Context, actor Principal) ([]Account, error) {
	if _, err := RequirePermission(actor, PermAccountManage); err != nil {
		return nil, err
	}
	return s.accounts.List(ctx)
}

// GetAccount returns one account by username. Only admins may call it.
func (s *Service) GetAccount(ctx context.Context, actor Principal, username string) (*Account, error) {
	if _, err := RequirePermission(actor, PermAccountManage); err != nil {
		return nil, err
	}
	return s.accounts.FindAccount(ctx, username)
}

// SetDisabled disables or re-enables an account. Only admins may call it,
// and an admin cannot disable their own account.
func (s *Service) SetDisabled(ctx context.Context, actor Principal, username string, disabled bool) error {
	if _, err := RequirePermission(actor, PermAccountManage); err != nil {
		return err
	}
	if disabled && username == actor.Username {
		return ErrSelfModification
	}

	if err := s.accounts.SetDisabled(ctx, username, disabled); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account disabled flag changed",
		"username", username,
		"disabled", disabled,
		"changed_by", actor.Username,
	)
	return nil
}

// SetRole changes an account's role. Only admins may call it, and an
// admin cannot demote themselves.
func (s *Service) SetRole(ctx context.Context, actor Principal, username string, role Role) error {
	if _, err := RequirePermission(actor, PermAccountManage); err != nil {
		return err
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	if username == actor.Username && role != actor.Role {
		return ErrSelfModification
	}

	if err := s.accounts.SetRole(ctx, username, role); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account role changed",
		"username", username,
		"role", role.String(),
		"changed_by", actor.Username,
	)
	return nil
}

// ChangePassword replaces the actor's own password after checking the
// current one. A wrong current password is ErrInvalidCredentials.
func (s *Service) ChangePassword(ctx context.Context, actor Principal, current, next string) error {
	if _, err := RequirePermission(actor, PermAccountSelf); err != nil {
		return err
	}
	if next == "" {
		return ErrEmptyPassword
	}

	account, err := s.accounts.FindAccount(ctx, actor.Username)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(current, account.Salt, account.PasswordHash)
	if err != nil || !ok {
		s.logger.InfoContext(ctx, "password change rejected", "reason", "bad_password", "username", actor.Username)
		return ErrInvalidCredentials
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := HashPassword(next, salt)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, actor.Username, hash, salt); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password changed", "username", actor.Username)
	return nil
}
