package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/circuitstash/core/internal/infrastructure/database"
)

// AccountStore defines the interface for account persistence.
// Usernames are matched exactly and case-sensitively.
type AccountStore interface {
	// FindAccount returns the account, including disabled ones, or
	// ErrAccountNotFound.
	FindAccount(ctx context.Context, username string) (*Account, error)
	// CreateAccount inserts a new account or returns ErrUsernameExists.
	// Disabled accounts still occupy their username.
	CreateAccount(ctx context.Context, account *Account) error
	List(ctx context.Context) ([]Account, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role Role) (int, error)
	SetDisabled(ctx context.Context, username string, disabled bool) error
	SetRole(ctx context.Context, username string, role Role) error
	UpdatePassword(ctx context.Context, username, passwordHash, salt string) error
}

// SQLiteAccountStore implements AccountStore using SQLite.
type SQLiteAccountStore struct {
	db *sql.DB
}

// NewAccountStore creates a new SQLite-backed account store.
func NewAccountStore(db *sql.DB) *SQLiteAccountStore {
	return &SQLiteAccountStore{db: db}
}

const accountColumns = "id, username, password_hash, salt, disabled, role, created_at, updated_at"

// CreateAccount inserts a new account. The ID is generated if empty.
func (r *SQLiteAccountStore) CreateAccount(ctx context.Context, account *Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if !account.Role.Valid() {
		return ErrInvalidRole
	}

	now := time.Now().UTC().Format(time.RFC3339)
	account.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	account.UpdatedAt = account.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Username, account.PasswordHash, account.Salt,
		boolToInt(account.Disabled), int(account.Role), now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// FindAccount retrieves an account by username.
func (r *SQLiteAccountStore) FindAccount(ctx context.Context, username string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = ?", username)
	return scanAccount(row)
}

// List returns all accounts ordered by creation date.
func (r *SQLiteAccountStore) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC, username ASC")
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// Count returns the total number of accounts.
func (r *SQLiteAccountStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// CountByRole returns the number of accounts holding role, disabled or not.
func (r *SQLiteAccountStore) CountByRole(ctx context.Context, role Role) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE role = ?", int(role),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts by role: %w", err)
	}
	return count, nil
}

// SetDisabled enables or disables an account.
func (r *SQLiteAccountStore) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return r.update(ctx, "setting disabled flag",
		"UPDATE accounts SET disabled = ?, updated_at = ? WHERE username = ?",
		boolToInt(disabled), nowString(), username)
}

// SetRole changes an account's role.
func (r *SQLiteAccountStore) SetRole(ctx context.Context, username string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return r.update(ctx, "setting role",
		"UPDATE accounts SET role = ?, updated_at = ? WHERE username = ?",
		int(role), nowString(), username)
}

// UpdatePassword replaces an account's password hash and salt together.
func (r *SQLiteAccountStore) UpdatePassword(ctx context.Context, username, passwordHash, salt string) error {
	return r.update(ctx, "updating password",
		"UPDATE accounts SET password_hash = ?, salt = ?, updated_at = ? WHERE username = ?",
		passwordHash, salt, nowString(), username)
}

// update runs a single-row UPDATE and maps zero affected rows to
// ErrAccountNotFound.
func (r *SQLiteAccountStore) update(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*Account, error) {
	var a Account
	var disabled, role int
	var createdAt, updatedAt string

	err := s.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Salt,
		&disabled, &role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.Disabled = disabled != 0
	a.Role = Role(role)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &a, nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
