package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/circuitstash/core/internal/apperr"
)

func TestAccountStore_CreateAndFind(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()

	account := seedTestAccount(t, store, "alice", "password123", RoleAdmin)
	if account.ID == "" {
		t.Fatal("CreateAccount() should generate an ID")
	}

	got, err := store.FindAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("FindAccount() error = %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("ID = %q, want %q", got.ID, account.ID)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %v, want admin", got.Role)
	}
	if got.Salt != account.Salt || got.PasswordHash != account.PasswordHash {
		t.Error("salt and hash should round-trip unchanged")
	}
	if got.Disabled {
		t.Error("new account should not be disabled")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestAccountStore_FindIsCaseSensitive(t *testing.T) {
	store := NewAccountStore(testDB(t))
	seedTestAccount(t, store, "Alice", "pw", RoleUser)

	_, err := store.FindAccount(context.Background(), "alice")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("FindAccount(lowercase) error = %v, want ErrAccountNotFound", err)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Error("ErrAccountNotFound should carry the not-found kind")
	}
}

func TestAccountStore_DuplicateUsername(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()
	seedTestAccount(t, store, "alice", "pw", RoleUser)

	if err := store.SetDisabled(ctx, "alice", true); err != nil {
		t.Fatalf("SetDisabled() error = %v", err)
	}

	dup, _ := newAccount("alice", "other", RoleUser)
	err := store.CreateAccount(ctx, dup)
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("CreateAccount(duplicate of disabled) error = %v, want ErrUsernameExists", err)
	}
}

func TestAccountStore_FindReturnsDisabled(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()
	seedTestAccount(t, store, "alice", "pw", RoleUser)

	if err := store.SetDisabled(ctx, "alice", true); err != nil {
		t.Fatalf("SetDisabled() error = %v", err)
	}

	got, err := store.FindAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("FindAccount() error = %v", err)
	}
	if !got.Disabled {
		t.Error("Disabled should be true")
	}
}

func TestAccountStore_UpdatesOnMissingAccount(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()

	if err := store.SetDisabled(ctx, "ghost", true); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("SetDisabled() error = %v, want ErrAccountNotFound", err)
	}
	if err := store.SetRole(ctx, "ghost", RoleAdmin); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("SetRole() error = %v, want ErrAccountNotFound", err)
	}
	if err := store.UpdatePassword(ctx, "ghost", "h", "s"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("UpdatePassword() error = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountStore_ListAndCount(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()

	accounts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if accounts == nil || len(accounts) != 0 {
		t.Errorf("List() on empty store = %v, want empty slice", accounts)
	}

	seedTestAccount(t, store, "alice", "pw", RoleAdmin)
	seedTestAccount(t, store, "bob", "pw", RoleUser)
	seedTestAccount(t, store, "carol", "pw", RoleUser)

	accounts, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(accounts) != 3 {
		t.Errorf("List() returned %d accounts, want 3", len(accounts))
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	admins, err := store.CountByRole(ctx, RoleAdmin)
	if err != nil {
		t.Fatalf("CountByRole() error = %v", err)
	}
	if admins != 1 {
		t.Errorf("CountByRole(admin) = %d, want 1", admins)
	}
}

func TestAccountStore_SetRoleRejectsUnknownRole(t *testing.T) {
	store := NewAccountStore(testDB(t))
	seedTestAccount(t, store, "alice", "pw", RoleUser)

	if err := store.SetRole(context.Background(), "alice", Role(5)); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("SetRole(5) error = %v, want ErrInvalidRole", err)
	}
}

func TestAccountStore_StorageFailureIsInternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewAccountStore(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + accountColumns + " FROM accounts WHERE username = ?")).
		WithArgs("alice").
		WillReturnError(errors.New("disk I/O error"))

	_, err = store.FindAccount(context.Background(), "alice")
	if err == nil {
		t.Fatal("FindAccount() expected error")
	}
	if errors.Is(err, ErrAccountNotFound) {
		t.Error("storage failure must not look like a missing account")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("kind = %v, want internal", apperr.KindOf(err))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAccountStore_InsertFailureIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewAccountStore(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(errors.New("database is locked"))

	err = store.CreateAccount(context.Background(), &Account{Username: "alice", PasswordHash: "h", Salt: "s"})
	if err == nil || errors.Is(err, ErrUsernameExists) {
		t.Errorf("CreateAccount() error = %v, want wrapped storage error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
