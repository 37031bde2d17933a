package auth

import (
	"context"
	"errors"
	"testing"
)

func TestSeedAdmin_CreatesConfiguredAdmin(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()

	generated, err := SeedAdmin(ctx, store, SeedConfig{Username: "admin", Password: "admin"}, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if generated != "" {
		t.Error("configured password should not be reported as generated")
	}

	account, err := store.FindAccount(ctx, "admin")
	if err != nil {
		t.Fatalf("FindAccount() error = %v", err)
	}
	if account.Role != RoleAdmin {
		t.Errorf("Role = %v, want admin", account.Role)
	}

	svc := NewService(store, testTokens(t, nil), discardLogger())
	if _, err := svc.Login(ctx, "admin", "admin"); err != nil {
		t.Errorf("Login(admin/admin) error = %v", err)
	}
}

func TestSeedAdmin_GeneratesPassword(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()

	generated, err := SeedAdmin(ctx, store, SeedConfig{Username: "root"}, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if len(generated) != 32 {
		t.Errorf("generated password length = %d, want 32", len(generated))
	}

	svc := NewService(store, testTokens(t, nil), discardLogger())
	if _, err := svc.Login(ctx, "root", generated); err != nil {
		t.Errorf("Login() with generated password error = %v", err)
	}
}

func TestSeedAdmin_SkipsWhenAdminExists(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()
	seedTestAccount(t, store, "existing", "pw", RoleAdmin)

	generated, err := SeedAdmin(ctx, store, SeedConfig{Username: "admin", Password: "admin"}, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if generated != "" {
		t.Error("skipped seed should not return a password")
	}

	if _, err := store.FindAccount(ctx, "admin"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("seed admin should not be created, FindAccount() error = %v", err)
	}
}

func TestSeedAdmin_IgnoresUserAccounts(t *testing.T) {
	store := NewAccountStore(testDB(t))
	ctx := context.Background()
	seedTestAccount(t, store, "bob", "pw", RoleUser)

	if _, err := SeedAdmin(ctx, store, SeedConfig{Username: "admin", Password: "admin"}, discardLogger()); err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if _, err := store.FindAccount(ctx, "admin"); err != nil {
		t.Errorf("admin should be seeded alongside user accounts: %v", err)
	}
}

func TestSeedAdmin_UsernameTakenByUser(t *testing.T) {
	store := NewAccountStore(testDB(t))
	seedTestAccount(t, store, "admin", "pw", RoleUser)

	_, err := SeedAdmin(context.Background(), store, SeedConfig{Username: "admin", Password: "admin"}, discardLogger())
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("SeedAdmin() error = %v, want ErrUsernameExists", err)
	}
}
