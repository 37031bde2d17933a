package auth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/circuitstash/core/internal/apperr"
	"github.com/circuitstash/core/internal/infrastructure/config"
	"github.com/circuitstash/core/internal/infrastructure/logging"
)

func newTestService(t *testing.T) (*Service, *SQLiteAccountStore) {
	t.Helper()
	store := NewAccountStore(testDB(t))
	return NewService(store, testTokens(t, nil), discardLogger()), store
}

var (
	admin = Principal{AccountID: "admin-id", Username: "admin", Role: RoleAdmin}
	user  = Principal{AccountID: "user-id", Username: "bob", Role: RoleUser}
)

func TestLogin_Success(t *testing.T) {
	svc, store := newTestService(t)
	seedTestAccount(t, store, "alice", "s3cret", RoleAdmin)

	session, err := svc.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Username != "alice" || session.Role != RoleAdmin || session.TokenType != "bearer" {
		t.Errorf("session = %+v", session)
	}

	claims, err := svc.Tokens().Validate(session.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %q", claims.Username)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedTestAccount(t, store, "alice", "s3cret", RoleUser)
	seedTestAccount(t, store, "dave", "s3cret", RoleUser)
	if err := store.SetDisabled(ctx, "dave", true); err != nil {
		t.Fatalf("SetDisabled() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "s3cret"},
		{"bad password", "alice", "wrong"},
		{"disabled account", "dave", "s3cret"},
		{"case differs", "Alice", "s3cret"},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
			}
			kind, msg := apperr.Public(err)
			if kind != apperr.KindUnauthorized {
				t.Errorf("public kind = %v, want unauthorised", kind)
			}
			messages = append(messages, msg)
		})
	}

	for _, m := range messages[1:] {
		if m != messages[0] {
			t.Errorf("public messages differ: %q vs %q", m, messages[0])
		}
	}
}

func TestLogin_UpgradesLegacyHash(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	salt, _ := GenerateSalt()
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin"+salt), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := store.CreateAccount(ctx, &Account{
		Username:     "admin",
		PasswordHash: string(legacy),
		Salt:         salt,
		Role:         RoleAdmin,
	}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if _, err := svc.Login(ctx, "admin", "admin"); err != nil {
		t.Fatalf("Login() with legacy hash error = %v", err)
	}

	stored, err := store.FindAccount(ctx, "admin")
	if err != nil {
		t.Fatalf("FindAccount() error = %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Errorf("hash not upgraded: %q", stored.PasswordHash)
	}
	if stored.Salt == salt {
		t.Error("salt should be regenerated on upgrade")
	}

	if _, err := svc.Login(ctx, "admin", "admin"); err != nil {
		t.Fatalf("Login() after upgrade error = %v", err)
	}
}

func TestLogin_NeverLogsPassword(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "json"}, "test")

	store := NewAccountStore(testDB(t))
	svc := NewService(store, testTokens(t, nil), logger.Logger)
	seedTestAccount(t, store, "alice", "hunter2-correct", RoleUser)
	ctx := context.Background()

	_, _ = svc.Login(ctx, "alice", "hunter2-wrong")
	_, _ = svc.Login(ctx, "ghost", "hunter2-ghost")
	if _, err := svc.Login(ctx, "alice", "hunter2-correct"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	out := buf.String()
	for _, pw := range []string{"hunter2-wrong", "hunter2-ghost", "hunter2-correct"} {
		if strings.Contains(out, pw) {
			t.Errorf("log output contains password %q", pw)
		}
	}
	for _, reason := range []string{"bad_password", "unknown_user"} {
		if !strings.Contains(out, reason) {
			t.Errorf("log output missing reason %q", reason)
		}
	}
}

func TestCreateAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, admin, "bob", "pw", RoleUser)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if account.Salt == "" || account.PasswordHash == "" {
		t.Error("account should have a salt and hash")
	}

	other, err := svc.CreateAccount(ctx, admin, "carol", "pw", RoleUser)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if other.Salt == account.Salt {
		t.Error("each account should get its own salt")
	}

	if _, err := svc.Login(ctx, "bob", "pw"); err != nil {
		t.Errorf("Login() as created account error = %v", err)
	}

	if _, err := store.FindAccount(ctx, "bob"); err != nil {
		t.Errorf("FindAccount() error = %v", err)
	}
}

func TestCreateAccount_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, admin, "bob", "pw", RoleUser); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	tests := []struct {
		name     string
		actor    Principal
		username string
		password string
		role     Role
		want     error
	}{
		{"non-admin actor", user, "eve", "pw", RoleUser, ErrForbidden},
		{"duplicate username", admin, "bob", "pw", RoleUser, ErrUsernameExists},
		{"invalid username", admin, "bad name", "pw", RoleUser, ErrInvalidUsername},
		{"empty password", admin, "eve", "", RoleUser, ErrEmptyPassword},
		{"unknown role", admin, "eve", "pw", Role(3), ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(ctx, tt.actor, tt.username, tt.password, tt.role)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateAccount() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetDisabled(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedTestAccount(t, store, "bob", "pw", RoleUser)

	if err := svc.SetDisabled(ctx, user, "bob", true); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin SetDisabled() error = %v, want ErrForbidden", err)
	}
	if err := svc.SetDisabled(ctx, admin, "admin", true); !errors.Is(err, ErrSelfModification) {
		t.Errorf("self-disable error = %v, want ErrSelfModification", err)
	}
	if err := svc.SetDisabled(ctx, admin, "ghost", true); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("unknown account error = %v, want ErrAccountNotFound", err)
	}

	if err := svc.SetDisabled(ctx, admin, "bob", true); err != nil {
		t.Fatalf("SetDisabled() error = %v", err)
	}
	if _, err := svc.Login(ctx, "bob", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() when disabled error = %v", err)
	}

	if err := svc.SetDisabled(ctx, admin, "bob", false); err != nil {
		t.Fatalf("re-enable error = %v", err)
	}
	if _, err := svc.Login(ctx, "bob", "pw"); err != nil {
		t.Errorf("Login() after re-enable error = %v", err)
	}
}

func TestSetRole(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedTestAccount(t, store, "bob", "pw", RoleUser)

	if err := svc.SetRole(ctx, admin, "admin", RoleUser); !errors.Is(err, ErrSelfModification) {
		t.Errorf("self-demotion error = %v, want ErrSelfModification", err)
	}
	if err := svc.SetRole(ctx, admin, "bob", RoleAdmin); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	got, _ := store.FindAccount(ctx, "bob")
	if got.Role != RoleAdmin {
		t.Errorf("Role = %v, want admin", got.Role)
	}
}

func TestListAccounts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedTestAccount(t, store, "bob", "pw", RoleUser)

	if _, err := svc.ListAccounts(ctx, user); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin ListAccounts() error = %v, want ErrForbidden", err)
	}

	accounts, err := svc.ListAccounts(ctx, admin)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 1 || accounts[0].Username != "bob" {
		t.Errorf("ListAccounts() = %+v", accounts)
	}
}

func TestGetAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedTestAccount(t, store, "bob", "pw", RoleUser)

	if _, err := svc.GetAccount(ctx, user, "bob"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin GetAccount() error = %v, want ErrForbidden", err)
	}
	got, err := svc.GetAccount(ctx, admin, "bob")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Username != "bob" || got.Role != RoleUser {
		t.Errorf("GetAccount() = %+v", got)
	}
	if _, err := svc.GetAccount(ctx, admin, "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetAccount(ghost) error = %v, want ErrAccountNotFound", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedTestAccount(t, store, "bob", "old", RoleUser)

	if err := svc.ChangePassword(ctx, user, "wrong", "new"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ChangePassword(wrong current) error = %v", err)
	}
	if err := svc.ChangePassword(ctx, user, "old", ""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("ChangePassword(empty) error = %v", err)
	}
	if err := svc.ChangePassword(ctx, user, "old", "new"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := svc.Login(ctx, "bob", "old"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password should no longer work")
	}
	if _, err := svc.Login(ctx, "bob", "new"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}
