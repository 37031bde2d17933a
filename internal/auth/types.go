package auth

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role is an authorisation tier. It is persisted and carried in tokens as
// its integer value.
type Role int

const (
	// RoleUser can read and modify the inventory.
	RoleUser Role = 0

	// RoleAdmin can additionally manage accounts and reload the asset
	// catalogue. Admin passes every user-level check.
	RoleAdmin Role = 1
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Satisfies reports whether a principal holding r passes a check that
// requires required. Admin satisfies User; nothing else is implied.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// String returns "user" or "admin".
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole accepts a role name ("user", "admin") or its integer form.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "0":
		return RoleUser, nil
	case "admin", "1":
		return RoleAdmin, nil
	default:
		return 0, ErrInvalidRole
	}
}

// Account is a stored login identity.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	Salt         string    `json:"-"` // never serialised
	Disabled     bool      `json:"disabled"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated identity behind a request. Role is the
// account's role at the time the request was authenticated, not the one
// recorded in the token.
type Principal struct {
	AccountID string `json:"id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
}

// Claims are the validated contents of a session token.
type Claims struct {
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
}
