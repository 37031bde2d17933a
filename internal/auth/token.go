package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session lifetime used when none is configured.
const DefaultTokenTTL = 30 * time.Minute

// sessionClaims is the JWT payload. Role is a pointer so a token without a
// role claim can be told apart from one carrying RoleUser (0).
type sessionClaims struct {
	jwt.RegisteredClaims
	Role *Role `json:"role"`
}

// TokenService issues and validates session tokens. It holds no state
// beyond the signing secret, which never changes after construction.
//
// Thread Safety: all methods are safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now. Tests use it to move past expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service signing with secret. A ttl of
// zero or less selects DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured session lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for account, valid until the returned expiry.
// Disabled accounts get ErrAccountDisabled.
//
// JWT times are whole seconds, so the issue time is cut to the second and
// the expiry is exactly ttl after it.
func (s *TokenService) Issue(account *Account) (string, time.Time, error) {
	if account.Disabled {
		return "", time.Time{}, ErrAccountDisabled
	}
	if !account.Role.Valid() {
		return "", time.Time{}, ErrInvalidRole
	}

	now := s.now().Truncate(time.Second)
	role := account.Role
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: &role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Validate checks a token's signature, algorithm, required fields and
// expiry, and returns its claims. Every failure is ErrTokenInvalid; the
// wrapped cause is for logs only.
//
// The token is accepted up to and including its expiry second. The clock
// is read once per call.
func (s *TokenService) Validate(tokenString string) (Claims, error) {
	now := s.now().Truncate(time.Second)

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.Role == nil {
		return Claims{}, fmt.Errorf("%w: missing role", ErrTokenInvalid)
	}
	if !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("%w: unknown role %d", ErrTokenInvalid, int(*claims.Role))
	}
	if claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing expiry", ErrTokenInvalid)
	}
	if now.After(claims.ExpiresAt.Time) {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, jwt.ErrTokenExpired)
	}

	out := Claims{
		Username:  claims.Subject,
		Role:      *claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// IsExpired reports whether a Validate error was caused by expiry.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
