package auth

import "github.com/circuitstash/core/internal/apperr"

// Sentinel errors for auth operations. Each carries an apperr kind so the
// HTTP layer can render it without knowing about this package.
var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")
	ErrUnauthorized       = apperr.New(apperr.KindUnauthorized, "authentication required")
	ErrTokenInvalid       = apperr.New(apperr.KindUnauthorized, "invalid token")
	ErrAccountDisabled    = apperr.New(apperr.KindDisabled, "account is disabled")
	ErrAccountNotFound    = apperr.New(apperr.KindNotFound, "account not found")
	ErrUsernameExists     = apperr.New(apperr.KindAlreadyExists, "username already exists")
	ErrForbidden          = apperr.New(apperr.KindForbidden, "insufficient permissions")
	ErrInvalidUsername    = apperr.New(apperr.KindInvalidInput, "username must be 1-64 characters of letters, digits, '.', '_' or '-'")
	ErrEmptyPassword      = apperr.New(apperr.KindInvalidInput, "password must not be empty")
	ErrInvalidRole        = apperr.New(apperr.KindInvalidInput, "role must be user or admin")
	ErrSelfModification   = apperr.New(apperr.KindInvalidInput, "cannot modify own account in this way")
	ErrSecretTooShort     = apperr.New(apperr.KindInternal, "signing secret is shorter than 32 bytes")
)
