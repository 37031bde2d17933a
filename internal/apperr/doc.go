// Package apperr defines the error kinds shared by the auth and inventory
// packages.
//
// Each package declares its own sentinel errors (ErrPartNotFound,
// ErrUsernameExists, ...) as *Error values carrying a Kind. Callers match
// either the specific sentinel or the broad kind:
//
//	if errors.Is(err, inventory.ErrImageNotFound) { ... }
//	if errors.Is(err, apperr.ErrNotFound) { ... }
//
// The HTTP layer renders a Kind into a status code and never needs to know
// the individual sentinels.
package apperr
