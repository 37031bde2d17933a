// Package api implements the HTTP REST API for Circuit Stash.
//
// This package provides:
//   - Login with bearer session tokens, and the caller's own account
//   - REST endpoints for parts, locations, inventory rows, images and datasheets
//   - Admin endpoints for accounts, the audit trail and reloading the asset catalogues
//   - Middleware stack (request ID, logging, recovery, metrics, authentication)
//   - Prometheus metrics at /api/v1/metrics
//
// # Errors
//
// Handlers never choose status codes themselves for domain failures. They
// pass the error to writeAppError, which maps its apperr kind to a status
// and a client-safe message. Every authentication failure renders the same
// 401 body with a WWW-Authenticate: Bearer header.
//
// # Security
//
// Request URIs are passed through logging.Redact before they are logged, so
// credentials sent as query parameters do not reach the log. Login is
// throttled per client address when api.login_rate_limit is enabled.
package api
