// Package auth provides authentication and authorisation for Circuit Stash.
//
// It implements a two-tier role model (user → admin) with:
//   - Per-account random salts and Argon2id password hashing, with
//     verification and on-login upgrade of legacy bcrypt hashes
//   - HS256 JWT session tokens carrying username, role and expiry
//   - An access guard that re-reads the account on every request, so a
//     disabled account loses access before its token expires
//   - A static permission table resolved through Role.Satisfies, the only
//     place where "admin implies user" is encoded
//
// Authentication failures are reported to callers as a single
// unauthorised kind. The specific reason (unknown user, disabled account,
// bad password, bad token) is only logged, and never with the credential.
package auth
