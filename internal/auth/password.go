package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2id parameters, per the OWASP 2025 recommendation.
const (
	argonTime    = 3         // iterations
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 1         // parallelism
	argonKeyLen  = 32        // output hash length
	saltLen      = 16        // per-account salt length
)

// GenerateSalt returns 16 random bytes encoded as standard base64. A new
// salt is generated for every account and every password change.
func GenerateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword hashes a plaintext password with Argon2id over the decoded
// salt. The salt is stored separately, so the result is the PHC string
// without a salt field: $argon2id$v=19$m=65536,t=3,p=1$<hash>
func HashPassword(password, salt string) (string, error) {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decoding salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks a candidate password against a stored hash and
// its salt. Both comparisons are constant-time at the primitive.
//
// Hashes starting with $2a$, $2b$ or $2y$ are bcrypt hashes of
// password+salt carried over from the previous service.
func VerifyPassword(candidate, salt, stored string) (bool, error) {
	if isBcrypt(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate+salt))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("verifying legacy hash: %w", err)
		}
	}

	hash, params, err := decodePHC(stored)
	if err != nil {
		return false, err
	}

	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("decoding salt: %w", err)
	}

	got := argon2.IDKey([]byte(candidate), saltBytes, params.time, params.memory, params.threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(hash, got) == 1, nil
}

// NeedsRehash reports whether a stored hash should be replaced on the next
// successful login: legacy bcrypt hashes and Argon2id hashes with
// parameters other than the current ones.
func NeedsRehash(stored string) bool {
	if isBcrypt(stored) {
		return true
	}
	hash, params, err := decodePHC(stored)
	if err != nil {
		return true
	}
	return params.time != argonTime ||
		params.memory != argonMemory ||
		params.threads != argonThreads ||
		len(hash) != argonKeyLen
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

// decodePHC parses a salt-less Argon2id PHC string into its components.
func decodePHC(encoded string) (hash []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 { //nolint:mnd // "", algorithm, version, params, hash
		return nil, params, fmt.Errorf("invalid PHC hash format")
	}

	if parts[1] != "argon2id" {
		return nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, params, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, params, fmt.Errorf("unsupported argon2 version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, params, fmt.Errorf("parsing parameters: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, params, fmt.Errorf("decoding hash: %w", err)
	}
	if len(hash) == 0 {
		return nil, params, fmt.Errorf("empty hash")
	}

	return hash, params, nil
}
