package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MinSecretBytes is the minimum decoded length of the signing secret.
const MinSecretBytes = 32

const (
	secretDirPermissions  = 0700
	secretFilePermissions = 0600
)

// LoadSecret reads a base64-encoded signing secret from path. Errors name
// the file but never include its contents.
func LoadSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("reading secret file %s: %w", path, err)
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("secret file %s is not valid base64", path)
	}
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("secret file %s: %w", path, ErrSecretTooShort)
	}
	return secret, nil
}

// GenerateSecret returns 32 random bytes, base64-encoded, suitable for a
// secret file.
func GenerateSecret() (string, error) {
	b := make([]byte, MinSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// WriteSecretFile generates a secret and writes it to path with 0600
// permissions. An existing file is only replaced when overwrite is set.
func WriteSecretFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("secret file %s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking secret file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), secretDirPermissions); err != nil {
		return fmt.Errorf("creating secret directory: %w", err)
	}

	secret, err := GenerateSecret()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(secret+"\n"), secretFilePermissions); err != nil {
		return fmt.Errorf("writing secret file: %w", err)
	}
	return os.Chmod(path, secretFilePermissions)
}
