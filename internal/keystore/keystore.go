// Package keystore resolves connection credentials. Secrets live in the OS
// keyring under the "finch" service; environment variables are the fallback
// for headless deployments where no keyring is available.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const service = "finch"

// ErrNotFound is returned when a credential exists in neither the keyring
// nor the environment.
var ErrNotFound = errors.New("credential not found")

// EnvName maps a credential key like "twitter.access_token" to its
// environment variable form, TWITTER_ACCESS_TOKEN.
func EnvName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Get resolves a credential by key. The keyring wins; the environment
// variable is consulted when the keyring has no entry or is unavailable.
func Get(key string) (string, error) {
	secret, err := keyring.Get(service, key)
	if err == nil && secret != "" {
		return secret, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return "", fmt.Errorf("keyring get %s: %w", key, err)
	}

	if v := os.Getenv(EnvName(key)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s (keyring entry or %s)", ErrNotFound, key, EnvName(key))
}

// Set stores a credential in the keyring.
func Set(key, value string) error {
	if err := keyring.Set(service, key, value); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

// Delete removes a credential from the keyring. Missing entries are not an
// error.
func Delete(key string) error {
	err := keyring.Delete(service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}
