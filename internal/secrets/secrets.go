// Package secrets stores credentials in the OS keyring, with environment overrides.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name for keyring storage
const KeyringService = "bizcrawl"

// Known secret names
const (
	AnthropicAPIKey = "anthropic-api-key"
	DatabaseURL     = "database-url"
	RedisPassword   = "redis-password"
)

// ErrNotFound is returned when a secret is set neither in the environment nor in the keyring
var ErrNotFound = errors.New("secret not found")

// envOverrides maps secret names to the environment variables that take precedence
var envOverrides = map[string][]string{
	AnthropicAPIKey: {"BIZCRAWL_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
	DatabaseURL:     {"BIZCRAWL_DATABASE_URL", "DATABASE_URL"},
	RedisPassword:   {"BIZCRAWL_REDIS_PASSWORD", "REDIS_PASSWORD"},
}

// Names returns the secret names the CLI knows about
func Names() []string {
	return []string{AnthropicAPIKey, DatabaseURL, RedisPassword}
}

// Get returns the secret from the environment, falling back to the keyring
func Get(name string) (string, error) {
	for _, env := range envOverrides[name] {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}

	v, err := keyring.Get(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("read %s from keyring: %w", name, err)
	}
	return v, nil
}

// Lookup is Get without the error: unavailable secrets yield ""
func Lookup(name string) string {
	v, _ := Get(name)
	return v
}

// Set stores a secret in the OS keyring
func Set(name, value string) error {
	if name == "" {
		return fmt.Errorf("secret name cannot be empty")
	}
	if value == "" {
		return fmt.Errorf("secret value cannot be empty")
	}
	if err := keyring.Set(KeyringService, name, value); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Delete removes a secret from the OS keyring
func Delete(name string) error {
	err := keyring.Delete(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
