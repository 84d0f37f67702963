// Package secrets resolves credentials that should not live in plain environment files.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"reactor/backend/pkg/config"
	"reactor/backend/pkg/logger"
)

// ErrSecretNotFound is returned when a source does not hold the key.
var ErrSecretNotFound = errors.New("secret not found")

// Keys the service reads from a secret source.
const (
	KeyDatabasePassword = "db_password"
	KeyRedisURL         = "redis_url"
)

// Source looks up a secret by key
type Source interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// EnvSource reads secrets from environment variables named after the key,
// upper-cased with dashes and dots turned into underscores.
type EnvSource struct{}

// Lookup implements Source
func (EnvSource) Lookup(_ context.Context, key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}
	return "", ErrSecretNotFound
}

// Chain tries each source in order and returns the first hit
type Chain []Source

// Lookup implements Source
func (c Chain) Lookup(ctx context.Context, key string) (string, error) {
	for _, src := range c {
		value, err := src.Lookup(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
	}
	return "", ErrSecretNotFound
}

// Apply overrides the credentials in cfg with values found in src. Keys the
// source does not hold keep their configured values.
func Apply(ctx context.Context, cfg *config.Config, src Source, log *logger.Logger) error {
	targets := map[string]*string{
		KeyDatabasePassword: &cfg.Database.Password,
		KeyRedisURL:         &cfg.Redis.URL,
	}
	for key, target := range targets {
		value, err := src.Lookup(ctx, key)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		*target = value
		log.Debug("Secret applied", "key", key)
	}
	return nil
}
