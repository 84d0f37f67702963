package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reactor/backend/pkg/cache"
	"reactor/backend/pkg/config"
	"reactor/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

// ErrNoVaultToken is returned when vault is configured without a token.
var ErrNoVaultToken = errors.New("no vault token provided")

// VaultConfig holds configuration for the Vault client
type VaultConfig struct {
	Address   string
	Token     string
	Namespace string
	// Mount is the KV v2 engine mount, Path the secret inside it
	Mount      string
	Path       string
	Timeout    time.Duration
	MaxRetries int
	// CacheTTL is how long a read secret is reused
	CacheTTL time.Duration
}

// VaultConfigFrom maps the environment configuration
func VaultConfigFrom(cfg *config.Config) VaultConfig {
	return VaultConfig{
		Address:    cfg.Vault.Address,
		Token:      cfg.Vault.Token,
		Namespace:  cfg.Vault.Namespace,
		Mount:      cfg.Vault.Mount,
		Path:       cfg.Vault.Path,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		CacheTTL:   5 * time.Minute,
	}
}

// VaultSource reads secrets from one KV v2 secret. The whole secret is read
// at once and cached.
type VaultSource struct {
	kv    *vault.KVv2
	path  string
	cache *cache.Cache[map[string]any]
	log   *logger.Logger
}

// NewVaultSource creates a Vault client for cfg
func NewVaultSource(cfg VaultConfig, log *logger.Logger) (*VaultSource, error) {
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if cfg.Path == "" {
		cfg.Path = "reactor"
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	if cfg.Timeout > 0 {
		vaultConfig.Timeout = cfg.Timeout
	}
	vaultConfig.MaxRetries = cfg.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultSource{
		kv:    client.KVv2(cfg.Mount),
		path:  cfg.Path,
		cache: cache.New[map[string]any](cache.Options{TTL: cfg.CacheTTL, MaxItems: 1}),
		log:   log,
	}, nil
}

// Lookup implements Source
func (s *VaultSource) Lookup(ctx context.Context, key string) (string, error) {
	data, ok := s.cache.Get(s.path)
	if !ok {
		secret, err := s.kv.Get(ctx, s.path)
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		if err != nil {
			s.log.Error("Failed to read secret from Vault", "path", s.path, "error", err.Error())
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		data = secret.Data
		s.cache.Set(s.path, data)
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}
