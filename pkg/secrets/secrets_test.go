package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reactor/backend/pkg/config"
	"reactor/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kvResponse = `{
  "data": {
    "data": {"db_password": "from-vault", "redis_url": "redis://vault:6379/1"},
    "metadata": {"created_time": "2024-01-01T00:00:00Z", "deletion_time": "", "destroyed": false, "version": 3}
  }
}`

func fakeVault(t *testing.T, reads *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/v1/secret/data/reactor":
			reads.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(kvResponse))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newVault(t *testing.T, addr, path string) *VaultSource {
	t.Helper()
	src, err := NewVaultSource(VaultConfig{
		Address:  addr,
		Token:    "root",
		Path:     path,
		Timeout:  time.Second,
		CacheTTL: time.Minute,
	}, logger.Discard())
	require.NoError(t, err)
	return src
}

func TestVaultSourceReadsAndCaches(t *testing.T) {
	var reads atomic.Int32
	srv := fakeVault(t, &reads)
	src := newVault(t, srv.URL, "reactor")
	ctx := context.Background()

	v, err := src.Lookup(ctx, KeyDatabasePassword)
	require.NoError(t, err)
	assert.Equal(t, "from-vault", v)

	v, err = src.Lookup(ctx, KeyRedisURL)
	require.NoError(t, err)
	assert.Equal(t, "redis://vault:6379/1", v)
	assert.Equal(t, int32(1), reads.Load())

	_, err = src.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestVaultSourceMissingSecret(t *testing.T) {
	var reads atomic.Int32
	srv := fakeVault(t, &reads)
	src := newVault(t, srv.URL, "other")

	_, err := src.Lookup(context.Background(), KeyDatabasePassword)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestNewVaultSourceNeedsToken(t *testing.T) {
	_, err := NewVaultSource(VaultConfig{Address: "http://127.0.0.1:1"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestChainFallsBackToEnvironment(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	var reads atomic.Int32
	srv := fakeVault(t, &reads)

	chain := Chain{newVault(t, srv.URL, "other"), EnvSource{}}
	v, err := chain.Lookup(context.Background(), KeyDatabasePassword)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestApply(t *testing.T) {
	var reads atomic.Int32
	srv := fakeVault(t, &reads)

	cfg := &config.Config{}
	cfg.Database.Password = "postgres"
	cfg.Redis.URL = "redis://localhost:6379/0"

	require.NoError(t, Apply(context.Background(), cfg, newVault(t, srv.URL, "reactor"), logger.Discard()))
	assert.Equal(t, "from-vault", cfg.Database.Password)
	assert.Equal(t, "redis://vault:6379/1", cfg.Redis.URL)
}

func TestApplyKeepsConfiguredValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Password = "postgres"

	require.NoError(t, Apply(context.Background(), cfg, Chain{}, logger.Discard()))
	assert.Equal(t, "postgres", cfg.Database.Password)
}
