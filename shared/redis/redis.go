package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reactor/backend/pkg/resilience"

	"github.com/redis/go-redis/v9"
)

// RedisClient is a thin wrapper over go-redis used for short-lived per-user state.
type RedisClient struct {
	client  *redis.Client
	breaker *resilience.Breaker
}

// NewRedisClient connects using a redis:// URL
func NewRedisClient(url string) (*RedisClient, error) {
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisClient{client: redis.NewClient(opts)}, nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// WithBreaker routes every call except Ping through b. Ping is never guarded
// so health checks keep probing a tripped connection.
func (r *RedisClient) WithBreaker(b *resilience.Breaker) *RedisClient {
	r.breaker = b
	return r
}

func (r *RedisClient) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.breaker == nil {
		return fn(ctx)
	}
	return r.breaker.Execute(ctx, fn)
}

// Set stores value under key
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.guard(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, expiration).Err()
	})
}

// Get returns the value under key. A missing key is reported with an error
// matching IsNil and does not count against the breaker.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	var (
		value   string
		missing bool
	)
	err := r.guard(ctx, func(ctx context.Context) error {
		var err error
		value, err = r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return "", err
	}
	if missing {
		return "", redis.Nil
	}
	return value, nil
}

// Del removes key
func (r *RedisClient) Del(ctx context.Context, key string) error {
	return r.guard(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, key).Err()
	})
}

// Ping checks the connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// IsNil reports whether err means the key was absent
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
