// Package revocation records logged-out tokens.
//
// Logout is stateless unless a redis URL is configured: the default Store
// accepts revocations and forgets them, so an access token stays usable
// until it expires.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store remembers revoked token ids until they would have expired anyway
type Store interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NoopStore never remembers anything
type NoopStore struct{}

func (NoopStore) Revoke(context.Context, string, time.Duration) error { return nil }

func (NoopStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }

const keyPrefix = "admin:revoked:"

// RedisStore keeps revoked token ids as expiring redis keys
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Dial parses a redis:// URL and checks the server is reachable
func Dial(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to remember
		return nil
	}
	return s.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
