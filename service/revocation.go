// file: service/revocation.go

package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker is the revocation-list seam consulted by the authentication
// gate. Logout does not revoke access tokens today (they stay valid until
// natural expiry); active revocation only needs a caller for Revoke.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// IRevocationClient narrows the Redis client surface the revoker needs.
// This abstraction decouples the revoker from a concrete Redis client,
// which keeps it testable without a running server.
type IRevocationClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRevoker stores revoked tokens with a TTL matching the token's own
// remaining lifetime, so entries expire on their own.
type RedisRevoker struct {
	client IRevocationClient
}

func NewRedisRevoker(client IRevocationClient) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func revocationKey(token string) string {
	return "revoked_token:" + token
}

func (r *RedisRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, revocationKey(token), 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NoopRevoker is used when no Redis is configured.
type NoopRevoker struct{}

func (NoopRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return nil
}

func (NoopRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	return false, nil
}
