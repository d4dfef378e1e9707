package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker tracks session tokens that were invalidated before their expiry
// (sign-out, deactivation). The authorization gate consults it on every
// request.
type Revoker interface {
	// Revoke marks the token ID as revoked until the token would have
	// expired anyway.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsRevoked reports whether the token ID has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "session:revoked:"

// RedisRevoker implements Revoker using a Redis denylist. Entries carry the
// remaining token lifetime as TTL, so the list stays bounded.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker creates a Redis-backed session revoker.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // token already expired on its own
	}

	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", tokenID, err)
	}

	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check session %s: %w", tokenID, err)
	}

	return n > 0, nil
}

// NoopRevoker is used when no Redis instance is configured. Sessions then
// remain valid until their tokens expire.
type NoopRevoker struct{}

// NewNoopRevoker creates a revoker that never revokes anything.
func NewNoopRevoker() *NoopRevoker {
	return &NoopRevoker{}
}

func (NoopRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return nil
}

func (NoopRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return false, nil
}
