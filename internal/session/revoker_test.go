package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRevoker(t *testing.T) (*RedisRevoker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRevoker(client), mr
}

func TestRedisRevoker_RevokeAndCheck(t *testing.T) {
	revoker, _ := setupTestRevoker(t)
	ctx := context.Background()

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Other tokens stay valid.
	revoked, err = revoker.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevoker_EntryExpires(t *testing.T) {
	revoker, mr := setupTestRevoker(t)
	ctx := context.Background()

	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Minute))

	mr.FastForward(2 * time.Minute)

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "denylist entry should expire with the token")
}

func TestRedisRevoker_NonPositiveTTL(t *testing.T) {
	revoker, _ := setupTestRevoker(t)
	ctx := context.Background()

	// A token past its expiry needs no denylist entry.
	require.NoError(t, revoker.Revoke(ctx, "jti-1", -time.Minute))

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNoopRevoker(t *testing.T) {
	revoker := NewNoopRevoker()
	ctx := context.Background()

	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
