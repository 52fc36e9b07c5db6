package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisRegistry(t *testing.T) (*accounts.RedisRevocations, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	registry, err := accounts.NewRedisRevocations(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	return registry, mr
}

func TestRedisRevocations(t *testing.T) {
	registry, mr := setupRedisRegistry(t)
	ctx := context.Background()

	fingerprint := uuid.NewString()
	expiresAt := time.Now().Add(time.Hour)

	t.Run("unknown fingerprints are not revoked", func(t *testing.T) {
		revoked, err := registry.IsRevoked(ctx, fingerprint)

		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoke then check", func(t *testing.T) {
		require.NoError(t, registry.Revoke(ctx, fingerprint, expiresAt))

		revoked, err := registry.IsRevoked(ctx, fingerprint)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("revoking twice is a no-op", func(t *testing.T) {
		assert.NoError(t, registry.Revoke(ctx, fingerprint, expiresAt))
	})

	t.Run("entry disappears once the token would have expired", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)

		revoked, err := registry.IsRevoked(ctx, fingerprint)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("already expired tokens are not stored", func(t *testing.T) {
		stale := uuid.NewString()
		require.NoError(t, registry.Revoke(ctx, stale, time.Now().Add(-time.Minute)))

		revoked, err := registry.IsRevoked(ctx, stale)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestNewRedisRevocations_BadURL(t *testing.T) {
	_, err := accounts.NewRedisRevocations(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}
