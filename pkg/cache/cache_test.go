package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/cache"
)

// These tests run without Redis, so they exercise the in-memory fallback.

func TestSetGetForget(t *testing.T) {
	cache.Flush()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	require.True(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, 1, got["a"])

	require.NoError(t, cache.Forget(ctx, "k"))
	assert.False(t, cache.Get(ctx, "k", &got))
}

func TestExpiry(t *testing.T) {
	cache.Flush()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var s string
	assert.False(t, cache.Get(ctx, "short", &s))
}

func TestRemember(t *testing.T) {
	cache.Flush()
	ctx := context.Background()
	calls := 0
	load := func() (interface{}, error) {
		calls++
		return []string{"x", "y"}, nil
	}

	var first, second []string
	require.NoError(t, cache.Remember(ctx, "list", time.Minute, &first, load))
	require.NoError(t, cache.Remember(ctx, "list", time.Minute, &second, load))

	assert.Equal(t, []string{"x", "y"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestRememberPropagatesError(t *testing.T) {
	cache.Flush()
	boom := errors.New("boom")
	var dest []string
	err := cache.Remember(context.Background(), "bad", time.Minute, &dest, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRevocations(t *testing.T) {
	cache.Flush()
	ctx := context.Background()
	var rl cache.Revocations

	revoked, err := rl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rl.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = rl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.Error(t, rl.Revoke(ctx, "", time.Minute))
}
