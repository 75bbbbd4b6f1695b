package redisguard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Guard{Client: client, Prefix: "idem:"}
}

func TestClaim_FirstSucceedsSecondConflicts(t *testing.T) {
	g := newTestGuard(t)
	ctx := context.Background()

	first, err := g.Claim(ctx, "org/repo:1:abc", time.Hour)
	require.NoError(t, err)
	require.True(t, first)

	second, err := g.Claim(ctx, "org/repo:1:abc", time.Hour)
	require.NoError(t, err)
	require.False(t, second)
}

func TestClaim_DifferentKeysIndependent(t *testing.T) {
	g := newTestGuard(t)
	ctx := context.Background()

	a, err := g.Claim(ctx, "org/repo:1:sha1", time.Hour)
	require.NoError(t, err)
	require.True(t, a)

	b, err := g.Claim(ctx, "org/repo:1:sha2", time.Hour)
	require.NoError(t, err)
	require.True(t, b)
}
