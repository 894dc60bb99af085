package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newRedisParkedSales(t *testing.T) (*RedisParkedSales, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisParkedSales(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c, mr
}

func TestRedisParkAndTake(t *testing.T) {
	c, mr := newRedisParkedSales(t)
	ctx := context.Background()

	require.NoError(t, c.Park(ctx, "park-1", "[Coffee~~2.5~~2]", time.Hour))
	require.True(t, mr.Exists(parkedKeyPrefix+"park-1"))

	blob, ok, err := c.Take(ctx, "park-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[Coffee~~2.5~~2]", blob)

	_, ok, err = c.Take(ctx, "park-1")
	require.NoError(t, err)
	require.False(t, ok, "take must remove the parked sale")
}

func TestRedisParkedSaleExpires(t *testing.T) {
	c, mr := newRedisParkedSales(t)
	ctx := context.Background()

	require.NoError(t, c.Park(ctx, "park-2", "[Bagel~~1.75~~1]", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Take(ctx, "park-2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisTakeSurfacesConnectionErrors(t *testing.T) {
	c, mr := newRedisParkedSales(t)
	mr.Close()

	_, _, err := c.Take(context.Background(), "park-3")
	require.Error(t, err)
}

func TestMemoryParkAndTake(t *testing.T) {
	m := NewMemoryParkedSales()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Park(ctx, "a", "[Muffin~~2.95~~1]", time.Hour))
	require.NoError(t, m.Park(ctx, "b", "[Juice~~3.25~~1]", time.Minute))

	now = now.Add(10 * time.Minute)

	blob, ok, err := m.Take(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[Muffin~~2.95~~1]", blob)

	_, ok, err = m.Take(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok, "expired entry must not be returned")

	_, ok, _ = m.Take(ctx, "a")
	require.False(t, ok)
}
