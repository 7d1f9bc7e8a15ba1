package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownDeniesInsideWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := NewCooldowns()
	c.now = func() time.Time { return now }

	res, err := c.Check(ctx, "verify:g:u", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	now = now.Add(10 * time.Second)
	res, err = c.Check(ctx, "verify:g:u", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 20*time.Second, res.Remaining)

	now = now.Add(20 * time.Second)
	res, err = c.Check(ctx, "verify:g:u", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewCooldowns()

	a, _ := c.Check(ctx, "a", time.Minute)
	b, _ := c.Check(ctx, "b", time.Minute)
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)

	n, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.Clear(ctx, "a"))
	assert.False(t, c.Info("a").Active)
	assert.True(t, c.Info("b").Active)
}

func TestCooldownSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := NewCooldowns()
	c.now = func() time.Time { return now }

	_, _ = c.Check(ctx, "old", time.Second)
	now = now.Add(3 * time.Minute)
	_, _ = c.Check(ctx, "fresh", time.Second)

	assert.Equal(t, 1, c.Sweep(DefaultSweepMaxAge))
	assert.False(t, c.Info("old").Active)
	assert.True(t, c.Info("fresh").Active)
}
