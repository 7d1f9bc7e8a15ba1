package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownBlocksWithinTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewCooldowns(rdb)

	res, err := c.Check(ctx, "verify:g1:u1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	mr.FastForward(10 * time.Second)
	res, err = c.Check(ctx, "verify:g1:u1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.Remaining, time.Duration(0))
	assert.LessOrEqual(t, res.Remaining, 20*time.Second)

	// otra clave no comparte ventana
	res, err = c.Check(ctx, "verify:g1:u2", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	mr.FastForward(20 * time.Second)
	res, err = c.Check(ctx, "verify:g1:u1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCooldownKeyWithoutExpiryIsReset(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewCooldowns(rdb)

	// clave sin TTL: PTTL no da tiempo restante
	require.NoError(t, mr.Set(cooldownKey("k"), "1"))

	res, err := c.Check(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, time.Minute, mr.TTL(cooldownKey("k")))

	res, err = c.Check(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestCooldownClearAndSize(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewCooldowns(rdb)
	require.NoError(t, mr.Set("otra:clave", "x"))

	for _, k := range []string{"a", "b", "c"} {
		_, err := c.Check(ctx, k, time.Minute)
		require.NoError(t, err)
	}
	n, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, c.Clear(ctx, "b"))
	res, err := c.Check(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
