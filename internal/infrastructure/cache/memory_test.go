package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var got sample
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", sample{Name: "rosa", Count: 2}, time.Minute))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "rosa", Count: 2}, got)

	exists, _ := c.Exists(ctx, "k")
	assert.True(t, exists)
	ttl, _ := c.TTL(ctx, "k")
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, _ = c.Exists(ctx, "k")
	assert.False(t, exists)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "short", 1, 20*time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", 1, 0))

	time.Sleep(40 * time.Millisecond)

	var v int
	found, _ := c.Get(ctx, "short", &v)
	assert.False(t, found)

	ttl, _ := c.TTL(ctx, "forever")
	assert.Equal(t, time.Duration(-1), ttl)
}
