package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache()
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	key := TokenCacheKey(10143, "0x62f0956153dD2261E97f32d505eE6aAca671D61e")
	require.NoError(t, c.SetToken(ctx, key, &TokenMetadata{Symbol: "NAD", Decimals: 18}, time.Minute))

	got, err := c.GetToken(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NAD", got.Symbol)

	now = now.Add(2 * time.Minute)
	got, err = c.GetToken(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetToken(ctx, "k", &TokenMetadata{Symbol: "NAD"}, time.Hour))
	got, _ := c.GetToken(ctx, "k")
	got.Symbol = "changed"

	again, _ := c.GetToken(ctx, "k")
	assert.Equal(t, "NAD", again.Symbol)
}

func TestInMemoryCache_Delete(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetToken(ctx, "k", &TokenMetadata{Symbol: "NAD"}, time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))

	got, err := c.GetToken(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenCacheKey(t *testing.T) {
	assert.Equal(t,
		TokenCacheKey(1, "0xABC"),
		TokenCacheKey(1, "0xabc"),
	)
	assert.NotEqual(t, TokenCacheKey(1, "0xabc"), TokenCacheKey(2, "0xabc"))
}
