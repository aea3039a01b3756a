package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	_, err := c.Get(ctx, "missing")
	require.True(t, errors.Is(err, ErrCacheMiss))

	value := []byte("encoded")
	require.NoError(t, c.Set(ctx, "k", value))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("encoded"), got, "cache must not alias caller buffers")
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Set(ctx, "c", []byte("3")))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	got, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestKeyDependsOnSettings(t *testing.T) {
	src := []byte("same bytes")
	base := Key(src, "jpeg", 80, 1280)

	assert.Equal(t, base, Key(src, "jpeg", 80, 1280))
	assert.NotEqual(t, base, Key(src, "webp", 80, 1280))
	assert.NotEqual(t, base, Key(src, "jpeg", 81, 1280))
	assert.NotEqual(t, base, Key(src, "jpeg", 80, 1024))
	assert.NotEqual(t, base, Key([]byte("other"), "jpeg", 80, 1280))
}
