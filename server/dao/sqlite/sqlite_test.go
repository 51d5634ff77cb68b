package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/hover"
	"github.com/tusmolang/tusmoc/server/serr"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func Test_PutThenGet_roundTripsIndex(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	idx := hover.Index{
		"greet": {DisplayName: "greet", Kind: hover.KindFunction, Signature: "greet() -> waxbo", Docstring: "says hello"},
	}
	key := Key("fn greet(): waxbo {}")

	require.NoError(t, c.Put(ctx, key, "main.tus", idx))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, idx, got)
}

func Test_Get_missingKeyMatchesNotFoundSentinel(t *testing.T) {
	c := openCache(t)

	_, err := c.Get(context.Background(), Key("never stored"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, serr.ErrNotFound))
	assert.False(t, errors.Is(err, serr.ErrDB))
}

func Test_Put_overwritesExistingEntry(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()
	key := Key("source")

	first := hover.Index{"a": {DisplayName: "a", Kind: hover.KindFunction}}
	second := hover.Index{"b": {DisplayName: "b", Kind: hover.KindClass}}

	require.NoError(t, c.Put(ctx, key, "main.tus", first))
	require.NoError(t, c.Put(ctx, key, "main.tus", second))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func Test_Key_isDeterministicAndContentSensitive(t *testing.T) {
	assert.Equal(t, Key("abc"), Key("abc"))
	assert.NotEqual(t, Key("abc"), Key("abd"))
}
