package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryTier_SetAndGet(t *testing.T) {
	m := NewMemoryTier()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k1", []byte{0x01, 0x02}))

	v, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestMemoryTier_GetAbsentReturnsNilNil(t *testing.T) {
	m := NewMemoryTier()

	v, err := m.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemoryTier_ValuesAreCopied(t *testing.T) {
	m := NewMemoryTier()
	ctx := context.Background()

	src := []byte("original")
	require.NoError(t, m.Set(ctx, "k", src))
	src[0] = 'X'

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), v)

	v[0] = 'Y'
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestMemoryTier_DeleteAndKeys(t *testing.T) {
	m := NewMemoryTier()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "missing")) // not an error

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, keys)
}
