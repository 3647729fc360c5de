package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflowlabs/nodeflow/internal/store"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.Load(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.Save(ctx, "doc-1", []byte(`{"nodes":[]}`)))
	require.NoError(t, m.Save(ctx, "doc-2", []byte(`{}`)))

	got, err := m.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"nodes":[]}`), got)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, ids)

	require.NoError(t, m.Delete(ctx, "doc-1"))
	assert.ErrorIs(t, m.Delete(ctx, "doc-1"), store.ErrNotFound)
	_, err = m.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreCopiesBytes(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	doc := []byte("original")
	require.NoError(t, m.Save(ctx, "doc", doc))
	doc[0] = 'X'

	got, err := m.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "the store keeps its own copy")

	got[0] = 'Y'
	again, err := m.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again, "loads hand out copies too")
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.Save(ctx, "doc", []byte("v1")))
	require.NoError(t, m.Save(ctx, "doc", []byte("v2")))

	got, err := m.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}
