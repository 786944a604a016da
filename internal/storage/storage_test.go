package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/climatlas/climatlas/internal/storage"
)

func newMemStore(t *testing.T) *storage.Store {
	t.Helper()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })
	return storage.NewStore(bucket)
}

func TestPutGet(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "runs/abc", "stations.geojson", []byte(`{"type":"FeatureCollection"}`), "application/geo+json"))

	data, err := store.Get(ctx, "runs/abc", "stations.geojson")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection"}`, string(data))
}

func TestGetMissing(t *testing.T) {
	store := newMemStore(t)

	_, err := store.Get(context.Background(), "runs/abc", "nope.csv")
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)
}

func TestExists(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "runs/abc", "out.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "runs/abc", "out.png", []byte{0x89, 'P', 'N', 'G'}, "image/png"))

	ok, err = store.Exists(ctx, "runs/abc", "out.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListScopedToFolder(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "runs/abc", "a.csv", []byte("a"), "text/csv"))
	require.NoError(t, store.Put(ctx, "runs/abc", "b.csv", []byte("b"), "text/csv"))
	require.NoError(t, store.Put(ctx, "runs/def", "c.csv", []byte("c"), "text/csv"))

	names, err := store.List(ctx, "runs/abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, names)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "weather/run-1/state.geojson", storage.Key("weather/run-1", "state.geojson"))
	assert.Equal(t, "state.geojson", storage.Key("", "state.geojson"))
}
