package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	data := []byte("hello world, this is a test blob for kanon")
	require.NoError(t, store.Put(ctx, "runs/a.kans", data))

	_, err := os.Stat(filepath.Join(tmpDir, "runs", "a.kans"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, "runs/a.kans")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))
	require.NoError(t, blob.Close())

	got, err := ReadAll(ctx, store, "runs/a.kans")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Overwrite is atomic and leaves no temporary files behind.
	require.NoError(t, store.Put(ctx, "runs/a.kans", []byte("v2")))
	require.NoError(t, store.Put(ctx, "b.kans", nil))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.kans", "runs/a.kans"}, names)

	names, err = store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a.kans"}, names)

	got, err = ReadAll(ctx, store, "b.kans")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Delete(ctx, "runs/a.kans"))
	require.NoError(t, store.Delete(ctx, "runs/a.kans"))
	_, err = store.Open(ctx, "runs/a.kans")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_InvalidNames(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "/abs"} {
		assert.ErrorIs(t, store.Put(ctx, name, []byte("x")), ErrInvalidName, name)
		_, err := store.Open(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("snapshot")
	require.NoError(t, store.Put(ctx, "b", data))
	require.NoError(t, store.Put(ctx, "a", []byte("x")))
	data[0] = 'S'

	got, err := ReadAll(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(got))

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "shot", string(buf))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	assert.ErrorIs(t, store.Put(ctx, "", nil), ErrInvalidName)

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Open(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Put(canceled, "c", nil), context.Canceled)
}

func TestLocalStore_PutIfAbsent(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	require.NoError(t, store.PutIfAbsent(ctx, "runs/a.kans", []byte("first")))
	err := store.PutIfAbsent(ctx, "runs/a.kans", []byte("second"))
	require.ErrorIs(t, err, ErrExists)

	got, err := ReadAll(ctx, store, "runs/a.kans")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	entries, err := os.ReadDir(filepath.Join(tmpDir, "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.ErrorIs(t, store.PutIfAbsent(ctx, "../escape", nil), ErrInvalidName)
}

func TestMemoryStore_PutIfAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, PutIfAbsent(ctx, store, "a", []byte("first")))
	assert.ErrorIs(t, PutIfAbsent(ctx, store, "a", []byte("second")), ErrExists)

	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	assert.ErrorIs(t, store.PutIfAbsent(ctx, "", nil), ErrInvalidName)
}

// plainStore hides every optional interface of the wrapped store.
type plainStore struct{ Store }

func TestPutIfAbsent_Unsupported(t *testing.T) {
	err := PutIfAbsent(context.Background(), plainStore{NewMemoryStore()}, "a", nil)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}
