package kanon

import (
	"context"
	"testing"

	"github.com/hupe1980/kanon/blobstore"
	"github.com/hupe1980/kanon/codec"
	"github.com/hupe1980/kanon/loss"
	"github.com/hupe1980/kanon/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericResult(t *testing.T) *Result[float64] {
	t.Helper()
	a, err := New(newVariance(t, testutil.NewRNG(4).UniformTable(50, 3)), 3, WithSeed(4))
	require.NoError(t, err)
	res, err := a.Execute(context.Background(), 1, 2)
	require.NoError(t, err)
	return res
}

func TestSnapshot_RoundTrip(t *testing.T) {
	res := numericResult(t)

	rows, hierarchies := testutil.NewRNG(5).CategoricalTable(40)
	h, err := loss.NewHierarchical(rows, hierarchies)
	require.NoError(t, err)
	a, err := New(h, 4, WithSeed(5))
	require.NoError(t, err)
	cat, err := a.Execute(context.Background(), 1, 2)
	require.NoError(t, err)

	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for _, c := range []codec.Codec{nil, codec.JSON{}, codec.GoJSON{}} {
			data, err := res.EncodeSnapshot(compression, c)
			require.NoError(t, err)
			got, err := DecodeSnapshot[float64](data)
			require.NoError(t, err, "%s", compression)
			assert.Equal(t, res, got)

			data, err = cat.EncodeSnapshot(compression, c)
			require.NoError(t, err)
			gotCat, err := DecodeSnapshot[string](data)
			require.NoError(t, err)
			assert.Equal(t, cat, gotCat)
		}
	}
}

func TestSnapshot_Corrupt(t *testing.T) {
	res := numericResult(t)
	data, err := res.EncodeSnapshot(CompressionZSTD, nil)
	require.NoError(t, err)

	mutate := func(i int, b byte) []byte {
		out := append([]byte(nil), data...)
		out[i] = b
		return out
	}

	cases := map[string][]byte{
		"empty":       nil,
		"magic":       mutate(0, 'X'),
		"version":     mutate(4, 9),
		"compression": mutate(5, 9),
		"codec":       mutate(7, 'x'),
		"name length": mutate(6, 255),
		"truncated":   data[:len(data)/2],
	}
	for name, b := range cases {
		_, err := DecodeSnapshot[float64](b)
		assert.ErrorIs(t, err, ErrInvalidSnapshot, name)
	}

	_, err = res.EncodeSnapshot(Compression(9), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSnapshot_Store(t *testing.T) {
	res := numericResult(t)
	ctx := context.Background()

	stores := map[string]blobstore.Store{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		require.NoError(t, res.Save(ctx, store, "runs/latest.kans", CompressionLZ4), name)
		got, err := LoadSnapshot[float64](ctx, store, "runs/latest.kans")
		require.NoError(t, err, name)
		assert.Equal(t, res.Clusters, got.Clusters, name)
		assert.Equal(t, res.ID, got.ID, name)

		_, err = LoadSnapshot[float64](ctx, store, "missing")
		assert.ErrorIs(t, err, blobstore.ErrNotFound, name)

		require.NoError(t, res.SaveNew(ctx, store, "runs/first.kans", CompressionZSTD), name)
		err = res.SaveNew(ctx, store, "runs/latest.kans", CompressionZSTD)
		assert.ErrorIs(t, err, blobstore.ErrExists, name)
		got, err = LoadSnapshot[float64](ctx, store, "runs/first.kans")
		require.NoError(t, err, name)
		assert.Equal(t, res.ID, got.ID, name)
	}
}

func TestReadSnapshotHeader(t *testing.T) {
	res := numericResult(t)
	data, err := res.EncodeSnapshot(CompressionLZ4, codec.JSON{})
	require.NoError(t, err)

	h, err := ReadSnapshotHeader(data)
	require.NoError(t, err)
	assert.Equal(t, SnapshotHeader{Version: 1, Compression: CompressionLZ4, Codec: "json", Size: 11}, h)

	_, err = ReadSnapshotHeader(data[:9])
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}
