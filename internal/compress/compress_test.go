package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	data := bytes.Repeat([]byte(`{"cluster":[1,2,3,4,5]},`), 500)

	for _, typ := range []Type{LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			block, err := Encode(data, typ)
			require.NoError(t, err)
			assert.Less(t, len(block), len(data)/2)

			got, err := Decode(block, typ)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestEncode_None(t *testing.T) {
	data := []byte("short")

	block, err := Encode(data, None)
	require.NoError(t, err)
	assert.Len(t, block, headerSize+len(data))

	got, err := Decode(block, None)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEncode_IncompressibleStoredRaw(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 17 % 256)
	}

	block, err := Encode(data, LZ4)
	require.NoError(t, err)

	got, err := Decode(block, LZ4)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEncode_Empty(t *testing.T) {
	block, err := Encode(nil, ZSTD)
	require.NoError(t, err)

	got, err := Decode(block, ZSTD)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncode_UnknownType(t *testing.T) {
	_, err := Encode([]byte("x"), Type(9))
	assert.Error(t, err)
	assert.False(t, Type(9).Valid())
	assert.Equal(t, "Type(9)", Type(9).String())
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{1, 2}, LZ4)
	assert.ErrorIs(t, err, ErrCorrupt)

	block, err := Encode(bytes.Repeat([]byte("abc"), 100), ZSTD)
	require.NoError(t, err)

	_, err = Decode(block[:len(block)-1], ZSTD)
	assert.ErrorIs(t, err, ErrCorrupt)

	bad := append([]byte(nil), block...)
	for i := headerSize; i < len(bad); i++ {
		bad[i] ^= 0xff
	}
	_, err = Decode(bad, ZSTD)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decode(block, None)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_OversizedHeader(t *testing.T) {
	data := bytes.Repeat([]byte("kanon"), 2000)

	for _, typ := range []Type{LZ4, ZSTD} {
		block, err := Encode(data, typ)
		require.NoError(t, err)
		require.NotZero(t, binary.LittleEndian.Uint32(block[4:]), typ)

		bad := append([]byte(nil), block...)
		binary.LittleEndian.PutUint32(bad[0:], math.MaxUint32)
		_, err = Decode(bad, typ)
		assert.ErrorIs(t, err, ErrCorrupt, typ)
		assert.ErrorContains(t, err, "cannot expand", typ)
	}

	// Within the expansion bound but disagreeing with the zstd frame.
	block, err := Encode(data, ZSTD)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(block[0:], uint32(len(data)+1))
	_, err = Decode(block, ZSTD)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_HighlyCompressible(t *testing.T) {
	data := make([]byte, 1<<20)

	for _, typ := range []Type{LZ4, ZSTD} {
		block, err := Encode(data, typ)
		require.NoError(t, err)
		got, err := Decode(block, typ)
		require.NoError(t, err, typ)
		assert.Equal(t, data, got, typ)
	}
}
