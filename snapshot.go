package kanon

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/kanon/blobstore"
	"github.com/hupe1980/kanon/codec"
	"github.com/hupe1980/kanon/internal/compress"
)

// Compression selects the block compression of a snapshot.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ErrInvalidSnapshot is returned when a blob is not a readable snapshot.
var ErrInvalidSnapshot = errors.New("kanon: invalid snapshot")

const (
	snapshotMagic   = "KANS"
	snapshotVersion = 1
	// magic, version, compression, codec name length
	snapshotHeaderSize = len(snapshotMagic) + 3
)

// EncodeSnapshot serializes r with the given codec (codec.Default if nil) and
// compression into a self-describing snapshot.
//
// Layout: "KANS" | version | compression | len(codec) | codec name | block,
// where block is the compressed codec payload.
func (r *Result[V]) EncodeSnapshot(compression Compression, c codec.Codec) ([]byte, error) {
	if !compression.Valid() {
		return nil, invalidParameter("compression", compression, "unknown algorithm")
	}
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) == 0 || len(name) > codec.MaxNameLen {
		return nil, invalidParameter("codec", name, "name must have 1 to 255 bytes")
	}

	payload, err := c.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("kanon: encode snapshot: %w", err)
	}
	block, err := compress.Encode(payload, compression)
	if err != nil {
		return nil, fmt.Errorf("kanon: compress snapshot: %w", err)
	}

	out := make([]byte, 0, snapshotHeaderSize+len(name)+len(block))
	out = append(out, snapshotMagic...)
	out = append(out, snapshotVersion, byte(compression), byte(len(name)))
	out = append(out, name...)
	return append(out, block...), nil
}

// SnapshotHeader describes how a snapshot is encoded.
type SnapshotHeader struct {
	Version     int
	Compression Compression
	Codec       string
	// Size is the number of header bytes preceding the compressed block.
	Size int
}

// ReadSnapshotHeader parses the header of a snapshot without decoding its
// payload.
func ReadSnapshotHeader(data []byte) (SnapshotHeader, error) {
	if len(data) < snapshotHeaderSize || string(data[:len(snapshotMagic)]) != snapshotMagic {
		return SnapshotHeader{}, fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	h := data[len(snapshotMagic):]
	if h[0] != snapshotVersion {
		return SnapshotHeader{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, h[0])
	}
	compression := Compression(h[1])
	if !compression.Valid() {
		return SnapshotHeader{}, fmt.Errorf("%w: unknown compression %d", ErrInvalidSnapshot, h[1])
	}
	nameLen := int(h[2])
	if len(data) < snapshotHeaderSize+nameLen {
		return SnapshotHeader{}, fmt.Errorf("%w: truncated header", ErrInvalidSnapshot)
	}
	return SnapshotHeader{
		Version:     int(h[0]),
		Compression: compression,
		Codec:       string(data[snapshotHeaderSize : snapshotHeaderSize+nameLen]),
		Size:        snapshotHeaderSize + nameLen,
	}, nil
}

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot[V any](data []byte) (*Result[V], error) {
	h, err := ReadSnapshotHeader(data)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidSnapshot, h.Codec)
	}

	payload, err := compress.Decode(data[h.Size:], h.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	var r Result[V]
	if err := c.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if len(r.Output) == 0 || r.K < 1 {
		return nil, fmt.Errorf("%w: empty result", ErrInvalidSnapshot)
	}
	return &r, nil
}

// Save writes r as a snapshot named name into store.
func (r *Result[V]) Save(ctx context.Context, store blobstore.Store, name string, compression Compression) error {
	data, err := r.EncodeSnapshot(compression, nil)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// SaveNew is like Save but fails with blobstore.ErrExists instead of
// replacing an existing snapshot. The store must implement
// blobstore.ConditionalPutter.
func (r *Result[V]) SaveNew(ctx context.Context, store blobstore.Store, name string, compression Compression) error {
	data, err := r.EncodeSnapshot(compression, nil)
	if err != nil {
		return err
	}
	return blobstore.PutIfAbsent(ctx, store, name, data)
}

// LoadSnapshot reads the snapshot named name from store.
func LoadSnapshot[V any](ctx context.Context, store blobstore.Store, name string) (*Result[V], error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot[V](data)
}
