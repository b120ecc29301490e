package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hupe1980/kanon"
	"github.com/hupe1980/kanon/blobstore"
	miniostore "github.com/hupe1980/kanon/blobstore/minio"
	"github.com/hupe1980/kanon/loss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSnapshot(t *testing.T, dir, name string) *kanon.Result[float64] {
	t.Helper()
	oracle, err := loss.NewVariance([][]float64{{1, 10}, {2, 11}, {3, 12}, {40, 50}, {41, 51}, {42, 52}})
	require.NoError(t, err)
	a, err := kanon.New(oracle, 3, kanon.WithSeed(1))
	require.NoError(t, err)
	res, err := a.Execute(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, res.Save(context.Background(), blobstore.NewLocalStore(dir), name, kanon.CompressionZSTD))
	return res
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kanon v0.1.0 (dev)\n", out)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "runs/a.kans")
	writeSnapshot(t, dir, "runs/b.kans")
	writeSnapshot(t, dir, "other.kans")

	out, err := run(t, "list", "--store", dir, "runs/")
	require.NoError(t, err)
	assert.Equal(t, "runs/a.kans\nruns/b.kans\n", out)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	res := writeSnapshot(t, dir, "run.kans")

	out, err := run(t, "inspect", "--store", dir, "--clusters", "run.kans")
	require.NoError(t, err)

	var s summary
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	assert.Equal(t, res.ID.String(), s.ID)
	assert.Equal(t, "zstd", s.Compression)
	assert.Equal(t, "go-json", s.Codec)
	assert.Equal(t, 3, s.K)
	assert.Equal(t, 6, s.Records)
	assert.Equal(t, 2, s.Attributes)
	assert.Equal(t, res.Statistics.NumberOfClusters, s.Statistics.Clusters)
	assert.Equal(t, res.Clusters, s.Clusters)

	out, err = run(t, "inspect", "--store", "file://"+filepath.ToSlash(dir), "--format", "json", "run.kans")
	require.NoError(t, err)
	var js summary
	require.NoError(t, json.Unmarshal([]byte(out), &js))
	assert.Equal(t, s.ID, js.ID)
	assert.Nil(t, js.Clusters)

	out, err = run(t, "inspect", "--store", dir, "--cache-blocks", "4", "--format", "json", "run.kans")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &js))
	assert.Equal(t, s.ID, js.ID)

	_, err = run(t, "inspect", "--store", dir, "--format", "xml", "run.kans")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "inspect", "--store", dir, "missing.kans")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	target := t.TempDir()
	res := writeSnapshot(t, dir, "run.kans")

	out, err := run(t, "convert", "--store", dir, "--target-store", target,
		"--compression", "lz4", "--codec", "json", "run.kans", "copy.kans")
	require.NoError(t, err)
	assert.Contains(t, out, "copy.kans (lz4, json,")

	data, err := os.ReadFile(filepath.Join(target, "copy.kans"))
	require.NoError(t, err)
	h, err := kanon.ReadSnapshotHeader(data)
	require.NoError(t, err)
	assert.Equal(t, kanon.CompressionLZ4, h.Compression)
	assert.Equal(t, "json", h.Codec)

	got, err := kanon.DecodeSnapshot[float64](data)
	require.NoError(t, err)
	assert.Equal(t, res, got)

	_, err = run(t, "convert", "--store", dir, "--compression", "brotli", "run.kans", "x.kans")
	assert.ErrorContains(t, err, "unknown compression")

	_, err = run(t, "convert", "--store", dir, "--codec", "gob", "run.kans", "x.kans")
	assert.ErrorContains(t, err, "unknown codec")
}

func TestConvert_NoClobber(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "run.kans")

	_, err := run(t, "convert", "--store", dir, "--no-clobber", "--compression", "none", "run.kans", "copy.kans")
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "copy.kans"))
	require.NoError(t, err)

	_, err = run(t, "convert", "--store", dir, "--no-clobber", "--compression", "lz4", "run.kans", "copy.kans")
	require.ErrorIs(t, err, blobstore.ErrExists)
	after, err := os.ReadFile(filepath.Join(dir, "copy.kans"))
	require.NoError(t, err)
	assert.Equal(t, first, after)

	_, err = run(t, "convert", "--store", dir, "--compression", "lz4", "run.kans", "copy.kans")
	require.NoError(t, err)
	after, err = os.ReadFile(filepath.Join(dir, "copy.kans"))
	require.NoError(t, err)
	assert.NotEqual(t, first, after)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, "snapshots", false)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, s)

	s, err = openStore(ctx, "minio://localhost:9000/bucket/runs", true)
	require.NoError(t, err)
	assert.IsType(t, &miniostore.Store{}, s)

	for _, bad := range []string{"ftp://host/x", "s3:///prefix", "minio://localhost:9000/"} {
		_, err := openStore(ctx, bad, false)
		assert.Error(t, err, bad)
	}
}
