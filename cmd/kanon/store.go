package main

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hupe1980/kanon/blobstore"
	miniostore "github.com/hupe1980/kanon/blobstore/minio"
	s3store "github.com/hupe1980/kanon/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
)

// cacheBlockSize is the block size of the read cache enabled by --cache-blocks.
const cacheBlockSize = 1 << 20

func storeFromFlag(cmd *cobra.Command, flag string) (blobstore.Store, error) {
	raw, _ := cmd.Flags().GetString(flag)
	insecure, _ := cmd.Flags().GetBool("insecure")
	blocks, _ := cmd.Flags().GetInt("cache-blocks")

	store, err := openStore(cmd.Context(), raw, insecure)
	if err != nil || blocks <= 0 {
		return store, err
	}
	cached, err := blobstore.NewCachingStore(store, blocks, cacheBlockSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// openStore resolves a store address. Plain paths are local directories.
func openStore(ctx context.Context, raw string, insecure bool) (blobstore.Store, error) {
	if !strings.Contains(raw, "://") {
		return blobstore.NewLocalStore(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid store %q: %w", raw, err)
	}
	rest := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(filepath.FromSlash(u.Host + u.Path)), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid store %q: missing bucket", raw)
		}
		return s3store.New(ctx, u.Host, s3store.WithPrefix(rest))
	case "minio":
		bucket, prefix, _ := strings.Cut(rest, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("invalid store %q: want minio://host/bucket[/prefix]", raw)
		}
		client, err := minio.New(u.Host, &minio.Options{
			Creds:  credentials.NewEnvMinio(),
			Secure: !insecure,
		})
		if err != nil {
			return nil, err
		}
		return miniostore.NewStore(client, bucket, prefix), nil
	default:
		return nil, fmt.Errorf("invalid store %q: unknown scheme %q", raw, u.Scheme)
	}
}
