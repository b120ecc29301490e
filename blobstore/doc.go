// Package blobstore stores named, immutable blobs such as result snapshots.
//
// Store is the interface every backend implements. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and short-lived pipelines
//   - LocalStore: local directory, atomic writes, mmap-backed reads
//   - CachingStore: block cache in front of any other Store
//   - minio.Store: MinIO or any S3-compatible server
//   - s3.Store: Amazon S3 with multipart uploads
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Open must return an error satisfying errors.Is(err, ErrNotFound) for
// missing blobs. Delete of a missing blob is not an error.
package blobstore
