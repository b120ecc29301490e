// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("snapshots/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	err = res.Save(ctx, store, "run-1.kans", kanon.CompressionZSTD)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large snapshots
//   - CRC32C integrity checksums on every write
//   - Conditional create via PutIfAbsent
//   - Automatic pagination for listing
package s3
