// Package partition provides the mutable cluster arena used by the optimizer.
//
// Clusters live in slots and are addressed by generation-tagged handles, so
// two handles compare equal only if they name the same live cluster instance.
// Releasing a slot (or renewing a mutated cluster) bumps its generation and
// every outstanding handle to the old instance becomes stale.
//
// The reverse index (record → owning slot) is an array owned by the
// Partition value. It is never shared between partitions.
//
// # Concurrency Model
//
// A Partition has a single writer and no concurrent readers. It is not safe
// for concurrent use.
package partition
