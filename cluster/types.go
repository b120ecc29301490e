package cluster

import (
	"fmt"
	"iter"
)

// Cluster is a group of records that is generalized (or suppressed) as a unit.
//
// Implementations keep enough aggregate state to answer the LossIf* queries
// without recomputing from scratch. A Cluster is owned by a single optimizer
// run and is never accessed concurrently.
type Cluster[V any] interface {
	// Size returns the number of member records.
	Size() int

	// Records yields the member record indices.
	// The sequence must be deterministic for a given membership.
	Records() iter.Seq[int]

	// Loss returns the information loss of the current membership.
	Loss() float64

	// LossIfAdded returns the loss the cluster would have after adding record.
	LossIfAdded(record int) float64

	// LossIfMerged returns the loss of the union of this cluster and other.
	LossIfMerged(other Cluster[V]) float64

	// LossIfRemoved returns the loss the cluster would have after removing record.
	// Removing the last record yields the loss of an empty cluster (0).
	LossIfRemoved(record int) float64

	// Add adds record to the cluster.
	Add(record int)

	// Remove removes record from the cluster.
	Remove(record int)

	// Merge moves every record of other into this cluster.
	// other must not be used afterwards.
	Merge(other Cluster[V])

	// Split partitions the membership into two non-empty clusters.
	// The receiver must not be used afterwards.
	Split() (Cluster[V], Cluster[V])

	// Tuple returns the generalized value of every attribute, shared by all
	// members. Its length equals Oracle.NumAttributes().
	Tuple() []V
}

// Oracle creates clusters over a fixed table of records.
type Oracle[V any] interface {
	// NumRecords returns the number of records in the table.
	NumRecords() int

	// NumAttributes returns the number of generalized attributes per record.
	NumAttributes() int

	// NewCluster creates a cluster holding the given records.
	NewCluster(records []int) Cluster[V]
}

// Pair is a transient comparison result: a candidate and its loss.
type Pair[A, B any] struct {
	First  A
	Second B
	Loss   float64
}

// String returns a string representation of the Pair.
func (p Pair[A, B]) String() string {
	return fmt.Sprintf("Pair(%v, %v: %g)", p.First, p.Second, p.Loss)
}

// Collect returns the member records of c as a slice, in iteration order.
func Collect[V any](c Cluster[V]) []int {
	out := make([]int, 0, c.Size())
	for r := range c.Records() {
		out = append(out, r)
	}
	return out
}
