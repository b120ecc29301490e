package optimizer

import (
	"cmp"
	"math"
	"slices"
)

// bestPartition is the best partition seen by the move/split loop, stored
// as the owning slot of every record. Fewer records in undersized clusters
// rank first, then lower total loss.
type bestPartition struct {
	short  int
	loss   float64
	owners []uint32
	// stale counts the rounds since the last improvement.
	stale int
}

// score returns the number of records in clusters below k and the total loss.
func (o *Optimizer[V]) score() (short int, total float64) {
	for _, c := range o.part.All() {
		if c.Size() < o.k {
			short += c.Size()
		}
		total += c.Loss()
	}
	return short, total
}

// improves reports whether (short, loss) beats the stored partition by more
// than epsilon.
func (o *Optimizer[V]) improves(b *bestPartition, short int, loss float64) bool {
	if b.owners == nil {
		return true
	}
	if short != b.short {
		return short < b.short
	}
	return loss < b.loss-o.eps*max(1, math.Abs(b.loss))
}

// recordBest snapshots the current partition if it improves on the best one.
//
// Complexity: O(clusters), plus O(n) when a new best is stored.
func (o *Optimizer[V]) recordBest(b *bestPartition) {
	short, loss := o.score()
	if !o.improves(b, short, loss) {
		b.stale++
		return
	}
	b.short, b.loss, b.stale = short, loss, 0
	if b.owners == nil {
		b.owners = make([]uint32, o.part.NumRecords())
	}
	for r := range b.owners {
		b.owners[r] = o.part.Owner(r).Slot
	}
}

// restoreBest rebuilds the snapshot unless the current partition ranks at
// least as well. Clusters are recreated in slot order.
func (o *Optimizer[V]) restoreBest(b *bestPartition) {
	if b.owners == nil {
		return
	}
	short, loss := o.score()
	if short < b.short || (short == b.short && loss <= b.loss) {
		return
	}
	groups := make(map[uint32][]int)
	for r, slot := range b.owners {
		groups[slot] = append(groups[slot], r)
	}
	slots := make([]uint32, 0, len(groups))
	for slot := range groups {
		slots = append(slots, slot)
	}
	slices.SortFunc(slots, cmp.Compare[uint32])

	o.part.Reset(len(b.owners))
	for _, slot := range slots {
		o.part.Add(o.oracle.NewCluster(groups[slot]))
	}
}
