package optimizer

import (
	"context"
	"math"

	"github.com/hupe1980/kanon/cluster"
	"github.com/hupe1980/kanon/internal/partition"
)

// moveRecords relocates every record, in index order, to the cluster where
// it adds the least loss, if the move lowers the combined loss of source and
// target by more than epsilon. A record alone in its cluster always moves
// when k > 1.
//
// Complexity: O(n · clusters) loss queries.
func (o *Optimizer[V]) moveRecords(ctx context.Context) (bool, error) {
	if o.part.Len() < 2 {
		return false, nil
	}

	changed := false
	for r := 0; r < o.part.NumRecords(); r++ {
		if r%ctxCheckInterval == ctxCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return changed, err
			}
		}

		sh := o.part.Owner(r)
		source, ok := o.part.Get(sh)
		if !ok {
			return changed, internalf(PhaseMoveRecords, "record %d has no live cluster", r)
		}

		best, added, err := o.closestCluster(sh, r)
		if err != nil {
			return changed, err
		}
		target := best.Second

		before := source.Loss() + target.Loss()
		after := source.LossIfRemoved(r) + added
		singleton := source.Size() == 1 && o.k > 1
		if after-before >= -o.eps && !singleton {
			continue
		}

		target.Add(r)
		source.Remove(r)
		o.part.Assign(r, best.First)
		if source.Size() == 0 {
			if _, err := o.part.Release(sh); err != nil {
				return changed, internalErr(PhaseMoveRecords, "release emptied cluster", err)
			}
		}
		o.counters.RecordsMoved++
		changed = true
		o.step(PhaseMoveRecords)
	}
	return changed, nil
}

// closestCluster returns the cluster other than the one named by source that
// adds the least loss when record joins it, and its loss after the join.
// Ties go to the cluster in the lowest slot.
func (o *Optimizer[V]) closestCluster(source partition.Handle, record int) (cluster.Pair[partition.Handle, cluster.Cluster[V]], float64, error) {
	var (
		best  cluster.Pair[partition.Handle, cluster.Cluster[V]]
		added float64
		found bool
	)
	for h, c := range o.part.All() {
		if h == source {
			continue
		}
		loss := c.Loss()
		withRecord := c.LossIfAdded(record)
		delta := withRecord - loss
		if math.IsNaN(delta) {
			continue
		}
		if delta < -o.eps*max(1, math.Abs(loss)) {
			return best, 0, internalf(PhaseMoveRecords, "adding record %d to %s lowers its loss by %g", record, h, -delta)
		}
		if !found || delta < best.Loss {
			best = cluster.Pair[partition.Handle, cluster.Cluster[V]]{First: h, Second: c, Loss: delta}
			added = withRecord
			found = true
		}
	}
	if !found {
		return best, 0, internalf(PhaseMoveRecords, "no closest cluster for record %d", record)
	}
	return best, added, nil
}
