package optimizer

import "github.com/hupe1980/kanon/cluster"

// splitClusters splits every cluster with more than omega·k records until
// all clusters are within the bound.
func (o *Optimizer[V]) splitClusters() (bool, error) {
	limit := o.params.Omega * float64(o.k)

	var queue []cluster.Cluster[V]
	for _, h := range o.part.Handles() {
		c, _ := o.part.Get(h)
		if float64(c.Size()) <= limit {
			continue
		}
		if _, err := o.part.Release(h); err != nil {
			return false, internalErr(PhaseSplitClusters, "detach oversized cluster", err)
		}
		queue = append(queue, c)
	}
	if len(queue) == 0 {
		return false, nil
	}

	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		size := c.Size()
		a, b := c.Split()
		if a == nil || b == nil || a.Size() == 0 || b.Size() == 0 {
			return true, internalf(PhaseSplitClusters, "split of %d records produced an empty half", size)
		}
		if a.Size()+b.Size() != size {
			return true, internalf(PhaseSplitClusters, "split of %d records produced %d + %d", size, a.Size(), b.Size())
		}
		o.counters.ClustersSplit++

		for _, half := range []cluster.Cluster[V]{a, b} {
			if float64(half.Size()) > limit {
				queue = append(queue, half)
				continue
			}
			o.part.Add(half)
		}
		o.step(PhaseSplitClusters)
	}
	return true, nil
}
