package optimizer

import (
	"cmp"
	"math"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hupe1980/kanon/internal/partition"
)

// pairKey names an unordered pair of clusters; a.Slot < b.Slot.
// A merge renews the handle of the absorbing cluster, so entries of a
// cluster that has since changed can never be hit again.
type pairKey struct {
	a, b partition.Handle
}

type pairCache struct {
	lru *lru.Cache[pairKey, float64]
}

func newPairCache(size int) *pairCache {
	if size < 0 {
		return &pairCache{}
	}
	if size == 0 {
		size = DefaultPairCacheSize
	}
	c, _ := lru.New[pairKey, float64](size)
	return &pairCache{lru: c}
}

func (p *pairCache) lossIfMerged(a, b partition.Handle, compute func() float64) float64 {
	if p.lru == nil {
		return compute()
	}
	key := pairKey{a: a, b: b}
	if a.Slot > b.Slot {
		key = pairKey{a: b, b: a}
	}
	if loss, ok := p.lru.Get(key); ok {
		return loss
	}
	loss := compute()
	p.lru.Add(key, loss)
	return loss
}

// ensureMinSize merges clusters smaller than k.
//
// While more than one small cluster remains, the pair with the lowest merged
// loss is joined; the later cluster (in slot order) is absorbed into the
// earlier one, which is promoted once it reaches k. A last small cluster is
// merged into the closest large cluster, or kept if there is none.
//
// Complexity: O(s²) merge queries per merge for s small clusters, reduced by
// the pair memo.
func (o *Optimizer[V]) ensureMinSize() (bool, error) {
	var small, large []partition.Handle
	for h, c := range o.part.All() {
		if c.Size() < o.k {
			small = append(small, h)
		} else {
			large = append(large, h)
		}
	}
	if len(small) == 0 {
		return false, nil
	}

	cache := newPairCache(o.params.PairCacheSize)
	for len(small) > 1 {
		i, j, err := o.closestPair(small, cache)
		if err != nil {
			return true, err
		}

		h, err := o.absorb(small[i], small[j])
		if err != nil {
			return true, err
		}
		small = slices.Delete(small, j, j+1)

		c, _ := o.part.Get(h)
		if c.Size() >= o.k {
			small = slices.Delete(small, i, i+1)
			large = insertBySlot(large, h)
		} else {
			small[i] = h
		}
	}

	if len(small) == 1 {
		if len(large) == 0 {
			o.counters.Undersized = true
			return true, nil
		}
		t, err := o.closestLarge(small[0], large)
		if err != nil {
			return true, err
		}
		if _, err := o.absorb(large[t], small[0]); err != nil {
			return true, err
		}
	}
	return true, nil
}

// closestPair returns the indexes i < j of the pair of clusters whose merge
// has the lowest loss. Ties go to the first pair found.
func (o *Optimizer[V]) closestPair(handles []partition.Handle, cache *pairCache) (int, int, error) {
	bi, bj := -1, -1
	best := math.Inf(1)
	for i := 0; i < len(handles); i++ {
		a, _ := o.part.Get(handles[i])
		for j := i + 1; j < len(handles); j++ {
			b, _ := o.part.Get(handles[j])
			loss := cache.lossIfMerged(handles[i], handles[j], func() float64 { return a.LossIfMerged(b) })
			if math.IsNaN(loss) {
				continue
			}
			if bi < 0 || loss < best {
				bi, bj, best = i, j, loss
			}
		}
	}
	if bi < 0 {
		return 0, 0, internalf(PhaseFinalize, "no closest pair among %d small clusters", len(handles))
	}
	return bi, bj, nil
}

// closestLarge returns the index of the large cluster whose merge with the
// small cluster has the lowest loss.
func (o *Optimizer[V]) closestLarge(small partition.Handle, large []partition.Handle) (int, error) {
	s, _ := o.part.Get(small)
	bi := -1
	best := math.Inf(1)
	for i, h := range large {
		c, _ := o.part.Get(h)
		loss := s.LossIfMerged(c)
		if math.IsNaN(loss) {
			continue
		}
		if bi < 0 || loss < best {
			bi, best = i, loss
		}
	}
	if bi < 0 {
		return 0, internalf(PhaseFinalize, "no closest cluster among %d large clusters", len(large))
	}
	return bi, nil
}

// absorb merges the cluster named by src into the one named by dst and
// returns dst's renewed handle.
func (o *Optimizer[V]) absorb(dst, src partition.Handle) (partition.Handle, error) {
	d, ok := o.part.Get(dst)
	if !ok {
		return dst, internalf(PhaseFinalize, "merge target %s is stale", dst)
	}
	s, err := o.part.Release(src)
	if err != nil {
		return dst, internalErr(PhaseFinalize, "release merged cluster", err)
	}
	want := d.Size() + s.Size()
	d.Merge(s)
	if d.Size() != want {
		return dst, internalf(PhaseFinalize, "merge produced %d records, want %d", d.Size(), want)
	}

	h, err := o.part.Renew(dst)
	if err != nil {
		return dst, internalErr(PhaseFinalize, "renew merged cluster", err)
	}
	if err := o.part.AssignAll(h); err != nil {
		return h, internalErr(PhaseFinalize, "reindex merged cluster", err)
	}
	o.counters.ClustersMerged++
	o.step(PhaseFinalize)
	return h, nil
}

func insertBySlot(hs []partition.Handle, h partition.Handle) []partition.Handle {
	i, _ := slices.BinarySearchFunc(hs, h, func(a, b partition.Handle) int {
		return cmp.Compare(a.Slot, b.Slot)
	})
	return slices.Insert(hs, i, h)
}

// sortClusters sorts the records of every cluster and orders the clusters
// by their smallest record.
func sortClusters(clusters [][]int) {
	for _, c := range clusters {
		slices.Sort(c)
	}
	slices.SortFunc(clusters, func(a, b []int) int {
		return cmp.Compare(a[0], b[0])
	})
}
