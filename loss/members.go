package loss

import (
	"errors"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kanon/cluster"
)

var (
	// ErrEmptyTable is returned when an oracle is built without records.
	ErrEmptyTable = errors.New("loss: table has no records")
	// ErrRaggedTable is returned when records have different attribute counts.
	ErrRaggedTable = errors.New("loss: records have different attribute counts")
)

// members is the record set shared by the reference clusters.
type members struct {
	rb *roaring.Bitmap
}

func newMembers() members {
	return members{rb: roaring.New()}
}

func (m members) Size() int { return int(m.rb.GetCardinality()) }

func (m members) Records() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := m.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

func (m members) contains(record int) bool { return m.rb.Contains(uint32(record)) }

func (m members) add(record int) { m.rb.Add(uint32(record)) }

func (m members) remove(record int) { m.rb.Remove(uint32(record)) }

func (m members) union(other members) { m.rb.Or(other.rb) }

// balancedSplit splits records into two non-empty clusters of at most
// ceil(n/2) records each.
//
// The first record seeds one side; the record that would cost the most to
// add to it seeds the other. Every remaining record joins the side with the
// smaller marginal loss until that side is full.
//
// Complexity: O(n) loss queries.
func balancedSplit[V any](o cluster.Oracle[V], records []int) (cluster.Cluster[V], cluster.Cluster[V]) {
	n := len(records)
	if n < 2 {
		return o.NewCluster(records), o.NewCluster(nil)
	}

	a := o.NewCluster(records[:1])
	far, farLoss := -1, -1.0
	for i := 1; i < n; i++ {
		if l := a.LossIfAdded(records[i]); l > farLoss {
			far, farLoss = i, l
		}
	}
	b := o.NewCluster([]int{records[far]})

	capacity := (n + 1) / 2
	for i := 1; i < n; i++ {
		if i == far {
			continue
		}
		r := records[i]
		switch {
		case a.Size() >= capacity:
			b.Add(r)
		case b.Size() >= capacity:
			a.Add(r)
		case a.LossIfAdded(r)-a.Loss() <= b.LossIfAdded(r)-b.Loss():
			a.Add(r)
		default:
			b.Add(r)
		}
	}
	return a, b
}
