package loss

import (
	"fmt"

	"github.com/hupe1980/kanon/cluster"
)

// Variance is a numeric microaggregation oracle.
//
// The loss of a cluster is Σ_a Σ_{r∈C} (x_ra − mean_a)², the size-weighted
// variance of each attribute summed over attributes. Adding a record of
// value x to a cluster of size n raises the loss of attribute a by exactly
// n/(n+1)·(x_a − mean_a)², so the loss is addition-monotone.
type Variance struct {
	data  [][]float64
	attrs int
}

var _ cluster.Oracle[float64] = (*Variance)(nil)

// NewVariance creates a Variance oracle over data (records × attributes).
// data is retained, not copied, and must not be modified while in use.
func NewVariance(data [][]float64) (*Variance, error) {
	if len(data) == 0 {
		return nil, ErrEmptyTable
	}
	attrs := len(data[0])
	if attrs == 0 {
		return nil, fmt.Errorf("%w: record 0 has no attributes", ErrRaggedTable)
	}
	for i, row := range data {
		if len(row) != attrs {
			return nil, fmt.Errorf("%w: record %d has %d attributes, want %d", ErrRaggedTable, i, len(row), attrs)
		}
	}
	return &Variance{data: data, attrs: attrs}, nil
}

// NumRecords implements cluster.Oracle.
func (v *Variance) NumRecords() int { return len(v.data) }

// NumAttributes implements cluster.Oracle.
func (v *Variance) NumAttributes() int { return v.attrs }

// NewCluster implements cluster.Oracle.
func (v *Variance) NewCluster(records []int) cluster.Cluster[float64] {
	c := &varianceCluster{
		oracle:  v,
		members: newMembers(),
		mean:    make([]float64, v.attrs),
		m2:      make([]float64, v.attrs),
	}
	for _, r := range records {
		c.Add(r)
	}
	return c
}

// varianceCluster keeps Welford aggregates per attribute.
type varianceCluster struct {
	members
	oracle *Variance
	n      int
	mean   []float64
	m2     []float64
}

func (c *varianceCluster) Size() int { return c.n }

func (c *varianceCluster) Loss() float64 {
	var sum float64
	for _, m := range c.m2 {
		sum += m
	}
	return sum
}

func (c *varianceCluster) LossIfAdded(record int) float64 {
	row := c.oracle.data[record]
	loss := c.Loss()
	if c.n == 0 {
		return loss
	}
	w := float64(c.n) / float64(c.n+1)
	for a, x := range row {
		d := x - c.mean[a]
		loss += w * d * d
	}
	return loss
}

func (c *varianceCluster) LossIfRemoved(record int) float64 {
	if c.n <= 1 {
		return 0
	}
	row := c.oracle.data[record]
	w := float64(c.n) / float64(c.n-1)
	var loss float64
	for a, x := range row {
		d := x - c.mean[a]
		loss += max(0, c.m2[a]-w*d*d)
	}
	return loss
}

func (c *varianceCluster) LossIfMerged(other cluster.Cluster[float64]) float64 {
	o, ok := other.(*varianceCluster)
	if !ok {
		return c.oracle.NewCluster(append(cluster.Collect[float64](c), cluster.Collect(other)...)).Loss()
	}
	if c.n == 0 || o.n == 0 {
		return c.Loss() + o.Loss()
	}
	w := float64(c.n) * float64(o.n) / float64(c.n+o.n)
	var loss float64
	for a := range c.mean {
		d := o.mean[a] - c.mean[a]
		loss += c.m2[a] + o.m2[a] + w*d*d
	}
	return loss
}

func (c *varianceCluster) Add(record int) {
	if c.members.contains(record) {
		return
	}
	row := c.oracle.data[record]
	c.members.add(record)
	c.n++
	for a, x := range row {
		d := x - c.mean[a]
		c.mean[a] += d / float64(c.n)
		c.m2[a] += d * (x - c.mean[a])
	}
}

func (c *varianceCluster) Remove(record int) {
	if !c.members.contains(record) {
		return
	}
	c.members.remove(record)
	row := c.oracle.data[record]
	if c.n == 1 {
		c.n = 0
		clear(c.mean)
		clear(c.m2)
		return
	}
	w := float64(c.n) / float64(c.n-1)
	for a, x := range row {
		d := x - c.mean[a]
		c.m2[a] = max(0, c.m2[a]-w*d*d)
		c.mean[a] = (float64(c.n)*c.mean[a] - x) / float64(c.n-1)
	}
	c.n--
}

func (c *varianceCluster) Merge(other cluster.Cluster[float64]) {
	o, ok := other.(*varianceCluster)
	if !ok {
		for r := range other.Records() {
			c.Add(r)
		}
		return
	}
	if o.n == 0 {
		return
	}
	if c.n == 0 {
		copy(c.mean, o.mean)
		copy(c.m2, o.m2)
		c.n = o.n
		c.members.union(o.members)
		return
	}
	total := float64(c.n + o.n)
	w := float64(c.n) * float64(o.n) / total
	for a := range c.mean {
		d := o.mean[a] - c.mean[a]
		c.m2[a] += o.m2[a] + w*d*d
		c.mean[a] += d * float64(o.n) / total
	}
	c.n += o.n
	c.members.union(o.members)
}

func (c *varianceCluster) Split() (cluster.Cluster[float64], cluster.Cluster[float64]) {
	return balancedSplit[float64](c.oracle, cluster.Collect[float64](c))
}

func (c *varianceCluster) Tuple() []float64 {
	out := make([]float64, len(c.mean))
	copy(out, c.mean)
	return out
}
