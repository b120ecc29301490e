package loss

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kanon/cluster"
)

var (
	// ErrUnknownValue is returned when a table value is not a hierarchy leaf.
	ErrUnknownValue = errors.New("loss: value not found in hierarchy")
	// ErrInvalidHierarchy is returned for empty, ragged or non-nested hierarchies.
	ErrInvalidHierarchy = errors.New("loss: invalid hierarchy")
)

// Hierarchy is a value generalization hierarchy in row format: each row
// starts with a leaf value followed by its generalizations, from the most
// specific to the root.
//
//	{"34", "30-39", "*"},
//	{"36", "30-39", "*"},
//	{"41", "40-49", "*"},
//
// All rows must have the same length, and two leaves sharing a label at one
// level must share every label above it.
type Hierarchy [][]string

// Hierarchical is a categorical generalization oracle.
//
// The generalized value of an attribute is the label of the lowest level at
// which all member values coincide. Its cost is (leaves(label)−1)/(domain−1),
// and the loss of a cluster is its size times the mean cost over attributes.
// Neither factor can shrink when a record is added.
type Hierarchical struct {
	data  [][]int32
	attrs []*attribute
}

var _ cluster.Oracle[string] = (*Hierarchical)(nil)

type attribute struct {
	labels [][]int32 // leaf code → label code per level
	names  []string  // label code → label
	leaves []int     // label code → number of leaves under it
	domain int
}

// NewHierarchical creates an oracle over data (records × attributes) with
// one hierarchy per attribute.
func NewHierarchical(data [][]string, hierarchies []Hierarchy) (*Hierarchical, error) {
	if len(data) == 0 {
		return nil, ErrEmptyTable
	}
	if len(hierarchies) == 0 {
		return nil, fmt.Errorf("%w: no hierarchies", ErrInvalidHierarchy)
	}

	h := &Hierarchical{
		data:  make([][]int32, len(data)),
		attrs: make([]*attribute, len(hierarchies)),
	}
	leafCodes := make([]map[string]int32, len(hierarchies))
	for a, hier := range hierarchies {
		attr, codes, err := buildAttribute(hier)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", a, err)
		}
		h.attrs[a] = attr
		leafCodes[a] = codes
	}

	for i, row := range data {
		if len(row) != len(hierarchies) {
			return nil, fmt.Errorf("%w: record %d has %d attributes, want %d", ErrRaggedTable, i, len(row), len(hierarchies))
		}
		coded := make([]int32, len(row))
		for a, v := range row {
			code, ok := leafCodes[a][v]
			if !ok {
				return nil, fmt.Errorf("%w: record %d attribute %d value %q", ErrUnknownValue, i, a, v)
			}
			coded[a] = code
		}
		h.data[i] = coded
	}
	return h, nil
}

func buildAttribute(hier Hierarchy) (*attribute, map[string]int32, error) {
	if len(hier) == 0 || len(hier[0]) == 0 {
		return nil, nil, fmt.Errorf("%w: empty", ErrInvalidHierarchy)
	}
	height := len(hier[0])

	attr := &attribute{labels: make([][]int32, len(hier)), domain: len(hier)}
	leafCodes := make(map[string]int32, len(hier))
	levelCodes := make([]map[string]int32, height)
	for l := range levelCodes {
		levelCodes[l] = make(map[string]int32)
	}
	parent := make(map[int32]int32)

	for i, row := range hier {
		if len(row) != height {
			return nil, nil, fmt.Errorf("%w: row %d has %d levels, want %d", ErrInvalidHierarchy, i, len(row), height)
		}
		if _, dup := leafCodes[row[0]]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate leaf %q", ErrInvalidHierarchy, row[0])
		}
		leafCodes[row[0]] = int32(i)

		path := make([]int32, height)
		for l, label := range row {
			code, ok := levelCodes[l][label]
			if !ok {
				code = int32(len(attr.names))
				levelCodes[l][label] = code
				attr.names = append(attr.names, label)
				attr.leaves = append(attr.leaves, 0)
			}
			attr.leaves[code]++
			path[l] = code
			if l > 0 {
				if p, seen := parent[path[l-1]]; seen && p != code {
					return nil, nil, fmt.Errorf("%w: label %q has more than one parent", ErrInvalidHierarchy, row[l-1])
				}
				parent[path[l-1]] = code
			}
		}
		attr.labels[i] = path
	}
	return attr, leafCodes, nil
}

// NumRecords implements cluster.Oracle.
func (h *Hierarchical) NumRecords() int { return len(h.data) }

// NumAttributes implements cluster.Oracle.
func (h *Hierarchical) NumAttributes() int { return len(h.attrs) }

// NewCluster implements cluster.Oracle.
func (h *Hierarchical) NewCluster(records []int) cluster.Cluster[string] {
	c := &hierarchicalCluster{
		oracle:  h,
		members: newMembers(),
		state:   make([]attrState, len(h.attrs)),
	}
	for a := range c.state {
		c.state[a].counts = make(map[int32]int)
	}
	for _, r := range records {
		c.Add(r)
	}
	return c
}

// lca returns the lowest level at which leaves x and y share a label.
func (a *attribute) lca(x, y int32) int {
	if x == y {
		return 0
	}
	px, py := a.labels[x], a.labels[y]
	for l := range px {
		if px[l] == py[l] {
			return l
		}
	}
	return len(px) - 1
}

func (a *attribute) cost(ref int32, level int) float64 {
	if a.domain <= 1 {
		return 0
	}
	return float64(a.leaves[a.labels[ref][level]]-1) / float64(a.domain-1)
}

// attrState tracks the distinct leaves of one attribute within a cluster.
type attrState struct {
	counts map[int32]int
	ref    int32
	level  int
}

type hierarchicalCluster struct {
	members
	oracle *Hierarchical
	n      int
	state  []attrState
}

func (c *hierarchicalCluster) Size() int { return c.n }

func (c *hierarchicalCluster) Loss() float64 {
	if c.n == 0 {
		return 0
	}
	var sum float64
	for a, s := range c.state {
		sum += c.oracle.attrs[a].cost(s.ref, s.level)
	}
	return float64(c.n) * sum / float64(len(c.state))
}

func (c *hierarchicalCluster) LossIfAdded(record int) float64 {
	if c.n == 0 {
		return 0
	}
	row := c.oracle.data[record]
	var sum float64
	for a, s := range c.state {
		attr := c.oracle.attrs[a]
		sum += attr.cost(s.ref, max(s.level, attr.lca(s.ref, row[a])))
	}
	return float64(c.n+1) * sum / float64(len(c.state))
}

func (c *hierarchicalCluster) LossIfRemoved(record int) float64 {
	if c.n <= 1 {
		return 0
	}
	row := c.oracle.data[record]
	var sum float64
	for a, s := range c.state {
		attr := c.oracle.attrs[a]
		if s.counts[row[a]] > 1 {
			sum += attr.cost(s.ref, s.level)
			continue
		}
		ref, level := s.without(attr, row[a])
		sum += attr.cost(ref, level)
	}
	return float64(c.n-1) * sum / float64(len(c.state))
}

func (c *hierarchicalCluster) LossIfMerged(other cluster.Cluster[string]) float64 {
	o, ok := other.(*hierarchicalCluster)
	if !ok {
		return c.oracle.NewCluster(append(cluster.Collect[string](c), cluster.Collect(other)...)).Loss()
	}
	switch {
	case o.n == 0:
		return c.Loss()
	case c.n == 0:
		return o.Loss()
	}
	var sum float64
	for a, s := range c.state {
		attr := c.oracle.attrs[a]
		t := o.state[a]
		sum += attr.cost(s.ref, max(s.level, t.level, attr.lca(s.ref, t.ref)))
	}
	return float64(c.n+o.n) * sum / float64(len(c.state))
}

func (c *hierarchicalCluster) Add(record int) {
	if c.members.contains(record) {
		return
	}
	c.members.add(record)
	row := c.oracle.data[record]
	for a := range c.state {
		s := &c.state[a]
		v := row[a]
		if c.n == 0 {
			s.ref, s.level = v, 0
		} else {
			s.level = max(s.level, c.oracle.attrs[a].lca(s.ref, v))
		}
		s.counts[v]++
	}
	c.n++
}

func (c *hierarchicalCluster) Remove(record int) {
	if !c.members.contains(record) {
		return
	}
	c.members.remove(record)
	row := c.oracle.data[record]
	for a := range c.state {
		s := &c.state[a]
		v := row[a]
		if s.counts[v] > 1 {
			s.counts[v]--
			continue
		}
		s.ref, s.level = s.without(c.oracle.attrs[a], v)
		delete(s.counts, v)
	}
	c.n--
}

func (c *hierarchicalCluster) Merge(other cluster.Cluster[string]) {
	o, ok := other.(*hierarchicalCluster)
	if !ok {
		for r := range other.Records() {
			c.Add(r)
		}
		return
	}
	if o.n == 0 {
		return
	}
	for a := range c.state {
		s, t := &c.state[a], &o.state[a]
		if c.n == 0 {
			s.ref, s.level = t.ref, t.level
		} else {
			s.level = max(s.level, t.level, c.oracle.attrs[a].lca(s.ref, t.ref))
		}
		for v, n := range t.counts {
			s.counts[v] += n
		}
	}
	c.n += o.n
	c.members.union(o.members)
}

func (c *hierarchicalCluster) Split() (cluster.Cluster[string], cluster.Cluster[string]) {
	return balancedSplit[string](c.oracle, cluster.Collect[string](c))
}

func (c *hierarchicalCluster) Tuple() []string {
	out := make([]string, len(c.state))
	for a, s := range c.state {
		attr := c.oracle.attrs[a]
		out[a] = attr.names[attr.labels[s.ref][s.level]]
	}
	return out
}

// without returns the reference leaf and level of the attribute after the
// last occurrence of leaf v is removed.
//
// Complexity: O(distinct · height).
func (s *attrState) without(attr *attribute, v int32) (int32, int) {
	ref := s.ref
	if ref == v {
		found := false
		for u := range s.counts {
			if u != v {
				ref, found = u, true
				break
			}
		}
		if !found {
			return v, 0
		}
	}
	level := 0
	for u := range s.counts {
		if u != v {
			level = max(level, attr.lca(ref, u))
		}
	}
	return ref, level
}
