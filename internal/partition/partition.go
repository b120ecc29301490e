package partition

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrInvariant is returned by Validate when the reverse index and the
	// cluster memberships disagree.
	ErrInvariant = errors.New("partition: invariant violated")
	// ErrStaleHandle is returned when a handle no longer names a live cluster.
	ErrStaleHandle = errors.New("partition: stale handle")
)

const noOwner = math.MaxUint32

// Handle is a stable reference to a cluster in the arena.
// The zero Handle never names a live cluster.
type Handle struct {
	Slot uint32
	Gen  uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.Gen == 0 }

// String returns a string representation of the Handle.
func (h Handle) String() string {
	return fmt.Sprintf("H(%d@%d)", h.Slot, h.Gen)
}

// Member is the view of a cluster the partition needs for bookkeeping.
type Member interface {
	Size() int
	Records() iter.Seq[int]
}

type slot[C Member] struct {
	c    C
	gen  uint32
	live bool
}

// Partition is a set of live clusters plus the record → cluster reverse index.
type Partition[C Member] struct {
	slots []slot[C]
	free  []uint32
	owner []uint32
	live  int
}

// New creates an empty partition over numRecords records.
func New[C Member](numRecords int) *Partition[C] {
	p := &Partition[C]{}
	p.Reset(numRecords)
	return p
}

// Reset drops every cluster and clears the reverse index.
// The index array is reused when its capacity suffices.
func (p *Partition[C]) Reset(numRecords int) {
	if cap(p.owner) >= numRecords {
		p.owner = p.owner[:numRecords]
	} else {
		p.owner = make([]uint32, numRecords)
	}
	for i := range p.owner {
		p.owner[i] = noOwner
	}
	p.slots = p.slots[:0]
	p.free = p.free[:0]
	p.live = 0
}

// NumRecords returns the number of records covered by the reverse index.
func (p *Partition[C]) NumRecords() int { return len(p.owner) }

// Len returns the number of live clusters.
func (p *Partition[C]) Len() int { return p.live }

// Add registers c and makes it the owner of all of its records.
func (p *Partition[C]) Add(c C) Handle {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, slot[C]{})
	}

	s := &p.slots[idx]
	s.c = c
	s.gen++
	s.live = true
	p.live++

	for r := range c.Records() {
		p.owner[r] = idx
	}
	return Handle{Slot: idx, Gen: s.gen}
}

// Release removes the cluster named by h and returns it.
// Records still pointing at the slot keep a dangling owner until reassigned.
func (p *Partition[C]) Release(h Handle) (C, error) {
	var zero C
	if !p.valid(h) {
		return zero, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s := &p.slots[h.Slot]
	c := s.c
	s.c = zero
	s.live = false
	s.gen++
	p.free = append(p.free, h.Slot)
	p.live--
	return c, nil
}

// Renew invalidates every handle to h's cluster and returns a fresh one.
// Use it after mutating a cluster whose handle may be cached elsewhere.
func (p *Partition[C]) Renew(h Handle) (Handle, error) {
	if !p.valid(h) {
		return Handle{}, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s := &p.slots[h.Slot]
	s.gen++
	return Handle{Slot: h.Slot, Gen: s.gen}, nil
}

// Get returns the cluster named by h.
func (p *Partition[C]) Get(h Handle) (C, bool) {
	if !p.valid(h) {
		var zero C
		return zero, false
	}
	return p.slots[h.Slot].c, true
}

// Owner returns the handle of the cluster owning record.
// It returns the zero handle if the record is unassigned.
func (p *Partition[C]) Owner(record int) Handle {
	idx := p.owner[record]
	if idx == noOwner || !p.slots[idx].live {
		return Handle{}
	}
	return Handle{Slot: idx, Gen: p.slots[idx].gen}
}

// Assign points record at the cluster named by h.
// It only updates the reverse index; the caller moves the record itself.
func (p *Partition[C]) Assign(record int, h Handle) {
	p.owner[record] = h.Slot
}

// AssignAll points every record of the cluster named by h at it.
func (p *Partition[C]) AssignAll(h Handle) error {
	c, ok := p.Get(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	for r := range c.Records() {
		p.owner[r] = h.Slot
	}
	return nil
}

// Handles returns the handles of all live clusters in slot order.
func (p *Partition[C]) Handles() []Handle {
	out := make([]Handle, 0, p.live)
	for i := range p.slots {
		if p.slots[i].live {
			out = append(out, Handle{Slot: uint32(i), Gen: p.slots[i].gen})
		}
	}
	return out
}

// All iterates over live clusters in slot order.
// The partition must not be mutated during iteration.
func (p *Partition[C]) All() iter.Seq2[Handle, C] {
	return func(yield func(Handle, C) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if !s.live {
				continue
			}
			if !yield(Handle{Slot: uint32(i), Gen: s.gen}, s.c) {
				return
			}
		}
	}
}

// Validate checks that every record belongs to exactly one live, non-empty
// cluster and that the reverse index agrees with the memberships.
//
// Complexity: O(numRecords) plus bitmap operations.
func (p *Partition[C]) Validate() error {
	seen := roaring.New()
	for h, c := range p.All() {
		if c.Size() == 0 {
			return fmt.Errorf("%w: empty cluster %s", ErrInvariant, h)
		}
		n := 0
		for r := range c.Records() {
			if r < 0 || r >= len(p.owner) {
				return fmt.Errorf("%w: record %d out of range in %s", ErrInvariant, r, h)
			}
			if !seen.CheckedAdd(uint32(r)) {
				return fmt.Errorf("%w: record %d in more than one cluster", ErrInvariant, r)
			}
			if p.owner[r] != h.Slot {
				return fmt.Errorf("%w: record %d indexed to slot %d, member of %s", ErrInvariant, r, p.owner[r], h)
			}
			n++
		}
		if n != c.Size() {
			return fmt.Errorf("%w: %s reports size %d, has %d records", ErrInvariant, h, c.Size(), n)
		}
	}
	if got := seen.GetCardinality(); got != uint64(len(p.owner)) {
		return fmt.Errorf("%w: %d of %d records assigned", ErrInvariant, got, len(p.owner))
	}
	return nil
}

func (p *Partition[C]) valid(h Handle) bool {
	if h.Gen == 0 || int(h.Slot) >= len(p.slots) {
		return false
	}
	s := &p.slots[h.Slot]
	return s.live && s.gen == h.Gen
}
