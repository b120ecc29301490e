package partition

import (
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type group []int

func (g *group) Size() int { return len(*g) }

func (g *group) Records() iter.Seq[int] { return slices.Values(*g) }

func newGroup(records ...int) *group {
	g := group(records)
	return &g
}

func TestPartition_AddOwnerRelease(t *testing.T) {
	p := New[*group](5)

	a := p.Add(newGroup(0, 1, 2))
	b := p.Add(newGroup(3, 4))
	require.Equal(t, 2, p.Len())
	require.NoError(t, p.Validate())

	assert.Equal(t, a, p.Owner(0))
	assert.Equal(t, b, p.Owner(4))
	assert.NotEqual(t, a, b)

	got, ok := p.Get(b)
	require.True(t, ok)
	assert.Equal(t, 2, got.Size())

	_, err := p.Release(b)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.Owner(3).IsZero())

	_, ok = p.Get(b)
	assert.False(t, ok)

	_, err = p.Release(b)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestPartition_SlotReuseInvalidatesOldHandles(t *testing.T) {
	p := New[*group](2)

	a := p.Add(newGroup(0))
	_, err := p.Release(a)
	require.NoError(t, err)

	b := p.Add(newGroup(0, 1))
	assert.Equal(t, a.Slot, b.Slot)
	assert.NotEqual(t, a.Gen, b.Gen)

	_, ok := p.Get(a)
	assert.False(t, ok)
	_, ok = p.Get(b)
	assert.True(t, ok)
}

func TestPartition_Renew(t *testing.T) {
	p := New[*group](2)
	a := p.Add(newGroup(0, 1))

	a2, err := p.Renew(a)
	require.NoError(t, err)
	assert.Equal(t, a.Slot, a2.Slot)

	_, ok := p.Get(a)
	assert.False(t, ok)
	assert.Equal(t, a2, p.Owner(1))

	_, err = p.Renew(a)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestPartition_HandlesInSlotOrder(t *testing.T) {
	p := New[*group](4)
	a := p.Add(newGroup(0))
	b := p.Add(newGroup(1))
	c := p.Add(newGroup(2, 3))

	assert.Equal(t, []Handle{a, b, c}, p.Handles())

	_, err := p.Release(b)
	require.NoError(t, err)

	var seen []Handle
	for h := range p.All() {
		seen = append(seen, h)
	}
	assert.Equal(t, []Handle{a, c}, seen)
}

func TestPartition_Validate(t *testing.T) {
	t.Run("Unassigned", func(t *testing.T) {
		p := New[*group](3)
		p.Add(newGroup(0, 1))
		assert.ErrorIs(t, p.Validate(), ErrInvariant)
	})

	t.Run("Duplicate", func(t *testing.T) {
		p := New[*group](3)
		p.Add(newGroup(0, 1))
		p.Add(newGroup(1, 2))
		assert.ErrorIs(t, p.Validate(), ErrInvariant)
	})

	t.Run("StaleIndex", func(t *testing.T) {
		p := New[*group](2)
		a := p.Add(newGroup(0))
		b := p.Add(newGroup(1))
		p.Assign(1, a)
		_ = b
		assert.ErrorIs(t, p.Validate(), ErrInvariant)
	})

	t.Run("Empty", func(t *testing.T) {
		p := New[*group](1)
		p.Add(newGroup(0))
		p.Add(newGroup())
		assert.ErrorIs(t, p.Validate(), ErrInvariant)
	})

	t.Run("MoveKeepsInvariant", func(t *testing.T) {
		ga, gb := newGroup(0, 1), newGroup(2)
		p := New[*group](3)
		a := p.Add(ga)
		b := p.Add(gb)

		*ga = (*ga)[:1]
		*gb = append(*gb, 1)
		p.Assign(1, b)
		require.NoError(t, p.Validate())
		assert.Equal(t, a, p.Owner(0))
		assert.Equal(t, b, p.Owner(1))
	})
}

func TestPartition_Reset(t *testing.T) {
	p := New[*group](3)
	p.Add(newGroup(0, 1, 2))

	p.Reset(2)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 2, p.NumRecords())
	assert.True(t, p.Owner(0).IsZero())

	p.Add(newGroup(0, 1))
	require.NoError(t, p.Validate())
}
