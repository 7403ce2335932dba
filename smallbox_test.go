package smallbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackInline(t *testing.T) {
	b := Pack[S4](uint64(77))
	defer b.Close()

	require.False(t, b.OnHeap())
	require.Equal(t, uint64(77), b.Value())

	inner, ok := b.Inline()
	require.True(t, ok)
	require.Equal(t, uint64(77), inner.Value())

	_, ok = b.Heap()
	require.False(t, ok)
}

func TestPackSpillsOversized(t *testing.T) {
	v := [3]uint64{1, 2, 3}
	b := Pack[S1](v)
	defer b.Close()

	require.True(t, b.OnHeap())
	require.Equal(t, v, b.Value())

	hp, ok := b.Heap()
	require.True(t, ok)
	require.Equal(t, v, *hp.(*[3]uint64))

	_, ok = b.Inline()
	require.False(t, ok)
}

func TestPackSpillsPointers(t *testing.T) {
	b := Pack[S4]("spilled")
	defer b.Close()

	require.True(t, b.OnHeap())
	require.Equal(t, "spilled", b.Value())
	require.Equal(t, "spilled", b.String())
}

func TestBoxRefAndGet(t *testing.T) {
	b := Pack[S4](uint64(5))
	defer b.Close()

	*(b.Ref().(*uint64)) = 6
	p, ok := GetBox[uint64](&b)
	require.True(t, ok)
	require.Equal(t, uint64(6), *p)

	h := Pack[S1]([3]uint64{9, 9, 9})
	defer h.Close()
	hp, ok := GetBox[[3]uint64](&h)
	require.True(t, ok)
	require.Equal(t, [3]uint64{9, 9, 9}, *hp)
}

func TestEqualBoxAcrossVariants(t *testing.T) {
	v := [3]uint64{1, 2, 3}
	inline := Pack[S8](v) // fits inline
	defer inline.Close()
	heap := Pack[S1](v) // spilled
	defer heap.Close()

	require.False(t, inline.OnHeap())
	require.True(t, heap.OnHeap())
	assert.True(t, EqualBox(&inline, &heap))

	other := Pack[S8]([3]uint64{1, 2, 4})
	defer other.Close()
	assert.False(t, EqualBox(&inline, &other))
}

func TestBoxFinalizeExactlyOnce(t *testing.T) {
	base := finalized.Load()

	inline := Pack[S2](tracked{id: 1})
	require.False(t, inline.OnHeap())
	inline.Close()
	inline.Close()
	require.Equal(t, base+1, finalized.Load())

	heap := Pack[S2](paddedTracked{id: 2})
	require.True(t, heap.OnHeap())
	heap.Close()
	heap.Close()
	require.Equal(t, base+2, finalized.Load())
}

func TestBoxConsumed(t *testing.T) {
	b := Pack[S2](paddedTracked{id: 3})
	b.Close()
	require.Panics(t, func() { b.Value() })
	assert.Equal(t, "smallbox(<consumed>)", b.String())
}

func TestBoxCopyPanics(t *testing.T) {
	b := Pack[S4](uint64(1))
	defer b.Close()
	_ = b.Value()

	c := b
	require.Panics(t, func() { c.Value() })
}
