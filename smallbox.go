// Package smallbox stores values through polymorphic handles without heap
// allocation whenever they fit a fixed-capacity inline buffer.
//
// StackBox is the inline cell: construction rejects values that do not
// fit (or that the buffer cannot hold safely), accesses rebuild the
// handle from the buffer's current address, Resize moves a value into a
// larger space, and Close finalizes the value exactly once.
//
// Box wraps a StackBox with a heap fallback: values the cell rejects are
// spilled to a dedicated allocation, and the active variant can be
// recovered by explicit extraction.
package smallbox

import (
	"reflect"
	"unsafe"
)

// Box stores a value inline when it fits and on the heap otherwise. Like
// StackBox it is single-owner: do not copy or move it after first use.
type Box[S Space] struct {
	addr   *Box[S]
	inline StackBox[S]
	heap   unsafe.Pointer // non-nil selects the heap variant; a *T
	desc   *descriptor    // heap variant descriptor; nil once closed
}

// Pack boxes val inline when New accepts it and spills it to a dedicated
// heap allocation otherwise. It never fails: oversized, overaligned and
// pointer-holding values all take the heap variant.
func Pack[S Space, T any](val T) Box[S] {
	inline, err := New[S](val)
	if err == nil {
		return Box[S]{inline: inline}
	}
	p := new(T)
	*p = val
	return Box[S]{heap: unsafe.Pointer(p), desc: describe[T]()}
}

func (b *Box[S]) copyCheck() {
	if b.addr == nil {
		b.addr = (*Box[S])(noescape(unsafe.Pointer(b)))
	} else if b.addr != b {
		panic("smallbox: illegal use of Box copied by value")
	}
}

// arm resolves the active variant to a handle.
func (b *Box[S]) arm() (unsafe.Pointer, *descriptor) {
	b.copyCheck()
	if b.heap != nil {
		if b.desc == nil {
			panic("smallbox: use of zero or consumed box")
		}
		return b.heap, b.desc
	}
	return b.inline.ptr(), b.inline.live()
}

// Value returns the stored value boxed by copy, whichever variant holds it.
func (b *Box[S]) Value() any {
	p, d := b.arm()
	return d.value(p)
}

// Ref returns the stored value's address boxed in an interface. For the
// inline variant the pointer aims into the box's buffer and must not
// outlive it.
func (b *Box[S]) Ref() any {
	p, d := b.arm()
	return d.ref(p)
}

// Size is the stored value's footprint in bytes.
func (b *Box[S]) Size() int {
	_, d := b.arm()
	return int(d.size)
}

// OnHeap reports whether the heap variant is active.
func (b *Box[S]) OnHeap() bool {
	b.copyCheck()
	return b.heap != nil
}

// Inline extracts the inline variant, when active.
func (b *Box[S]) Inline() (*StackBox[S], bool) {
	b.copyCheck()
	if b.heap != nil {
		return nil, false
	}
	return &b.inline, true
}

// Heap extracts the heap variant, when active, as a boxed pointer to the
// allocation.
func (b *Box[S]) Heap() (any, bool) {
	b.copyCheck()
	if b.heap == nil || b.desc == nil {
		return nil, false
	}
	return b.desc.ref(b.heap), true
}

// String formats the stored value as fmt would. A consumed box formats as
// a marker instead of panicking under fmt.
func (b *Box[S]) String() string {
	b.copyCheck()
	if b.heap != nil {
		if b.desc == nil {
			return "smallbox(<consumed>)"
		}
		return b.desc.format(b.heap)
	}
	return b.inline.String()
}

// Close finalizes whichever variant is active, exactly once. Further
// closes are no-ops. Close cannot fail.
func (b *Box[S]) Close() {
	b.copyCheck()
	if b.heap == nil {
		b.inline.Close()
		return
	}
	d := b.desc
	if d == nil {
		return
	}
	b.desc = nil
	if d.finalize != nil {
		d.finalize(b.heap)
	}
}

// GetBox returns the stored value's address when its concrete type is T,
// whichever variant holds it.
func GetBox[T any, S Space](b *Box[S]) (*T, bool) {
	p, d := b.arm()
	if d.rtype != reflect.TypeOf((*T)(nil)).Elem() {
		return nil, false
	}
	return (*T)(p), true
}

// EqualBox reports whether two boxes hold equal values, independent of
// space tag and of which variant holds each.
func EqualBox[A Space, B Space](x *Box[A], y *Box[B]) bool {
	p, d := x.arm()
	q, e := y.arm()
	if d.rtype != e.rtype {
		return false
	}
	return d.equal(p, q)
}
