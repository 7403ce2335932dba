package smallbox

import (
	"hash/maphash"
	"reflect"
	"unsafe"

	"github.com/saethlin/smallbox/internal/layout"
)

// StackBox holds one value of any concrete type inside a fixed-size
// inline buffer, no heap allocation involved. The value is reached
// through a handle rebuilt on every access from the buffer's current
// address and the descriptor captured at construction, so the box may be
// relocated freely before first use.
//
// A StackBox is single-owner: do not copy or move it after first use
// (pass a *StackBox instead). Aliasing two live copies would finalize the
// same value twice; use through a copy panics.
type StackBox[S Space] struct {
	addr *StackBox[S] // of receiver, to detect use through a copy
	desc *descriptor  // nil marks a zero, consumed or closed box
	buf  S
}

// New relocates val into the inline buffer of a new StackBox. It fails
// with ErrTooLarge when val's size exceeds the space capacity, with
// ErrAlignment when val needs stricter than word alignment, and with
// ErrPointers when val's representation holds pointers the collector
// could not see inside the buffer. On failure nothing has been moved and
// the caller's val is untouched.
func New[S Space, T any](val T) (StackBox[S], error) {
	return pack[S](describe[T](), unsafe.Pointer(&val), true)
}

// NewUnchecked is New minus the pointer check. The caller must keep
// everything val references reachable for the life of the box; the buffer
// itself will not.
func NewUnchecked[S Space, T any](val T) (StackBox[S], error) {
	return pack[S](describe[T](), unsafe.Pointer(&val), false)
}

func pack[S Space](d *descriptor, src unsafe.Pointer, checked bool) (StackBox[S], error) {
	var b StackBox[S]
	if d.size > unsafe.Sizeof(b.buf) {
		return StackBox[S]{}, ErrTooLarge
	}
	if d.align > layout.WordAlign {
		return StackBox[S]{}, ErrAlignment
	}
	if checked && !d.pointerFree {
		return StackBox[S]{}, ErrPointers
	}
	if d.size > 0 {
		// Raw byte copy, not a typed store: the buffer has no pointer
		// slots, so no write barriers may fire here.
		dst := unsafe.Slice((*byte)(unsafe.Pointer(&b.buf)), d.size)
		copy(dst, unsafe.Slice((*byte)(src), d.size))
	}
	b.desc = d
	return b, nil
}

func (b *StackBox[S]) copyCheck() {
	if b.addr == nil {
		b.addr = (*StackBox[S])(noescape(unsafe.Pointer(b)))
	} else if b.addr != b {
		panic("smallbox: illegal use of StackBox copied by value")
	}
}

func (b *StackBox[S]) ptr() unsafe.Pointer { return unsafe.Pointer(&b.buf) }

func (b *StackBox[S]) live() *descriptor {
	b.copyCheck()
	if b.desc == nil {
		panic("smallbox: use of zero or consumed box")
	}
	return b.desc
}

// Value rebuilds a read handle at the buffer's current address and
// returns the stored value boxed by copy. Mutating the result never
// touches the box.
func (b *StackBox[S]) Value() any {
	return b.live().value(b.ptr())
}

// Ref rebuilds a read-write handle: the stored value's address, boxed in
// an interface. The pointer aims into the box's own buffer; it must not
// outlive the box, and the caller needs exclusive access while mutating
// through it.
func (b *StackBox[S]) Ref() any {
	return b.live().ref(b.ptr())
}

// Size is the stored value's footprint in bytes.
func (b *StackBox[S]) Size() int { return int(b.live().size) }

// Cap is the buffer capacity in bytes fixed by the space tag.
func (b *StackBox[S]) Cap() int {
	var s S
	return int(unsafe.Sizeof(s))
}

// Type reports the concrete type of the stored value.
func (b *StackBox[S]) Type() reflect.Type { return b.live().rtype }

// String formats the stored value as fmt would, honoring fmt.Stringer.
// A consumed box formats as a marker instead of panicking under fmt.
func (b *StackBox[S]) String() string {
	b.copyCheck()
	if b.desc == nil {
		return "smallbox(<consumed>)"
	}
	return b.desc.format(b.ptr())
}

// Close runs the stored value's Finalize, if it has one, exactly once
// through a handle aimed at the buffer. Further closes, and closes of a
// box consumed by Resize, are no-ops. Close cannot fail.
func (b *StackBox[S]) Close() {
	b.copyCheck()
	d := b.desc
	if d == nil {
		return
	}
	b.desc = nil
	if d.finalize != nil {
		d.finalize(unsafe.Pointer(&b.buf))
	}
}

// Get returns the stored value's address when its concrete type is T.
// This is the typed downcast next to the polymorphic Ref.
func Get[T any, S Space](b *StackBox[S]) (*T, bool) {
	d := b.live()
	if d.rtype != reflect.TypeOf((*T)(nil)).Elem() {
		return nil, false
	}
	return (*T)(b.ptr()), true
}

// AsSlice views a stored [N]E array as []E, the element count coming from
// the captured descriptor. The view shares the buffer and must not
// outlive the box.
func AsSlice[E any, S Space](b *StackBox[S]) ([]E, bool) {
	d := b.live()
	if d.rtype.Kind() != reflect.Array || d.rtype.Elem() != reflect.TypeOf((*E)(nil)).Elem() {
		return nil, false
	}
	return unsafe.Slice((*E)(b.ptr()), d.rtype.Len()), true
}

// Resize moves the stored value into a new box with space To. Only
// upgrades succeed: To must be at least as large as From, or ErrShrink is
// returned and b stays live and untouched. On success b is consumed — its
// finalize obligation moves to the returned box and closing b becomes a
// no-op.
func Resize[To Space, From Space](b *StackBox[From]) (StackBox[To], error) {
	d := b.live()
	var to StackBox[To]
	if unsafe.Sizeof(to.buf) < unsafe.Sizeof(b.buf) {
		return StackBox[To]{}, ErrShrink
	}
	if d.size > 0 {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(&to.buf)), d.size)
		copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(&b.buf)), d.size))
	}
	to.desc = d
	b.desc = nil
	return to, nil
}

// Equal reports whether two boxes hold equal values. Placement is
// irrelevant: boxes of different spaces holding equal values compare
// equal, exactly as the values themselves would.
func Equal[A Space, B Space](x *StackBox[A], y *StackBox[B]) bool {
	dx, dy := x.live(), y.live()
	if dx.rtype != dy.rtype {
		return false
	}
	return dx.equal(x.ptr(), y.ptr())
}

// Compare orders two boxes by their stored values when the concrete type
// has an ordered kind. The second result is false for unordered or
// mismatched types.
func Compare[A Space, B Space](x *StackBox[A], y *StackBox[B]) (int, bool) {
	dx, dy := x.live(), y.live()
	if dx.rtype != dy.rtype || dx.compare == nil {
		return 0, false
	}
	return dx.compare(x.ptr(), y.ptr()), true
}

// Hash hashes the stored value with the given seed. Equal values hash
// equally, independent of space tag and placement.
func Hash[S Space](seed maphash.Seed, b *StackBox[S]) uint64 {
	return b.live().hash(seed, b.ptr())
}

// noescape hides p from escape analysis so that storing a box's own
// address into it does not force the box onto the heap.
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
