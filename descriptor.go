package smallbox

import (
	"cmp"
	"fmt"
	"hash/maphash"
	"reflect"
	"sync"
	"unsafe"

	"github.com/saethlin/smallbox/internal/layout"
)

// Finalizer is implemented by values that carry cleanup logic. A box runs
// Finalize exactly once, when it is closed, through a handle aimed at its
// own buffer.
type Finalizer interface {
	Finalize()
}

// descriptor is the non-address half of a reconstructed handle: layout
// facts plus a dispatch table captured once per concrete type. Pairing it
// with a buffer address yields a usable view of the stored value no matter
// where the bytes have been relocated to.
type descriptor struct {
	rtype       reflect.Type
	size        uintptr
	align       uintptr
	pointerFree bool

	ref      func(unsafe.Pointer) any
	value    func(unsafe.Pointer) any
	finalize func(unsafe.Pointer) // nil when the type has no Finalize
	equal    func(p, q unsafe.Pointer) bool
	compare  func(p, q unsafe.Pointer) int // nil for unordered kinds
	format   func(unsafe.Pointer) string
}

var descriptors sync.Map // reflect.Type -> *descriptor

func describe[T any]() *descriptor {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if d, ok := descriptors.Load(rt); ok {
		return d.(*descriptor)
	}
	d := &descriptor{
		rtype:       rt,
		size:        rt.Size(),
		align:       uintptr(rt.Align()),
		pointerFree: layout.PointerFree(rt),
		ref:         func(p unsafe.Pointer) any { return (*T)(p) },
		value:       func(p unsafe.Pointer) any { return *(*T)(p) },
		finalize:    finalizerFor[T](),
		equal: func(p, q unsafe.Pointer) bool {
			return reflect.DeepEqual(*(*T)(p), *(*T)(q))
		},
		compare: compareFor(rt),
		format:  func(p unsafe.Pointer) string { return fmt.Sprint(*(*T)(p)) },
	}
	actual, _ := descriptors.LoadOrStore(rt, d)
	return actual.(*descriptor)
}

func (d *descriptor) hash(seed maphash.Seed, p unsafe.Pointer) uint64 {
	// Formatted representation tracks value equality for the pointer-free
	// data a box stores, so equal values hash equally.
	return maphash.String(seed, d.format(p))
}

func finalizerFor[T any]() func(unsafe.Pointer) {
	// Pointer receivers first: *T's method set covers value receivers too,
	// and calling through the buffer address avoids a copy.
	if _, ok := any((*T)(nil)).(Finalizer); ok {
		return func(p unsafe.Pointer) { any((*T)(p)).(Finalizer).Finalize() }
	}
	var zero T
	if _, ok := any(zero).(Finalizer); ok {
		return func(p unsafe.Pointer) { any(*(*T)(p)).(Finalizer).Finalize() }
	}
	return nil
}

func compareFor(rt reflect.Type) func(p, q unsafe.Pointer) int {
	load := func(p unsafe.Pointer) reflect.Value {
		return reflect.NewAt(rt, p).Elem()
	}
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(p, q unsafe.Pointer) int {
			return cmp.Compare(load(p).Int(), load(q).Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(p, q unsafe.Pointer) int {
			return cmp.Compare(load(p).Uint(), load(q).Uint())
		}
	case reflect.Float32, reflect.Float64:
		return func(p, q unsafe.Pointer) int {
			return cmp.Compare(load(p).Float(), load(q).Float())
		}
	case reflect.String:
		return func(p, q unsafe.Pointer) int {
			return cmp.Compare(load(p).String(), load(q).String())
		}
	default:
		return nil
	}
}
