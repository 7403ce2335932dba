package smallbox

import "unsafe"

// Space selects the byte size of a box's inline buffer. Tags are arrays
// of machine words, so a buffer is always word aligned and is never
// scanned for pointers. Any type whose underlying type is one of the
// word arrays below can serve as a tag.
type Space interface {
	~[1]uintptr | ~[2]uintptr | ~[4]uintptr | ~[8]uintptr | ~[16]uintptr
}

// Predefined capacity tags, sized in machine words. S4 is the
// general-purpose default: one pointer-sized payload plus slack for
// typical small values.
type (
	S1  [1]uintptr
	S2  [2]uintptr
	S4  [4]uintptr
	S8  [8]uintptr
	S16 [16]uintptr
)

// SizeOf returns the buffer capacity in bytes selected by S.
func SizeOf[S Space]() uintptr {
	var s S
	return unsafe.Sizeof(s)
}
