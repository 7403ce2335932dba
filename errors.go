package smallbox

import "errors"

var (
	// ErrTooLarge rejects a value whose size exceeds the space capacity.
	// The caller keeps the value untouched and may fall back to the heap.
	ErrTooLarge = errors.New("smallbox: value does not fit in space")
	// ErrAlignment rejects a value needing stricter than word alignment.
	ErrAlignment = errors.New("smallbox: value alignment exceeds word alignment")
	// ErrPointers rejects a value whose representation holds pointers; the
	// inline buffer is invisible to the garbage collector. Use NewUnchecked
	// or Pack for such values.
	ErrPointers = errors.New("smallbox: value representation holds pointers")
	// ErrShrink rejects a resize to a smaller space.
	ErrShrink = errors.New("smallbox: target space is smaller than source")
)
