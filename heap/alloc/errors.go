package alloc

import "errors"

var (
	// ErrExhausted indicates the arena could not supply the bytes needed to
	// satisfy a request. It wraps the arena's own error.
	ErrExhausted = errors.New("alloc: arena exhausted")

	// ErrBadPtr indicates a pointer that is not the payload of a live block.
	// Only reported for cheap bounds failures, or for all checks in Debug mode.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: negative size")

	// ErrNotEmpty indicates New was given an arena that already has contents.
	ErrNotEmpty = errors.New("alloc: arena not empty (use Attach)")

	// ErrCorrupt indicates the heap checker found a broken invariant.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
