package alloc

import (
	"fmt"

	"github.com/joshuapare/tagheap/internal/format"
)

// maxRequest is the largest payload that could ever fit beside the sentinels
// in a MaxArenaSize arena.
const maxRequest = format.MaxArenaSize - format.BootstrapSize - format.DoubleSize

// Alloc returns a pointer to at least n bytes of 8-byte aligned payload.
//
// Alloc(0) returns Nil with no side effects. A negative n returns ErrBadSize.
// If no free block fits, the arena is extended by max(adjusted size,
// ChunkSize); when the arena cannot grow the error wraps ErrExhausted and the
// heap is unchanged.
func (a *Allocator) Alloc(n int) (Ptr, error) {
	if n < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}
	if n == 0 {
		return Nil, nil
	}
	if n > maxRequest {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds arena limit", ErrExhausted, n)
	}
	a.stats.AllocCalls++

	asize := format.AdjustedSize(uint32(n))
	if bp, ok := a.findFit(asize); ok {
		a.place(bp, asize)
		a.stats.AllocFastPath++
		return Ptr(bp), nil
	}

	extend := max(asize, uint32(a.cfg.ChunkSize))
	bp, err := a.extendHeap(extend / format.WordSize)
	if err != nil {
		return Nil, err
	}
	a.place(bp, asize)
	a.stats.AllocSlowPath++
	return Ptr(bp), nil
}
