package alloc

import (
	"fmt"

	"github.com/joshuapare/tagheap/internal/format"
)

// Realloc resizes the block at p to hold at least n bytes and returns the
// pointer to use from now on.
//
//   - Realloc(Nil, n) is Alloc(n).
//   - Realloc(p, 0) frees p and returns Nil.
//   - If the block is already large enough, p is returned unchanged. Blocks
//     are never shrunk.
//   - If the following block is free and merging with it (and with a free
//     preceding block, which coalescing always absorbs) yields enough space,
//     the block grows in place. The payload moves down when the preceding
//     block was absorbed.
//   - Otherwise a new block is allocated, min(old payload, n) bytes are copied
//     and p is freed.
//
// The first min(old payload, n) bytes are preserved on every path. If the
// arena is exhausted the error wraps ErrExhausted and p is still valid.
func (a *Allocator) Realloc(p Ptr, n int) (Ptr, error) {
	if p == Nil {
		return a.Alloc(n)
	}
	if n < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}
	if n == 0 {
		return Nil, a.Free(p)
	}

	bp := int(p)
	if err := a.validate(bp); err != nil {
		return Nil, err
	}
	if n > maxRequest {
		return Nil, fmt.Errorf("%w: request of %d bytes exceeds arena limit", ErrExhausted, n)
	}
	a.stats.ReallocCalls++

	asize := format.AdjustedSize(uint32(n))
	csize := format.BlockSize(a.data, bp)
	if asize <= csize {
		a.stats.ReallocSame++
		return p, nil
	}

	oldPayload := int(format.PayloadSize(csize))

	if merged, nextFree := a.mergedSize(bp); nextFree && merged >= asize {
		a.stats.BytesFreed += int64(csize)
		a.setTags(bp, csize, false)
		nbp := a.coalesce(bp)
		if nbp != bp {
			// The merged block starts at the preceding block. Its tags sit
			// outside [nbp, nbp+oldPayload), and copy handles the overlap.
			copy(a.data[nbp:nbp+oldPayload], a.data[bp:bp+oldPayload])
		}
		a.place(nbp, asize)
		a.stats.ReallocInPlace++
		return Ptr(nbp), nil
	}

	np, err := a.Alloc(n)
	if err != nil {
		return Nil, err
	}
	// Alloc may have grown the arena; a.data is current again.
	copy(a.data[int(np):int(np)+min(oldPayload, n)], a.data[bp:bp+oldPayload])
	if err := a.Free(p); err != nil {
		return Nil, err
	}
	a.stats.ReallocMoved++
	return np, nil
}
