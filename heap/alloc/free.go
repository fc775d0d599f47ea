package alloc

import "github.com/joshuapare/tagheap/internal/format"

// Free releases the block at p and merges it with free neighbours.
//
// Free(Nil) is a no-op. Freeing a pointer that is not live is a caller bug;
// the bounds checks (and in Debug mode the tag checks) catch most such
// pointers and return ErrBadPtr without touching the heap.
func (a *Allocator) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	bp := int(p)
	if err := a.validate(bp); err != nil {
		return err
	}
	a.stats.FreeCalls++

	size := format.BlockSize(a.data, bp)
	a.stats.BytesFreed += int64(size)
	a.setTags(bp, size, false)
	bp = a.coalesce(bp)

	// A block freed behind the rover is picked up by the next search first.
	if bp < a.rover {
		a.rover = bp
	}
	return nil
}
