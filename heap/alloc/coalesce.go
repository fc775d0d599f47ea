package alloc

import "github.com/joshuapare/tagheap/internal/format"

// coalesce merges the free block at bp with any free physical neighbours and
// returns the payload offset of the resulting block.
//
// The prologue and epilogue are always allocated, so a merge never crosses
// them. Whenever a merge happens the rover is moved to the merged block: a
// rover left inside an absorbed block would point at stale payload bytes.
func (a *Allocator) coalesce(bp int) int {
	prevAlloc := format.PrevAlloc(a.data, bp)
	next := format.Next(a.data, bp)
	nextAlloc := format.IsAlloc(a.data, next)
	size := format.BlockSize(a.data, bp)

	switch {
	case prevAlloc && nextAlloc:
		a.stats.CoalesceNone++
		return bp

	case prevAlloc && !nextAlloc:
		size += format.BlockSize(a.data, next)
		a.setTags(bp, size, false)
		a.stats.CoalesceNext++

	case !prevAlloc && nextAlloc:
		prev := format.Prev(a.data, bp)
		size += format.BlockSize(a.data, prev)
		bp = prev
		a.setTags(bp, size, false)
		a.stats.CoalescePrev++

	default:
		prev := format.Prev(a.data, bp)
		size += format.BlockSize(a.data, prev) + format.BlockSize(a.data, next)
		bp = prev
		a.setTags(bp, size, false)
		a.stats.CoalesceBoth++
	}

	a.rover = bp
	return bp
}

// mergedSize reports the size of the block coalesce would produce for bp
// without modifying the heap. nextFree reports whether the following block
// is free.
func (a *Allocator) mergedSize(bp int) (size uint32, nextFree bool) {
	size = format.BlockSize(a.data, bp)
	next := format.Next(a.data, bp)
	if !format.IsAlloc(a.data, next) {
		size += format.BlockSize(a.data, next)
		nextFree = true
	}
	if !format.PrevAlloc(a.data, bp) {
		size += format.BlockSize(a.data, format.Prev(a.data, bp))
	}
	return size, nextFree
}
