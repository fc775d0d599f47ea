package alloc

import "github.com/joshuapare/tagheap/internal/format"

// findFit runs the next-fit search for a free block of at least asize bytes.
//
// It scans from the rover to the epilogue, then wraps around and scans from
// the first block up to (not including) the rover. A hit moves the rover to
// the block found.
func (a *Allocator) findFit(asize uint32) (int, bool) {
	a.stats.FitSearches++

	for bp := a.rover; ; bp = format.Next(a.data, bp) {
		size := format.BlockSize(a.data, bp)
		if size == 0 {
			break // epilogue
		}
		a.stats.FitVisits++
		if !format.IsAlloc(a.data, bp) && size >= asize {
			a.rover = bp
			return bp, true
		}
	}

	for bp := firstBlock; bp < a.rover; bp = format.Next(a.data, bp) {
		a.stats.FitVisits++
		if !format.IsAlloc(a.data, bp) && format.BlockSize(a.data, bp) >= asize {
			a.rover = bp
			return bp, true
		}
	}
	return 0, false
}

// place marks asize bytes at the start of the free block bp as allocated.
//
// If the remainder is at least MinBlockSize it becomes a new free block and
// the rover moves to it. Otherwise the whole block is allocated and the rover
// moves to the block after it.
func (a *Allocator) place(bp int, asize uint32) {
	csize := format.BlockSize(a.data, bp)

	if csize-asize >= format.MinBlockSize {
		a.setTags(bp, asize, true)
		tail := bp + int(asize)
		a.setTags(tail, csize-asize, false)
		a.stats.SplitCount++
		a.stats.BytesAllocated += int64(asize)
		a.rover = tail
		return
	}

	a.setTags(bp, csize, true)
	a.stats.BytesAllocated += int64(csize)
	a.rover = bp + int(csize)
}
