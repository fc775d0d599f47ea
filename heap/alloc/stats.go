package alloc

import "github.com/joshuapare/tagheap/internal/format"

// Stats counts allocator activity since New or Attach.
type Stats struct {
	GrowCalls      int   // Number of arena extensions
	GrowBytes      int64 // Total bytes added by extensions
	AllocCalls     int   // Alloc calls with n > 0
	AllocFastPath  int   // Allocations satisfied by the fit search
	AllocSlowPath  int   // Allocations that required growth
	FreeCalls      int   // Free calls on non-nil pointers
	BytesAllocated int64 // Total block bytes handed out (including tags)
	BytesFreed     int64 // Total block bytes returned (including tags)
	ReallocCalls   int   // Realloc calls that reached the resize logic
	ReallocSame    int   // Resizes that fit the current block
	ReallocInPlace int   // Resizes satisfied by merging with the next block
	ReallocMoved   int   // Resizes that fell back to alloc, copy, free
	SplitCount     int   // Fits split into an allocated head and a free tail
	CoalesceNone   int   // Coalesce calls with both neighbours allocated
	CoalesceNext   int   // Merges with the following block only
	CoalescePrev   int   // Merges with the preceding block only
	CoalesceBoth   int   // Three-way merges
	FitSearches    int   // findFit calls
	FitVisits      int64 // Blocks inspected by findFit
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats { return a.stats }

// Usage describes the current heap layout. Sentinels are not counted.
type Usage struct {
	HeapSize    int // Arena break in bytes
	Blocks      int // Real blocks between the sentinels
	AllocBlocks int
	FreeBlocks  int
	AllocBytes  int64 // Block bytes (including tags) of allocated blocks
	FreeBytes   int64 // Block bytes of free blocks
	LargestFree int   // Size of the largest free block, 0 if none
}

// Utilization returns live block bytes as a fraction of the heap size.
func (u Usage) Utilization() float64 {
	if u.HeapSize == 0 {
		return 0
	}
	return float64(u.AllocBytes) / float64(u.HeapSize)
}

// Usage walks the heap and summarizes it.
func (a *Allocator) Usage() Usage {
	u := Usage{HeapSize: len(a.data)}
	for bp := firstBlock; bp < len(a.data); bp = format.Next(a.data, bp) {
		size := format.BlockSize(a.data, bp)
		if size == 0 {
			break
		}
		u.Blocks++
		if format.IsAlloc(a.data, bp) {
			u.AllocBlocks++
			u.AllocBytes += int64(size)
			continue
		}
		u.FreeBlocks++
		u.FreeBytes += int64(size)
		u.LargestFree = max(u.LargestFree, int(size))
	}
	return u
}
