// Package alloc implements a boundary-tag heap allocator over a growable arena.
//
// # Overview
//
// The heap is an implicit free list: every block carries its size and an
// allocated bit in a 4-byte header before the payload and an identical footer
// at its tail. Walking forward uses the header size; walking backward reads
// the previous block's footer. Two permanently allocated sentinels bound the
// list, so no traversal or merge ever runs off either end:
//
//	| pad | prologue hdr | prologue ftr | block ... block | epilogue hdr |
//	  0     4 (8/1)        8 (8/1)                          brk-4 (0/1)
//
// # Operations
//
//   - Alloc(n): next-fit search from a persisted cursor; on a miss the arena is
//     extended by max(n + overhead, ChunkSize) and the new space is merged with
//     any free block at the old end. Oversized fits are split.
//   - Free(p): clears the allocated bit and merges with free neighbours at once,
//     so no two free blocks are ever adjacent.
//   - Realloc(p, n): returns p if the block is already big enough, grows in place
//     when the following block is free and large enough, and otherwise moves
//     the data to a fresh allocation.
//
// # Handles
//
// A Ptr is the payload offset inside the arena. Nil (offset 0) is never a
// payload. Payload(p) returns the bytes; the slice is invalidated by the next
// call that can grow the arena (Alloc, Realloc) unless the arena is Mapped.
//
// # Usage Example
//
//	ar := arena.NewMemory(0)
//	a, err := alloc.New(ar, nil, nil)
//	if err != nil {
//	    return err
//	}
//	p, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(a.Payload(p), "hello")
//	p, err = a.Realloc(p, 400)
//	...
//	err = a.Free(p)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must serialize access
// externally, for example with one mutex around the whole allocator.
package alloc
