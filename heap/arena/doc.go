// Package arena provides the growth primitive the heap allocator sits on.
//
// # Overview
//
// An Arena is a contiguous byte range that only ever grows at its end, the
// same contract as a classic sbrk: Extend(n) commits n more bytes and returns
// the offset where they start (the old break). Nothing is ever returned to
// the arena; there is no shrink.
//
// # Implementations
//
// Memory: a Go byte slice with a hard limit. Bytes() may move when the slice is
// reallocated, so callers must re-read it after every Extend.
//
// Mapped: a single anonymous mmap reservation of the limit. Extend only moves
// the break; Bytes() is stable for the life of the arena.
//
// File: a file-backed shared mapping. Extend truncates the file to the new
// size and remaps it. A heap laid out in a File arena can be reopened later.
//
// # Offsets
//
// All positions are byte offsets from the start of the arena. Offsets are
// bounded by format.MaxArenaSize so every block size fits a 32-bit tag word.
//
// # Thread Safety
//
// Arenas are not thread-safe. The allocator that owns an arena serializes all
// access to it.
package arena
