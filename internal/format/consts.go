// Package format houses the boundary-tag block encoding used by the heap
// allocator. Everything here is pure offset arithmetic over a byte arena:
// no state, no allocation, and no knowledge of how the arena grows.
package format

const (
	// WordSize is the width of a header or footer tag in bytes.
	WordSize = 4

	// DoubleSize is the alignment unit and the combined header+footer overhead
	// of every block.
	DoubleSize = 8

	// MinBlockSize is the smallest legal block: header, footer and one
	// double word of payload.
	MinBlockSize = 2 * DoubleSize

	// ChunkSize is the default amount the heap is extended by when no fit exists.
	ChunkSize = 1 << 12

	// PrologueSize is the size recorded in both prologue tags. The prologue has
	// a header and a footer but no payload.
	PrologueSize = DoubleSize

	// BootstrapSize is the number of bytes reserved on an empty arena for the
	// alignment padding word, the prologue header/footer and the epilogue header.
	BootstrapSize = 4 * WordSize

	// HeapStart is the payload offset of the prologue block. Every traversal
	// of the block list starts here.
	HeapStart = 2 * WordSize

	// MaxArenaSize bounds arena offsets so every size fits a tag word with
	// the low three bits left for flags.
	MaxArenaSize = 1<<31 - 1

	// allocMask selects the allocated bit of a tag word.
	allocMask = 0x1

	// sizeMask clears the flag bits of a tag word.
	sizeMask = ^uint32(DoubleSize - 1)
)
