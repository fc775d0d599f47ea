package alloc

import (
	"log/slog"

	"github.com/joshuapare/tagheap/heap/dirty"
	"github.com/joshuapare/tagheap/internal/format"
)

// Ptr is the payload offset of a block inside the arena.
type Ptr uint32

// Nil is the null handle. Offset 0 is the alignment padding word and is never
// a payload.
const Nil Ptr = 0

// DirtyTracker is a type alias for the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Block describes one block found by Walk.
type Block struct {
	Ptr   Ptr    // payload offset
	Size  uint32 // total size including header and footer
	Alloc bool
}

// Payload returns the usable payload capacity of the block.
func (b Block) Payload() int { return int(format.PayloadSize(b.Size)) }

// End returns the offset just past the block's footer.
func (b Block) End() int { return int(b.Ptr) - format.WordSize + int(b.Size) }

// Config tunes an Allocator. A nil *Config means DefaultConfig.
type Config struct {
	// ChunkSize is the minimum number of bytes the heap grows by when no free
	// block fits. Rounded up to 8 bytes.
	ChunkSize int

	// InitialChunks is how many ChunkSize extensions New performs to seed the
	// first free block. Values below 1 mean 1.
	InitialChunks int

	// Debug enables full pointer validation (tags agree, block allocated) on
	// Free, Realloc and Payload.
	Debug bool

	// Logger receives growth and exhaustion events at Debug level. nil discards
	// them unless TAGHEAP_LOG_ALLOC is set in the environment.
	Logger *slog.Logger
}

// DefaultConfig is used when New or Attach is given a nil config.
var DefaultConfig = Config{
	ChunkSize:     format.ChunkSize,
	InitialChunks: 1,
}

// normalize fills zero values and enforces alignment.
func (c Config) normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = format.ChunkSize
	}
	c.ChunkSize = max(format.Align8(c.ChunkSize), format.MinBlockSize)
	if c.InitialChunks < 1 {
		c.InitialChunks = 1
	}
	return c
}
