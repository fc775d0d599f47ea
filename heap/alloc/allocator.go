package alloc

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joshuapare/tagheap/heap/arena"
	"github.com/joshuapare/tagheap/internal/format"
)

// Runtime debug flag for allocation logging - controlled by TAGHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("TAGHEAP_LOG_ALLOC") != ""

// firstBlock is the payload offset of the first block after the prologue.
const firstBlock = format.HeapStart + format.PrologueSize

// Allocator is a boundary-tag, next-fit allocator over a single arena.
//
// All state lives on the instance, so independent allocators over different
// arenas can coexist (tests rely on this).
type Allocator struct {
	ar  arena.Arena
	dt  DirtyTracker // nil when writes need not be tracked
	cfg Config
	log *slog.Logger

	// data caches ar.Bytes(). It is refreshed after every Extend because some
	// arenas move their bytes when they grow.
	data []byte

	// rover is the next-fit cursor: the payload offset of a block (possibly
	// the epilogue) where the next search starts.
	rover int

	stats Stats

	// Test hook: called after each successful heap extension (nil in production).
	onGrow func(size uint32)
}

// New lays out an empty heap on ar and seeds it with Config.InitialChunks
// chunks of free space.
//
// Parameters:
//   - ar: an empty arena (Len() == 0)
//   - dt: dirty tracker notified of every tag write (nil to disable)
//   - cfg: tuning (nil for DefaultConfig)
//
// It returns an error wrapping ErrExhausted if the arena cannot supply the
// bootstrap words or the initial chunks.
func New(ar arena.Arena, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	if ar.Len() != 0 {
		return nil, fmt.Errorf("%w: break at %d", ErrNotEmpty, ar.Len())
	}
	a := newAllocator(ar, dt, cfg)

	base, err := ar.Extend(format.BootstrapSize)
	if err != nil {
		return nil, fmt.Errorf("%w: bootstrap: %w", ErrExhausted, err)
	}
	a.data = ar.Bytes()

	a.putWord(base, 0)                                                        // Alignment padding
	a.putWord(base+1*format.WordSize, format.Pack(format.PrologueSize, true)) // Prologue header
	a.putWord(base+2*format.WordSize, format.Pack(format.PrologueSize, true)) // Prologue footer
	a.putWord(base+3*format.WordSize, format.Pack(0, true))                   // Epilogue header
	a.rover = format.HeapStart

	for range a.cfg.InitialChunks {
		if _, err := a.extendHeap(uint32(a.cfg.ChunkSize / format.WordSize)); err != nil {
			return nil, err
		}
	}
	a.rover = firstBlock
	return a, nil
}

// Attach resumes an allocator over an arena that already holds a heap laid
// out by New (for example a reopened File arena). The cursor restarts at the
// first block. The heap is checked before use.
func Attach(ar arena.Arena, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	a := newAllocator(ar, dt, cfg)
	a.data = ar.Bytes()
	a.rover = firstBlock
	if len(a.data) < format.BootstrapSize {
		return nil, fmt.Errorf("%w: arena is %d bytes, smaller than the sentinels", ErrCorrupt, len(a.data))
	}
	if err := a.Check(); err != nil {
		return nil, err
	}
	return a, nil
}

func newAllocator(ar arena.Arena, dt DirtyTracker, cfg *Config) *Allocator {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := cfg.normalize()

	logger := c.Logger
	if logger == nil {
		if logAlloc {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			logger = slog.New(slog.DiscardHandler)
		}
	}

	return &Allocator{
		ar:  ar,
		dt:  dt,
		cfg: c,
		log: logger,
	}
}

// extendHeap grows the arena by an even number of words, turns the new space
// into one free block (reusing the old epilogue word as its header), writes a
// fresh epilogue, and merges the block with a free predecessor.
func (a *Allocator) extendHeap(words uint32) (int, error) {
	size := format.EvenWords(words)

	bp, err := a.ar.Extend(int(size))
	if err != nil {
		a.log.Debug("heap grow failed", "bytes", size, "break", a.ar.Len(), "error", err)
		return 0, fmt.Errorf("%w: grow by %d: %w", ErrExhausted, size, err)
	}
	a.data = a.ar.Bytes()

	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(size)

	// The old epilogue word becomes the new block's header.
	a.setTags(bp, size, false)
	a.putWord(format.Header(bp+int(size)), format.Pack(0, true))
	a.log.Debug("heap grow", "bytes", size, "break", a.ar.Len(), "grows", a.stats.GrowCalls)

	if a.onGrow != nil {
		a.onGrow(size)
	}
	return a.coalesce(bp), nil
}

// putWord writes one tag word and records it as dirty.
func (a *Allocator) putWord(off int, w uint32) {
	format.PutU32(a.data, off, w)
	if a.dt != nil {
		a.dt.Add(off, format.WordSize)
	}
}

// setTags writes matching header and footer tags for a block at bp.
func (a *Allocator) setTags(bp int, size uint32, alloc bool) {
	format.SetTags(a.data, bp, size, alloc)
	if a.dt != nil {
		a.dt.Add(format.Header(bp), format.WordSize)
		a.dt.Add(bp+int(size)-format.DoubleSize, format.WordSize)
	}
}

// Payload returns the payload bytes of the block at p, or nil when p fails
// validation. The slice is valid until the arena next grows. Writes through it
// are not reported to the dirty tracker; only tag words are.
func (a *Allocator) Payload(p Ptr) []byte {
	bp := int(p)
	if a.validate(bp) != nil {
		return nil
	}
	size := format.BlockSize(a.data, bp)
	return a.data[bp : bp+int(format.PayloadSize(size))]
}

// Cap returns the payload capacity of the block at p, or 0 when p fails validation.
func (a *Allocator) Cap(p Ptr) int {
	bp := int(p)
	if a.validate(bp) != nil {
		return 0
	}
	return int(format.PayloadSize(format.BlockSize(a.data, bp)))
}

// HeapSize returns the current arena break in bytes.
func (a *Allocator) HeapSize() int { return len(a.data) }

// Arena returns the arena the allocator manages.
func (a *Allocator) Arena() arena.Arena { return a.ar }
