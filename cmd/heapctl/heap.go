package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tagheap/cmd/heapctl/logger"
	"github.com/joshuapare/tagheap/heap/alloc"
	"github.com/joshuapare/tagheap/heap/arena"
	"github.com/joshuapare/tagheap/heap/dirty"
)

// Heap flags shared by replay and layout
var (
	arenaKind     string
	arenaFile     string
	arenaMax      int
	chunkSize     int
	initialChunks int
	debugChecks   bool
)

func addHeapFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&arenaKind, "arena", "memory", "Arena backing: memory, mmap or file")
	cmd.Flags().StringVar(&arenaFile, "file", "heap.bin", "Heap file for --arena file")
	cmd.Flags().IntVar(&arenaMax, "max", arena.DefaultMaxSize, "Maximum arena size in bytes")
	cmd.Flags().IntVar(&chunkSize, "chunk", alloc.DefaultConfig.ChunkSize, "Minimum heap extension in bytes")
	cmd.Flags().IntVar(&initialChunks, "initial-chunks", 1, "Chunks reserved when the heap is created")
	cmd.Flags().BoolVar(&debugChecks, "debug", false, "Validate every pointer passed to free and realloc")
}

func heapConfig() *alloc.Config {
	return &alloc.Config{
		ChunkSize:     chunkSize,
		InitialChunks: initialChunks,
		Debug:         debugChecks,
		Logger:        logger.L,
	}
}

// heapHandle bundles an allocator with the arena it owns.
type heapHandle struct {
	a     *alloc.Allocator
	ar    arena.Arena
	dt    *dirty.Tracker // file arenas only
	close func() error
}

// newHeap creates an empty heap on the arena selected by --arena.
func newHeap() (*heapHandle, error) {
	h := &heapHandle{close: func() error { return nil }}

	switch arenaKind {
	case "memory":
		h.ar = arena.NewMemory(arenaMax)
	case "mmap":
		m, err := arena.NewMapped(arenaMax)
		if err != nil {
			return nil, err
		}
		h.ar, h.close = m, m.Close
	case "file":
		f, err := arena.CreateFile(arenaFile, arenaMax)
		if err != nil {
			return nil, fmt.Errorf("failed to create heap file: %w", err)
		}
		h.ar, h.close = f, f.Close
		h.dt = dirty.NewTracker(f)
	default:
		return nil, fmt.Errorf("unknown arena %q (want memory, mmap or file)", arenaKind)
	}

	var dt alloc.DirtyTracker
	if h.dt != nil {
		dt = h.dt
	}
	a, err := alloc.New(h.ar, dt, heapConfig())
	if err != nil {
		return nil, errors.Join(err, h.close())
	}
	h.a = a
	logger.Debug("heap created", "arena", arenaKind, "max", arenaMax, "chunk", chunkSize)
	return h, nil
}

// openHeap attaches to a heap file written by an earlier file-backed replay.
func openHeap(path string) (*heapHandle, error) {
	f, err := arena.OpenFile(path, arenaMax)
	if err != nil {
		return nil, fmt.Errorf("failed to open heap file: %w", err)
	}
	a, err := alloc.Attach(f, nil, heapConfig())
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	return &heapHandle{a: a, ar: f, close: f.Close}, nil
}

// Close flushes tracked writes for file arenas and releases the arena.
func (h *heapHandle) Close(ctx context.Context) error {
	var syncErr error
	if h.dt != nil {
		syncErr = h.markLiveBlocks()
		if syncErr == nil {
			syncErr = h.dt.Sync(ctx, dirty.FlushAuto)
		}
	}
	return errors.Join(syncErr, h.close())
}

// markLiveBlocks adds every allocated payload to the tracker. The allocator
// only records its own tag writes; payload bytes are written by callers.
func (h *heapHandle) markLiveBlocks() error {
	return h.a.Walk(func(b alloc.Block) error {
		if b.Alloc {
			h.dt.Add(int(b.Ptr), b.Payload())
		}
		return nil
	})
}
