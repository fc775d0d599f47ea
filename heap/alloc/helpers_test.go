package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tagheap/heap/arena"
	"github.com/joshuapare/tagheap/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh Memory arena with the
// given byte limit (0 for the default). cfg may be nil.
func newTestAllocator(t testing.TB, limit int, cfg *Config) (*Allocator, *arena.Memory) {
	t.Helper()

	ar := arena.NewMemory(limit)
	a, err := New(ar, nil, cfg)
	require.NoError(t, err)
	assertInvariants(t, a)
	return a, ar
}

// setupGrowCounter installs the onGrow hook and returns a pointer to the count.
func setupGrowCounter(a *Allocator) *int {
	count := 0
	a.onGrow = func(uint32) { count++ }
	return &count
}

// ============================================================================
// Invariant Checks
// ============================================================================

// assertInvariants runs the heap checker and cross-checks Usage against the
// arena size: every byte is either a sentinel or belongs to exactly one block.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()

	require.NoError(t, a.Check())
	u := a.Usage()
	require.Equal(t, int64(u.HeapSize-format.BootstrapSize), u.AllocBytes+u.FreeBytes,
		"block bytes must account for the whole heap")
	require.Equal(t, u.Blocks, u.AllocBlocks+u.FreeBlocks)
}

// blocks returns the heap's blocks in address order.
func blocks(t testing.TB, a *Allocator) []Block {
	t.Helper()

	var out []Block
	require.NoError(t, a.Walk(func(b Block) error {
		out = append(out, b)
		return nil
	}))
	return out
}

// blockAt returns the block whose payload starts at p.
func blockAt(t testing.TB, a *Allocator, p Ptr) Block {
	t.Helper()

	for _, b := range blocks(t, a) {
		if b.Ptr == p {
			return b
		}
	}
	require.Failf(t, "no block", "no block at %d", p)
	return Block{}
}

// ============================================================================
// Payload Patterns
// ============================================================================

func fill(t testing.TB, a *Allocator, p Ptr, n int, v byte) {
	t.Helper()

	payload := a.Payload(p)
	require.GreaterOrEqual(t, len(payload), n)
	for i := range n {
		payload[i] = v + byte(i)
	}
}

func requireFilled(t testing.TB, a *Allocator, p Ptr, n int, v byte) {
	t.Helper()

	payload := a.Payload(p)
	require.GreaterOrEqual(t, len(payload), n)
	for i := range n {
		if payload[i] != v+byte(i) {
			require.Failf(t, "payload corrupted", "ptr %d byte %d: got %#x want %#x", p, i, payload[i], v+byte(i))
		}
	}
}
