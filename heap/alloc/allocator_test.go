package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tagheap/heap/arena"
	"github.com/joshuapare/tagheap/internal/format"
)

func TestNew_Layout(t *testing.T) {
	a, ar := newTestAllocator(t, 0, nil)
	data := ar.Bytes()

	require.Equal(t, format.BootstrapSize+format.ChunkSize, ar.Len())
	assert.Equal(t, uint32(0), format.ReadU32(data, 0), "alignment padding")
	assert.Equal(t, format.Pack(format.PrologueSize, true), format.ReadU32(data, 4), "prologue header")
	assert.Equal(t, format.Pack(format.PrologueSize, true), format.ReadU32(data, 8), "prologue footer")
	assert.Equal(t, format.Pack(0, true), format.ReadU32(data, ar.Len()-format.WordSize), "epilogue header")

	bs := blocks(t, a)
	require.Len(t, bs, 1)
	assert.Equal(t, Block{Ptr: firstBlock, Size: format.ChunkSize, Alloc: false}, bs[0])
	assert.Equal(t, firstBlock, a.rover)
	assert.Equal(t, 1, a.Stats().GrowCalls)
	assert.Equal(t, int64(format.ChunkSize), a.Stats().GrowBytes)
}

func TestNew_InitialChunksMerge(t *testing.T) {
	a, _ := newTestAllocator(t, 0, &Config{InitialChunks: 3})

	bs := blocks(t, a)
	require.Len(t, bs, 1, "consecutive extensions must merge into one free block")
	assert.Equal(t, uint32(3*format.ChunkSize), bs[0].Size)
	assert.Equal(t, 2, a.Stats().CoalescePrev)
}

func TestNew_CustomChunkSize(t *testing.T) {
	a, ar := newTestAllocator(t, 0, &Config{ChunkSize: 1001})

	// Rounded up to the alignment unit.
	assert.Equal(t, 1008, a.cfg.ChunkSize)
	assert.Equal(t, format.BootstrapSize+1008, ar.Len())
}

func TestNew_RejectsNonEmptyArena(t *testing.T) {
	ar := arena.NewMemory(0)
	_, err := ar.Extend(64)
	require.NoError(t, err)

	_, err = New(ar, nil, nil)
	require.ErrorIs(t, err, ErrNotEmpty)
}

func TestNew_Exhausted(t *testing.T) {
	tests := []struct {
		name  string
		limit int
	}{
		{"no room for sentinels", 8},
		{"no room for first chunk", format.BootstrapSize + format.ChunkSize - 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(arena.NewMemory(tt.limit), nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExhausted)
			assert.ErrorIs(t, err, arena.ErrExhausted, "arena error must stay in the chain")
		})
	}
}

func TestIndependentInstances(t *testing.T) {
	a1, _ := newTestAllocator(t, 0, nil)
	a2, _ := newTestAllocator(t, 0, nil)

	p1, err := a1.Alloc(100)
	require.NoError(t, err)
	fill(t, a1, p1, 100, 0x10)

	p2, err := a2.Alloc(100)
	require.NoError(t, err)
	fill(t, a2, p2, 100, 0x80)

	// Same offsets, different arenas.
	assert.Equal(t, p1, p2)
	requireFilled(t, a1, p1, 100, 0x10)
	requireFilled(t, a2, p2, 100, 0x80)
	assert.Equal(t, 1, a1.Stats().AllocCalls)
	assert.Equal(t, 1, a2.Stats().AllocCalls)
}

func TestAttach_ResumesHeap(t *testing.T) {
	a, ar := newTestAllocator(t, 0, nil)
	p, err := a.Alloc(300)
	require.NoError(t, err)
	fill(t, a, p, 300, 1)
	q, err := a.Alloc(40)
	require.NoError(t, err)
	require.NoError(t, a.Free(p))

	b, err := Attach(ar, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Usage(), b.Usage())
	assert.Equal(t, firstBlock, b.rover)

	// The freed block is the first fit from the start of the heap.
	r, err := b.Alloc(300)
	require.NoError(t, err)
	assert.Equal(t, p, r)
	assert.NotEqual(t, q, r)
	assertInvariants(t, b)
}

func TestAttach_RejectsCorruptHeap(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(data []byte)
	}{
		{"prologue", func(data []byte) { format.PutU32(data, 4, format.Pack(16, true)) }},
		{"footer", func(data []byte) { format.PutU32(data, len(data)-8, format.Pack(64, false)) }},
		{"epilogue", func(data []byte) { format.PutU32(data, len(data)-4, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ar := newTestAllocator(t, 0, nil)
			tt.corrupt(ar.Bytes())

			_, err := Attach(ar, nil, nil)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}

	t.Run("too small", func(t *testing.T) {
		ar := arena.NewMemory(0)
		_, err := ar.Extend(8)
		require.NoError(t, err)
		_, err = Attach(ar, nil, nil)
		require.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestCheck_DetectsAdjacentFreeBlocks(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	p, err := a.Alloc(8)
	require.NoError(t, err)

	// Clear the allocated bit behind the allocator's back: p now borders the
	// free remainder without having been merged.
	format.SetTags(a.data, int(p), format.BlockSize(a.data, int(p)), false)
	err = a.Check()
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "adjacent free")
}

func TestCheck_DetectsTagMismatch(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	p, err := a.Alloc(8)
	require.NoError(t, err)

	format.PutU32(a.data, format.Footer(a.data, int(p)), format.Pack(16, false))
	err = a.Check()
	require.ErrorIs(t, err, ErrCorrupt)
	assert.True(t, errors.Is(err, format.ErrTagMismatch))
}

func TestCheck_DetectsBadRover(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	a.rover = firstBlock + format.DoubleSize
	require.ErrorIs(t, a.Check(), ErrCorrupt)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	for range 4 {
		_, err := a.Alloc(24)
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	seen := 0
	err := a.Walk(func(Block) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestUsage(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	p, err := a.Alloc(100)
	require.NoError(t, err)
	_, err = a.Alloc(200)
	require.NoError(t, err)
	require.NoError(t, a.Free(p))

	u := a.Usage()
	assert.Equal(t, format.BootstrapSize+format.ChunkSize, u.HeapSize)
	assert.Equal(t, 3, u.Blocks)
	assert.Equal(t, 1, u.AllocBlocks)
	assert.Equal(t, 2, u.FreeBlocks)
	assert.Equal(t, int64(208), u.AllocBytes)
	assert.Equal(t, int64(112+format.ChunkSize-112-208), u.FreeBytes)
	assert.Equal(t, format.ChunkSize-112-208, u.LargestFree)
	assert.InDelta(t, 208.0/float64(u.HeapSize), u.Utilization(), 1e-9)
}

func TestPayloadAndCap(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	p, err := a.Alloc(100)
	require.NoError(t, err)

	assert.Equal(t, 104, a.Cap(p))
	assert.Len(t, a.Payload(p), 104)
	assert.Nil(t, a.Payload(Nil))
	assert.Equal(t, 0, a.Cap(Ptr(3)))
	assert.Nil(t, a.Payload(Ptr(1<<24)))
}
