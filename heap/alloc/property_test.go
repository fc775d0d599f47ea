package alloc

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveBlock struct {
	size int
	seed byte
}

// checkLive verifies every live allocation still holds its pattern and that
// no two live payloads overlap.
func checkLive(t *testing.T, a *Allocator, live map[Ptr]liveBlock) {
	t.Helper()

	ptrs := make([]Ptr, 0, len(live))
	for p, lb := range live {
		requireFilled(t, a, p, lb.size, lb.seed)
		ptrs = append(ptrs, p)
	}
	slices.Sort(ptrs)
	for i := 1; i < len(ptrs); i++ {
		prev := ptrs[i-1]
		require.LessOrEqual(t, int(prev)+a.Cap(prev), int(ptrs[i]),
			"payloads at %d and %d overlap", prev, ptrs[i])
	}
}

// TestProperty_RandomOperations drives a fixed-seed mix of Alloc, Free and
// Realloc well past the first chunk and checks every heap invariant and
// every live payload after each step.
func TestProperty_RandomOperations(t *testing.T) {
	seeds := []int64{1, 42, 20251017}
	for _, seed := range seeds {
		a, _ := newTestAllocator(t, 0, &Config{Debug: true})
		rng := rand.New(rand.NewSource(seed))
		live := make(map[Ptr]liveBlock)
		var order []Ptr // deterministic iteration over live

		pick := func() (int, Ptr) {
			i := rng.Intn(len(order))
			return i, order[i]
		}
		remove := func(i int) {
			order[i] = order[len(order)-1]
			order = order[:len(order)-1]
		}
		size := func() int {
			if rng.Intn(10) == 0 {
				return 1 + rng.Intn(6000)
			}
			return 1 + rng.Intn(300)
		}

		for step := range 1500 {
			switch op := rng.Intn(10); {
			case op < 5 || len(order) == 0:
				n := size()
				p, err := a.Alloc(n)
				require.NoError(t, err, "seed %d step %d: Alloc(%d)", seed, step, n)
				seedByte := byte(rng.Intn(256))
				fill(t, a, p, n, seedByte)
				live[p] = liveBlock{size: n, seed: seedByte}
				order = append(order, p)

			case op < 8:
				i, p := pick()
				require.NoError(t, a.Free(p), "seed %d step %d: Free(%d)", seed, step, p)
				delete(live, p)
				remove(i)

			default:
				i, p := pick()
				old := live[p]
				n := size()
				q, err := a.Realloc(p, n)
				require.NoError(t, err, "seed %d step %d: Realloc(%d, %d)", seed, step, p, n)
				keep := min(old.size, n)
				requireFilled(t, a, q, keep, old.seed)
				// Re-fill so later checks cover the whole new size.
				fill(t, a, q, n, old.seed)
				delete(live, p)
				live[q] = liveBlock{size: n, seed: old.seed}
				order[i] = q
			}

			require.NoError(t, a.Check(), "seed %d step %d", seed, step)
			if step%25 == 0 {
				checkLive(t, a, live)
			}
		}
		checkLive(t, a, live)
		assertInvariants(t, a)

		st := a.Stats()
		assert.Greater(t, st.GrowCalls, 1, "seed %d: workload must outgrow the first chunk", seed)
		assert.Positive(t, st.ReallocInPlace+st.ReallocMoved)

		// Freeing everything leaves a single free block.
		for _, p := range order {
			require.NoError(t, a.Free(p))
		}
		u := a.Usage()
		assert.Equal(t, 1, u.FreeBlocks)
		assert.Equal(t, 0, u.AllocBlocks)
	}
}

// TestProperty_GrowthPreservesContents fills the heap well past its initial
// size with live data, then verifies the earliest allocations are intact.
func TestProperty_GrowthPreservesContents(t *testing.T) {
	a, ar := newTestAllocator(t, 0, nil)
	live := make(map[Ptr]liveBlock)

	for i := range 400 {
		n := 16 + (i*37)%512
		p, err := a.Alloc(n)
		require.NoError(t, err)
		fill(t, a, p, n, byte(i))
		live[p] = liveBlock{size: n, seed: byte(i)}
	}
	require.Greater(t, ar.Len(), 10*4096)
	assert.Greater(t, a.Stats().GrowCalls, 10)
	checkLive(t, a, live)
	assertInvariants(t, a)
}
