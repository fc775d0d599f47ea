package trace

import "math/rand"

// Params shapes a generated trace.
type Params struct {
	Ops         int     // random operations before the closing frees
	IDs         int     // distinct ids; bounds the number of live blocks
	MaxSize     int     // request sizes are uniform in [1, MaxSize]
	ReallocRate float64 // fraction of operations on live ids that resize
}

// DefaultParams is a small mixed workload.
var DefaultParams = Params{
	Ops:         2000,
	IDs:         200,
	MaxSize:     2048,
	ReallocRate: 0.3,
}

func (p Params) normalize() Params {
	if p.Ops <= 0 {
		p.Ops = DefaultParams.Ops
	}
	if p.IDs <= 0 {
		p.IDs = DefaultParams.IDs
	}
	if p.MaxSize <= 0 {
		p.MaxSize = DefaultParams.MaxSize
	}
	p.ReallocRate = min(max(p.ReallocRate, 0), 1)
	return p
}

// Generate builds a random trace that passes Validate. After p.Ops random
// operations every id still bound is freed, so the trace ends with an empty
// heap. SuggestedHeap is set to the peak of live requested bytes.
func Generate(rng *rand.Rand, p Params) *Trace {
	p = p.normalize()
	tr := &Trace{NumIDs: p.IDs, Weight: 1}

	sizes := make([]int, p.IDs)
	var live, unbound []int
	for id := p.IDs - 1; id >= 0; id-- {
		unbound = append(unbound, id)
	}
	liveBytes, peak := 0, 0

	for range p.Ops {
		if len(live) == 0 || (len(unbound) > 0 && rng.Intn(2) == 0) {
			id := unbound[len(unbound)-1]
			unbound = unbound[:len(unbound)-1]
			n := 1 + rng.Intn(p.MaxSize)
			tr.Ops = append(tr.Ops, Op{Kind: Alloc, ID: id, Size: n})
			live = append(live, id)
			sizes[id] = n
			liveBytes += n
			peak = max(peak, liveBytes)
			continue
		}

		i := rng.Intn(len(live))
		id := live[i]
		if rng.Float64() < p.ReallocRate {
			n := 1 + rng.Intn(p.MaxSize)
			tr.Ops = append(tr.Ops, Op{Kind: Realloc, ID: id, Size: n})
			liveBytes += n - sizes[id]
			sizes[id] = n
			peak = max(peak, liveBytes)
			continue
		}

		tr.Ops = append(tr.Ops, Op{Kind: Free, ID: id})
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		unbound = append(unbound, id)
		liveBytes -= sizes[id]
	}

	for _, id := range live {
		tr.Ops = append(tr.Ops, Op{Kind: Free, ID: id})
	}
	tr.SuggestedHeap = peak
	return tr
}
