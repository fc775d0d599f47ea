package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/tagheap/heap/alloc"
	"github.com/joshuapare/tagheap/internal/buf"
)

var (
	// ErrOverlap indicates the allocator handed out a payload that overlaps a
	// live one.
	ErrOverlap = errors.New("trace: live payloads overlap")

	// ErrPayload indicates a live payload lost its contents.
	ErrPayload = errors.New("trace: payload corrupted")
)

// Options controls Replay.
type Options struct {
	// Check runs the heap checker after every operation.
	Check bool

	// Logger receives a summary at Debug level. nil discards it.
	Logger *slog.Logger
}

// Result summarizes a replay.
type Result struct {
	Ops         int         `json:"ops"`
	PeakLive    int64       `json:"peak_live"` // peak sum of requested bytes
	HeapSize    int         `json:"heap_size"` // arena size after the last op
	Utilization float64     `json:"utilization"`
	Stats       alloc.Stats `json:"stats"`
	Usage       alloc.Usage `json:"usage"`
}

// pattern is the byte stored at offset i of the payload bound to id.
func pattern(id, i int) byte {
	return byte(id*131 + i*7 + 1)
}

type replayer struct {
	a     *alloc.Allocator
	ptrs  []alloc.Ptr
	sizes []int
	bound []bool
	live  int64
}

// Replay runs every op of tr against a. It fails on the first allocator
// error, payload overlap or content mismatch and reports the index of the
// offending op. ctx is checked between operations.
func Replay(ctx context.Context, tr *Trace, a *alloc.Allocator, opts Options) (Result, error) {
	if err := tr.Validate(); err != nil {
		return Result{}, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	r := &replayer{
		a:     a,
		ptrs:  make([]alloc.Ptr, tr.NumIDs),
		sizes: make([]int, tr.NumIDs),
		bound: make([]bool, tr.NumIDs),
	}
	var res Result

	for i, op := range tr.Ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.step(op); err != nil {
			return res, fmt.Errorf("op %d (%s %d): %w", i, op.Kind, op.ID, err)
		}
		if opts.Check {
			if err := a.Check(); err != nil {
				return res, fmt.Errorf("op %d (%s %d): %w", i, op.Kind, op.ID, err)
			}
		}
		res.Ops++
		res.PeakLive = max(res.PeakLive, r.live)
	}

	for id, ok := range r.bound {
		if ok {
			if err := r.verify(id, r.sizes[id]); err != nil {
				return res, err
			}
		}
	}

	res.HeapSize = a.HeapSize()
	if res.HeapSize > 0 {
		res.Utilization = float64(res.PeakLive) / float64(res.HeapSize)
	}
	res.Stats = a.Stats()
	res.Usage = a.Usage()

	log.Debug("replay done",
		"ops", res.Ops,
		"peak_live", res.PeakLive,
		"heap", res.HeapSize,
		"util", res.Utilization,
		"grows", res.Stats.GrowCalls)
	return res, nil
}

func (r *replayer) step(op Op) error {
	switch op.Kind {
	case Alloc:
		p, err := r.a.Alloc(op.Size)
		if err != nil {
			return err
		}
		r.bind(op.ID, p, op.Size)
		return r.place(op.ID)

	case Realloc:
		old := r.sizes[op.ID]
		p, err := r.a.Realloc(r.ptrs[op.ID], op.Size)
		if err != nil {
			return err
		}
		r.live -= int64(old)
		r.bound[op.ID] = false
		if op.Size == 0 {
			r.ptrs[op.ID] = alloc.Nil
			r.sizes[op.ID] = 0
			r.bound[op.ID] = true
			return nil
		}
		r.bind(op.ID, p, op.Size)
		if err := r.verify(op.ID, min(old, op.Size)); err != nil {
			return err
		}
		return r.place(op.ID)

	case Free:
		if err := r.verify(op.ID, r.sizes[op.ID]); err != nil {
			return err
		}
		if err := r.a.Free(r.ptrs[op.ID]); err != nil {
			return err
		}
		r.live -= int64(r.sizes[op.ID])
		r.bound[op.ID] = false
		r.ptrs[op.ID] = alloc.Nil
		r.sizes[op.ID] = 0
		return nil
	}
	return fmt.Errorf("%w: unknown kind %v", ErrInvalidOp, op.Kind)
}

func (r *replayer) bind(id int, p alloc.Ptr, n int) {
	r.ptrs[id] = p
	r.sizes[id] = n
	r.bound[id] = true
	r.live += int64(n)
}

// place checks the block bound to id against every other live block and
// writes its pattern.
func (r *replayer) place(id int) error {
	p, n := int(r.ptrs[id]), r.sizes[id]
	if n == 0 {
		return nil
	}
	payload := r.a.Payload(r.ptrs[id])
	if len(payload) < n {
		return fmt.Errorf("%w: id %d: capacity %d < %d", ErrPayload, id, len(payload), n)
	}
	for other, ok := range r.bound {
		if !ok || other == id || r.sizes[other] == 0 {
			continue
		}
		if buf.Overlaps(p, n, int(r.ptrs[other]), r.sizes[other]) {
			return fmt.Errorf("%w: id %d [%d,+%d) and id %d [%d,+%d)",
				ErrOverlap, id, p, n, other, r.ptrs[other], r.sizes[other])
		}
	}
	for i := range n {
		payload[i] = pattern(id, i)
	}
	return nil
}

// verify checks the first n bytes of the payload bound to id.
func (r *replayer) verify(id, n int) error {
	if n == 0 {
		return nil
	}
	payload := r.a.Payload(r.ptrs[id])
	if len(payload) < n {
		return fmt.Errorf("%w: id %d: capacity %d < %d", ErrPayload, id, len(payload), n)
	}
	for i := range n {
		if payload[i] != pattern(id, i) {
			return fmt.Errorf("%w: id %d at byte %d", ErrPayload, id, i)
		}
	}
	return nil
}
