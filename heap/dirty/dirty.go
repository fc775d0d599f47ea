package dirty

import (
	"context"
	"os"
	"sort"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// FlushMode controls durability guarantees for Sync.
type FlushMode int

const (
	// FlushAuto msyncs dirty pages and then fdatasyncs the file descriptor.
	FlushAuto FlushMode = iota

	// FlushDataOnly only msyncs dirty pages; the caller syncs the descriptor later.
	FlushDataOnly

	// FlushFull msyncs dirty pages and issues the strongest descriptor sync the
	// platform offers (F_FULLFSYNC on macOS).
	FlushFull
)

// Range is a dirty byte range in arena offsets.
type Range struct {
	Off int64
	Len int64
}

// End returns the exclusive end offset of the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	src      Source
	ranges   []Range // raw ranges, coalesced at flush time
	pageSize int64
}

// NewTracker creates a dirty tracker over src.
func NewTracker(src Source) *Tracker {
	return &Tracker{
		src:      src,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(os.Getpagesize()),
	}
}

// Add records a dirty range. Zero and negative lengths are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Len returns the number of raw (uncoalesced) ranges recorded.
func (t *Tracker) Len() int { return len(t.ranges) }

// Ranges returns the page-aligned, sorted, merged ranges that a flush would write.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// FlushDataOnly msyncs every dirty page of the source and clears the ranges.
//
// The context is checked between ranges. If cancelled mid-flush, some ranges
// may have been written while others have not; the ranges are kept so a later
// flush retries them.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.src.Bytes()
	if len(data) == 0 {
		t.Reset()
		return nil
	}

	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}
	t.Reset()
	return nil
}

// Sync flushes dirty pages and, unless mode is FlushDataOnly, syncs the file
// descriptor when the source exposes one.
func (t *Tracker) Sync(ctx context.Context, mode FlushMode) error {
	if err := t.FlushDataOnly(ctx); err != nil {
		return err
	}
	if mode == FlushDataOnly {
		return nil
	}
	fs, ok := t.src.(fdSource)
	if !ok || fs.FD() < 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fdatasync(fs.FD(), mode == FlushFull)
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
