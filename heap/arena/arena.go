package arena

import (
	"errors"
	"fmt"

	"github.com/joshuapare/tagheap/internal/buf"
	"github.com/joshuapare/tagheap/internal/format"
)

var (
	// ErrExhausted indicates the arena cannot supply the requested bytes.
	ErrExhausted = errors.New("arena: exhausted")

	// ErrBadDelta indicates a non-positive or misaligned Extend request.
	ErrBadDelta = errors.New("arena: extend delta must be positive and 8-byte aligned")

	// ErrClosed indicates the arena has been released.
	ErrClosed = errors.New("arena: closed")
)

// DefaultMaxSize is the limit used when a constructor is given a size <= 0 (20 MiB).
const DefaultMaxSize = 20 * (1 << 20)

// Arena is a monotonically growable byte range.
type Arena interface {
	// Extend commits n more bytes at the end of the arena and returns the
	// offset of the first new byte. n must be a positive multiple of 8.
	// It returns ErrExhausted (possibly wrapped) when the arena cannot grow.
	Extend(n int) (base int, err error)

	// Bytes returns the committed bytes [0, Len()). The slice is invalidated
	// by the next Extend on arenas that reallocate.
	Bytes() []byte

	// Len returns the current break.
	Len() int
}

// checkExtend validates an Extend request against the current break and limit
// and returns the new break.
func checkExtend(cur, n, limit int) (int, error) {
	if n <= 0 || n%format.DoubleSize != 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadDelta, n)
	}
	end, ok := buf.AddOverflowSafe(cur, n)
	if !ok || end > limit || end > format.MaxArenaSize {
		return 0, fmt.Errorf("%w: break=%d delta=%d limit=%d", ErrExhausted, cur, n, limit)
	}
	return end, nil
}

// normalizeLimit applies DefaultMaxSize and the tag-width ceiling.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	return min(limit, format.MaxArenaSize)
}
