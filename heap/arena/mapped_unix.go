//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mapped is an Arena backed by a single anonymous private mapping of its full
// limit. Pages are committed lazily by the kernel as the break moves over
// them, and Bytes() never moves.
type Mapped struct {
	region []byte // whole reservation
	brk    int
	limit  int
}

// NewMapped reserves limit bytes of address space. limit <= 0 selects
// DefaultMaxSize. The limit is rounded up to the page size.
func NewMapped(limit int) (*Mapped, error) {
	limit = normalizeLimit(limit)
	page := unix.Getpagesize()
	size := (limit + page - 1) / page * page

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", size, err)
	}
	return &Mapped{region: region, limit: limit}, nil
}

// Extend implements Arena.
func (m *Mapped) Extend(n int) (int, error) {
	if m.region == nil {
		return 0, ErrClosed
	}
	end, err := checkExtend(m.brk, n, m.limit)
	if err != nil {
		return 0, err
	}
	base := m.brk
	m.brk = end
	return base, nil
}

// Bytes implements Arena.
func (m *Mapped) Bytes() []byte {
	if m.region == nil {
		return nil
	}
	return m.region[:m.brk]
}

// Len implements Arena.
func (m *Mapped) Len() int { return m.brk }

// Close releases the reservation. Close is idempotent.
func (m *Mapped) Close() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region = nil
	m.brk = 0
	if err == unix.EINVAL {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
