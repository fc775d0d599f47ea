//go:build linux || darwin || freebsd

package arena

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is an Arena backed by a shared, read-write mapping of a regular file.
// Extend grows the file with ftruncate (the new bytes read as zero) and
// remaps it, so Bytes() moves on every Extend.
type File struct {
	f     *os.File
	data  []byte
	size  int
	limit int
}

// CreateFile creates (or truncates) the file at path and returns an empty arena
// that grows up to limit bytes. limit <= 0 selects DefaultMaxSize.
func CreateFile(path string, limit int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{f: f, limit: normalizeLimit(limit)}, nil
}

// OpenFile maps an existing heap file read-write. The current file size becomes
// the break.
func OpenFile(path string, limit int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	limit = normalizeLimit(limit)
	sz := st.Size()
	if sz > int64(limit) {
		_ = f.Close()
		return nil, fmt.Errorf("arena: file %s is %d bytes, over limit %d", path, sz, limit)
	}

	a := &File{f: f, size: int(sz), limit: limit}
	if sz == 0 {
		return a, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(sz), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("arena: mmap failed: %w", err)
	}
	a.data = data
	return a, nil
}

// Extend implements Arena.
func (a *File) Extend(n int) (int, error) {
	if a.f == nil {
		return 0, ErrClosed
	}
	newSize, err := checkExtend(a.size, n, a.limit)
	if err != nil {
		return 0, err
	}

	// Unmap the current mapping
	if a.data != nil {
		if err := unix.Munmap(a.data); err != nil {
			return 0, fmt.Errorf("arena: failed to unmap before grow: %w", err)
		}
		a.data = nil
	}

	// Truncate file to new size (extends with zeros)
	if err := a.f.Truncate(int64(newSize)); err != nil {
		a.remapOld()
		return 0, fmt.Errorf("%w: truncate: %w", ErrExhausted, err)
	}

	data, err := unix.Mmap(int(a.f.Fd()), 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = a.f.Truncate(int64(a.size))
		a.remapOld()
		return 0, fmt.Errorf("%w: remap after grow: %w", ErrExhausted, err)
	}

	base := a.size
	a.data = data
	a.size = newSize
	return base, nil
}

// remapOld restores the mapping at the previous size after a failed grow.
func (a *File) remapOld() {
	if a.size == 0 {
		return
	}
	data, err := unix.Mmap(int(a.f.Fd()), 0, a.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err == nil {
		a.data = data
	}
}

// Bytes implements Arena.
func (a *File) Bytes() []byte { return a.data }

// Len implements Arena.
func (a *File) Len() int { return a.size }

// FD returns the underlying file descriptor, or -1 once closed.
func (a *File) FD() int {
	if a.f == nil {
		return -1
	}
	return int(a.f.Fd())
}

// Close unmaps the arena and closes the file. Close is idempotent.
func (a *File) Close() error {
	var err error
	if a.data != nil {
		if unmapErr := unix.Munmap(a.data); unmapErr != nil && !errors.Is(unmapErr, unix.EINVAL) {
			err = unmapErr
		}
		a.data = nil
	}
	if a.f != nil {
		if closeErr := a.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		a.f = nil
	}
	return err
}
