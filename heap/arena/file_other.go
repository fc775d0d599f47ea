//go:build !linux && !darwin && !freebsd

package arena

import (
	"fmt"
	"os"
)

// File is an Arena that mirrors its bytes to a regular file. Without shared
// mappings the whole arena is rewritten on Extend and on Close.
type File struct {
	f     *os.File
	data  []byte
	limit int
}

// CreateFile creates (or truncates) the file at path and returns an empty arena.
func CreateFile(path string, limit int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{f: f, limit: normalizeLimit(limit)}, nil
}

// OpenFile reads an existing heap file into memory.
func OpenFile(path string, limit int) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)
	if len(data) > limit {
		return nil, fmt.Errorf("arena: file %s is %d bytes, over limit %d", path, len(data), limit)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &File{f: f, data: data, limit: limit}, nil
}

// Extend implements Arena.
func (a *File) Extend(n int) (int, error) {
	if a.f == nil {
		return 0, ErrClosed
	}
	end, err := checkExtend(len(a.data), n, a.limit)
	if err != nil {
		return 0, err
	}
	if err := a.f.Truncate(int64(end)); err != nil {
		return 0, fmt.Errorf("%w: truncate: %w", ErrExhausted, err)
	}
	base := len(a.data)
	grown := make([]byte, end)
	copy(grown, a.data)
	a.data = grown
	return base, nil
}

// Bytes implements Arena.
func (a *File) Bytes() []byte { return a.data }

// Len implements Arena.
func (a *File) Len() int { return len(a.data) }

// FD returns the underlying file descriptor, or -1 once closed.
func (a *File) FD() int {
	if a.f == nil {
		return -1
	}
	return int(a.f.Fd())
}

// Close writes the arena back to the file and closes it.
func (a *File) Close() error {
	if a.f == nil {
		return nil
	}
	_, err := a.f.WriteAt(a.data, 0)
	if closeErr := a.f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	a.f = nil
	a.data = nil
	return err
}
