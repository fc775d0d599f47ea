package dirty

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
//
// This interface is intended for components that only need to notify about dirty
// regions but don't manage flushing themselves (e.g. the allocator).
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the arena, length is the number of bytes.
	Add(off, length int)
}

// Source is the byte range a Tracker flushes. Arenas satisfy it.
type Source interface {
	Bytes() []byte
}

// fdSource is implemented by sources that can be fdatasync'd.
type fdSource interface {
	FD() int
}
