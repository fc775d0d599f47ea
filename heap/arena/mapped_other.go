//go:build !unix

package arena

// Mapped falls back to a Memory arena where anonymous mappings are unavailable.
type Mapped struct {
	Memory
}

// NewMapped returns a Memory-backed arena with the given limit.
func NewMapped(limit int) (*Mapped, error) {
	return &Mapped{Memory: Memory{limit: normalizeLimit(limit)}}, nil
}

// Close releases the backing slice.
func (m *Mapped) Close() error {
	m.data = nil
	return nil
}
