package arena

// Memory is an Arena backed by an ordinary Go byte slice with a hard size limit.
//
// The backing slice is grown by doubling capacity, so Bytes() can move on any
// Extend. New bytes are always zero.
type Memory struct {
	data  []byte
	limit int

	// Test hook: called with the delta before each successful Extend (nil in production).
	onExtend func(n int)
}

// NewMemory creates an empty Memory arena that refuses to grow past limit bytes.
// limit <= 0 selects DefaultMaxSize.
func NewMemory(limit int) *Memory {
	return &Memory{limit: normalizeLimit(limit)}
}

// Extend implements Arena.
func (m *Memory) Extend(n int) (int, error) {
	base := len(m.data)
	end, err := checkExtend(base, n, m.limit)
	if err != nil {
		return 0, err
	}
	if m.onExtend != nil {
		m.onExtend(n)
	}
	if end <= cap(m.data) {
		m.data = m.data[:end]
		clear(m.data[base:end])
		return base, nil
	}
	newCap := max(end, 2*cap(m.data))
	newCap = min(newCap, m.limit)
	grown := make([]byte, end, newCap)
	copy(grown, m.data)
	m.data = grown
	return base, nil
}

// Bytes implements Arena.
func (m *Memory) Bytes() []byte { return m.data }

// Len implements Arena.
func (m *Memory) Len() int { return len(m.data) }

// Limit returns the maximum size the arena may grow to.
func (m *Memory) Limit() int { return m.limit }
