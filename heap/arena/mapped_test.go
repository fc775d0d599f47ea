//go:build unix

package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapped_StableBytes(t *testing.T) {
	m, err := NewMapped(1 << 20)
	require.NoError(t, err)
	defer m.Close()

	base, err := m.Extend(4096)
	require.NoError(t, err)
	assert.Equal(t, 0, base)
	first := m.Bytes()
	first[0] = 0x5A

	base, err = m.Extend(8192)
	require.NoError(t, err)
	assert.Equal(t, 4096, base)
	second := m.Bytes()

	assert.Same(t, &first[0], &second[0], "mapping must not move on extend")
	assert.Equal(t, byte(0x5A), second[0])
	assert.Len(t, second, 4096+8192)
}

func TestMapped_Exhaustion(t *testing.T) {
	m, err := NewMapped(8192)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Extend(8192)
	require.NoError(t, err)
	_, err = m.Extend(8)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestMapped_CloseIdempotent(t *testing.T) {
	m, err := NewMapped(4096)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())

	_, err = m.Extend(8)
	require.ErrorIs(t, err, ErrClosed)
}
