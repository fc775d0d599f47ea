package trace

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileReadFile(t *testing.T) {
	tr := Generate(rand.New(rand.NewSource(3)), Params{Ops: 400, IDs: 30, MaxSize: 900})
	dir := t.TempDir()

	for _, name := range []string{"plain.rep", "packed.rep.zst", "packed.rep.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, tr))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tr, got)
		})
	}

	// The compressed forms really are compressed.
	plain, err := os.Stat(filepath.Join(dir, "plain.rep"))
	require.NoError(t, err)
	for _, name := range []string{"packed.rep.zst", "packed.rep.lz4"} {
		st, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Less(t, st.Size(), plain.Size(), name)
	}
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.rep"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// Plain text under a zstd name is not a valid frame.
	path := filepath.Join(t.TempDir(), "bogus.rep.zst")
	require.NoError(t, os.WriteFile(path, []byte("0\n1\n0\n1\n"), 0o644))
	_, err = ReadFile(path)
	require.Error(t, err)
}
