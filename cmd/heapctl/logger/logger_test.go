package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledDiscards(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: false, Output: &out}))
	Info("hello")
	assert.Empty(t, out.String())
}

func TestInit_TextToWriter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Output: &out, Level: slog.LevelDebug}))
	t.Cleanup(func() { L = slog.New(slog.DiscardHandler) })

	Debug("heap grow", "bytes", 4096)
	assert.Contains(t, out.String(), "heap grow")
	assert.Contains(t, out.String(), "bytes=4096")
}

func TestInit_LogDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir, Level: slog.LevelInfo}))
	t.Cleanup(func() { _ = Close() })

	Info("replay done", "ops", 12)
	name := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"replay done"`)
}

func TestInit_ClosesPreviousLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir, Level: slog.LevelInfo}))
	first := logFile
	require.NotNil(t, first)

	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Output: &out, Level: slog.LevelInfo}))
	assert.Nil(t, logFile)
	_, err := first.Write([]byte("x"))
	require.ErrorIs(t, err, os.ErrClosed, "re-init closes the daily file")

	Info("after re-init")
	assert.Contains(t, out.String(), "after re-init")
	require.NoError(t, Close())
}

func TestClose(t *testing.T) {
	require.NoError(t, Close(), "nothing open")

	require.NoError(t, Init(Options{Enabled: true, LogDir: t.TempDir(), Level: slog.LevelInfo}))
	f := logFile
	require.NoError(t, Close())
	assert.Nil(t, logFile)
	_, err := f.Write([]byte("x"))
	require.ErrorIs(t, err, os.ErrClosed)
	require.NoError(t, Close(), "idempotent")
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	files := map[string]bool{
		"heapctl-2025-01-01.log": false, // expired
		"heapctl-2025-06-29.log": true,
		"heapctl-garbage.log":    true,
		"other-2025-01-01.log":   true,
	}
	for name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	cleanOldLogs(dir, now)

	for name, keep := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.Equal(t, keep, err == nil, name)
	}
}
