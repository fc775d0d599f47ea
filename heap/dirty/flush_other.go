//go:build !linux && !freebsd && !darwin

package dirty

import "context"

// flushRanges is a no-op where arenas are not shared mappings; the File arena
// writes itself back on Close.
func (t *Tracker) flushRanges(ctx context.Context, _ []byte) error {
	return ctx.Err()
}

func fdatasync(int, bool) error { return nil }
