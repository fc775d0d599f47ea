package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is chosen from the file extension: ".zst" for zstd, ".lz4" for
// an lz4 frame, anything else is plain text.
const (
	extZstd = ".zst"
	extLZ4  = ".lz4"
)

// ReadFile parses the trace at path, decompressing by extension.
func ReadFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch filepath.Ext(path) {
	case extZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("trace: %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	case extLZ4:
		r = lz4.NewReader(f)
	}

	tr, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

// WriteFile writes tr to path, compressing by extension.
func WriteFile(path string, tr *Trace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	switch filepath.Ext(path) {
	case extZstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		return errors.Join(tr.Write(enc), enc.Close())
	case extLZ4:
		zw := lz4.NewWriter(f)
		return errors.Join(tr.Write(zw), zw.Close())
	default:
		return tr.Write(f)
	}
}
