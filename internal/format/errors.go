package format

import "errors"

var (
	// ErrTruncated indicates the arena lacked the bytes required for a tag.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrTagMismatch indicates a block's header and footer disagree.
	ErrTagMismatch = errors.New("format: header/footer mismatch")
)
