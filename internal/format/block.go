package format

// Block layout. bp is the payload offset of a block; the header sits one word
// before it and the footer occupies the last word of the block:
//
//	  hdr        bp                              ftr
//	+------+-------------------------------+------+
//	| s|a  |  payload (s - DoubleSize)     | s|a  |
//	+------+-------------------------------+------+
//	       ^ bp                            ^ bp + s - DoubleSize
//
// The next block's payload starts at bp + s and the previous block's footer
// sits at bp - DoubleSize.

// Pack combines a block size and an allocated flag into one tag word.
func Pack(size uint32, alloc bool) uint32 {
	if alloc {
		return size | allocMask
	}
	return size
}

// UnpackSize extracts the block size from a tag word.
func UnpackSize(w uint32) uint32 { return w & sizeMask }

// UnpackAlloc extracts the allocated flag from a tag word.
func UnpackAlloc(w uint32) bool { return w&allocMask != 0 }

// Header returns the offset of the header tag for the block at bp.
func Header(bp int) int { return bp - WordSize }

// Footer returns the offset of the footer tag for the block at bp.
// It reads the header to learn the block size.
func Footer(data []byte, bp int) int {
	return bp + int(BlockSize(data, bp)) - DoubleSize
}

// Next returns the payload offset of the block physically after bp.
func Next(data []byte, bp int) int {
	return bp + int(BlockSize(data, bp))
}

// Prev returns the payload offset of the block physically before bp, found by
// reading that block's footer immediately before bp's header.
func Prev(data []byte, bp int) int {
	return bp - int(UnpackSize(ReadU32(data, bp-DoubleSize)))
}

// BlockSize reads the size field of bp's header.
func BlockSize(data []byte, bp int) uint32 {
	return UnpackSize(ReadU32(data, Header(bp)))
}

// IsAlloc reads the allocated flag of bp's header.
func IsAlloc(data []byte, bp int) bool {
	return UnpackAlloc(ReadU32(data, Header(bp)))
}

// PrevAlloc reads the allocated flag from the footer of the block before bp.
func PrevAlloc(data []byte, bp int) bool {
	return UnpackAlloc(ReadU32(data, bp-DoubleSize))
}

// SetTags writes identical header and footer tags for a block of the given
// size starting at bp. The footer position is derived from size, not from
// the current header, so this is safe while a block is being resized.
func SetTags(data []byte, bp int, size uint32, alloc bool) {
	w := Pack(size, alloc)
	PutU32(data, Header(bp), w)
	PutU32(data, bp+int(size)-DoubleSize, w)
}

// PayloadSize returns the usable payload capacity of a block of the given size.
func PayloadSize(size uint32) uint32 {
	if size < DoubleSize {
		return 0
	}
	return size - DoubleSize
}
