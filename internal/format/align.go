package format

// Alignment utilities for block sizes. Every block size and every payload
// offset is a multiple of DoubleSize.

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + DoubleSize - 1) &^ (DoubleSize - 1)
}

// Align8U32 is the uint32 version of Align8 for tag arithmetic.
func Align8U32(n uint32) uint32 {
	return (n + DoubleSize - 1) &^ (DoubleSize - 1)
}

// AdjustedSize returns the total block size (payload plus tags, aligned) needed
// to satisfy a request for n payload bytes.
//
// Requests that fit in the minimum payload get MinBlockSize; anything larger
// gets n plus the tag overhead rounded up to the alignment unit.
//
//	AdjustedSize(1)   = 16
//	AdjustedSize(8)   = 16
//	AdjustedSize(9)   = 24
//	AdjustedSize(100) = 112
func AdjustedSize(n uint32) uint32 {
	if n <= DoubleSize {
		return MinBlockSize
	}
	return Align8U32(n + DoubleSize)
}

// EvenWords rounds a word count up to an even number of words and returns the
// result in bytes, which keeps heap extensions double-word aligned.
func EvenWords(words uint32) uint32 {
	if words%2 != 0 {
		words++
	}
	return words * WordSize
}
