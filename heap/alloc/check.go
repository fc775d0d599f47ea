package alloc

import (
	"fmt"

	"github.com/joshuapare/tagheap/internal/buf"
	"github.com/joshuapare/tagheap/internal/format"
)

// validate checks that bp looks like the payload of a live block.
//
// The bounds checks always run. With Config.Debug the tags are also read:
// header and footer must agree and the block must be allocated.
func (a *Allocator) validate(bp int) error {
	if bp < firstBlock || bp%format.DoubleSize != 0 || !buf.Has(a.data, format.Header(bp), format.WordSize) {
		return fmt.Errorf("%w: %d outside heap [%d, %d)", ErrBadPtr, bp, firstBlock, len(a.data))
	}
	size := format.BlockSize(a.data, bp)
	// The block plus the epilogue header must fit in the arena.
	if size < format.MinBlockSize || format.Header(bp)+int(size) > len(a.data)-format.WordSize {
		return fmt.Errorf("%w: %d has size %d", ErrBadPtr, bp, size)
	}
	if !a.cfg.Debug {
		return nil
	}

	hdr := format.ReadU32(a.data, format.Header(bp))
	ftr := format.ReadU32(a.data, format.Footer(a.data, bp))
	if hdr != ftr {
		return fmt.Errorf("%w: %d: %w (%#x != %#x)", ErrBadPtr, bp, format.ErrTagMismatch, hdr, ftr)
	}
	if !format.UnpackAlloc(hdr) {
		return fmt.Errorf("%w: %d is not allocated", ErrBadPtr, bp)
	}
	return nil
}

// Walk calls fn for every block between the sentinels in address order.
// It stops at the first error fn returns, or at the first block whose tags
// cannot be read (reported as ErrCorrupt).
func (a *Allocator) Walk(fn func(Block) error) error {
	data := a.data
	for bp := firstBlock; ; {
		if !buf.Has(data, format.Header(bp), format.WordSize) {
			return fmt.Errorf("%w: block %d: %w", ErrCorrupt, bp, format.ErrTruncated)
		}
		hdr := format.ReadU32(data, format.Header(bp))
		size := format.UnpackSize(hdr)
		if size == 0 {
			return nil
		}
		if size < format.MinBlockSize || !buf.Has(data, format.Header(bp), int(size)) {
			return fmt.Errorf("%w: block %d: size %d: %w", ErrCorrupt, bp, size, format.ErrTruncated)
		}
		if err := fn(Block{Ptr: Ptr(bp), Size: size, Alloc: format.UnpackAlloc(hdr)}); err != nil {
			return err
		}
		bp += int(size)
	}
}

// Check verifies the heap invariants and returns an error wrapping ErrCorrupt
// describing the first violation found:
//
//   - both prologue tags are (8, allocated)
//   - every block is 8-aligned, at least MinBlockSize, and fits the arena
//   - every block's header equals its footer
//   - no two free blocks are adjacent
//   - the epilogue is (0, allocated) and sits in the last word of the arena
//   - the rover is at a block boundary
//
// Check is O(blocks) and intended for tests and debugging.
func (a *Allocator) Check() error {
	data := a.data
	if len(data) < format.BootstrapSize || len(data)%format.DoubleSize != 0 {
		return fmt.Errorf("%w: arena length %d", ErrCorrupt, len(data))
	}

	prologue := format.Pack(format.PrologueSize, true)
	if h := format.ReadU32(data, format.Header(format.HeapStart)); h != prologue {
		return fmt.Errorf("%w: prologue header %#x", ErrCorrupt, h)
	}
	if f := format.ReadU32(data, format.HeapStart); f != prologue {
		return fmt.Errorf("%w: prologue footer %#x", ErrCorrupt, f)
	}

	roverOK := a.rover == format.HeapStart
	prevFree := false
	end := firstBlock
	err := a.Walk(func(b Block) error {
		bp := int(b.Ptr)
		if bp%format.DoubleSize != 0 || b.Size%format.DoubleSize != 0 {
			return fmt.Errorf("%w: block %d: misaligned (size %d)", ErrCorrupt, bp, b.Size)
		}
		if format.Header(bp)+int(b.Size) > len(data)-format.WordSize {
			return fmt.Errorf("%w: block %d: size %d overlaps epilogue", ErrCorrupt, bp, b.Size)
		}
		hdr := format.ReadU32(data, format.Header(bp))
		ftr := format.ReadU32(data, format.Footer(data, bp))
		if hdr != ftr {
			return fmt.Errorf("%w: block %d: %w (%#x != %#x)", ErrCorrupt, bp, format.ErrTagMismatch, hdr, ftr)
		}
		if !b.Alloc && prevFree {
			return fmt.Errorf("%w: block %d: adjacent free blocks", ErrCorrupt, bp)
		}
		prevFree = !b.Alloc
		if a.rover == bp {
			roverOK = true
		}
		end = bp + int(b.Size)
		return nil
	})
	if err != nil {
		return err
	}

	if format.Header(end) != len(data)-format.WordSize {
		return fmt.Errorf("%w: epilogue at %d, arena ends at %d", ErrCorrupt, format.Header(end), len(data))
	}
	if epi := format.ReadU32(data, format.Header(end)); epi != format.Pack(0, true) {
		return fmt.Errorf("%w: epilogue %#x", ErrCorrupt, epi)
	}
	if a.rover == end {
		roverOK = true
	}
	if !roverOK {
		return fmt.Errorf("%w: rover %d not at a block boundary", ErrCorrupt, a.rover)
	}
	return nil
}
