// Package pte implements the bit helpers that split a virtual address
// into directory/table indices, and the packed page-table-entry codec.
package pte

import "dumbvm/mem"

/// PDIndex extracts the page-directory index (the top bits of a virtual
/// address, selecting one of mem.NumPDEntry directory slots).
func PDIndex(v mem.Vaddr) uint32 {
	return uint32(v>>21) & (mem.NumPDEntry - 1)
}

/// PTIndex extracts the second-level table index (the middle bits of a
/// virtual address, selecting one of mem.NumPTEntry table slots).
///
/// The original C source derives this with a word-width-dependent
/// overflow trick, `(v << 11) >> 23`, that only selects bits 12..20
/// because the intermediate value wraps at 32 bits. Go's uintptr isn't
/// guaranteed to be 32 bits, so the same bits are selected here with an
/// explicit shift-then-mask instead; the result is identical for every
/// address below mem.MIPSKseg0.
func PTIndex(v mem.Vaddr) uint32 {
	return uint32(v>>mem.PageShift) & (mem.NumPTEntry - 1)
}

/// PageOffset extracts the in-page offset bits of a virtual address.
func PageOffset(v mem.Vaddr) uintptr {
	return uintptr(v) & mem.PageOffsetMask
}

/// Entry is a packed second-level page-table slot: a physical frame
/// number plus flag bits.
type Entry uintptr

const (
	/// Valid marks an entry as usable by the TLB.
	Valid Entry = 1 << 0
	/// Dirty marks a page writable; on this architecture "dirty" is a
	/// software write-enable hint, not a hardware-set modified bit.
	Dirty Entry = 1 << 1
)

/// Unallocated is the sentinel value for a second-level slot that has
/// never been installed. It is the all-ones bit pattern, which cannot
/// collide with any legal frame-number-plus-flags encoding since a real
/// frame number never occupies every address bit simultaneously with
/// every flag bit set.
const Unallocated Entry = ^Entry(0)

/// Encode packs a physical frame and a writable bit into a PTE. The
/// Valid bit is always set; Dirty is set iff writable is true.
func Encode(paddr mem.Pa_t, writable bool) Entry {
	e := Entry(uintptr(paddr)&mem.PageFrame) | Valid
	if writable {
		e |= Dirty
	}
	return e
}

/// DecodeFrame strips the flag bits and returns the physical frame
/// encoded in a PTE.
func DecodeFrame(e Entry) mem.Pa_t {
	return mem.Pa_t(uintptr(e) & mem.PageFrame)
}

/// IsValid reports whether the Valid bit is set.
func IsValid(e Entry) bool {
	return e&Valid != 0
}

/// IsWritable reports whether the Dirty (write-enable) bit is set.
func IsWritable(e Entry) bool {
	return e&Dirty != 0
}

/// ClearDirty returns e with the Dirty bit cleared and Valid set,
/// the transformation applied when complete-load restores a read-only
/// region's permissions on an already-installed PTE.
func ClearDirty(e Entry) Entry {
	return (e &^ Dirty) | Valid
}
