// Package mem defines the address types, fixed constants, and the
// frame-allocator interface the vm core is built against. The frame
// allocator itself is an external collaborator; this package only
// describes the shape it must have.
package mem

import "unsafe"

/// PageShift is the base-2 exponent of the page size.
const PageShift uint = 12

/// PageSize is the size of a single page in bytes.
const PageSize int = 1 << PageShift

/// PageOffsetMask masks the in-page offset bits of an address.
const PageOffsetMask uintptr = uintptr(PageSize) - 1

/// PageFrame masks the frame-number bits of an address, discarding the
/// in-page offset.
const PageFrame uintptr = ^PageOffsetMask

/// MIPSKseg0 is both the base of the direct-mapped kernel window and the
/// boundary above which a virtual address belongs to the kernel, not a
/// user process.
const MIPSKseg0 Vaddr = 0x80000000

/// Userstack is the top of the user address space; the initial stack
/// pointer handed to a new process.
const Userstack Vaddr = MIPSKseg0

/// UstackSize is the default size of a process's stack region.
const UstackSize uintptr = 16 * uintptr(PageSize)

/// NumPDEntry is the number of page-directory slots (top 11 bits of a
/// virtual address).
const NumPDEntry = 2048

/// NumPTEntry is the number of slots in a second-level page table
/// (middle 9 bits of a virtual address).
const NumPTEntry = 512

/// Vaddr is a user or kernel virtual address.
type Vaddr uintptr

/// Pa_t is a physical address, as stored (masked) inside a PTE.
type Pa_t uintptr

/// Kvaddr is a kernel-window virtual address: a direct, identity-offset
/// mapping of a physical frame, usable by the kernel without its own
/// page table walk.
type Kvaddr uintptr

/// KvaddrToPaddr converts a kernel-window virtual address to the
/// physical address it maps, by subtracting the kernel-window base.
/// It is the inverse of PaddrToKvaddr.
func KvaddrToPaddr(k Kvaddr) Pa_t {
	return Pa_t(uintptr(k) - uintptr(MIPSKseg0))
}

/// PaddrToKvaddr converts a physical address to its kernel-window
/// virtual address, by adding the kernel-window base.
func PaddrToKvaddr(p Pa_t) Kvaddr {
	return Kvaddr(uintptr(p) + uintptr(MIPSKseg0))
}

/// FrameAllocator is the external collaborator that owns physical
/// memory. AllocPage returns a fresh, kernel-window-addressed frame;
/// FreePage returns one to the pool. Neither method zero-fills.
type FrameAllocator interface {
	AllocPage() (Kvaddr, bool)
	FreePage(Kvaddr)
}

/// ZeroPage clears an entire page reached through its kernel-window
/// address, the same bzero-on-a-freshly-allocated-frame step the
/// original fault handler performs before installing a PTE.
func ZeroPage(k Kvaddr) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(k))), PageSize)
	for i := range b {
		b[i] = 0
	}
}
