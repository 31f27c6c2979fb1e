// Package tlb describes the software-managed TLB and the
// interrupt-priority-level primitives the fault handler drives on
// every refill: mask interrupts, write the translation, restore the
// priority level.
package tlb

// Device writes one translation into the hardware TLB, at a slot the
// hardware itself picks at random. This is the tlb_random external
// collaborator: the core never selects a TLB index itself.
type Device interface {
	WriteRandom(entryHi, entryLo uint32)
}

// PriorityLevel raises and restores the interrupt priority level
// around the single TLB write, mirroring splhigh/splx. The masked
// region is O(1): one TLB write.
type PriorityLevel interface {
	SplHigh() int
	Splx(prev int)
}

/// Refill writes one translation into the TLB with interrupts masked.
/// entryHi is the page-aligned fault address; entryLo is the stored PTE
/// word, refilled verbatim.
func Refill(pl PriorityLevel, dev Device, entryHi, entryLo uint32) {
	prev := pl.SplHigh()
	dev.WriteRandom(entryHi, entryLo)
	pl.Splx(prev)
}
