// Package fault implements the on-demand page-fault handler: classify
// the fault, demand-allocate a frame if the faulting address falls
// inside a valid region, and refill the TLB.
package fault

import (
	"dumbvm/addrspace"
	"dumbvm/kerrors"
	"dumbvm/mem"
	"dumbvm/pte"
	"dumbvm/tlb"
)

/// Type is the trap layer's classification of a TLB miss.
type Type int

const (
	/// Read is a load miss.
	Read Type = iota
	/// Write is a store miss.
	Write
	/// ReadOnly is a store to a mapping that isn't writable; this
	/// kernel does not implement copy-on-write, so it is always fatal.
	ReadOnly
	/// Other covers every trap code this handler does not recognize.
	Other
)

/// Handle services one TLB miss reported by the trap layer. hasProcess
/// and as together stand in for the process/current-thread registry's
/// proc_getas(): hasProcess is false when there is no current process
/// at all, while as may still be nil even with hasProcess true (a
/// kernel thread has no address space). alloc, pl, and dev are the
/// external frame-allocator and TLB collaborators.
func Handle(
	hasProcess bool,
	as *addrspace.AddressSpace,
	alloc mem.FrameAllocator,
	pl tlb.PriorityLevel,
	dev tlb.Device,
	faultType Type,
	faultAddr mem.Vaddr,
) kerrors.Err_t {
	if !hasProcess {
		return kerrors.FAULT
	}
	if faultType == ReadOnly {
		return kerrors.FAULT
	}
	if faultType != Read && faultType != Write {
		return kerrors.INVALID
	}
	if as == nil || as.Table == nil || as.Regions.Len() == 0 {
		return kerrors.FAULT
	}

	if entry, ok := as.Table.LookupEntry(faultAddr); ok {
		refill(pl, dev, faultAddr, entry)
		return 0
	}

	rg, ok := as.Regions.Find(faultAddr)
	if !ok {
		return kerrors.FAULT
	}
	allowed := rg.Perm.R
	if faultType == Write {
		allowed = rg.Perm.W
	}
	if !allowed {
		return kerrors.PERM
	}

	kv, ok := alloc.AllocPage()
	if !ok {
		return kerrors.NOMEM
	}
	mem.ZeroPage(kv)
	paddr := mem.KvaddrToPaddr(kv)

	// The lookup above missed, so Insert cannot report a double-map
	// here; it can still fail NOMEM if the second-level table cannot be
	// allocated.
	if err := as.Table.Insert(faultAddr, paddr, rg.Perm.W); err != 0 {
		// The frame was allocated but never handed to the page table,
		// so it must go back to the allocator.
		alloc.FreePage(kv)
		return err
	}

	entry, _ := as.Table.LookupEntry(faultAddr)
	refill(pl, dev, faultAddr, entry)
	return 0
}

func refill(pl tlb.PriorityLevel, dev tlb.Device, faultAddr mem.Vaddr, e pte.Entry) {
	entryHi := uint32(uintptr(faultAddr) & mem.PageFrame)
	entryLo := uint32(e)
	tlb.Refill(pl, dev, entryHi, entryLo)
}
