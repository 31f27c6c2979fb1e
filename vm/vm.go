// Package vm is the top-level glue: it wires the region list, page
// table, address-space object, fault handler, and TLB/allocator
// collaborators together and is the single package boundary other
// kernel subsystems call into.
package vm

import (
	"log"

	"dumbvm/addrspace"
	"dumbvm/fault"
	"dumbvm/kerrors"
	"dumbvm/mem"
	"dumbvm/pagetable"
	"dumbvm/tlb"
)

/// FaultType re-exports fault.Type so callers only need to import vm.
type FaultType = fault.Type

const (
	FaultRead     = fault.Read
	FaultWrite    = fault.Write
	FaultReadOnly = fault.ReadOnly
	FaultOther    = fault.Other
)

var (
	heap  pagetable.HeapAllocator
	frame mem.FrameAllocator
	pl    tlb.PriorityLevel
	dev   tlb.Device
)

/// Bootstrap wires the external collaborators into the vm core. It
/// must run once, before any other operation in this package, the way
/// vm_bootstrap initializes global VM state before the first process
/// is created.
func Bootstrap(h pagetable.HeapAllocator, a mem.FrameAllocator, p tlb.PriorityLevel, d tlb.Device, flushTLB func()) {
	heap = h
	frame = a
	pl = p
	dev = d
	addrspace.SetFlushHook(flushTLB)
	log.Printf("vm: bootstrap complete")
}

/// Create allocates a new, empty address space.
func Create() (*addrspace.AddressSpace, bool) {
	return addrspace.Create(heap)
}

/// Copy is the documented as_copy stub: it returns a fresh empty
/// address space and does not duplicate old's regions or frames.
func Copy(old *addrspace.AddressSpace) (*addrspace.AddressSpace, kerrors.Err_t) {
	return addrspace.Copy(old, heap)
}

/// Destroy frees every resource owned by as.
func Destroy(as *addrspace.AddressSpace) {
	as.Destroy(frame)
}

/// Activate invalidates stale TLB entries for the newly scheduled as.
func Activate(as *addrspace.AddressSpace) {
	as.Activate()
}

/// Deactivate is a no-op placeholder.
func Deactivate(as *addrspace.AddressSpace) {
	as.Deactivate()
}

/// DefineRegion defines a new region of the given permissions in as.
func DefineRegion(as *addrspace.AddressSpace, vaddr mem.Vaddr, size uintptr, r, w, x bool) kerrors.Err_t {
	return as.DefineRegion(vaddr, size, r, w, x)
}

/// PrepareLoad widens every region in as to writable.
func PrepareLoad(as *addrspace.AddressSpace) kerrors.Err_t {
	return as.PrepareLoad()
}

/// CompleteLoad restores every region's permissions and flushes the
/// TLB.
func CompleteLoad(as *addrspace.AddressSpace) kerrors.Err_t {
	return as.CompleteLoad()
}

/// DefineStack writes USERSTACK to *outSP and defines the stack region.
func DefineStack(as *addrspace.AddressSpace, outSP *mem.Vaddr) kerrors.Err_t {
	return as.DefineStack(outSP)
}

/// Fault services one TLB miss reported by the trap layer.
func Fault(hasProcess bool, as *addrspace.AddressSpace, faultType FaultType, faultAddr mem.Vaddr) kerrors.Err_t {
	return fault.Handle(hasProcess, as, frame, pl, dev, faultType, faultAddr)
}

/// TLBShootdown is unconditionally fatal: this core has no
/// multi-CPU TLB invalidation protocol, mirroring vm_tlbshootdown's
/// panic in the original.
func TLBShootdown(_ any) {
	panic("vm: tlb shootdown requested on a uniprocessor-only vm core")
}
