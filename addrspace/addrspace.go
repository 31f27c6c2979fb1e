// Package addrspace composes the region list and the page table into
// the per-process address-space object, and provides the lifecycle
// hooks the ELF loader drives: create, define regions, prepare-load,
// copy segments (which fault pages in through the fault package),
// complete-load, then run.
package addrspace

import (
	"sync"

	"dumbvm/kerrors"
	"dumbvm/mem"
	"dumbvm/pagetable"
	"dumbvm/pte"
	"dumbvm/region"
)

/// AddressSpace is a container owned by exactly one process: a region
/// list plus a two-level page table. It pairs an embedded sync.Mutex
/// with a faulting flag so a misbehaving caller that reenters without
/// holding the lock is caught immediately.
type AddressSpace struct {
	sync.Mutex
	faulting bool

	Regions *region.List
	Table   *pagetable.Table
}

/// LockPmap acquires the address-space lock and marks that a fault is
/// being handled on this thread's kernel stack.
func (as *AddressSpace) LockPmap() {
	as.Mutex.Lock()
	as.faulting = true
}

/// UnlockPmap releases the address-space lock.
func (as *AddressSpace) UnlockPmap() {
	as.faulting = false
	as.Mutex.Unlock()
}

/// LockassertPmap panics if the caller has not taken the address-space
/// lock.
func (as *AddressSpace) LockassertPmap() {
	if !as.faulting {
		panic("addrspace: lock must be held")
	}
}

// flushHook is the platform-supplied TLB invalidation routine. It is a
// package-level hook rather than a field so a platform layer with no
// notion of per-address-space TLB tagging can register one function
// for "flush everything"; the only contract is that after Activate
// returns, no stale entry remains matchable.
var flushHook func()

/// SetFlushHook registers the platform's TLB invalidation routine. It
/// must be called once during vm bootstrap before any Activate.
func SetFlushHook(f func()) {
	flushHook = f
}

/// Create allocates an address space with an empty region list and an
/// empty page table (every directory slot null). heap backs the page
/// table's lazy second-level allocations and is not drawn on here, so
/// Create itself always succeeds. The bool return is kept so a platform wiring a bounded
/// heap in front of Create can still report failure without an API
/// change.
func Create(heap pagetable.HeapAllocator) (*AddressSpace, bool) {
	as := &AddressSpace{
		Regions: region.NewList(),
		Table:   pagetable.New(heap),
	}
	return as, true
}

/// Copy allocates a fresh, empty address space and returns it without
/// duplicating old's regions or frames. A real fork would need to walk
/// old's regions, allocate new frames, and copy page contents (or
/// establish copy-on-write); this core does not implement process
/// forking.
func Copy(old *AddressSpace, heap pagetable.HeapAllocator) (*AddressSpace, kerrors.Err_t) {
	as, ok := Create(heap)
	if !ok {
		return nil, kerrors.NOMEM
	}
	return as, 0
}

/// Destroy frees every frame reachable from the page table plus every
/// region node. The address-space envelope itself is released by the
/// garbage collector once the caller drops its last reference.
func (as *AddressSpace) Destroy(alloc mem.FrameAllocator) {
	as.Table.Destroy(alloc)
	as.Regions.DestroyAll()
}

/// Activate is invoked when a process is scheduled and again at the
/// end of CompleteLoad, to invalidate any stale TLB entry left behind
/// by a prior address space.
func (as *AddressSpace) Activate() {
	if flushHook != nil {
		flushHook()
	}
}

/// Deactivate is a no-op placeholder, exactly as as_deactivate is in
/// the original: most designs don't need it, but the loader contract
/// calls it on every context switch out.
func (as *AddressSpace) Deactivate() {
}

/// DefineRegion defines a new region in as. See region.List.Define for
/// the alignment, overflow, boundary, and overlap rules.
func (as *AddressSpace) DefineRegion(vaddr mem.Vaddr, size uintptr, r, w, x bool) kerrors.Err_t {
	if as == nil {
		return kerrors.INVALID
	}
	return as.Regions.Define(vaddr, size, r, w, x)
}

/// DefineStack sets *outSP to the top of the user address space and
/// defines the default-sized stack region below it, read-write and
/// non-executable.
func (as *AddressSpace) DefineStack(outSP *mem.Vaddr) kerrors.Err_t {
	*outSP = mem.Userstack
	base := mem.Vaddr(uintptr(mem.Userstack) - mem.UstackSize)
	return as.DefineRegion(base, mem.UstackSize, true, true, false)
}

/// PrepareLoad temporarily widens every region to writable so the ELF
/// loader can copy segment contents in, saving each region's original
/// permissions for CompleteLoad to restore.
func (as *AddressSpace) PrepareLoad() kerrors.Err_t {
	if as == nil {
		return kerrors.FAULT
	}
	as.Regions.PrepareLoad()
	return 0
}

/// CompleteLoad walks every installed PTE, clears DIRTY (and ensures
/// VALID) on any page whose region was not writable before
/// PrepareLoad, restores each region's permissions, and flushes the
/// TLB via Activate. Every installed page was only ever installed
/// because the fault handler first proved it lay in some region, so a
/// page found during the walk that matches no region is a bug;
/// CompleteLoad panics rather than silently skipping it.
func (as *AddressSpace) CompleteLoad() kerrors.Err_t {
	if as == nil {
		return kerrors.FAULT
	}

	as.Table.Walk(func(v mem.Vaddr, e pte.Entry) {
		rg, ok := as.Regions.Find(v)
		if !ok {
			panic("addrspace: installed page outside every region")
		}
		if !rg.OldPerm.W {
			as.Table.SetEntry(v, pte.ClearDirty(e))
		}
	})

	as.Regions.RestorePermissions()
	as.Activate()
	return 0
}
