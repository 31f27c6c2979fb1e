// Package pagetable implements the sparse, two-level mapping from
// virtual page number to physical frame: a directory allocated
// eagerly, second-level tables allocated lazily on first use.
package pagetable

import (
	"dumbvm/kerrors"
	"dumbvm/mem"
	"dumbvm/pte"
)

/// SecondLevel is one second-level page table: NumPTEntry packed slots,
/// each either pte.Unallocated or a live encoded entry.
type SecondLevel [mem.NumPTEntry]pte.Entry

/// HeapAllocator is the external collaborator that backs second-level
/// table allocation, the kernel heap allocator consumed through a thin
/// interface rather than assumed to be Go's runtime allocator.
type HeapAllocator interface {
	AllocSecondLevel() (*SecondLevel, bool)
}

/// Table is the two-level page table belonging to one address space.
/// The directory is part of the struct (allocated eagerly, along with
/// the address space itself); second-level tables hang off it lazily.
type Table struct {
	dir  [mem.NumPDEntry]*SecondLevel
	heap HeapAllocator
}

/// New creates an empty page table with every directory slot null, the
/// way as_create allocates its page_dir and nils every entry.
func New(heap HeapAllocator) *Table {
	return &Table{heap: heap}
}

/// Lookup returns the physical frame mapped at v, or false if the
/// directory slot is absent or the table slot holds the sentinel.
func (t *Table) Lookup(v mem.Vaddr) (mem.Pa_t, bool) {
	e, ok := t.LookupEntry(v)
	if !ok {
		return 0, false
	}
	return pte.DecodeFrame(e), true
}

/// LookupEntry returns the raw packed PTE word stored at v, the form
/// the fault handler needs verbatim to refill the TLB.
func (t *Table) LookupEntry(v mem.Vaddr) (pte.Entry, bool) {
	sl := t.dir[pte.PDIndex(v)]
	if sl == nil {
		return 0, false
	}
	e := sl[pte.PTIndex(v)]
	if e == pte.Unallocated {
		return 0, false
	}
	return e, true
}

/// Insert maps v to paddr, allocating the second-level table on demand
/// (every slot initialized to pte.Unallocated) and encoding the PTE
/// with DIRTY set iff writable. It fails FAULT if the slot is already
/// populated (a double-map, which the fault handler should never
/// trigger) and NOMEM if the second-level table cannot be allocated.
func (t *Table) Insert(v mem.Vaddr, paddr mem.Pa_t, writable bool) kerrors.Err_t {
	pd := pte.PDIndex(v)
	sl := t.dir[pd]
	if sl == nil {
		newSL, ok := t.heap.AllocSecondLevel()
		if !ok {
			return kerrors.NOMEM
		}
		for i := range newSL {
			newSL[i] = pte.Unallocated
		}
		t.dir[pd] = newSL
		sl = newSL
	}

	ptIdx := pte.PTIndex(v)
	if sl[ptIdx] != pte.Unallocated {
		return kerrors.FAULT
	}
	sl[ptIdx] = pte.Encode(paddr, writable)
	return 0
}

/// SetEntry overwrites an already-installed slot with e. It is used by
/// complete-load to clear the DIRTY bit on pages whose region went back
/// to read-only; it does not allocate and does not check the prior
/// value, since the caller (addrspace.CompleteLoad) only calls it after
/// Walk has already proven the slot is installed.
func (t *Table) SetEntry(v mem.Vaddr, e pte.Entry) {
	t.dir[pte.PDIndex(v)][pte.PTIndex(v)] = e
}

/// Walk invokes fn for every installed entry, passing back the virtual
/// address reconstructed from the directory/table indices the same way
/// the original as_complete_load derives vaddr from (i, j) instead of
/// tracking it alongside the PTE.
func (t *Table) Walk(fn func(v mem.Vaddr, e pte.Entry)) {
	for pd, sl := range t.dir {
		if sl == nil {
			continue
		}
		for ptIdx, e := range sl {
			if e == pte.Unallocated {
				continue
			}
			v := mem.Vaddr(pd<<21 | ptIdx<<int(mem.PageShift))
			fn(v, e)
		}
	}
}

/// Destroy releases every frame reachable from the table through alloc,
/// using each slot's kernel-window address, then drops every
/// second-level table reference. It is a double-walk: directory slot
/// present, then table slot non-sentinel, exactly as as_destroy does.
func (t *Table) Destroy(alloc mem.FrameAllocator) {
	for pd, sl := range t.dir {
		if sl == nil {
			continue
		}
		for _, e := range sl {
			if e == pte.Unallocated {
				continue
			}
			frame := pte.DecodeFrame(e)
			alloc.FreePage(mem.PaddrToKvaddr(frame))
		}
		t.dir[pd] = nil
	}
}
