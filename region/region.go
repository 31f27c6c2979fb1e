// Package region tracks the set of valid regions defined in a user
// address space: their extent, permissions, and the permission-widen
// bookkeeping the ELF loader needs while it copies segment data in.
// Regions are kept in a container/list.List, an unordered bag of
// structs scanned linearly, where insertion order carries no meaning.
package region

import (
	"container/list"

	"dumbvm/kerrors"
	"dumbvm/mem"
	"dumbvm/util"
)

/// Perm is a permission triple attached to a region.
type Perm struct {
	R, W, X bool
}

/// Region is a half-open interval [Base, Base+Size) of page-aligned user
/// virtual addresses carrying a permission triple. OldPerm is the shadow
/// field used across the prepare-load/complete-load transition.
type Region struct {
	Base    mem.Vaddr
	Size    uintptr
	Perm    Perm
	OldPerm Perm
}

/// End returns the address one past the last byte of the region.
func (r *Region) End() mem.Vaddr {
	return mem.Vaddr(uintptr(r.Base) + r.Size)
}

/// Contains reports whether v falls inside the region's interval.
func (r *Region) Contains(v mem.Vaddr) bool {
	return uintptr(v) >= uintptr(r.Base) && uintptr(v) < uintptr(r.Base)+r.Size
}

/// List is the region collection owned by one address space.
type List struct {
	l *list.List
}

/// NewList creates an empty region list.
func NewList() *List {
	return &List{l: list.New()}
}

/// Len reports the number of defined regions.
func (rl *List) Len() int {
	return rl.l.Len()
}

// checkOverlap reports whether [base, base+size) intersects any region
// already in the list. A zero-length interval intersects nothing,
// matching the "size 0 after alignment is legal but vacuous" edge case.
func (rl *List) checkOverlap(base mem.Vaddr, size uintptr) bool {
	if size == 0 {
		return false
	}
	newEnd := uintptr(base) + size
	for e := rl.l.Front(); e != nil; e = e.Next() {
		rg := e.Value.(*Region)
		if rg.Size == 0 {
			continue
		}
		curEnd := uintptr(rg.Base) + rg.Size
		if uintptr(base) < curEnd && newEnd > uintptr(rg.Base) {
			return true
		}
	}
	return false
}

/// Define aligns vaddr down and size up to page granularity and, if the
/// resulting interval is well-formed, disjoint from every other region,
/// and entirely below the kernel boundary, prepends a new Region with
/// the given permissions. It fails INVALID on address-arithmetic
/// overflow or overlap, and FAULT if the region would cross into the
/// kernel window.
///
/// The low-order slop of vaddr is folded into size before size is
/// rounded up, rather than rounding both ends independently.
func (rl *List) Define(vaddr mem.Vaddr, size uintptr, r, w, x bool) kerrors.Err_t {
	slop := uintptr(vaddr) & mem.PageOffsetMask
	grown := size + slop
	if grown < size {
		return kerrors.INVALID
	}
	vaddr = mem.Vaddr(uintptr(vaddr) &^ mem.PageOffsetMask)
	size = util.Roundup(grown, uintptr(mem.PageSize))
	if size < grown {
		return kerrors.INVALID
	}

	end := uintptr(vaddr) + size
	if end < uintptr(vaddr) {
		return kerrors.INVALID
	}
	if mem.Vaddr(end) > mem.MIPSKseg0 {
		return kerrors.FAULT
	}
	if rl.checkOverlap(vaddr, size) {
		return kerrors.INVALID
	}

	rl.l.PushFront(&Region{Base: vaddr, Size: size, Perm: Perm{R: r, W: w, X: x}})
	return 0
}

/// Find returns the region containing v, or false if none does.
func (rl *List) Find(v mem.Vaddr) (*Region, bool) {
	for e := rl.l.Front(); e != nil; e = e.Next() {
		rg := e.Value.(*Region)
		if rg.Contains(v) {
			return rg, true
		}
	}
	return nil, false
}

/// PrepareLoad widens every region to writable, saving each region's
/// prior permissions in OldPerm. Calling PrepareLoad twice without an
/// intervening CompleteLoad is not guarded against: OldPerm would be
/// overwritten with the already-widened permissions, silently losing
/// the original read-only status. The loader contract forbids this
/// sequence; this mirrors the original's documented, unenforced
/// contract rather than inventing a stricter one.
func (rl *List) PrepareLoad() {
	for e := rl.l.Front(); e != nil; e = e.Next() {
		rg := e.Value.(*Region)
		rg.OldPerm = rg.Perm
		rg.Perm.W = true
	}
}

/// RestorePermissions restores each region's write bit from OldPerm.
/// It is the region-only half of complete-load; the PTE walk that
/// must happen first (clearing DIRTY on pages whose region is going
/// back to read-only) lives in the addrspace package, which has access
/// to both the region list and the page table.
func (rl *List) RestorePermissions() {
	for e := rl.l.Front(); e != nil; e = e.Next() {
		rg := e.Value.(*Region)
		rg.Perm.W = rg.OldPerm.W
	}
}

/// DestroyAll releases every region node.
func (rl *List) DestroyAll() {
	rl.l.Init()
}
