// Package vmtest provides fake collaborators (frame allocator, heap
// allocator, TLB) shared by the vm core's unit tests, standing in for
// the hardware and platform layer the core never assumes a concrete
// implementation of.
package vmtest

import (
	"unsafe"

	"dumbvm/mem"
	"dumbvm/pagetable"
)

/// FrameAllocator is a fake mem.FrameAllocator backed by real Go
/// memory. Limit, when non-zero, caps the number of outstanding pages
/// so NOMEM paths can be exercised.
type FrameAllocator struct {
	Limit   int
	issued  int
	live    map[mem.Kvaddr][]byte
	freed   []mem.Kvaddr
}

/// NewFrameAllocator creates a fake allocator with no limit.
func NewFrameAllocator() *FrameAllocator {
	return &FrameAllocator{live: make(map[mem.Kvaddr][]byte)}
}

/// AllocPage implements mem.FrameAllocator.
func (f *FrameAllocator) AllocPage() (mem.Kvaddr, bool) {
	if f.Limit != 0 && f.issued >= f.Limit {
		return 0, false
	}
	buf := make([]byte, mem.PageSize)
	k := mem.Kvaddr(uintptr(unsafe.Pointer(&buf[0])))
	f.live[k] = buf
	f.issued++
	return k, true
}

/// FreePage implements mem.FrameAllocator.
func (f *FrameAllocator) FreePage(k mem.Kvaddr) {
	if _, ok := f.live[k]; !ok {
		panic("vmtest: double free or free of unknown frame")
	}
	delete(f.live, k)
	f.freed = append(f.freed, k)
	f.issued--
}

/// Live reports how many frames are currently held out.
func (f *FrameAllocator) Live() int {
	return len(f.live)
}

/// HeapAllocator is a fake pagetable.HeapAllocator. Limit, when
/// non-zero, caps the number of second-level tables it will hand out.
type HeapAllocator struct {
	Limit int
	count int
}

/// NewHeapAllocator creates a fake heap allocator with no limit.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

/// AllocSecondLevel implements pagetable.HeapAllocator.
func (h *HeapAllocator) AllocSecondLevel() (*pagetable.SecondLevel, bool) {
	if h.Limit != 0 && h.count >= h.Limit {
		return nil, false
	}
	h.count++
	return new(pagetable.SecondLevel), true
}

/// TLB fakes both tlb.Device and tlb.PriorityLevel, recording every
/// refill and tracking the current and deepest priority level.
type TLB struct {
	Writes    []Write
	splDepth  int
	maxSpl    int
}

/// Write records one TLB refill.
type Write struct {
	EntryHi, EntryLo uint32
}

/// NewTLB creates an empty TLB recorder.
func NewTLB() *TLB {
	return &TLB{}
}

/// WriteRandom implements tlb.Device.
func (t *TLB) WriteRandom(entryHi, entryLo uint32) {
	if t.splDepth == 0 {
		panic("vmtest: tlb write without interrupts masked")
	}
	t.Writes = append(t.Writes, Write{entryHi, entryLo})
}

/// SplHigh implements tlb.PriorityLevel.
func (t *TLB) SplHigh() int {
	prev := t.splDepth
	t.splDepth++
	if t.splDepth > t.maxSpl {
		t.maxSpl = t.splDepth
	}
	return prev
}

/// Splx implements tlb.PriorityLevel.
func (t *TLB) Splx(prev int) {
	t.splDepth = prev
}
