package fault

import (
	"testing"

	"dumbvm/addrspace"
	"dumbvm/internal/vmtest"
	"dumbvm/kerrors"
	"dumbvm/mem"
)

func newAS(t *testing.T) (*addrspace.AddressSpace, *vmtest.FrameAllocator) {
	t.Helper()
	as, ok := addrspace.Create(vmtest.NewHeapAllocator())
	if !ok {
		t.Fatal("Create failed")
	}
	return as, vmtest.NewFrameAllocator()
}

func TestHandleNoProcess(t *testing.T) {
	as, alloc := newAS(t)
	tlbFake := vmtest.NewTLB()
	if err := Handle(false, as, alloc, tlbFake, tlbFake, Read, 0x1000); err != kerrors.FAULT {
		t.Errorf("Handle with no process = %v, want FAULT", err)
	}
}

func TestHandleReadOnlyFaultTypeIsFatal(t *testing.T) {
	as, alloc := newAS(t)
	tlbFake := vmtest.NewTLB()
	if err := Handle(true, as, alloc, tlbFake, tlbFake, ReadOnly, 0x1000); err != kerrors.FAULT {
		t.Errorf("Handle(ReadOnly) = %v, want FAULT", err)
	}
}

func TestHandleUnknownFaultType(t *testing.T) {
	as, alloc := newAS(t)
	tlbFake := vmtest.NewTLB()
	if err := Handle(true, as, alloc, tlbFake, tlbFake, Other, 0x1000); err != kerrors.INVALID {
		t.Errorf("Handle(Other) = %v, want INVALID", err)
	}
}

func TestHandleNoRegionsDefined(t *testing.T) {
	as, alloc := newAS(t)
	tlbFake := vmtest.NewTLB()
	if err := Handle(true, as, alloc, tlbFake, tlbFake, Read, 0x1000); err != kerrors.FAULT {
		t.Errorf("Handle with no regions = %v, want FAULT", err)
	}
}

func TestHandleAddressOutsideAnyRegion(t *testing.T) {
	as, alloc := newAS(t)
	as.DefineRegion(0x1000, uintptr(mem.PageSize), true, true, false)
	tlbFake := vmtest.NewTLB()
	if err := Handle(true, as, alloc, tlbFake, tlbFake, Read, 0x9000); err != kerrors.FAULT {
		t.Errorf("Handle outside every region = %v, want FAULT", err)
	}
}

func TestHandleSimpleReadFaultInstallsAndRefills(t *testing.T) {
	as, alloc := newAS(t)
	as.DefineRegion(0x1000, uintptr(mem.PageSize), true, true, false)
	tlbFake := vmtest.NewTLB()

	if err := Handle(true, as, alloc, tlbFake, tlbFake, Read, 0x1000); err != 0 {
		t.Fatalf("Handle failed: %v", err)
	}
	if _, ok := as.Table.Lookup(0x1000); !ok {
		t.Error("fault should have installed a mapping")
	}
	if len(tlbFake.Writes) != 1 {
		t.Fatalf("expected one TLB refill, got %d", len(tlbFake.Writes))
	}
	if tlbFake.Writes[0].EntryHi != 0x1000 {
		t.Errorf("refilled entryHi = %#x, want %#x", tlbFake.Writes[0].EntryHi, 0x1000)
	}
	if alloc.Live() != 1 {
		t.Errorf("Live() = %d, want 1 frame allocated", alloc.Live())
	}
}

func TestHandleWriteToReadOnlyRegion(t *testing.T) {
	as, alloc := newAS(t)
	as.DefineRegion(0x1000, uintptr(mem.PageSize), true, false, false)
	tlbFake := vmtest.NewTLB()

	if err := Handle(true, as, alloc, tlbFake, tlbFake, Write, 0x1000); err != kerrors.PERM {
		t.Errorf("Handle(Write) on read-only region = %v, want PERM", err)
	}
	if alloc.Live() != 0 {
		t.Error("no frame should be allocated on a permission failure")
	}
}

func TestHandleNoMemDoesNotLeak(t *testing.T) {
	as, ok := addrspace.Create(vmtest.NewHeapAllocator())
	if !ok {
		t.Fatal("Create failed")
	}
	as.DefineRegion(0x1000, uintptr(mem.PageSize), true, true, false)
	alloc := vmtest.NewFrameAllocator()
	alloc.Limit = -1 // any negative limit makes the very first AllocPage fail
	tlbFake := vmtest.NewTLB()

	if err := Handle(true, as, alloc, tlbFake, tlbFake, Read, 0x1000); err != kerrors.NOMEM {
		t.Errorf("Handle with exhausted allocator = %v, want NOMEM", err)
	}
	if alloc.Live() != 0 {
		t.Errorf("Live() after NOMEM = %d, want 0", alloc.Live())
	}
}

func TestHandleSecondFaultHitsInstalledPage(t *testing.T) {
	as, alloc := newAS(t)
	as.DefineRegion(0x1000, uintptr(mem.PageSize), true, true, false)
	tlbFake := vmtest.NewTLB()

	if err := Handle(true, as, alloc, tlbFake, tlbFake, Read, 0x1000); err != 0 {
		t.Fatalf("first Handle failed: %v", err)
	}
	if err := Handle(true, as, alloc, tlbFake, tlbFake, Read, 0x1000); err != 0 {
		t.Fatalf("second Handle failed: %v", err)
	}
	if alloc.Live() != 1 {
		t.Errorf("Live() after two faults on the same page = %d, want 1", alloc.Live())
	}
	if len(tlbFake.Writes) != 2 {
		t.Errorf("expected two TLB refills, got %d", len(tlbFake.Writes))
	}
}
