package pte

import (
	"testing"

	"dumbvm/mem"
)

func TestIndexRoundTrip(t *testing.T) {
	addrs := []mem.Vaddr{
		0,
		0x1000,
		0x00401000,
		0x7fffe000,
		mem.MIPSKseg0 - mem.Vaddr(mem.PageSize),
	}
	for _, v := range addrs {
		pd := PDIndex(v)
		ptIdx := PTIndex(v)
		off := PageOffset(v)
		got := mem.Vaddr(uintptr(pd)<<21 | uintptr(ptIdx)<<12 | off)
		if got != v {
			t.Errorf("round trip for %#x: got %#x (pd=%d pt=%d off=%#x)", v, got, pd, ptIdx, off)
		}
	}
}

func TestPDIndexRange(t *testing.T) {
	v := mem.MIPSKseg0 - 1
	if pd := PDIndex(v); pd >= mem.NumPDEntry {
		t.Errorf("PDIndex(%#x) = %d, out of range [0, %d)", v, pd, mem.NumPDEntry)
	}
}

func TestPTIndexRange(t *testing.T) {
	v := mem.MIPSKseg0 - 1
	if pt := PTIndex(v); pt >= mem.NumPTEntry {
		t.Errorf("PTIndex(%#x) = %d, out of range [0, %d)", v, pt, mem.NumPTEntry)
	}
}

func TestEncodeDecode(t *testing.T) {
	paddr := mem.Pa_t(0x12345000)
	e := Encode(paddr, true)
	if !IsValid(e) {
		t.Error("Encode result is not valid")
	}
	if !IsWritable(e) {
		t.Error("Encode(_, true) should be writable")
	}
	if got := DecodeFrame(e); got != paddr {
		t.Errorf("DecodeFrame = %#x, want %#x", got, paddr)
	}

	ro := Encode(paddr, false)
	if IsWritable(ro) {
		t.Error("Encode(_, false) should not be writable")
	}
	if !IsValid(ro) {
		t.Error("Encode(_, false) should still be valid")
	}
}

func TestClearDirty(t *testing.T) {
	e := Encode(0x2000, true)
	cleared := ClearDirty(e)
	if IsWritable(cleared) {
		t.Error("ClearDirty left the Dirty bit set")
	}
	if !IsValid(cleared) {
		t.Error("ClearDirty cleared the Valid bit")
	}
	if DecodeFrame(cleared) != DecodeFrame(e) {
		t.Error("ClearDirty changed the frame number")
	}
}

func TestUnallocatedSentinel(t *testing.T) {
	for _, writable := range []bool{true, false} {
		for _, frame := range []mem.Pa_t{0, 0x1000, mem.Pa_t(^uintptr(0) &^ mem.PageOffsetMask)} {
			if Encode(frame, writable) == Unallocated {
				t.Errorf("Encode(%#x, %v) collides with Unallocated", frame, writable)
			}
		}
	}
}
