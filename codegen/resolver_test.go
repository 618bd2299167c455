package codegen

import "testing"

func TestResolvePackedFunctionAddress(t *testing.T) {
	im := newImage()
	target := Target{Kind: TargetFunction, ID: 7}
	im.reserveHalfWord(target, PatchPackedFunction)
	im.setAddress(target, 0x100)

	if err := resolve(im); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := uint16(im.bytes[0])<<8 | uint16(im.bytes[1])
	if got != 0x80 {
		t.Errorf("packed address = %#x, want %#x (0x100/2)", got, 0x80)
	}
}

func TestResolvePackedAddressRejectsOddByteAddress(t *testing.T) {
	im := newImage()
	target := Target{Kind: TargetString, ID: 1}
	im.reserveHalfWord(target, PatchPackedString)
	im.setAddress(target, 0x101)

	if err := resolve(im); err == nil {
		t.Fatalf("expected an error for an odd byte address")
	}
}

func TestResolveUnresolvedReferenceIsFatal(t *testing.T) {
	im := newImage()
	im.reserveHalfWord(Target{Kind: TargetFunction, ID: 99}, PatchPackedFunction)
	// Never call im.setAddress for target 99.

	if err := resolve(im); err == nil {
		t.Fatalf("expected an error for a reference that was never defined")
	}
}

func TestResolveByteAddress(t *testing.T) {
	im := newImage()
	target := Target{Kind: TargetObjectPropTable, ID: 3}
	im.reserveHalfWord(target, PatchByteAddress)
	im.setAddress(target, 0x1234)

	if err := resolve(im); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := uint16(im.bytes[0])<<8 | uint16(im.bytes[1])
	if got != 0x1234 {
		t.Errorf("byte address = %#x, want 0x1234", got)
	}
}

// writeBranchPlaceholder mimics emitBranch: a sense bit in the high bit of
// the first byte, with the mandatory two-byte form, queued for patching.
func writeBranchPlaceholder(im *image, target Target, onTrue bool) uint32 {
	loc := im.cursor()
	var sense byte
	if onTrue {
		sense = 0x80
	}
	im.writeByte(sense)
	im.writeByte(0)
	im.unresolved = append(im.unresolved, UnresolvedReference{
		Target:   target,
		Location: loc,
		Width:    2,
		Kind:     PatchBranchOffset,
	})
	return loc
}

func TestPatchBranchPreservesSenseBit(t *testing.T) {
	im := newImage()
	target := Target{Kind: TargetLabel, ID: 1}
	loc := writeBranchPlaceholder(im, target, true)
	im.setAddress(target, loc+10)

	if err := resolve(im); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if im.bytes[loc]&0x80 == 0 {
		t.Errorf("sense bit lost after patching")
	}
	offset := int64(uint16(im.bytes[loc]&0x3F)<<8 | uint16(im.bytes[loc+1]))
	want := int64(loc+10) - int64(loc)
	if offset != want {
		t.Errorf("branch offset = %d, want %d", offset, want)
	}
}

func TestPatchBranchRejectsMagicOffsetValues(t *testing.T) {
	for _, delta := range []uint32{0, 1} {
		im := newImage()
		target := Target{Kind: TargetLabel, ID: 1}
		loc := writeBranchPlaceholder(im, target, false)
		im.setAddress(target, loc+delta)

		if err := resolve(im); err == nil {
			t.Errorf("expected a fatal error for branch offset %d", delta)
		}
	}
}

func TestPatchBranchRejectsOutOfRangeOffset(t *testing.T) {
	im := newImage()
	target := Target{Kind: TargetLabel, ID: 1}
	loc := writeBranchPlaceholder(im, target, false)
	im.setAddress(target, loc+20000)

	if err := resolve(im); err == nil {
		t.Fatalf("expected an error for an offset outside the signed 14-bit range")
	}
}

func TestResolveJumpOffset(t *testing.T) {
	im := newImage()
	target := Target{Kind: TargetLabel, ID: 5}
	loc := im.cursor()
	im.writeHalfWord(0)
	im.unresolved = append(im.unresolved, UnresolvedReference{
		Target:   target,
		Location: loc,
		Width:    2,
		Kind:     PatchJumpOffset,
	})
	im.setAddress(target, loc+50)

	if err := resolve(im); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := int16(uint16(im.bytes[loc])<<8 | uint16(im.bytes[loc+1]))
	if got != 50 {
		t.Errorf("jump offset = %d, want 50", got)
	}
}
