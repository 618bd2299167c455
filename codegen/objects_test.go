package codegen

import (
	"testing"

	"github.com/gruelang/grue/ir"
)

func TestAttributeMaskIsMSBFirst(t *testing.T) {
	// Attribute 0 is the Z-Machine's most significant attribute bit; in a
	// V3 32-bit attribute field that's bit 31, matching zobject's 64-bit
	// TestAttribute convention (bit 63-n) scaled down to 32 bits.
	mask, err := attributeMask([]uint8{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mask != 1<<31 {
		t.Errorf("attribute 0 mask = %#x, want %#x", mask, uint32(1)<<31)
	}

	mask, err = attributeMask([]uint8{31})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mask != 1 {
		t.Errorf("attribute 31 mask = %#x, want 1", mask)
	}
}

func TestAttributeMaskCombinesMultipleBits(t *testing.T) {
	mask, err := attributeMask([]uint8{0, 1, 31})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := uint32(1<<31 | 1<<30 | 1)
	if mask != want {
		t.Errorf("mask = %#x, want %#x", mask, want)
	}
}

func TestAttributeMaskRejectsOutOfRange(t *testing.T) {
	if _, err := attributeMask([]uint8{32}); err == nil {
		t.Fatalf("expected an error for attribute 32")
	}
}

func TestAttributeMaskRejectsDuplicate(t *testing.T) {
	if _, err := attributeMask([]uint8{5, 5}); err == nil {
		t.Fatalf("expected an error for a duplicate attribute")
	}
}

func TestNewObjectTableBuilderRequiresPlayer(t *testing.T) {
	objects := []*ir.Object{{ID: 1, ShortName: "a box"}}
	if _, err := NewObjectTableBuilder(objects); err == nil {
		t.Fatalf("expected an error when no player object is present")
	}
}

func TestNewObjectTableBuilderNumbersPlayerFirst(t *testing.T) {
	objects := []*ir.Object{
		{ID: 42, ShortName: "a box"},
		{ID: ir.PlayerObjectID, ShortName: "yourself"},
		{ID: 43, ShortName: "a key"},
	}
	b, err := NewObjectTableBuilder(objects)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Number(ir.PlayerObjectID) != 1 {
		t.Errorf("player should always be object #1, got %d", b.Number(ir.PlayerObjectID))
	}
	if b.Number(42) != 2 {
		t.Errorf("first non-player object should be #2, got %d", b.Number(42))
	}
	if b.Number(43) != 3 {
		t.Errorf("second non-player object should be #3, got %d", b.Number(43))
	}
}

func TestNewObjectTableBuilderAcceptsExactlyMaxObjects(t *testing.T) {
	objects := []*ir.Object{{ID: ir.PlayerObjectID, ShortName: "yourself"}}
	for i := 1; i < maxObjectsV3; i++ {
		objects = append(objects, &ir.Object{ID: ir.Id(i), ShortName: "x"})
	}
	b, err := NewObjectTableBuilder(objects)
	if err != nil {
		t.Fatalf("unexpected error at exactly %d objects: %v", maxObjectsV3, err)
	}
	if b.Number(ir.Id(maxObjectsV3-1)) != maxObjectsV3 {
		t.Errorf("last object should be #%d, got %d", maxObjectsV3, b.Number(ir.Id(maxObjectsV3-1)))
	}
}

func TestNewObjectTableBuilderRejectsTooManyObjects(t *testing.T) {
	objects := []*ir.Object{{ID: ir.PlayerObjectID, ShortName: "yourself"}}
	for i := 1; i <= maxObjectsV3; i++ {
		objects = append(objects, &ir.Object{ID: ir.Id(i), ShortName: "x"})
	}
	if _, err := NewObjectTableBuilder(objects); err == nil {
		t.Fatalf("expected an error when object count exceeds the V3 maximum of %d", maxObjectsV3)
	}
}

func TestEmitPropertySizeByteIsInterpreterDecodable(t *testing.T) {
	im := newImage()
	o := &ir.Object{
		ShortName: "a lamp",
		Properties: []ir.Property{
			{Number: 18, Data: []byte{0x01, 0x02, 0x03}},
		},
	}
	if err := emitPropertyTable(im, 2, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nameWords := int(im.bytes[0])
	sizeByteAddr := 1 + nameWords*2
	sizeByte := im.bytes[sizeByteAddr]

	gotLength := int(sizeByte>>5) + 1
	gotNumber := sizeByte & 0x1F
	if gotLength != 3 {
		t.Errorf("decoded property length = %d, want 3", gotLength)
	}
	if gotNumber != 18 {
		t.Errorf("decoded property number = %d, want 18", gotNumber)
	}
}

func TestEmitPropertyTableRejectsOversizedData(t *testing.T) {
	im := newImage()
	o := &ir.Object{
		ShortName: "a crate",
		Properties: []ir.Property{
			{Number: 5, Data: make([]byte, 9)},
		},
	}
	if err := emitPropertyTable(im, 2, o); err == nil {
		t.Fatalf("expected an error for a 9-byte property (V3 max is 8)")
	}
}

func TestEmitPropertyTableRejectsDuplicateProperty(t *testing.T) {
	im := newImage()
	o := &ir.Object{
		ShortName: "a crate",
		Properties: []ir.Property{
			{Number: 5, Data: []byte{1}},
			{Number: 5, Data: []byte{2}},
		},
	}
	if err := emitPropertyTable(im, 2, o); err == nil {
		t.Fatalf("expected an error for a duplicate property number")
	}
}

func TestEmitPropertyTableRejectsOutOfRangeNumber(t *testing.T) {
	im := newImage()
	o := &ir.Object{
		ShortName: "a crate",
		Properties: []ir.Property{
			{Number: 32, Data: []byte{1}},
		},
	}
	if err := emitPropertyTable(im, 2, o); err == nil {
		t.Fatalf("expected an error for property number 32 (valid range is 1..31)")
	}
}

func TestEmitPropertiesDescendingOrder(t *testing.T) {
	im := newImage()
	o := &ir.Object{
		ShortName: "",
		Properties: []ir.Property{
			{Number: 3, Data: []byte{1}},
			{Number: 9, Data: []byte{2}},
			{Number: 1, Data: []byte{3}},
		},
	}
	if err := emitPropertyTable(im, 2, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nameWords := int(im.bytes[0])
	pos := 1 + nameWords*2

	var order []uint8
	for {
		sizeByte := im.bytes[pos]
		if sizeByte == 0 {
			break
		}
		num := sizeByte & 0x1F
		order = append(order, num)
		length := int(sizeByte>>5) + 1
		pos += 1 + length
	}

	want := []uint8{9, 3, 1}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("property order = %v, want %v (V3 requires descending property numbers)", order, want)
		}
	}
}
