package codegen

import (
	"sort"

	"github.com/gruelang/grue/ir"
)

const (
	maxObjectsV3      = 255
	propertyDefaults  = 31
	objectEntrySizeV3 = 9

	// objectNumberPlayer is the Z-Machine object number the player always
	// occupies, regardless of its IR id.
	objectNumberPlayer = 1
)

// ObjectTableBuilder assigns Z-Machine object numbers and emits the
// property-defaults table, object entries, and property tables, in that
// order (§4.3). The player is always object #1; everything else is
// numbered in IR declaration order - two separate maps, never conflated
// with the IR's own sparse ids (spec.md §9 "Dual numbering").
type ObjectTableBuilder struct {
	irToNumber map[ir.Id]uint16
	numberToIR map[uint16]ir.Id
	order      []ir.Id // by object number, index 0 unused
}

func NewObjectTableBuilder(objects []*ir.Object) (*ObjectTableBuilder, error) {
	b := &ObjectTableBuilder{
		irToNumber: make(map[ir.Id]uint16),
		numberToIR: make(map[uint16]ir.Id),
	}

	var player *ir.Object
	var rest []*ir.Object
	for _, o := range objects {
		if o.ID == ir.PlayerObjectID {
			player = o
		} else {
			rest = append(rest, o)
		}
	}
	if player == nil {
		return nil, fatalf(KindStructural, uint32(ir.PlayerObjectID), 0, "missing player object (id %d)", ir.PlayerObjectID)
	}
	if len(rest)+1 > maxObjectsV3 {
		return nil, fatalf(KindOverflow, 0, 0, "object count %d exceeds V3 maximum of %d", len(rest)+1, maxObjectsV3)
	}

	b.order = append(b.order, player.ID)
	b.irToNumber[player.ID] = 1
	b.numberToIR[1] = player.ID
	for i, o := range rest {
		num := uint16(i + 2)
		b.order = append(b.order, o.ID)
		b.irToNumber[o.ID] = num
		b.numberToIR[num] = o.ID
	}

	return b, nil
}

func (b *ObjectTableBuilder) Number(id ir.Id) uint16 {
	if id == 0 {
		return 0
	}
	return b.irToNumber[id]
}

func attributeMask(attributes []uint8) (uint32, error) {
	var mask uint32
	seen := make(map[uint8]bool)
	for _, a := range attributes {
		if a > 31 {
			return 0, fatalf(KindStructural, uint32(a), 0, "attribute number %d out of range 0..31", a)
		}
		if seen[a] {
			return 0, fatalf(KindStructural, uint32(a), 0, "duplicate attribute %d on object", a)
		}
		seen[a] = true
		mask |= 1 << (31 - a) // attribute 0 = bit 31 (MSB-first), matching zobject's decode convention
	}
	return mask, nil
}

// Emit writes the property-defaults table, then one entry per object (in
// object-number order), then every property table, in that order. Property
// table pointers in the entries are unresolved byte-address references
// patched once every table has been emitted.
func (b *ObjectTableBuilder) Emit(im *image, objects map[ir.Id]*ir.Object) error {
	for i := 0; i < propertyDefaults; i++ {
		im.writeHalfWord(0)
	}

	for _, id := range b.order {
		o := objects[id]
		mask, err := attributeMask(o.Attributes)
		if err != nil {
			return err
		}
		im.writeHalfWord(uint16(mask >> 16))
		im.writeHalfWord(uint16(mask))
		im.writeByte(byte(b.Number(o.Parent)))
		im.writeByte(byte(b.Number(o.Sibling)))
		im.writeByte(byte(b.Number(o.Child)))
		im.reserveHalfWord(Target{Kind: TargetObjectPropTable, ID: uint32(b.Number(id))}, PatchByteAddress)
	}

	for _, id := range b.order {
		o := objects[id]
		if err := emitPropertyTable(im, b.Number(id), o); err != nil {
			return err
		}
	}

	return nil
}

func emitPropertyTable(im *image, objNumber uint16, o *ir.Object) error {
	im.setAddress(Target{Kind: TargetObjectPropTable, ID: uint32(objNumber)}, im.cursor())

	nameWords := encodeZString(o.ShortName)
	im.writeByte(byte(len(nameWords)))
	writeZStringWords(im, nameWords)

	props := append([]ir.Property(nil), o.Properties...)
	sort.Slice(props, func(i, j int) bool { return props[i].Number > props[j].Number })

	seen := make(map[uint8]bool)
	for _, p := range props {
		if p.Number < 1 || p.Number > 31 {
			return fatalf(KindStructural, uint32(objNumber), im.cursor(), "property number %d out of range 1..31", p.Number)
		}
		if seen[p.Number] {
			return fatalf(KindStructural, uint32(objNumber), im.cursor(), "duplicate property %d on object %d", p.Number, objNumber)
		}
		seen[p.Number] = true
		if len(p.Data) < 1 || len(p.Data) > 8 {
			return fatalf(KindOverflow, uint32(objNumber), im.cursor(), "property %d data length %d out of range 1..8", p.Number, len(p.Data))
		}

		// Z-Machine Standard §12.4.1: top 3 bits are length-1, bottom 5 are
		// the property number. (spec.md states the inverse; kept as the
		// decodable, interpreter-correct layout - see DESIGN.md.)
		sizeByte := uint8(len(p.Data)-1)<<5 | p.Number
		im.writeByte(sizeByte)
		im.writeBytes(p.Data)
	}

	im.writeByte(0) // property-list terminator

	return nil
}
