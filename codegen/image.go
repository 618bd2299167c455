package codegen

import "encoding/binary"

// TargetKind distinguishes the address-table / unresolved-reference key
// spaces. A single uint32 id is not enough on its own since a function,
// string, label, and object property table can share numerically
// overlapping ids from different IR namespaces.
type TargetKind uint8

const (
	TargetFunction TargetKind = iota
	TargetString
	TargetLabel
	TargetObjectPropTable
)

// Target names something the resolver needs to find an absolute address
// for: a routine, an encoded string, a code label, or an object's property
// table.
type Target struct {
	Kind TargetKind
	ID   uint32
}

// PatchKind selects how the resolver computes and writes the value at an
// unresolved reference's location, per spec §4.7.
type PatchKind uint8

const (
	PatchPackedFunction PatchKind = iota
	PatchPackedString
	PatchByteAddress
	PatchBranchOffset
	PatchJumpOffset
)

// UnresolvedReference is created at emission time and consumed exactly
// once by the resolver.
type UnresolvedReference struct {
	Target   Target
	Location uint32
	Width    int
	Kind     PatchKind
}

// RegionMap records the non-overlapping byte ranges assigned to each
// memory region, in the fixed order spec.md §4.1 requires: header, globals,
// objects, dictionary, code, strings.
type RegionMap struct {
	HeaderStart, HeaderEnd             uint32
	GlobalsStart, GlobalsEnd           uint32
	ObjectsStart, ObjectsEnd           uint32
	DictionaryStart, DictionaryEnd     uint32
	CodeStart, CodeEnd                 uint32
	StringsStart, StringsEnd           uint32
}

// image is the single append-only byte buffer the whole codegen core
// shares, plus the side tables tracking forward references. It owns all
// mutable state for one compilation and is discarded once Generate
// returns.
type image struct {
	bytes       []byte
	addresses   map[Target]uint32
	unresolved  []UnresolvedReference
	diagnostics []Warning
}

func newImage() *image {
	return &image{
		bytes:     make([]byte, 0, 0x8000),
		addresses: make(map[Target]uint32),
	}
}

// cursor is the current end of the buffer - the address the next emitted
// byte will occupy.
func (im *image) cursor() uint32 { return uint32(len(im.bytes)) }

func (im *image) writeByte(b byte) {
	im.bytes = append(im.bytes, b)
}

func (im *image) writeBytes(b []byte) {
	im.bytes = append(im.bytes, b...)
}

func (im *image) writeHalfWord(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	im.writeBytes(buf[:])
}

func (im *image) padTo(n int) {
	for len(im.bytes)%n != 0 {
		im.writeByte(0)
	}
}

func (im *image) patchHalfWord(addr uint32, v uint16) {
	binary.BigEndian.PutUint16(im.bytes[addr:addr+2], v)
}

func (im *image) patchByte(addr uint32, v byte) {
	im.bytes[addr] = v
}

// reserveHalfWord emits a placeholder two-byte word and records an
// unresolved reference against target, to be patched by the resolver.
func (im *image) reserveHalfWord(target Target, kind PatchKind) {
	loc := im.cursor()
	im.writeHalfWord(0)
	im.unresolved = append(im.unresolved, UnresolvedReference{
		Target:   target,
		Location: loc,
		Width:    2,
		Kind:     kind,
	})
}

func (im *image) setAddress(target Target, addr uint32) {
	im.addresses[target] = addr
}

func (im *image) warn(msg string, targetID uint32) {
	im.diagnostics = append(im.diagnostics, Warning{Message: msg, TargetID: targetID})
}
