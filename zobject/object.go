package zobject

import (
	"github.com/gruelang/grue/zcore"
	"github.com/gruelang/grue/zstring"
)

type Object struct {
	BaseAddress     uint32
	Id              uint16
	Name            string
	Attributes      uint64 // Bytes 0-3 are valid in all versions, 4-5 are only populated in V4+
	Parent          uint16 // uint8 on v1-3
	Sibling         uint16 // uint8 on v1-3
	Child           uint16 // uint8 on v1-3
	PropertyPointer uint16
}

func GetObject(objId uint16, core *zcore.Core, alphabets *zstring.Alphabets) Object {
	if objId == 0 {
		panic("Can't get 0th object, it doesn't exist")
	}

	base := uint32(core.ObjectTableBase)

	if core.Version >= 4 {
		objectBase := base + 63*2 + uint32(objId-1)*14
		propertyPtr := core.ReadHalfWord(objectBase + 12)

		return Object{
			Id:              objId,
			Name:            objectName(propertyPtr, core, alphabets),
			Attributes:      (core.ReadLongWord(objectBase) >> 16) << 16,
			Parent:          core.ReadHalfWord(objectBase + 6),
			Sibling:         core.ReadHalfWord(objectBase + 8),
			Child:           core.ReadHalfWord(objectBase + 10),
			PropertyPointer: propertyPtr,
			BaseAddress:     objectBase,
		}
	} else {
		objectBase := base + 31*2 + uint32(objId-1)*9
		propertyPtr := core.ReadHalfWord(objectBase + 7)

		return Object{
			Id:              objId,
			Name:            objectName(propertyPtr, core, alphabets),
			Attributes:      (core.ReadLongWord(objectBase) >> 32) << 32,
			Parent:          uint16(core.ReadByte(objectBase + 4)),
			Sibling:         uint16(core.ReadByte(objectBase + 5)),
			Child:           uint16(core.ReadByte(objectBase + 6)),
			PropertyPointer: propertyPtr,
			BaseAddress:     objectBase,
		}
	}
}

// objectName decodes the short name at the head of an object's property
// table; a zero text-length byte means the object is nameless.
func objectName(propertyPtr uint16, core *zcore.Core, alphabets *zstring.Alphabets) string {
	nameLength := core.ReadByte(uint32(propertyPtr))
	if nameLength == 0 {
		return ""
	}
	name, _ := zstring.Decode(uint32(propertyPtr)+1, uint32(propertyPtr)+1+uint32(nameLength)*2, core, alphabets, false)
	return name
}

func (o *Object) TestAttribute(attribute uint16) bool {
	mask := uint64(1) << (63 - attribute)

	return (o.Attributes & mask) == mask
}

func (o *Object) SetAttribute(attribute uint16, core *zcore.Core) {
	mask := uint64(1) << (63 - attribute)
	o.Attributes |= mask

	o.writeAttributes(core)
}

func (o *Object) ClearAttribute(attribute uint16, core *zcore.Core) {
	mask := uint64(1) << (63 - attribute)
	o.Attributes &= ^mask

	o.writeAttributes(core)
}

func (o *Object) writeAttributes(core *zcore.Core) {
	core.WriteWord(o.BaseAddress, uint32(o.Attributes>>32))
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+4, uint16(o.Attributes>>16))
	}
}

func (o *Object) SetParent(parent uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+6, parent)
	} else {
		core.WriteByte(o.BaseAddress+4, uint8(parent))
	}
	o.Parent = parent
}

func (o *Object) SetSibling(sibling uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+8, sibling)
	} else {
		core.WriteByte(o.BaseAddress+5, uint8(sibling))
	}
	o.Sibling = sibling
}

func (o *Object) SetChild(child uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+10, child)
	} else {
		core.WriteByte(o.BaseAddress+6, uint8(child))
	}
	o.Child = child
}
