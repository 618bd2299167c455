package codegen

import (
	"fmt"
	"strings"

	"github.com/gruelang/grue/zstring"
)

// DumpObjectTable pretty-prints the object table inside a just-compiled V3
// image, decoding each object's short name with the bundled interpreter's
// own zstring.ReadZString - the same decode path a real playthrough uses -
// so the object-table builder's output is exercised from the decode side,
// not just inspected as raw bytes. Diagnostic/test use only. It works from
// the raw byte slice rather than a zcore.Core so it can be pointed at a
// partially-built image mid-compilation.
func DumpObjectTable(image []byte, rm RegionMap, objectCount int) (string, error) {
	if rm.ObjectsStart+propertyDefaults*2 > uint32(len(image)) {
		return "", fatalf(KindStructural, 0, rm.ObjectsStart, "object table region too short to hold the property-defaults table")
	}

	entriesStart := rm.ObjectsStart + propertyDefaults*2
	var b strings.Builder

	for i := 0; i < objectCount; i++ {
		addr := entriesStart + uint32(i)*objectEntrySizeV3
		objNum := i + 1
		parent := image[addr+4]
		sibling := image[addr+5]
		child := image[addr+6]
		propTable := uint32(image[addr+7])<<8 | uint32(image[addr+8])

		if propTable == 0 || propTable >= uint32(len(image)) {
			break
		}
		nameWords := image[propTable]
		var name string
		if nameWords > 0 {
			name, _ = zstring.ReadZString(image[propTable+1:], 3)
		}

		fmt.Fprintf(&b, "#%-3d %-24q parent=%-3d sibling=%-3d child=%-3d\n", objNum, name, parent, sibling, child)
	}

	return b.String(), nil
}
