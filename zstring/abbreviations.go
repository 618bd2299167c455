package zstring

import "github.com/gruelang/grue/zcore"

// FindAbbreviation expands abbreviation escape z (1-3) with index x: the
// abbreviation table holds 32 word addresses per escape, each naming a
// z-string at twice its stored value.
func FindAbbreviation(core *zcore.Core, alphabets *Alphabets, z uint8, x uint8) string {
	abbrIx := uint16(32*(z-1)) + uint16(x)
	addr := uint32(core.AbbreviationTableBase) + 2*uint32(abbrIx)
	strAddr := 2 * uint32(core.ReadHalfWord(addr))

	str, _ := Decode(strAddr, core.MemoryLength(), core, alphabets, true)

	return str
}
