package zstring

import (
	"strings"

	"github.com/gruelang/grue/zcore"
)

// Alphabets holds the three 26-entry alphabet rows z-characters 6-31 index
// into. Rows are indexed by zchar-6; A2[0] is the ZSCII escape slot and
// never produces a character itself.
type Alphabets struct {
	A0 [26]uint8
	A1 [26]uint8
	A2 [26]uint8
}

var defaultAlphabetsV1 = buildDefaultAlphabets(1)
var defaultAlphabetsV2Plus = buildDefaultAlphabets(2)

func buildDefaultAlphabets(version uint8) Alphabets {
	var a Alphabets
	copy(a.A0[:], a0_default[:])
	copy(a.A1[:], a1_default[:])
	if version == 1 {
		copy(a.A2[1:], a2_v1[:])
	} else {
		copy(a.A2[1:], a2_v2_default[:])
	}
	return a
}

// LoadAlphabets returns the alphabet table strings in this story decode
// against: the spec defaults, or the custom 78-byte table a V5+ header may
// point at.
func LoadAlphabets(core *zcore.Core) *Alphabets {
	if core.Version >= 5 && core.AlternativeCharSetBaseAddress != 0 {
		var a Alphabets
		base := uint32(core.AlternativeCharSetBaseAddress)
		for i := uint32(0); i < 26; i++ {
			a.A0[i] = core.ReadByte(base + i)
			a.A1[i] = core.ReadByte(base + 26 + i)
			a.A2[i] = core.ReadByte(base + 52 + i)
		}
		// 3.5.5.1 - these two A2 slots are fixed whatever the table says
		a.A2[0] = 0
		a.A2[1] = '\n'
		return &a
	}

	if core.Version == 1 {
		a := defaultAlphabetsV1
		return &a
	}
	a := defaultAlphabetsV2Plus
	return &a
}

// Decode reads the z-string starting at address and returns the decoded
// text plus the number of bytes consumed. maxAddress bounds the read for
// strings that might be missing their end bit. isAbbreviation marks a
// recursive decode of an abbreviation entry, which must not itself
// reference further abbreviations (3.3.1).
func Decode(address uint32, maxAddress uint32, core *zcore.Core, alphabets *Alphabets, isAbbreviation bool) (string, uint32) {
	version := core.Version
	ptr := address
	bytesRead := uint32(0)

	var zchrStream []uint8
	for ptr+1 < maxAddress {
		halfWord := core.ReadHalfWord(ptr)
		ptr += 2
		bytesRead += 2

		zchrStream = append(zchrStream, uint8((halfWord>>10)&0b11111))
		zchrStream = append(zchrStream, uint8((halfWord>>5)&0b11111))
		zchrStream = append(zchrStream, uint8(halfWord&0b11111))

		if (halfWord >> 15) == 1 {
			break
		}
	}

	baseAlphabet := a0
	currentAlphabet := a0
	nextAlphabet := a0
	var chrStream strings.Builder

	for i := 0; i < len(zchrStream); i++ {
		zchr := zchrStream[i]
		currentAlphabet = nextAlphabet
		nextAlphabet = baseAlphabet

		switch zchr {
		case 0: // SPACE in all versions
			chrStream.WriteByte(' ')
		case 1: // new line in v1, abbreviations in v2+
			if version == 1 {
				chrStream.WriteByte('\n')
			} else {
				i += decodeAbbreviation(&chrStream, core, alphabets, zchrStream, i, isAbbreviation)
			}
		case 2: // Shift 1 in v1-2, abbreviations in v3+
			if version >= 3 {
				i += decodeAbbreviation(&chrStream, core, alphabets, zchrStream, i, isAbbreviation)
			} else {
				nextAlphabet = (nextAlphabet + 1) % 3
			}
		case 3: // Shift 2 in v1-2, abbreviations in v3+
			if version >= 3 {
				i += decodeAbbreviation(&chrStream, core, alphabets, zchrStream, i, isAbbreviation)
			} else {
				nextAlphabet = (nextAlphabet + 2) % 3
			}
		case 4: // Shift-lock 1 in v1-2, shift 1 in v3+
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 1) % 3
			} else {
				baseAlphabet = (baseAlphabet + 1) % 3
				nextAlphabet = baseAlphabet
			}
		case 5: // Shift-lock 2 in v1-2, shift 2 in v3+
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 2) % 3
			} else {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			}
		default:
			if currentAlphabet == a2 && zchr == 6 {
				// ZSCII escape - the next two z-chars are the top and
				// bottom halves of an 8-bit ZSCII code.
				if i+2 < len(zchrStream) {
					zscii := uint8(uint16(zchrStream[i+1])<<5 | uint16(zchrStream[i+2]))
					if r, ok := ZsciiToUnicode(zscii, core); ok && zscii >= 155 {
						chrStream.WriteRune(r)
					} else {
						chrStream.WriteByte(zscii)
					}
					i += 2
				}
			} else {
				switch currentAlphabet {
				case a0:
					chrStream.WriteByte(alphabets.A0[zchr-6])
				case a1:
					chrStream.WriteByte(alphabets.A1[zchr-6])
				case a2:
					chrStream.WriteByte(alphabets.A2[zchr-6])
				}
			}
		}
	}

	return chrStream.String(), bytesRead
}

// decodeAbbreviation expands abbreviation escape z (1-3) with the following
// z-char as its index, returning how many extra z-chars it consumed.
func decodeAbbreviation(out *strings.Builder, core *zcore.Core, alphabets *Alphabets, zchrStream []uint8, i int, isAbbreviation bool) int {
	if i+1 >= len(zchrStream) {
		return 0
	}
	if isAbbreviation {
		panic("Abbreviation strings must not reference other abbreviations")
	}
	out.WriteString(FindAbbreviation(core, alphabets, zchrStream[i], zchrStream[i+1]))
	return 1
}

// Encode packs text into the fixed-length z-char form dictionary keys use:
// 6 z-chars (4 bytes) on v1-3, 9 z-chars (6 bytes) on v4+, truncated or
// padded with shift z-char 5 as needed, end bit set on the final word.
func Encode(runes []rune, core *zcore.Core, alphabets *Alphabets) []uint8 {
	version := core.Version
	resolution := 6
	if version >= 4 {
		resolution = 9
	}
	shift1 := uint8(4)
	shift2 := uint8(5)
	if version <= 2 {
		shift1 = 2
		shift2 = 3
	}

	var zchars []uint8
	for _, r := range runes {
		switch {
		case r == ' ':
			zchars = append(zchars, 0)
		default:
			if z, ok := findInRow(&alphabets.A0, r); ok {
				zchars = append(zchars, z)
			} else if z, ok := findInRow(&alphabets.A1, r); ok {
				zchars = append(zchars, shift1, z)
			} else if z, ok := findInRow(&alphabets.A2, r); ok {
				zchars = append(zchars, shift2, z)
			} else {
				zscii, ok := unicodeToZscii(r, core)
				if !ok && r < 256 {
					zscii = uint8(r)
				}
				zchars = append(zchars, shift2, 6, (zscii>>5)&0b111, zscii&0b11111)
			}
		}
	}

	if len(zchars) > resolution {
		zchars = zchars[:resolution]
	}
	for len(zchars) < resolution {
		zchars = append(zchars, 5)
	}

	encoded := make([]uint8, 0, resolution/3*2)
	for i := 0; i < len(zchars); i += 3 {
		word := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 >= len(zchars) {
			word |= 0x8000
		}
		encoded = append(encoded, uint8(word>>8), uint8(word))
	}

	return encoded
}

func findInRow(row *[26]uint8, r rune) (uint8, bool) {
	if r > 255 {
		return 0, false
	}
	for i, c := range row {
		// Zero entries (A2's escape slot) never encode as characters.
		if c != 0 && rune(c) == r {
			return uint8(i) + 6, true
		}
	}
	return 0, false
}
