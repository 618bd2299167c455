package zstring

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gruelang/grue/zcore"
)

// testCore builds a minimal v3 story image: a 64-byte header followed by
// payload, with the abbreviation-table pointer optionally set.
func testCore(payload []uint8, abbreviationBase uint16) *zcore.Core {
	mem := make([]uint8, 64+len(payload))
	mem[0x00] = 3
	binary.BigEndian.PutUint16(mem[0x18:0x1a], abbreviationBase)
	copy(mem[64:], payload)
	core := zcore.LoadCore(mem)
	return &core
}

// packWords lays z-chars out three to a word, big-endian, end bit on the
// final word.
func packWords(zchars ...uint8) []uint8 {
	for len(zchars)%3 != 0 {
		zchars = append(zchars, 5)
	}
	out := make([]uint8, 0, len(zchars)/3*2)
	for i := 0; i < len(zchars); i += 3 {
		word := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 >= len(zchars) {
			word |= 0x8000
		}
		out = append(out, uint8(word>>8), uint8(word))
	}
	return out
}

func TestDecodeAllThreeAlphabets(t *testing.T) {
	// "Hi, A0!" - uppercase via shift-4, punctuation and digits via A2.
	payload := packWords(
		4, 'H'-'A'+6,
		'i'-'a'+6,
		5, 19, // ,
		0, // space
		4, 'A'-'A'+6,
		5, 8, // 0
		5, 20, // !
	)
	core := testCore(payload, 0)

	str, bytesRead := Decode(64, core.MemoryLength(), core, LoadAlphabets(core), false)

	if str != "Hi, A0!" {
		t.Fatalf(`decoded incorrectly expected="Hi, A0!", actual=%q`, str)
	}
	if bytesRead != uint32(len(payload)) {
		t.Fatalf(`incorrect number of bytes read expected=%d, actual=%d`, len(payload), bytesRead)
	}
}

func TestDecodeZsciiEscape(t *testing.T) {
	// '>' is ZSCII 62 = 0b001_11110: shift-A2, escape 6, then both halves.
	payload := packWords(5, 6, 0b001, 0b11110)
	core := testCore(payload, 0)

	str, _ := Decode(64, core.MemoryLength(), core, LoadAlphabets(core), false)

	if str != ">" {
		t.Fatalf(`decoded incorrectly expected=">", actual=%q`, str)
	}
}

func TestDecodeAbbreviation(t *testing.T) {
	// Abbreviation 0 says "hello"; the main string is escape-1 index-0
	// followed by a literal "!".
	abbrevString := packWords('h'-'a'+6, 'e'-'a'+6, 'l'-'a'+6, 'l'-'a'+6, 'o'-'a'+6)
	mainString := packWords(1, 0, 5, 20)

	// Layout after the header: abbreviation table (one word entry), the
	// abbreviation's z-string, then the main string.
	abbrevStringAddr := uint16(64 + 2)
	payload := []uint8{uint8(abbrevStringAddr / 2 >> 8), uint8(abbrevStringAddr / 2)}
	payload = append(payload, abbrevString...)
	mainAddr := uint32(64 + len(payload))
	payload = append(payload, mainString...)

	core := testCore(payload, 64)

	str, _ := Decode(mainAddr, core.MemoryLength(), core, LoadAlphabets(core), false)

	if str != "hello!" {
		t.Fatalf(`decoded incorrectly expected="hello!", actual=%q`, str)
	}
}

func TestEncodeDictionaryKey(t *testing.T) {
	core := testCore(nil, 0)
	alphabets := LoadAlphabets(core)

	// "hello" is 5 z-chars, padded with a single 5 to the v3 resolution.
	want := packWords('h'-'a'+6, 'e'-'a'+6, 'l'-'a'+6, 'l'-'a'+6, 'o'-'a'+6, 5)
	got := Encode([]rune("hello"), core, alphabets)

	if !bytes.Equal(want, got) {
		t.Fatalf(`encoded incorrectly expected=%v, actual=%v`, want, got)
	}
}

func TestEncodeTruncatesAtResolution(t *testing.T) {
	core := testCore(nil, 0)
	alphabets := LoadAlphabets(core)

	long := Encode([]rune("inventory"), core, alphabets)
	short := Encode([]rune("invent"), core, alphabets)

	if len(long) != 4 {
		t.Fatalf("v3 keys must be 4 bytes, got %d", len(long))
	}
	if !bytes.Equal(long, short) {
		t.Fatalf("words sharing a 6-z-char prefix must encode identically: %v vs %v", long, short)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	core := testCore(make([]uint8, 8), 0)
	alphabets := LoadAlphabets(core)

	encoded := Encode([]rune("take"), core, alphabets)
	copy(core.ReadSlice(64, 64+uint32(len(encoded))), encoded)

	decoded, _ := Decode(64, core.MemoryLength(), core, alphabets, false)

	if decoded != "take" {
		t.Fatalf(`round trip failed expected="take", actual=%q`, decoded)
	}
}

func TestReadZStringBasic(t *testing.T) {
	payload := packWords('h'-'a'+6, 'i'-'a'+6)

	str, bytesRead := ReadZString(payload, 3)

	if str != "hi" {
		t.Fatalf(`decoded incorrectly expected="hi", actual=%q`, str)
	}
	if bytesRead != 2 {
		t.Fatalf(`incorrect number of bytes read expected=2, actual=%d`, bytesRead)
	}
}
