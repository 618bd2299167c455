package codegen

import (
	"encoding/binary"
	"testing"

	"github.com/gruelang/grue/zstring"
)

func TestEncodeCharLowercase(t *testing.T) {
	got := encodeChar(nil, 'a')
	want := []byte{6}
	if string(got) != string(want) {
		t.Errorf("encodeChar('a') = %v, want %v", got, want)
	}
}

func TestEncodeCharUppercaseShifts(t *testing.T) {
	got := encodeChar(nil, 'A')
	want := []byte{zcharShiftA1, 6}
	if string(got) != string(want) {
		t.Errorf("encodeChar('A') = %v, want %v", got, want)
	}
}

func TestPackZcharsSetsEndMarker(t *testing.T) {
	words := packZchars([]byte{6, 7, 8})
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0]&0x8000 == 0 {
		t.Errorf("final word missing end-of-string bit: %#04x", words[0])
	}
}

func TestPackZcharsPadsToMultipleOfThree(t *testing.T) {
	words := packZchars([]byte{6, 7})
	if len(words) != 1 {
		t.Fatalf("expected 1 word after padding, got %d", len(words))
	}
}

func TestPackZcharsEmptyInput(t *testing.T) {
	words := packZchars(nil)
	if len(words) != 1 || words[0]&0x8000 == 0 {
		t.Fatalf("empty string should still produce one terminated word, got %v", words)
	}
}

// wordsToBytes mirrors writeZStringWords without needing an image.
func wordsToBytes(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(out[i*2:], w)
	}
	return out
}

func TestEncodeZStringRoundTripsThroughInterpreterDecoder(t *testing.T) {
	cases := []string{"hello", "Hello, World!", "a", "the mailbox", "123"}
	for _, text := range cases {
		words := encodeZString(text)
		decoded, _ := zstring.ReadZString(wordsToBytes(words), 3)
		if decoded != text {
			t.Errorf("round trip of %q: decoded as %q", text, decoded)
		}
	}
}

func TestEncodeZStringNonAlphabeticEscapesTwoZchars(t *testing.T) {
	zchars := zcharsForText("@")
	if len(zchars) != 4 { // shift-to-A2, escape code, two ZSCII halves
		t.Errorf("expected '@' to expand to 4 z-chars via the A2 escape, got %d", len(zchars))
	}
}
