package codegen

// Z-character tables for the V3 default alphabets (Z-Machine Standards
// Document §3.5). Z-chars 0-5 are control codes (space, shift, escape);
// 6-31 index into whichever alphabet is currently selected.
var a0Default = [26]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var a2Default = [25]byte{'\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

const (
	zcharShiftA1 = 4
	zcharShiftA2 = 5
	zcharEscape  = 6 // on A2: "next two z-chars are the two halves of a ZSCII code"
	zcharPad     = 5 // spec.md §4.2 step 2: pad trailing word with shift-to-A0
)

// encodeChar appends the z-chars needed to produce r to out. Characters
// outside all three alphabets fall back to the A2 escape-code form: shift
// to A2, zcharEscape, then the ZSCII byte split into two 5-bit halves.
func encodeChar(out []byte, r byte) []byte {
	if r == ' ' {
		return append(out, 0)
	}
	if r >= 'a' && r <= 'z' {
		return append(out, byte(r-'a')+6)
	}
	if r >= 'A' && r <= 'Z' {
		return append(out, zcharShiftA1, byte(r-'A')+6)
	}
	for i, c := range a2Default {
		if c == r {
			return append(out, zcharShiftA2, byte(i)+7)
		}
	}
	return append(out, zcharShiftA2, zcharEscape, (r>>5)&0b111, r&0b11111)
}

// zcharsForText converts input text (already ZSCII, i.e. 8-bit clean) into
// its unpacked z-char stream, with no padding or word packing applied yet.
func zcharsForText(text string) []byte {
	out := make([]byte, 0, len(text)*2)
	for i := 0; i < len(text); i++ {
		out = encodeChar(out, text[i])
	}
	return out
}

// packZchars groups a z-char stream into 16-bit big-endian words (3
// z-chars per word, final word padded with zcharPad and its high bit set
// to mark end-of-string), per spec.md §4.2 steps 2-3.
func packZchars(zchars []byte) []uint16 {
	for len(zchars)%3 != 0 {
		zchars = append(zchars, zcharPad)
	}
	if len(zchars) == 0 {
		zchars = []byte{zcharPad, zcharPad, zcharPad}
	}

	words := make([]uint16, 0, len(zchars)/3)
	for i := 0; i < len(zchars); i += 3 {
		word := uint16(zchars[i]&0b11111)<<10 | uint16(zchars[i+1]&0b11111)<<5 | uint16(zchars[i+2]&0b11111)
		words = append(words, word)
	}
	words[len(words)-1] |= 0x8000

	return words
}

// encodeZString is the full text -> packed-word pipeline used for the
// string pool (unbounded length) and, truncated to exactly N z-chars, for
// dictionary keys (see dictionaryKey in dictionary.go).
func encodeZString(text string) []uint16 {
	return packZchars(zcharsForText(text))
}

func writeZStringWords(im *image, words []uint16) {
	for _, w := range words {
		im.writeHalfWord(w)
	}
}
