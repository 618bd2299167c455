package codegen

import "encoding/binary"

const headerSize = 64

// Header field offsets, Z-Machine Standards Document §11 (version 3).
const (
	hdrVersion       = 0x00
	hdrFlags1        = 0x01
	hdrRelease       = 0x02
	hdrHighMemory    = 0x04
	hdrInitialPC     = 0x06
	hdrDictionary    = 0x08
	hdrObjectTable   = 0x0A
	hdrGlobals       = 0x0C
	hdrStaticMemory  = 0x0E
	hdrFlags2        = 0x10
	hdrSerial        = 0x12 // 6 bytes
	hdrAbbreviations = 0x18
	hdrFileLength    = 0x1A
	hdrChecksum      = 0x1C
)

// finalizeHeader writes the 64-byte header in place at the front of im and
// computes the checksum over everything emitted after it. It must run
// last, once every region's final address is known (spec.md §4.8, §5
// "header finalisation runs last").
func finalizeHeader(im *image, rm RegionMap, initialPC uint32, serial string) error {
	if len(im.bytes) < headerSize {
		return fatalf(KindStructural, 0, 0, "image shorter than the 64-byte header")
	}

	// Globals and objects lie below the static-memory base, which is the
	// first byte of the dictionary (emitted after both). That base must
	// itself fit in the 16-bit header fields that name it - otherwise
	// hdrDictionary/hdrStaticMemory wrap silently.
	if rm.DictionaryStart > 0xFFFF {
		return fatalf(KindOverflow, 0, rm.DictionaryStart, "static-memory base 0x%x exceeds the V3 64KiB ceiling", rm.DictionaryStart)
	}

	im.bytes[hdrVersion] = 3
	im.bytes[hdrFlags1] = 0 // no status-line/screen-splitting capabilities claimed
	binary.BigEndian.PutUint16(im.bytes[hdrRelease:], 1)

	binary.BigEndian.PutUint16(im.bytes[hdrHighMemory:], uint16(rm.CodeStart))
	binary.BigEndian.PutUint16(im.bytes[hdrInitialPC:], uint16(initialPC))
	binary.BigEndian.PutUint16(im.bytes[hdrDictionary:], uint16(rm.DictionaryStart))
	binary.BigEndian.PutUint16(im.bytes[hdrObjectTable:], uint16(rm.ObjectsStart))
	binary.BigEndian.PutUint16(im.bytes[hdrGlobals:], uint16(rm.GlobalsStart))
	binary.BigEndian.PutUint16(im.bytes[hdrStaticMemory:], uint16(rm.DictionaryStart))

	binary.BigEndian.PutUint16(im.bytes[hdrFlags2:], 0)

	var serialBytes [6]byte
	copy(serialBytes[:], padSerial(serial))
	copy(im.bytes[hdrSerial:hdrSerial+6], serialBytes[:])

	binary.BigEndian.PutUint16(im.bytes[hdrAbbreviations:], 0) // no abbreviation table; see DESIGN.md

	fileLength := uint32(len(im.bytes))
	if fileLength > 0x20000 {
		return fatalf(KindOverflow, 0, fileLength, "story file length %d exceeds V3's 128KiB ceiling", fileLength)
	}
	binary.BigEndian.PutUint16(im.bytes[hdrFileLength:], uint16(fileLength/2))

	binary.BigEndian.PutUint16(im.bytes[hdrChecksum:], 0)
	checksum := computeChecksum(im.bytes)
	binary.BigEndian.PutUint16(im.bytes[hdrChecksum:], checksum)

	return nil
}

// computeChecksum is the unsigned 16-bit sum (mod 0x10000) of every byte
// from offset 64 to the end of the file, per spec.md §4.8. It must be
// computed with the checksum field itself still zeroed.
func computeChecksum(image []byte) uint16 {
	var sum uint32
	for _, b := range image[headerSize:] {
		sum += uint32(b)
	}
	return uint16(sum % 0x10000)
}

func padSerial(serial string) string {
	if len(serial) >= 6 {
		return serial[:6]
	}
	out := []byte(serial)
	for len(out) < 6 {
		out = append(out, '0')
	}
	return string(out)
}
