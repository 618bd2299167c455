package dictionary

import (
	"bytes"

	"github.com/gruelang/grue/zcore"
	"github.com/gruelang/grue/zstring"
)

type DictionaryHeader struct {
	n          uint8
	InputCodes []uint8
	length     uint8
	count      int16
}

type DictionaryEntry struct {
	address     uint16
	encodedWord []uint8
	decodedWord string
	data        []uint8
}

type Dictionary struct {
	Header  DictionaryHeader
	entries []DictionaryEntry
}

func ParseDictionary(baseAddress uint32, core *zcore.Core, alphabets *zstring.Alphabets) *Dictionary {
	numInputCodes := core.ReadByte(baseAddress)

	header := DictionaryHeader{
		n:          numInputCodes,
		InputCodes: core.ReadSlice(baseAddress+1, baseAddress+1+uint32(numInputCodes)),
		length:     core.ReadByte(baseAddress + 1 + uint32(numInputCodes)),
		count:      int16(core.ReadHalfWord(baseAddress + 2 + uint32(numInputCodes))),
	}

	entryPtr := baseAddress + 4 + uint32(numInputCodes)
	var entries = make([]DictionaryEntry, header.count)

	encodedWordLength := uint32(4)
	if core.Version > 3 {
		encodedWordLength = 6
	}

	for ix := 0; ix < int(header.count); ix++ {
		decodedWord, _ := zstring.Decode(entryPtr, entryPtr+encodedWordLength, core, alphabets, false)
		entries[ix] = DictionaryEntry{
			address:     uint16(entryPtr),
			encodedWord: core.ReadSlice(entryPtr, entryPtr+encodedWordLength),
			decodedWord: decodedWord,
			data:        core.ReadSlice(entryPtr+encodedWordLength, entryPtr+uint32(header.length)),
		}

		entryPtr += uint32(header.length)
	}

	return &Dictionary{
		Header:  header,
		entries: entries,
	}
}

func (d *Dictionary) Find(zstr []uint8) uint16 {
	for _, entry := range d.entries {
		if bytes.Equal(entry.encodedWord, zstr) {
			return entry.address
		}
	}

	return 0
}
