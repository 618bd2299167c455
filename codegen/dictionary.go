package codegen

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/gruelang/grue/ir"
)

// DefaultSeparators are the input codes every dictionary reserves as
// single-character words in their own right, per §4.4.
var DefaultSeparators = []byte{'.', ',', '"'}

// dictionaryEntryFlagBytes is the per-entry data appended after the 4-byte
// key; V3 requires at least 3 (verb bit, preposition bit, and a data byte
// the grammar dispatcher can use to identify the matched verb).
const dictionaryEntryFlagBytes = 3

type dictionaryEntry struct {
	word string
	key  [4]byte
}

// DictionaryBuilder collects vocabulary from grammar patterns (plus,
// optionally, numeric literals) and emits the sorted dictionary region.
// Grounded on the decode side in dictionary.ParseDictionary in this
// repo's bundled interpreter; this builder is its inverse.
type DictionaryBuilder struct {
	words           map[string]bool
	IncludeNumerals bool
}

func NewDictionaryBuilder(includeNumerals bool) *DictionaryBuilder {
	return &DictionaryBuilder{
		words:           make(map[string]bool),
		IncludeNumerals: includeNumerals,
	}
}

func (b *DictionaryBuilder) AddWord(word string) {
	b.words[strings.ToLower(word)] = true
}

// AddGrammar walks every rule's verb and every literal-bearing pattern to
// collect the vocabulary the dispatcher generator will need to compare
// against.
func (b *DictionaryBuilder) AddGrammar(rules []*ir.GrammarRule) {
	for _, rule := range rules {
		b.AddWord(rule.Verb)
		for _, pattern := range rule.Patterns {
			if pattern.Literal != "" {
				b.AddWord(pattern.Literal)
			}
		}
	}
}

// dictionaryKey truncates word to 6 z-characters (not 6 source characters
// - non-alphabetic characters expand to 2 z-chars each via the A2 escape,
// so truncating by source-character count could overflow the fixed 4-byte
// V3 key; see DESIGN.md) and packs it exactly as a string payload, with
// the end-of-word marker landing on the high bit of the final word's first
// byte.
func dictionaryKey(word string) (key [4]byte, truncated bool) {
	lower := strings.ToLower(word)
	zchars := zcharsForText(lower)
	if len(zchars) > 6 {
		zchars = zchars[:6]
		truncated = true
	}
	for len(zchars) < 6 {
		zchars = append(zchars, zcharPad)
	}

	words := packZchars(zchars)
	binary.BigEndian.PutUint16(key[0:2], words[0])
	binary.BigEndian.PutUint16(key[2:4], words[1])
	return key, truncated
}

func keyAsUint(key [4]byte) uint32 {
	return binary.BigEndian.Uint32(key[:])
}

// Build emits the dictionary region (header, then entries sorted
// ascending by key, as required for the runtime's binary search - see
// Testable Property 5) and returns each word's byte address, keyed by the
// same lowercased text AddWord/AddGrammar received.
func (b *DictionaryBuilder) Build(im *image) map[string]uint16 {
	if b.IncludeNumerals {
		for n := 0; n <= 100; n++ {
			b.AddWord(strconv.Itoa(n))
		}
	}

	entries := make([]dictionaryEntry, 0, len(b.words))
	seen := make(map[[4]byte]string)
	for word := range b.words {
		key, truncated := dictionaryKey(word)
		if truncated {
			im.warn("dictionary word truncated to 6 z-characters: "+word, 0)
		}
		if other, exists := seen[key]; exists && other != word {
			im.warn("dictionary key collision between \""+other+"\" and \""+word+"\"", 0)
			continue
		}
		seen[key] = word
		entries = append(entries, dictionaryEntry{word: word, key: key})
	}

	sort.Slice(entries, func(i, j int) bool {
		return keyAsUint(entries[i].key) < keyAsUint(entries[j].key)
	})

	im.writeByte(byte(len(DefaultSeparators)))
	im.writeBytes(DefaultSeparators)
	entryLength := 4 + dictionaryEntryFlagBytes
	im.writeByte(byte(entryLength))
	im.writeHalfWord(uint16(len(entries)))

	addresses := make(map[string]uint16, len(entries))
	for _, e := range entries {
		addr := im.cursor()
		im.writeBytes(e.key[:])
		for i := 0; i < dictionaryEntryFlagBytes; i++ {
			im.writeByte(0)
		}
		addresses[e.word] = uint16(addr)
	}

	return addresses
}
