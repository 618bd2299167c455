package codegen

import "testing"

func TestDictionaryKeyTruncatesToSixZchars(t *testing.T) {
	// "inventory" lowercases to 9 letters = 9 z-chars, well past 6.
	key, truncated := dictionaryKey("inventory")
	if !truncated {
		t.Fatalf("expected truncation for a 9-letter word")
	}
	shortKey, truncated := dictionaryKey("take")
	if truncated {
		t.Fatalf("4-letter word should not be truncated")
	}
	if key == shortKey {
		t.Fatalf("distinct words produced identical keys")
	}
}

func TestDictionaryKeyTruncatesByZcharsNotSourceChars(t *testing.T) {
	// '@' expands to 4 z-chars on its own (shift-A2, escape, 2 ZSCII
	// halves), so two of them (8 z-chars) already exceeds the 6-z-char
	// budget even though the source string is only 2 characters long.
	_, truncated := dictionaryKey("@@")
	if !truncated {
		t.Fatalf("expected z-char-count truncation for a short but escape-heavy word")
	}
}

func TestDictionaryBuildSortsAscendingByKey(t *testing.T) {
	b := NewDictionaryBuilder(false)
	for _, w := range []string{"zebra", "apple", "mango", "banana"} {
		b.AddWord(w)
	}

	im := newImage()
	addrs := b.Build(im)

	if len(addrs) != 4 {
		t.Fatalf("expected 4 distinct addresses, got %d", len(addrs))
	}

	entryLength := 4 + dictionaryEntryFlagBytes
	headerLen := 1 + len(DefaultSeparators) + 1 + 2
	count := len(addrs)

	var prevKey uint32
	for i := 0; i < count; i++ {
		addr := uint32(headerLen) + uint32(i)*uint32(entryLength)
		var key [4]byte
		copy(key[:], im.bytes[addr:addr+4])
		k := keyAsUint(key)
		if i > 0 && k < prevKey {
			t.Fatalf("dictionary entries not sorted ascending at index %d", i)
		}
		prevKey = k
	}
}

func TestDictionaryBuildWarnsOnKeyCollision(t *testing.T) {
	b := NewDictionaryBuilder(false)
	// "northward" and "north" do not collide ("northw" vs "north" plus
	// padding), so pick two words guaranteed to collide instead:
	// truncate-to-6 means any two words sharing their first 6 letters
	// collide regardless of what follows.
	b.AddWord("xxxxxxone")
	b.AddWord("xxxxxxtwo")

	im := newImage()
	addrs := b.Build(im)

	if len(im.diagnostics) == 0 {
		t.Fatalf("expected a collision warning")
	}
	if len(addrs) != 1 {
		t.Fatalf("expected only the first colliding word to keep an address, got %d", len(addrs))
	}
}

func TestDictionaryBuildIncludesNumeralsWhenRequested(t *testing.T) {
	b := NewDictionaryBuilder(true)
	b.AddWord("look")

	im := newImage()
	addrs := b.Build(im)

	if _, ok := addrs["42"]; !ok {
		t.Errorf("expected numeral \"42\" to be present when IncludeNumerals is set")
	}
	if _, ok := addrs["look"]; !ok {
		t.Errorf("expected grammar word \"look\" to still be present")
	}
}

func TestDictionaryBuildOmitsNumeralsByDefault(t *testing.T) {
	b := NewDictionaryBuilder(false)
	b.AddWord("look")

	im := newImage()
	addrs := b.Build(im)

	if _, ok := addrs["42"]; ok {
		t.Errorf("numerals should be excluded unless IncludeNumerals is set")
	}
}
