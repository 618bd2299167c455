package codegen

import (
	"encoding/binary"
	"testing"

	"github.com/gruelang/grue/ir"
)

// helloProgram mirrors spec.md's S1 "Hello" scenario: an init routine that
// prints a greeting and quits, one player object, no grammar.
func helloProgram() *ir.Program {
	const (
		initFn ir.Id = 1
		hello  ir.Id = 100
	)
	return &ir.Program{
		Functions: []*ir.Function{{
			ID:   initFn,
			Name: "init",
			Body: []ir.Instruction{
				{Op: ir.OpPrint, String: hello},
				{Op: ir.OpNewline},
				{Op: ir.OpSystem, Sys: ir.SysQuit},
			},
		}},
		Objects:      []*ir.Object{{ID: ir.PlayerObjectID, ShortName: "yourself"}},
		Strings:      []*ir.StringLiteral{{ID: hello, Text: "Hello"}},
		InitFunction: initFn,
	}
}

func TestGenerateHelloProducesAValidHeader(t *testing.T) {
	result, err := Generate(helloProgram(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img := result.Image
	if len(img) < headerSize {
		t.Fatalf("image shorter than the header: %d bytes", len(img))
	}
	if img[hdrVersion] != 3 {
		t.Errorf("version byte = %d, want 3", img[hdrVersion])
	}

	// A tiny scenario produces a small file - well under the V3 ceiling and
	// comfortably under 2KiB. (Determinism is checked by
	// TestGenerateIsDeterministicAcrossRuns.)
	if len(img) >= 2048 {
		t.Errorf("hello-world image is %d bytes, expected well under 2KiB", len(img))
	}

	storedChecksum := binary.BigEndian.Uint16(img[hdrChecksum:])
	zeroed := make([]byte, len(img))
	copy(zeroed, img)
	binary.BigEndian.PutUint16(zeroed[hdrChecksum:], 0)
	recomputed := computeChecksum(zeroed)
	if storedChecksum != recomputed {
		t.Errorf("stored checksum %#x does not match recomputed %#x", storedChecksum, recomputed)
	}
}

func TestGenerateIsDeterministicAcrossRuns(t *testing.T) {
	r1, err := Generate(helloProgram(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Generate(helloProgram(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r1.Image) != len(r2.Image) {
		t.Fatalf("image length differs across runs: %d vs %d", len(r1.Image), len(r2.Image))
	}
	for i := range r1.Image {
		if r1.Image[i] != r2.Image[i] {
			t.Fatalf("image differs at byte %d across identical runs", i)
		}
	}
}

func TestGenerateInitialPCPointsIntoCodeRegion(t *testing.T) {
	result, err := Generate(helloProgram(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := result.Image
	initialPC := binary.BigEndian.Uint16(img[hdrInitialPC:])
	codeStart := binary.BigEndian.Uint16(img[hdrHighMemory:])
	if uint32(initialPC) < uint32(codeStart) {
		t.Errorf("initial PC 0x%x falls before the code region start 0x%x", initialPC, codeStart)
	}
}

func TestGenerateRejectsMissingPlayerObject(t *testing.T) {
	program := helloProgram()
	program.Objects = nil
	if _, err := Generate(program, Options{}); err == nil {
		t.Fatalf("expected an error when the program has no player object")
	}
}

func TestGenerateDecodesPlayerShortNameThroughInterpreter(t *testing.T) {
	result, err := Generate(helloProgram(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := result.Image

	var rm RegionMap
	rm.ObjectsStart = uint32(binary.BigEndian.Uint16(img[hdrObjectTable:]))

	dump, err := DumpObjectTable(img, rm, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsSubstring(dump, "yourself") {
		t.Errorf("expected the player's decoded short name \"yourself\" in dump, got %q", dump)
	}
}

// TestGenerateRejectsStaticMemoryBaseOverflow builds a program whose object
// table alone - 254 non-player objects, each carrying the maximum 31
// properties of 8 bytes - pushes the dictionary's start address (the V3
// static-memory base) past the 16-bit header field that records it, per
// spec.md §4.1's "report a fatal error" requirement.
func TestGenerateRejectsStaticMemoryBaseOverflow(t *testing.T) {
	const initFn ir.Id = 1
	program := &ir.Program{
		Functions: []*ir.Function{{
			ID:   initFn,
			Name: "init",
			Body: []ir.Instruction{{Op: ir.OpSystem, Sys: ir.SysQuit}},
		}},
		Objects:      []*ir.Object{{ID: ir.PlayerObjectID, ShortName: "yourself"}},
		InitFunction: initFn,
	}

	for i := 0; i < 254; i++ {
		var props []ir.Property
		for n := uint8(1); n <= 31; n++ {
			props = append(props, ir.Property{Number: n, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}})
		}
		program.Objects = append(program.Objects, &ir.Object{
			ID:         ir.Id(1000 + i),
			ShortName:  "object",
			Properties: props,
		})
	}

	_, err := Generate(program, Options{})
	if err == nil {
		t.Fatalf("expected a fatal error when the static-memory base exceeds the V3 64KiB ceiling")
	}
}

func TestGenerateDictionaryIsSortedWithGrammar(t *testing.T) {
	const (
		initFn    ir.Id = 1
		handlerFn ir.Id = 2
		lookMsg   ir.Id = 50
	)
	program := &ir.Program{
		Functions: []*ir.Function{
			{
				ID:   initFn,
				Name: "init",
				Body: []ir.Instruction{{Op: ir.OpSystem, Sys: ir.SysQuit}},
			},
			{
				ID:   handlerFn,
				Name: "lookHandler",
				Body: []ir.Instruction{
					{Op: ir.OpPrint, String: lookMsg},
					{Op: ir.OpNewline},
					{Op: ir.OpReturn},
				},
			},
		},
		Objects: []*ir.Object{{ID: ir.PlayerObjectID, ShortName: "yourself"}},
		Strings: []*ir.StringLiteral{{ID: lookMsg, Text: "You see nothing special."}},
		Grammar: []*ir.GrammarRule{
			{Verb: "zebra", Patterns: []ir.GrammarPattern{{Kind: ir.PatternDefault, Handler: handlerFn}}},
			{Verb: "apple", Patterns: []ir.GrammarPattern{{Kind: ir.PatternDefault, Handler: handlerFn}}},
		},
		InitFunction: initFn,
	}

	result, err := Generate(program, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := result.Image

	dictStart := binary.BigEndian.Uint16(img[hdrDictionary:])
	numSeparators := int(img[dictStart])
	entryLenPos := int(dictStart) + 1 + numSeparators
	entryLength := int(img[entryLenPos])
	count := binary.BigEndian.Uint16(img[entryLenPos+1:])

	entriesStart := entryLenPos + 3
	var prev uint32
	for i := 0; i < int(count); i++ {
		addr := entriesStart + i*entryLength
		key := binary.BigEndian.Uint32(img[addr : addr+4])
		if i > 0 && key < prev {
			t.Fatalf("dictionary entry %d out of ascending order", i)
		}
		prev = key
	}
}

func containsSubstring(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
