// Package codegen implements the Z-Machine V3 code-generation core: it
// turns a github.com/gruelang/grue/ir.Program into a byte-exact story file,
// with every forward reference resolved and every address packed or
// aligned per the Z-Machine Standards Document. Grounded throughout on the
// decode side already implemented by this repo's bundled zmachine/zobject/
// zstring/dictionary packages, which play anything this package emits.
package codegen

import "github.com/gruelang/grue/ir"

const maxV3FileSize = 0x20000 // 128KiB, the V3 packed-address ceiling

// notUnderstoodStringID is the sentinel id the generator uses to intern
// its own "I don't understand" message. It sits at the top of the ir.Id
// range, far above the dense ids a producer assigns; StringPool keys are
// plain ir.Ids, so a producer string with this same id would share its
// slot.
const notUnderstoodStringID ir.Id = 0xFFFF_FFFF

// Options controls aspects of a compilation that spec.md leaves as an
// explicit choice rather than deriving from the IR (see SPEC_FULL.md "Open
// Questions").
type Options struct {
	// IncludeNumerals adds dictionary entries for "0".."100" even when no
	// grammar rule references one. Defaults to false.
	IncludeNumerals bool

	// Serial is written verbatim (truncated/padded to 6 ASCII bytes) into
	// the header's serial-number field. Left empty, compilation is fully
	// deterministic across runs; callers that want the conventional
	// release-date serial should pass one explicitly.
	Serial string

	// NotUnderstoodMessage overrides the text printed when no grammar rule
	// matches an input line.
	NotUnderstoodMessage string
}

// Result is Generate's successful return value.
type Result struct {
	Image    []byte
	Warnings []Warning
}

// Generate compiles program into a complete V3 story file. Structural
// failures - a malformed IR the semantic analyzer should have already
// rejected, or an internal layout bug - are reported as a single
// Diagnostic error, matching spec.md §7 "first fatal error aborts the pass
// with a single structured diagnostic". Panics raised anywhere in the core
// are recovered here and converted the same way, mirroring the bundled
// interpreter's own panic-for-unrecoverable-state convention (see
// cmd/gametest/main.go's recover()-into-result pattern).
func Generate(program *ir.Program, opts Options) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(Diagnostic); ok {
				err = d
				return
			}
			err = fatalf(KindStructural, 0, 0, "internal compiler error: %v", r)
		}
	}()

	im := newImage()
	var rm RegionMap

	notUnderstood := opts.NotUnderstoodMessage
	if notUnderstood == "" {
		notUnderstood = "I don't understand that."
	}

	pool := NewStringPool()
	for _, s := range program.Strings {
		pool.Intern(s.ID, s.Text)
	}
	pool.Intern(notUnderstoodStringID, notUnderstood)

	objectsMap := make(map[ir.Id]*ir.Object, len(program.Objects))
	for _, o := range program.Objects {
		objectsMap[o.ID] = o
	}

	objBuilder, err := NewObjectTableBuilder(program.Objects)
	if err != nil {
		return Result{}, err
	}

	dict := NewDictionaryBuilder(opts.IncludeNumerals)
	dict.AddGrammar(program.Grammar)
	for _, id := range objBuilder.order[1:] {
		if word := nounWord(objectsMap[id]); word != "" {
			dict.AddWord(word)
		}
	}

	rm.HeaderStart = im.cursor()
	for i := 0; i < headerSize; i++ {
		im.writeByte(0)
	}
	rm.HeaderEnd = im.cursor()

	rm.GlobalsStart = im.cursor()
	const globalCount = 240
	// Global 0 names the object whose short name the V3 status line shows
	// on every sread; it must hold a valid object number from the first
	// read onward, so it starts at the player (always object #1). Globals
	// 1 and 2 (score, moves) start at zero along with the rest.
	im.writeHalfWord(objectNumberPlayer)
	for i := 1; i < globalCount; i++ {
		im.writeHalfWord(0)
	}
	rm.GlobalsEnd = im.cursor()

	// sread rewrites both of these buffers on every read loop iteration,
	// so they must sit in dynamic memory: everything from the dictionary's
	// first byte up is static, and a conforming interpreter refuses writes
	// there. Reserving them here, between globals and objects, keeps them
	// below the static base the header fixes at rm.DictionaryStart.
	textBufferAddr := im.cursor()
	im.writeByte(textBufferCapacity)
	for i := 0; i < textBufferCapacity; i++ {
		im.writeByte(0)
	}

	parseBufferAddr := im.cursor()
	im.writeByte(maxParsedWords)
	for i := 0; i < parseBufferSize-1; i++ {
		im.writeByte(0)
	}

	rm.ObjectsStart = im.cursor()
	if err := objBuilder.Emit(im, objectsMap); err != nil {
		return Result{}, err
	}
	rm.ObjectsEnd = im.cursor()

	rm.DictionaryStart = im.cursor()
	// spec.md §4.1: the static-memory base (the dictionary's first byte)
	// must fit under the V3 64KiB ceiling - dictionary and objects must
	// live below it, so a base past 0xFFFF can never be expressed in the
	// header's 16-bit pointer fields.
	if rm.DictionaryStart > 0xFFFF {
		return Result{}, fatalf(KindOverflow, 0, rm.DictionaryStart, "static-memory base 0x%x exceeds the V3 64KiB ceiling", rm.DictionaryStart)
	}
	dictAddrs := dict.Build(im)
	rm.DictionaryEnd = im.cursor()

	rm.CodeStart = im.cursor()

	ie := newInstructionEmitter(im, objBuilder, pool)
	for _, fn := range program.Functions {
		if err := ie.EmitRoutine(fn); err != nil {
			return Result{}, err
		}
	}

	nonPlayerObjects := make([]*ir.Object, 0, len(objBuilder.order)-1)
	for _, id := range objBuilder.order[1:] {
		nonPlayerObjects = append(nonPlayerObjects, objectsMap[id])
	}

	dispatcher := newDispatcherEmitter(ie, program.Grammar, dictAddrs, nonPlayerObjects, notUnderstoodStringID, program.InitFunction, textBufferAddr, parseBufferAddr)
	initialPC, err := dispatcher.EmitDispatcher()
	if err != nil {
		return Result{}, err
	}

	rm.CodeEnd = im.cursor()

	rm.StringsStart = im.cursor()
	pool.EmitAll(im)
	im.padTo(2) // header file-length field counts 2-byte units
	rm.StringsEnd = im.cursor()

	if err := resolve(im); err != nil {
		return Result{}, err
	}

	if uint32(len(im.bytes)) > maxV3FileSize {
		return Result{}, fatalf(KindOverflow, 0, uint32(len(im.bytes)), "story file size %d exceeds the V3 ceiling of %d bytes", len(im.bytes), maxV3FileSize)
	}

	if err := finalizeHeader(im, rm, initialPC, opts.Serial); err != nil {
		return Result{}, err
	}

	out := make([]byte, len(im.bytes))
	copy(out, im.bytes)
	return Result{Image: out, Warnings: im.diagnostics}, nil
}
