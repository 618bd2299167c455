package codegen

import (
	"sort"

	"github.com/gruelang/grue/ir"
)

const (
	opLoadW = 15
	opLoadB = 16
)

// Fixed low-memory layout for the single sread call the dispatcher issues.
// textBufferSize follows the V3 convention of one length-capacity byte
// followed by the raw input bytes; parseBufferSize follows one
// max-words byte, one actual-word-count byte, then 4 bytes per parsed
// word (dictionary address, word length, text-buffer offset).
const (
	textBufferCapacity = 64
	textBufferSize      = 1 + textBufferCapacity
	maxParsedWords      = 10
	parseBufferSize     = 2 + 4*maxParsedWords
	nounTableEntrySize  = 4 // object number byte, dictionary-address word, pad byte
)

// Dispatcher locals, by index (1-based Z-Machine variable numbers are
// assigned by varNumber; these are 0-based slots).
const (
	localWordCount = iota
	localTmpWord
	localTableCursor
	localEntryDict
	localTargetWord
	localFoundFlag
	localNounResult
	localAddrTmp
	dispatcherLocalCount
)

// dispatcherEmitter synthesizes the main read-eval loop directly at the
// raw instruction level (spec.md §4.6): its shape is fixed by the
// language, not by anything the IR describes, so it is built with the
// same low-level emission primitives instructionEmitter uses for ordinary
// routines rather than by compiling a list of ir.Instruction values
// supplied from outside.
type dispatcherEmitter struct {
	*instructionEmitter

	rules            []*ir.GrammarRule
	dictAddrs        map[string]uint16
	objects          []*ir.Object // player excluded, in object-number order
	notUnderstoodStr ir.Id
	initFunction     ir.Id

	textBufferAddr  uint32
	parseBufferAddr uint32
	nounTableAddr   uint32
}

func newDispatcherEmitter(ie *instructionEmitter, rules []*ir.GrammarRule, dictAddrs map[string]uint16, objects []*ir.Object, notUnderstoodStr, initFunction ir.Id, textBufferAddr, parseBufferAddr uint32) *dispatcherEmitter {
	return &dispatcherEmitter{
		instructionEmitter: ie,
		rules:              rules,
		dictAddrs:          dictAddrs,
		objects:            objects,
		notUnderstoodStr:   notUnderstoodStr,
		initFunction:       initFunction,
		textBufferAddr:     textBufferAddr,
		parseBufferAddr:    parseBufferAddr,
	}
}

func v(index uint8) ir.Operand { return ir.VarOperand(ir.VarRef{Kind: ir.VarLocal, Index: index}) }

// emitNounTable writes one 4-byte entry per object that carries a noun
// word (derived from the first token of its short name - this codegen
// core has no separate vocabulary-list field to draw from), terminated by
// a zero dictionary-address sentinel, and records its base address.
func (d *dispatcherEmitter) emitNounTable() {
	d.im.padTo(2)
	d.nounTableAddr = d.im.cursor()

	for _, o := range d.objects {
		word := nounWord(o)
		if word == "" {
			continue
		}
		addr, ok := d.dictAddrs[word]
		if !ok {
			continue
		}
		d.im.writeByte(byte(objectNumberOf(d.objects, o.ID)))
		d.im.writeHalfWord(addr)
		d.im.writeByte(0)
	}
	d.im.writeByte(0)
	d.im.writeHalfWord(0)
	d.im.writeByte(0)
}

func objectNumberOf(objects []*ir.Object, id ir.Id) int {
	for i, o := range objects {
		if o.ID == id {
			return i + 2 // player occupies 1; these follow in declaration order
		}
	}
	return 0
}

func nounWord(o *ir.Object) string {
	start := -1
	for i := 0; i < len(o.ShortName); i++ {
		if o.ShortName[i] != ' ' {
			start = i
			break
		}
	}
	if start == -1 {
		return ""
	}
	end := len(o.ShortName)
	for i := start; i < len(o.ShortName); i++ {
		if o.ShortName[i] == ' ' {
			end = i
			break
		}
	}
	return toLowerASCII(o.ShortName[start:end])
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func wordAddr(parseBufferAddr uint32, index int) uint32 {
	return parseBufferAddr + 2 + uint32(4*index)
}

func (d *dispatcherEmitter) loadw(base ir.Operand, index ir.Operand, dest uint8) {
	d.emitVariableForm(false, opLoadW, []ir.Operand{base, index})
	d.emitStore(ir.VarRef{Kind: ir.VarLocal, Index: dest})
}

func (d *dispatcherEmitter) loadb(base ir.Operand, index ir.Operand, dest uint8) {
	d.emitVariableForm(false, opLoadB, []ir.Operand{base, index})
	d.emitStore(ir.VarRef{Kind: ir.VarLocal, Index: dest})
}

func (d *dispatcherEmitter) addConst(a ir.Operand, c uint16, dest uint8) {
	d.emitVariableForm(false, opAdd, []ir.Operand{a, ir.ConstOperand(c)})
	d.emitStore(ir.VarRef{Kind: ir.VarLocal, Index: dest})
}

func (d *dispatcherEmitter) storeConst(dest uint8, val uint16) {
	d.emitStoreInstr(ir.VarRef{Kind: ir.VarLocal, Index: dest}, ir.ConstOperand(val))
}

func (d *dispatcherEmitter) jeBranch(a, b ir.Operand, target ir.Id, onTrue bool) {
	d.emitVariableForm(false, opJE, []ir.Operand{a, b})
	d.emitBranch(target, onTrue)
}

// resolveNoun scans the noun table for wordVal (a dictionary address
// already loaded into a local) and leaves localFoundFlag/localNounResult
// set on return.
func (d *dispatcherEmitter) resolveNoun(wordVal ir.Operand) {
	d.emitStoreInstr(ir.VarRef{Kind: ir.VarLocal, Index: localTargetWord}, wordVal)
	d.storeConst(localTableCursor, uint16(d.nounTableAddr))

	scanLoop := d.newSynthLabel()
	scanFound := d.newSynthLabel()
	scanFail := d.newSynthLabel()
	afterScan := d.newSynthLabel()

	d.emitLabelAddr(scanLoop)
	d.addConst(v(localTableCursor), 1, localAddrTmp)
	d.loadw(v(localAddrTmp), ir.ConstOperand(0), localEntryDict)
	d.jeBranch(v(localEntryDict), ir.ConstOperand(0), scanFail, true)
	d.jeBranch(v(localEntryDict), v(localTargetWord), scanFound, true)
	d.addConst(v(localTableCursor), nounTableEntrySize, localTableCursor)
	d.emitJumpTo(scanLoop)

	d.emitLabelAddr(scanFound)
	d.loadb(v(localTableCursor), ir.ConstOperand(0), localNounResult)
	d.storeConst(localFoundFlag, 1)
	d.emitJumpTo(afterScan)

	d.emitLabelAddr(scanFail)
	d.storeConst(localFoundFlag, 0)

	d.emitLabelAddr(afterScan)
}

// EmitDispatcher writes the main command loop routine plus the boot stub
// that calls it, and returns the stub's address (the story's initial PC).
// It must run after objects and the dictionary have been emitted, since it
// resolves verb and literal vocabulary to concrete dictionary addresses
// immediately rather than through the unresolved-reference table. Strings
// are emitted after it; the messages it prints reach them through that
// table.
func (d *dispatcherEmitter) EmitDispatcher() (uint32, error) {
	d.emitNounTable()

	d.im.padTo(2)
	entryAddr := d.im.cursor()
	d.im.writeByte(dispatcherLocalCount)
	for i := 0; i < dispatcherLocalCount; i++ {
		d.im.writeHalfWord(0)
	}

	if d.initFunction != 0 {
		if err := d.emitCall(ir.Instruction{Op: ir.OpCall, Callee: d.initFunction}); err != nil {
			return 0, err
		}
	}

	readLoop := d.newSynthLabel()
	d.emitLabelAddr(readLoop)

	if err := d.emitInstruction(ir.Instruction{
		Op:          ir.OpReadInput,
		TextBuffer:  ir.ConstOperand(uint16(d.textBufferAddr)),
		ParseBuffer: ir.ConstOperand(uint16(d.parseBufferAddr)),
	}); err != nil {
		return 0, err
	}

	d.loadb(ir.ConstOperand(uint16(d.parseBufferAddr)), ir.ConstOperand(1), localWordCount)
	word1 := uint32(wordAddr(d.parseBufferAddr, 0))
	word2 := uint32(wordAddr(d.parseBufferAddr, 1))
	word3 := uint32(wordAddr(d.parseBufferAddr, 2))

	for _, rule := range d.rules {
		dictAddr, ok := d.dictAddrs[toLowerASCII(rule.Verb)]
		if !ok {
			return 0, fatalf(KindStructural, 0, d.im.cursor(), "verb %q has no dictionary entry", rule.Verb)
		}

		nextVerb := d.newSynthLabel()
		d.loadw(ir.ConstOperand(uint16(word1)), ir.ConstOperand(0), localTmpWord)
		d.jeBranch(v(localTmpWord), ir.ConstOperand(dictAddr), nextVerb, false)

		patterns := append([]ir.GrammarPattern(nil), rule.Patterns...)
		sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].Kind < patterns[j].Kind })

		for _, pat := range patterns {
			next := d.newSynthLabel()

			switch pat.Kind {
			case ir.PatternLiteralNoun:
				litAddr, ok := d.dictAddrs[toLowerASCII(pat.Literal)]
				if !ok {
					return 0, fatalf(KindStructural, 0, d.im.cursor(), "literal %q has no dictionary entry", pat.Literal)
				}
				// The parse buffer keeps stale entries past the current word
				// count, so the count check can't be skipped here.
				d.jeBranch(v(localWordCount), ir.ConstOperand(3), next, false)
				d.loadw(ir.ConstOperand(uint16(word2)), ir.ConstOperand(0), localTmpWord)
				d.jeBranch(v(localTmpWord), ir.ConstOperand(litAddr), next, false)
				d.loadw(ir.ConstOperand(uint16(word3)), ir.ConstOperand(0), localTmpWord)
				d.resolveNoun(v(localTmpWord))
				d.jeBranch(v(localFoundFlag), ir.ConstOperand(1), next, false)
				if err := d.emitCall(ir.Instruction{Op: ir.OpCall, Callee: pat.Handler, Args: []ir.Operand{v(localNounResult)}}); err != nil {
					return 0, err
				}
				d.emitJumpTo(readLoop)

			case ir.PatternNoun:
				d.jeBranch(v(localWordCount), ir.ConstOperand(2), next, false)
				d.loadw(ir.ConstOperand(uint16(word2)), ir.ConstOperand(0), localTmpWord)
				d.resolveNoun(v(localTmpWord))
				d.jeBranch(v(localFoundFlag), ir.ConstOperand(1), next, false)
				if err := d.emitCall(ir.Instruction{Op: ir.OpCall, Callee: pat.Handler, Args: []ir.Operand{v(localNounResult)}}); err != nil {
					return 0, err
				}
				d.emitJumpTo(readLoop)

			case ir.PatternLiteral:
				litAddr, ok := d.dictAddrs[toLowerASCII(pat.Literal)]
				if !ok {
					return 0, fatalf(KindStructural, 0, d.im.cursor(), "literal %q has no dictionary entry", pat.Literal)
				}
				d.jeBranch(v(localWordCount), ir.ConstOperand(2), next, false)
				d.loadw(ir.ConstOperand(uint16(word2)), ir.ConstOperand(0), localTmpWord)
				d.jeBranch(v(localTmpWord), ir.ConstOperand(litAddr), next, false)
				if err := d.emitCall(ir.Instruction{Op: ir.OpCall, Callee: pat.Handler}); err != nil {
					return 0, err
				}
				d.emitJumpTo(readLoop)

			case ir.PatternDefault:
				d.jeBranch(v(localWordCount), ir.ConstOperand(1), next, false)
				if err := d.emitCall(ir.Instruction{Op: ir.OpCall, Callee: pat.Handler}); err != nil {
					return 0, err
				}
				d.emitJumpTo(readLoop)
			}

			d.emitLabelAddr(next)
		}

		d.emitLabelAddr(nextVerb)
	}

	strOperand := ir.StringOperand(d.notUnderstoodStr)
	d.emitShortForm(opPrintPAddr, &strOperand)
	d.emitShortForm(opNewLine, nil)
	d.emitJumpTo(readLoop)

	// The header's initial PC names a bare instruction, not a routine: a V3
	// machine boots with an empty locals frame (see zmachine.LoadRom), so
	// starting execution at the routine header above would decode the local
	// count as an opcode. This stub is that first instruction: it calls the
	// dispatcher routine properly and quits should it ever return.
	stubAddr := d.im.cursor()
	d.im.writeByte(0b1110_0000) // call_vs
	d.im.writeByte(0b0011_1111) // one large-constant operand, rest omitted
	d.im.writeHalfWord(uint16(entryAddr / 2))
	d.im.writeByte(0) // result pushed to the boot frame's stack
	d.im.writeByte(0b1011_0000 | opQuit)

	return stubAddr, nil
}
