package codegen

import "github.com/gruelang/grue/ir"

// Operand type tags, per spec.md §4.5.
const (
	opTypeLargeConstant = 0b00
	opTypeSmallConstant = 0b01
	opTypeVariable       = 0b10
	opTypeOmitted        = 0b11
)

// Real Z-Machine opcode numbers below are grounded on the interpreter's own
// decode switch in zmachine/zmachine.go in this repo, so compiled output and
// the bundled runtime agree on every opcode used here.
const (
	opJE        = 1
	opJL        = 2
	opJG        = 3
	opJIN       = 6
	opTest      = 7
	opOr        = 8
	opAnd       = 9
	opTestAttr  = 10
	opSetAttr   = 11
	opClearAttr = 12
	opInsertObj = 14
	opGetProp   = 17
	opStore     = 13
	opAdd       = 20
	opSub       = 21
	opMul       = 22
	opDiv       = 23
	opMod       = 24

	opJZ         = 0
	opRemoveObj  = 9
	opPrintObj   = 10
	opRet        = 11
	opJump       = 12
	opPrintPAddr = 13
	opNot1OP     = 15

	opNewLine = 11
	opQuit    = 10
	opVerify  = 13

	opCallVS = 0
	opSRead  = 4
	opPrintNum = 6
)

// discardVariable is where a value-producing instruction's result is
// stashed when the IR caller never reads it. V3's CALL always stores a
// value, and the comparison/arithmetic "store" opcodes need a destination
// too, so something has to receive it. The last global (239) is reserved
// for that - globals 0..2 can't serve, since the V3 status line reads
// them as current-location object, score, and move count on every sread.
var discardVariable = ir.VarRef{Kind: ir.VarGlobal, Index: 239}

func varNumber(v ir.VarRef) byte {
	switch v.Kind {
	case ir.VarStack:
		return 0
	case ir.VarLocal:
		return 1 + v.Index
	default: // VarGlobal
		return 16 + v.Index
	}
}

func storeTarget(s *ir.VarRef) ir.VarRef {
	if s == nil {
		return discardVariable
	}
	return *s
}

// instructionEmitter walks IR functions and emits routine headers plus
// Z-Machine instructions, recording label addresses as it goes and queuing
// unresolved references for everything not yet known - calls, string
// prints, branches, and jumps (spec.md §4.5, §9 "forward references via
// placeholders").
type instructionEmitter struct {
	im      *image
	objects *ObjectTableBuilder
	strings *StringPool

	synthCounter uint32
}

func newInstructionEmitter(im *image, objects *ObjectTableBuilder, strings *StringPool) *instructionEmitter {
	return &instructionEmitter{im: im, objects: objects, strings: strings}
}

// newSynthLabel mints a label id for control flow the emitter generates
// itself (e.g. the compare-and-store sequence for UnIsZero). The high bit
// is set so these can never collide with a producer-assigned ir.Id.
func (e *instructionEmitter) newSynthLabel() ir.Id {
	e.synthCounter++
	return ir.Id(0x8000_0000 | e.synthCounter)
}

// EmitRoutine writes fn's routine header (local count + V3 default-value
// words) followed by its body, and records fn's entry address under
// Target{TargetFunction, fn.ID}. Routines must start on an even byte since
// their address is later packed (address/2).
func (e *instructionEmitter) EmitRoutine(fn *ir.Function) error {
	e.im.padTo(2)
	e.im.setAddress(Target{Kind: TargetFunction, ID: uint32(fn.ID)}, e.im.cursor())

	e.im.writeByte(byte(fn.NumLocals))
	for i := 0; i < fn.NumLocals; i++ {
		e.im.writeHalfWord(0)
	}

	for _, instr := range fn.Body {
		if err := e.emitInstruction(instr); err != nil {
			return err
		}
	}

	return nil
}

// resolveOperand converts an IR operand that names an object into its
// concrete Z-Machine object number - object numbers are assigned from the
// whole program before any code is emitted, so this is never a forward
// reference, unlike functions and strings.
func (e *instructionEmitter) resolveOperand(op ir.Operand) ir.Operand {
	if op.Kind == ir.OperandObject {
		return ir.ConstOperand(e.objects.Number(op.Ref))
	}
	return op
}

// writeOperand emits one operand's value bytes (not its 2-bit type code,
// which the caller packs into the preceding type byte) and returns that
// type code.
func (e *instructionEmitter) writeOperand(op ir.Operand) byte {
	op = e.resolveOperand(op)

	switch op.Kind {
	case ir.OperandConst:
		if op.Const <= 0xFF {
			e.im.writeByte(byte(op.Const))
			return opTypeSmallConstant
		}
		e.im.writeHalfWord(op.Const)
		return opTypeLargeConstant
	case ir.OperandVar:
		e.im.writeByte(varNumber(op.Var))
		return opTypeVariable
	case ir.OperandFunction:
		e.im.reserveHalfWord(Target{Kind: TargetFunction, ID: uint32(op.Ref)}, PatchPackedFunction)
		return opTypeLargeConstant
	case ir.OperandString:
		canon := e.strings.Resolve(op.Ref)
		e.im.reserveHalfWord(Target{Kind: TargetString, ID: uint32(canon)}, PatchPackedString)
		return opTypeLargeConstant
	default:
		panic("writeOperand: unsupported operand kind (labels are emitted by branch/jump handling, not as generic operands)")
	}
}

// emitVariableForm writes a variable-form (top bits 11) instruction: the
// opcode byte, one operand-type byte (so up to 4 operands; this codegen
// core never needs call_vs2/call_vn2's double type byte), then the operand
// bytes. isVar picks the VAR-count bit; it is false for every "2OP" opcode
// even when, like je, more than two operands are passed.
func (e *instructionEmitter) emitVariableForm(isVar bool, opcodeNumber byte, operands []ir.Operand) {
	if len(operands) > 4 {
		panic("emitVariableForm: more than 4 operands not supported by this codegen core")
	}

	opByte := byte(0b1100_0000) | opcodeNumber
	if isVar {
		opByte |= 0b0010_0000
	}
	e.im.writeByte(opByte)

	typeByteLoc := e.im.cursor()
	e.im.writeByte(0xFF) // all-omitted placeholder, patched below

	types := [4]byte{opTypeOmitted, opTypeOmitted, opTypeOmitted, opTypeOmitted}
	for i, op := range operands {
		types[i] = e.writeOperand(op)
	}
	e.im.patchByte(typeByteLoc, types[0]<<6|types[1]<<4|types[2]<<2|types[3])
}

// emitShortForm writes a short-form (top bits 10) 0OP or 1OP instruction.
func (e *instructionEmitter) emitShortForm(opcodeNumber byte, operand *ir.Operand) {
	if operand == nil {
		e.im.writeByte(0b1011_0000 | opcodeNumber)
		return
	}

	typeLoc := e.im.cursor()
	e.im.writeByte(0b1000_0000 | opcodeNumber)
	opType := e.writeOperand(*operand)
	// The single operand's type lives in bits 5-4 of the opcode byte
	// itself; patch it in now that we know it.
	e.im.patchByte(typeLoc, 0b1000_0000|opType<<4|opcodeNumber)
}

func (e *instructionEmitter) emitStore(dest ir.VarRef) {
	e.im.writeByte(varNumber(dest))
}

// emitBranch appends the mandatory two-byte branch placeholder after an
// instruction's operands (and store byte, if any), queuing a
// PatchBranchOffset reference. Per spec.md §4.5/§9 branches are always
// emitted in this form, never compressed to one byte.
func (e *instructionEmitter) emitBranch(target ir.Id, onTrue bool) {
	loc := e.im.cursor()
	sense := byte(0)
	if onTrue {
		sense = 0x80
	}
	e.im.writeByte(sense) // bit6=0: the mandatory two-byte form
	e.im.writeByte(0)
	e.im.unresolved = append(e.im.unresolved, UnresolvedReference{
		Target:   Target{Kind: TargetLabel, ID: uint32(target)},
		Location: loc,
		Width:    2,
		Kind:     PatchBranchOffset,
	})
}

// emitJumpTo writes a short-form jump (1OP:12) whose operand is always the
// full 2-byte large-constant form, since a jump offset is a signed 16-bit
// value that can never be safely shrunk to a small constant.
func (e *instructionEmitter) emitJumpTo(target ir.Id) {
	e.im.writeByte(0b1000_1100) // short form, type=large constant (00), opcode 12
	loc := e.im.cursor()
	e.im.writeHalfWord(0)
	e.im.unresolved = append(e.im.unresolved, UnresolvedReference{
		Target:   Target{Kind: TargetLabel, ID: uint32(target)},
		Location: loc,
		Width:    2,
		Kind:     PatchJumpOffset,
	})
}

func (e *instructionEmitter) emitLabelAddr(id ir.Id) {
	e.im.setAddress(Target{Kind: TargetLabel, ID: uint32(id)}, e.im.cursor())
}

// emitStoreInstr writes a 2OP store. Its first operand names the
// destination variable by NUMBER (an indirect reference, encoded as a
// small constant) - encoding it as a variable-type operand would make the
// runtime dereference it and store through whatever value it held.
func (e *instructionEmitter) emitStoreInstr(dest ir.VarRef, value ir.Operand) {
	e.emitVariableForm(false, opStore, []ir.Operand{ir.ConstOperand(uint16(varNumber(dest))), value})
}

func (e *instructionEmitter) emitInstruction(instr ir.Instruction) error {
	switch instr.Op {
	case ir.OpLoadConst, ir.OpLoadVar, ir.OpStoreVar:
		e.emitStoreInstr(instr.Dest, instr.Value)

	case ir.OpBinary:
		return e.emitBinary(instr)

	case ir.OpUnary:
		return e.emitUnary(instr)

	case ir.OpCall:
		return e.emitCall(instr)

	case ir.OpReturn:
		val := instr.Value
		if !instr.HasValue {
			val = ir.ConstOperand(1) // rtrue
		}
		e.emitShortForm(opRet, &val)

	case ir.OpBranchIf:
		return e.emitBranchIf(instr)

	case ir.OpJump:
		e.emitJumpTo(instr.JumpTarget)

	case ir.OpLabel:
		e.emitLabelAddr(instr.Label)

	case ir.OpGetProp:
		e.emitVariableForm(false, opGetProp, []ir.Operand{instr.Object, ir.ConstOperand(uint16(instr.PropNumber))})
		e.emitStore(storeTarget(instr.Store))

	case ir.OpSetProp:
		e.emitVariableForm(true, 3 /* put_prop */, []ir.Operand{instr.Object, ir.ConstOperand(uint16(instr.PropNumber)), instr.Value})

	case ir.OpObject:
		return e.emitObjectOp(instr)

	case ir.OpPrint:
		strOperand := ir.StringOperand(instr.String)
		e.emitShortForm(opPrintPAddr, &strOperand)

	case ir.OpPrintNum:
		e.emitVariableForm(true, opPrintNum, []ir.Operand{instr.Num})

	case ir.OpPrintObj:
		e.emitShortForm(opPrintObj, &instr.Obj)

	case ir.OpNewline:
		e.emitShortForm(opNewLine, nil)

	case ir.OpReadInput:
		e.emitVariableForm(true, opSRead, []ir.Operand{instr.TextBuffer, instr.ParseBuffer})

	case ir.OpSystem:
		e.emitSystem(instr)
	}

	return nil
}

var binArithOpcode = map[ir.BinOp]byte{
	ir.BinAdd: opAdd,
	ir.BinSub: opSub,
	ir.BinMul: opMul,
	ir.BinDiv: opDiv,
	ir.BinMod: opMod,
	ir.BinAnd: opAnd,
	ir.BinOr:  opOr,
}

func (e *instructionEmitter) emitBinary(instr ir.Instruction) error {
	opcode, ok := binArithOpcode[instr.BinOp]
	if !ok {
		return fatalf(KindStructural, 0, e.im.cursor(), "binary op %d has no value-producing Z-Machine instruction (comparisons belong in OpBranchIf)", instr.BinOp)
	}
	if len(instr.Operands) != 2 {
		return fatalf(KindStructural, 0, e.im.cursor(), "binary op %d requires exactly 2 operands, got %d", instr.BinOp, len(instr.Operands))
	}
	e.emitVariableForm(false, opcode, instr.Operands)
	e.emitStore(storeTarget(instr.Store))
	return nil
}

func (e *instructionEmitter) emitUnary(instr ir.Instruction) error {
	if len(instr.Operands) != 1 {
		return fatalf(KindStructural, 0, e.im.cursor(), "unary op %d requires exactly 1 operand, got %d", instr.UnOp, len(instr.Operands))
	}
	dest := storeTarget(instr.Store)

	switch instr.UnOp {
	case ir.UnNot:
		e.emitShortForm(opNot1OP, &instr.Operands[0])
		e.emitStore(dest)
		return nil

	case ir.UnIsZero:
		// Z-Machine has no value-producing "is zero" instruction, only the
		// branching jz, so synthesize store dest,0 / jz -> store dest,1.
		trueLabel := e.newSynthLabel()
		endLabel := e.newSynthLabel()

		e.emitShortForm(opJZ, &instr.Operands[0])
		e.emitBranch(trueLabel, true)
		e.emitStoreInstr(dest, ir.ConstOperand(0))
		e.emitJumpTo(endLabel)
		e.emitLabelAddr(trueLabel)
		e.emitStoreInstr(dest, ir.ConstOperand(1))
		e.emitLabelAddr(endLabel)
		return nil

	default:
		return fatalf(KindStructural, 0, e.im.cursor(), "unknown unary op %d", instr.UnOp)
	}
}

func (e *instructionEmitter) emitCall(instr ir.Instruction) error {
	if len(instr.Args) > 3 {
		return fatalf(KindOverflow, uint32(instr.Callee), e.im.cursor(), "call to function %d passes %d arguments, V3's call_vs supports at most 3", instr.Callee, len(instr.Args))
	}
	operands := make([]ir.Operand, 0, 1+len(instr.Args))
	operands = append(operands, ir.FuncOperand(instr.Callee))
	operands = append(operands, instr.Args...)
	e.emitVariableForm(true, opCallVS, operands)
	e.emitStore(storeTarget(instr.Store))
	return nil
}

var branchCondOpcode = map[ir.BinOp]byte{
	ir.BinEqual:       opJE,
	ir.BinLess:        opJL,
	ir.BinGreater:     opJG,
	ir.BinTestBitmap:  opTest,
	ir.BinTestAttr:    opTestAttr,
	ir.BinParentIs:    opJIN,
}

func (e *instructionEmitter) emitBranchIf(instr ir.Instruction) error {
	opcode, ok := branchCondOpcode[instr.Cond]
	if !ok {
		return fatalf(KindStructural, 0, e.im.cursor(), "condition %d has no matching Z-Machine branch instruction", instr.Cond)
	}
	e.emitVariableForm(false, opcode, instr.CondOperands)
	e.emitBranch(instr.Target, instr.OnTrue)
	return nil
}

func (e *instructionEmitter) emitObjectOp(instr ir.Instruction) error {
	switch instr.ObjOp {
	case ir.ObjMove:
		e.emitVariableForm(false, opInsertObj, []ir.Operand{instr.ObjTarget, instr.ObjArg})
	case ir.ObjRemove:
		e.emitShortForm(opRemoveObj, &instr.ObjTarget)
	case ir.ObjSetAttr:
		e.emitVariableForm(false, opSetAttr, []ir.Operand{instr.ObjTarget, instr.ObjArg})
	case ir.ObjClearAttr:
		e.emitVariableForm(false, opClearAttr, []ir.Operand{instr.ObjTarget, instr.ObjArg})
	default:
		return fatalf(KindStructural, 0, e.im.cursor(), "unknown object op %d", instr.ObjOp)
	}
	return nil
}

func (e *instructionEmitter) emitSystem(instr ir.Instruction) {
	switch instr.Sys {
	case ir.SysQuit:
		e.im.writeByte(0b1011_0000 | opQuit)
	case ir.SysVerify:
		// verify is a branch instruction; route its success branch to the
		// instruction that follows, so both outcomes fall through and the
		// op stays neutral wherever it sits in a routine body. The offset
		// resolves to 2, safely past the reserved 0/1 encodings.
		cont := e.newSynthLabel()
		e.im.writeByte(0b1011_0000 | opVerify)
		e.emitBranch(cont, true)
		e.emitLabelAddr(cont)
	}
}
