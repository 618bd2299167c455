package ir

// Op tags the variant an Instruction belongs to. Codegen's instruction
// emitter dispatches on this tag; it is a closed set, not modelled as a
// class hierarchy.
type Op uint8

const (
	OpLoadConst Op = iota
	OpLoadVar
	OpStoreVar
	OpBinary
	OpUnary
	OpCall
	OpReturn
	OpBranchIf
	OpJump
	OpLabel
	OpGetProp
	OpSetProp
	OpObject
	OpPrint
	OpPrintNum
	OpPrintObj
	OpNewline
	OpReadInput
	OpSystem
)

// VarKind distinguishes the three Z-Machine variable address spaces.
type VarKind uint8

const (
	VarStack VarKind = iota
	VarLocal
	VarGlobal
)

// VarRef names a variable by primitive index, per §3: "primitive
// (constant/variable index)". Index is 0-based for locals and globals;
// ignored for VarStack.
type VarRef struct {
	Kind  VarKind
	Index uint8
}

// OperandKind distinguishes an instruction operand named by raw constant,
// variable reference, or IR id (function/string/object/label).
type OperandKind uint8

const (
	OperandConst OperandKind = iota
	OperandVar
	OperandFunction
	OperandString
	OperandObject
	OperandLabel
)

type Operand struct {
	Kind  OperandKind
	Const uint16
	Var   VarRef
	Ref   Id
}

func ConstOperand(v uint16) Operand { return Operand{Kind: OperandConst, Const: v} }
func VarOperand(v VarRef) Operand   { return Operand{Kind: OperandVar, Var: v} }
func FuncOperand(id Id) Operand     { return Operand{Kind: OperandFunction, Ref: id} }
func StringOperand(id Id) Operand   { return Operand{Kind: OperandString, Ref: id} }
func ObjectOperand(id Id) Operand   { return Operand{Kind: OperandObject, Ref: id} }
func LabelOperand(id Id) Operand    { return Operand{Kind: OperandLabel, Ref: id} }

// BinOp is the opcode for OpBinary.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinEqual
	BinLess
	BinGreater
	BinTestBitmap // "test" - bitmap & flags == flags
	BinTestAttr   // object attribute test, operand[0]=object operand[1]=attr number
	BinParentIs   // jin: operand[0] child object, operand[1] candidate parent
)

// UnOp is the opcode for OpUnary.
type UnOp uint8

const (
	UnNot UnOp = iota
	UnIsZero
)

// ObjOp is the opcode for OpObject, the object-manipulation family (move,
// remove, attribute set/clear).
type ObjOp uint8

const (
	ObjMove ObjOp = iota
	ObjRemove
	ObjSetAttr
	ObjClearAttr
)

// SysOp is the opcode for OpSystem, miscellaneous VM-control instructions
// with no operands worth modelling individually.
type SysOp uint8

const (
	SysQuit SysOp = iota
	SysVerify
)

// Instruction is a single tagged-variant IR instruction. Only the fields
// relevant to Op are populated; callers should not assume zero value of an
// unrelated field carries meaning.
type Instruction struct {
	Op Op

	// OpLoadConst / OpLoadVar / OpStoreVar
	Value Operand
	Dest  VarRef

	// OpBinary / OpUnary / OpCall / OpGetProp (Store is shared across every
	// value-producing variant - only one is ever active per Op tag)
	BinOp    BinOp
	UnOp     UnOp
	Operands []Operand
	Store    *VarRef // nil => result discarded

	// OpCall
	Callee Id
	Args   []Operand

	// OpReturn - absent Value defaults to "return true" (rtrue)
	HasValue bool

	// OpBranchIf
	Cond         BinOp
	CondOperands []Operand
	Target       Id // label id
	OnTrue       bool

	// OpJump
	JumpTarget Id

	// OpLabel
	Label Id

	// OpGetProp / OpSetProp
	Object     Operand
	PropNumber uint8

	// OpObject
	ObjOp     ObjOp
	ObjTarget Operand
	ObjArg    Operand // new parent for Move, attribute number for Set/ClearAttr

	// OpPrint
	String Id

	// OpPrintNum / OpPrintObj
	Num Operand
	Obj Operand

	// OpReadInput
	TextBuffer  Operand
	ParseBuffer Operand

	// OpSystem
	Sys SysOp
}
