package codegen

import (
	"fmt"
	"strings"

	"github.com/SuperJPcoder/katappa/internal/ast"
)

// ---------------------------------------------------------------------------
// Instruction IR — the flat form the emitter renders as assembly
// ---------------------------------------------------------------------------

// CmpOp is a signed 64-bit comparison operator in condition position.
type CmpOp string

const (
	CmpEq CmpOp = "=="
	CmpNe CmpOp = "!="
	CmpLt CmpOp = "<"
	CmpGt CmpOp = ">"
	CmpLe CmpOp = "<="
	CmpGe CmpOp = ">="
)

// cmpInverse negates a comparison. The table is exhaustive over the six
// operators and self-inverse: inverting twice yields the original. A when
// or loop jumps past its body on the INVERTED sense of its condition, so
// a wrong entry here silently flips program semantics.
var cmpInverse = map[CmpOp]CmpOp{
	CmpEq: CmpNe,
	CmpNe: CmpEq,
	CmpLt: CmpGe,
	CmpGe: CmpLt,
	CmpGt: CmpLe,
	CmpLe: CmpGt,
}

// cmpJump maps a comparison to the conditional-jump mnemonic taken when
// the comparison holds.
var cmpJump = map[CmpOp]string{
	CmpEq: "je",
	CmpNe: "jne",
	CmpLt: "jl",
	CmpGt: "jg",
	CmpLe: "jle",
	CmpGe: "jge",
}

// ParseCmpOp maps an operator spelling to its CmpOp, reporting whether
// the spelling is one of the six supported comparisons.
func ParseCmpOp(s string) (CmpOp, bool) {
	op := CmpOp(s)
	_, ok := cmpInverse[op]
	return op, ok
}

// Invert returns the negation of the comparison.
func (op CmpOp) Invert() CmpOp {
	return cmpInverse[op]
}

// JumpIfFalse returns the mnemonic that jumps when the comparison does
// NOT hold, used for the skip branch of when and loop.
func (op CmpOp) JumpIfFalse() string {
	return cmpJump[op.Invert()]
}

// OpKind discriminates Operand.
type OpKind int

const (
	OpNone OpKind = iota
	OpImmediate
	OpField
	OpVirtReg
	OpStringRef
	OpLabel
)

// Operand is one instruction argument: an immediate, a named field slot,
// a spilled expression temporary, a string constant or a jump target.
type Operand struct {
	Kind  OpKind
	Imm   int64
	Field string
	Reg   int
	Label string
}

func None() Operand                { return Operand{Kind: OpNone} }
func Imm(v int64) Operand          { return Operand{Kind: OpImmediate, Imm: v} }
func FieldRef(name string) Operand { return Operand{Kind: OpField, Field: name} }
func VReg(n int) Operand           { return Operand{Kind: OpVirtReg, Reg: n} }
func StrRef(label string) Operand  { return Operand{Kind: OpStringRef, Label: label} }
func LabelOp(name string) Operand  { return Operand{Kind: OpLabel, Label: name} }

func (o Operand) String() string {
	switch o.Kind {
	case OpImmediate:
		return fmt.Sprintf("%d", o.Imm)
	case OpField:
		return "." + o.Field
	case OpVirtReg:
		return fmt.Sprintf("v%d", o.Reg)
	case OpStringRef:
		return "str:" + o.Label
	case OpLabel:
		return o.Label
	default:
		return "_"
	}
}

// IROp is the opcode of one flat instruction.
type IROp int

const (
	IRMov IROp = iota
	IRAdd
	IRSub
	IRMul
	IRDiv
	IRBranchFalse // compare Src1 with Src2, jump to Dst when Cmp is false
	IRJmp
	IRLabel
	IRPrintInt
	IRPrintStr
	IRRet
)

var irOpNames = map[IROp]string{
	IRMov:         "mov",
	IRAdd:         "add",
	IRSub:         "sub",
	IRMul:         "mul",
	IRDiv:         "div",
	IRBranchFalse: "brfalse",
	IRJmp:         "jmp",
	IRLabel:       "label",
	IRPrintInt:    "print.int",
	IRPrintStr:    "print.str",
	IRRet:         "ret",
}

func (op IROp) String() string {
	if n, ok := irOpNames[op]; ok {
		return n
	}
	return fmt.Sprintf("op%d", int(op))
}

// IRInstr is one flat instruction. Cmp is set only for IRBranchFalse.
type IRInstr struct {
	Op   IROp
	Cmp  CmpOp
	Dst  Operand
	Src1 Operand
	Src2 Operand
	Pos  ast.Position
}

// StringConst is one deduplicated read-only string.
type StringConst struct {
	Label string
	Value string
}

// IRFunc holds the instruction stream of the single program entry point.
type IRFunc struct {
	Name   string
	Instrs []IRInstr
	Frame  *Frame
	VRegs  int // number of spilled expression temporaries
}

func (f *IRFunc) Emit(in IRInstr) {
	f.Instrs = append(f.Instrs, in)
}

// IRModule is a lowered program: one entry function plus its string pool.
type IRModule struct {
	Main     *IRFunc
	Strings  []StringConst
	strIndex map[string]string
}

func NewModule() *IRModule {
	return &IRModule{
		Main:     &IRFunc{Name: "main", Frame: NewFrame()},
		strIndex: make(map[string]string),
	}
}

// AddString interns a string constant, labelling it through the shared
// label generator so string labels and jump labels never collide.
// Identical values share one entry.
func (m *IRModule) AddString(value string, labels *LabelGen) (string, error) {
	if label, ok := m.strIndex[value]; ok {
		return label, nil
	}
	label, err := labels.Next("STR")
	if err != nil {
		return "", err
	}
	m.strIndex[value] = label
	m.Strings = append(m.Strings, StringConst{Label: label, Value: value})
	return label, nil
}

// DebugDump renders the module in a readable form for --debug output.
func (m *IRModule) DebugDump() string {
	var b strings.Builder
	for _, s := range m.Strings {
		fmt.Fprintf(&b, "string %s = %q\n", s.Label, s.Value)
	}
	fmt.Fprintf(&b, "func %s (fields=%d temps=%d)\n", m.Main.Name, m.Main.Frame.SlotCount(), m.Main.VRegs)
	for _, in := range m.Main.Instrs {
		switch in.Op {
		case IRLabel:
			fmt.Fprintf(&b, "%s:\n", in.Dst.Label)
		case IRBranchFalse:
			fmt.Fprintf(&b, "  %s %s %s %s -> %s\n", in.Op, in.Src1, in.Cmp, in.Src2, in.Dst.Label)
		case IRJmp:
			fmt.Fprintf(&b, "  %s -> %s\n", in.Op, in.Dst.Label)
		default:
			fmt.Fprintf(&b, "  %s %s, %s, %s\n", in.Op, in.Dst, in.Src1, in.Src2)
		}
	}
	return b.String()
}
