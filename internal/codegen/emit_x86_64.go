package codegen

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// x86-64 emission — GAS/AT&T for Linux and macOS, NASM/Intel for Windows
// ---------------------------------------------------------------------------

// numFmtLabel names the shared printf format string for integer output.
const numFmtLabel = ".LC_NUM_FMT"

// numFmtValue prints one signed 64-bit integer followed by a newline.
const numFmtValue = "%lld\n"

// strFmtLabel names the shared printf format string for string output.
const strFmtLabel = ".LC_STR_FMT"

// strFmtValue prints one string followed by a newline. String literals
// are never passed as the format argument themselves, so a literal
// containing % cannot corrupt the call.
const strFmtValue = "%s\n"

// EmitX86_64 renders the lowered module as assembly text for the target.
// The output is a pure function of the module, so re-emitting the same
// module yields byte-identical text.
func EmitX86_64(mod *IRModule, target *Target) (string, error) {
	e := &x86_64Emitter{mod: mod, target: target}
	if target.Flavor == NASM {
		e.emitNASM()
	} else {
		e.emitGAS()
	}
	if e.err != nil {
		return "", e.err
	}
	return e.b.String(), nil
}

type x86_64Emitter struct {
	mod    *IRModule
	target *Target
	b      strings.Builder
	err    *Error
}

func (e *x86_64Emitter) fail(in IRInstr, format string, args ...any) {
	if e.err == nil {
		e.err = errorf(EmissionInternal, in.Pos, format, args...)
	}
}

func (e *x86_64Emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.b, format+"\n", args...)
}

// fieldOffset resolves a field operand against the frame. Every field was
// allocated during lowering, so a miss here is an internal fault.
func (e *x86_64Emitter) fieldOffset(in IRInstr, name string) int {
	off, err := e.mod.Main.Frame.Lookup(name)
	if err != nil {
		e.fail(in, "field .%s has no frame slot", name)
		return 0
	}
	return off
}

// vregOffset places expression temporaries in the slots below the fields.
func (e *x86_64Emitter) vregOffset(reg int) int {
	return -(e.mod.Main.Frame.SlotCount() + reg + 1) * slotSize
}

// frameSize covers the field slots plus all spilled temporaries, rounded
// up to the 16-byte boundary the ABI demands at call sites.
func (e *x86_64Emitter) frameSize() int {
	return alignFrame((e.mod.Main.Frame.SlotCount() + e.mod.Main.VRegs) * slotSize)
}

// ---------------------------------------------------------------------------
// GAS / AT&T (Linux, macOS)
// ---------------------------------------------------------------------------

func (e *x86_64Emitter) emitGAS() {
	t := e.target

	if t.OS == OSDarwin {
		e.line("\t.section __TEXT,__cstring,cstring_literals")
	} else {
		e.line("\t.section .rodata")
	}
	for _, s := range e.mod.Strings {
		e.line("%s:", s.Label)
		e.line("\t.asciz %s", gasQuoteString(s.Value))
	}
	e.line("%s:", numFmtLabel)
	e.line("\t.asciz %s", gasQuoteString(numFmtValue))
	e.line("%s:", strFmtLabel)
	e.line("\t.asciz %s", gasQuoteString(strFmtValue))

	e.line("")
	e.line("\t.text")
	e.line("\t.globl %s", t.Sym("main"))
	e.line("%s:", t.Sym("main"))
	e.line("\tpushq %%rbp")
	e.line("\tmovq %%rsp, %%rbp")
	if size := e.frameSize(); size > 0 {
		e.line("\tsubq $%d, %%rsp", size)
	}

	for _, in := range e.mod.Main.Instrs {
		e.gasInstr(in)
		if e.err != nil {
			return
		}
	}
}

func (e *x86_64Emitter) gasInstr(in IRInstr) {
	t := e.target
	switch in.Op {
	case IRMov:
		if in.Src1.Kind == OpImmediate && fitsInt32(in.Src1.Imm) {
			e.line("\tmovq $%d, %s", in.Src1.Imm, e.gasMem(in, in.Dst))
		} else {
			e.gasLoad(in, in.Src1, "rax")
			e.line("\tmovq %%rax, %s", e.gasMem(in, in.Dst))
		}
	case IRAdd, IRSub, IRMul:
		mnemonic := map[IROp]string{IRAdd: "addq", IRSub: "subq", IRMul: "imulq"}[in.Op]
		e.gasLoad(in, in.Src1, "rax")
		e.line("\t%s %s, %%rax", mnemonic, e.gasRHS(in, in.Src2))
		e.line("\tmovq %%rax, %s", e.gasMem(in, in.Dst))
	case IRDiv:
		e.gasLoad(in, in.Src1, "rax")
		e.gasLoad(in, in.Src2, "rbx")
		e.line("\tcqto")
		e.line("\tidivq %%rbx")
		e.line("\tmovq %%rax, %s", e.gasMem(in, in.Dst))
	case IRBranchFalse:
		e.gasLoad(in, in.Src1, "rax")
		e.line("\tcmpq %s, %%rax", e.gasRHS(in, in.Src2))
		e.line("\t%s %s", in.Cmp.JumpIfFalse(), in.Dst.Label)
	case IRJmp:
		e.line("\tjmp %s", in.Dst.Label)
	case IRLabel:
		e.line("%s:", in.Dst.Label)
	case IRPrintInt:
		e.line("\tleaq %s(%%rip), %%%s", numFmtLabel, t.ArgRegs[0])
		e.gasLoad(in, in.Src1, t.ArgRegs[1])
		e.gasCallPrintf()
	case IRPrintStr:
		if in.Src1.Kind != OpStringRef {
			e.fail(in, "print.str operand is %s, want string ref", in.Src1)
			return
		}
		e.line("\tleaq %s(%%rip), %%%s", strFmtLabel, t.ArgRegs[0])
		e.line("\tleaq %s(%%rip), %%%s", in.Src1.Label, t.ArgRegs[1])
		e.gasCallPrintf()
	case IRRet:
		e.line("\tmovq $%d, %%rax", in.Src1.Imm)
		e.line("\tleave")
		e.line("\tret")
	default:
		e.fail(in, "unsupported instruction %s", in.Op)
	}
}

// gasCallPrintf sequences the variadic call: rax holds the vector-register
// count (zero) and the shadow space, when the target has one, wraps the
// call.
func (e *x86_64Emitter) gasCallPrintf() {
	t := e.target
	if t.ShadowSpace > 0 {
		e.line("\tsubq $%d, %%rsp", t.ShadowSpace)
	}
	e.line("\txorl %%eax, %%eax")
	e.line("\tcall %s", t.Sym("printf"))
	if t.ShadowSpace > 0 {
		e.line("\taddq $%d, %%rsp", t.ShadowSpace)
	}
}

// gasLoad loads an operand into the named register. Immediates that do
// not sign-extend from 32 bits need movabsq.
func (e *x86_64Emitter) gasLoad(in IRInstr, o Operand, reg string) {
	if o.Kind == OpImmediate {
		if fitsInt32(o.Imm) {
			e.line("\tmovq $%d, %%%s", o.Imm, reg)
		} else {
			e.line("\tmovabsq $%d, %%%s", o.Imm, reg)
		}
		return
	}
	e.line("\tmovq %s, %%%s", e.gasMem(in, o), reg)
}

// gasRHS renders the second operand of an ALU or compare instruction.
// cmpq and the ALU ops only encode 32-bit immediates, so anything wider
// detours through the %rbx scratch register.
func (e *x86_64Emitter) gasRHS(in IRInstr, o Operand) string {
	if o.Kind == OpImmediate {
		if !fitsInt32(o.Imm) {
			e.line("\tmovabsq $%d, %%rbx", o.Imm)
			return "%rbx"
		}
		return fmt.Sprintf("$%d", o.Imm)
	}
	return e.gasMem(in, o)
}

// gasMem renders a field or temporary as its rbp-relative slot.
func (e *x86_64Emitter) gasMem(in IRInstr, o Operand) string {
	switch o.Kind {
	case OpField:
		return fmt.Sprintf("%d(%%rbp)", e.fieldOffset(in, o.Field))
	case OpVirtReg:
		return fmt.Sprintf("%d(%%rbp)", e.vregOffset(o.Reg))
	default:
		e.fail(in, "operand %s is not addressable", o)
		return "0(%rbp)"
	}
}

func fitsInt32(v int64) bool {
	return v >= -(1<<31) && v < (1<<31)
}

// gasQuoteString escapes a string for an .asciz directive, using octal
// escapes for anything outside printable ASCII.
func gasQuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(&b, "\\%03o", c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ---------------------------------------------------------------------------
// NASM / Intel (Windows)
// ---------------------------------------------------------------------------

// nasmLabel strips the leading dot; NASM treats .name as a local label.
func nasmLabel(l string) string {
	return strings.TrimPrefix(l, ".")
}

func (e *x86_64Emitter) emitNASM() {
	e.line("bits 64")
	e.line("default rel")
	e.line("")
	e.line("global main")
	e.line("extern printf")
	e.line("")
	e.line("section .rdata rdata align=8")
	for _, s := range e.mod.Strings {
		e.line("%s:", nasmLabel(s.Label))
		e.line("\tdb %s", nasmQuoteString(s.Value))
	}
	e.line("%s:", nasmLabel(numFmtLabel))
	e.line("\tdb %s", nasmQuoteString(numFmtValue))
	e.line("%s:", nasmLabel(strFmtLabel))
	e.line("\tdb %s", nasmQuoteString(strFmtValue))

	e.line("")
	e.line("section .text")
	e.line("main:")
	e.line("\tpush rbp")
	e.line("\tmov rbp, rsp")
	if size := e.frameSize(); size > 0 {
		e.line("\tsub rsp, %d", size)
	}

	for _, in := range e.mod.Main.Instrs {
		e.nasmInstr(in)
		if e.err != nil {
			return
		}
	}
}

func (e *x86_64Emitter) nasmInstr(in IRInstr) {
	t := e.target
	switch in.Op {
	case IRMov:
		if in.Src1.Kind == OpImmediate && fitsInt32(in.Src1.Imm) {
			e.line("\tmov qword %s, %d", e.nasmMem(in, in.Dst), in.Src1.Imm)
		} else {
			e.nasmLoad(in, in.Src1, "rax")
			e.line("\tmov %s, rax", e.nasmMem(in, in.Dst))
		}
	case IRAdd, IRSub, IRMul:
		mnemonic := map[IROp]string{IRAdd: "add", IRSub: "sub", IRMul: "imul"}[in.Op]
		e.nasmLoad(in, in.Src1, "rax")
		e.line("\t%s rax, %s", mnemonic, e.nasmRHS(in, in.Src2))
		e.line("\tmov %s, rax", e.nasmMem(in, in.Dst))
	case IRDiv:
		e.nasmLoad(in, in.Src1, "rax")
		e.nasmLoad(in, in.Src2, "rbx")
		e.line("\tcqo")
		e.line("\tidiv rbx")
		e.line("\tmov %s, rax", e.nasmMem(in, in.Dst))
	case IRBranchFalse:
		e.nasmLoad(in, in.Src1, "rax")
		e.line("\tcmp rax, %s", e.nasmRHS(in, in.Src2))
		e.line("\t%s %s", in.Cmp.JumpIfFalse(), nasmLabel(in.Dst.Label))
	case IRJmp:
		e.line("\tjmp %s", nasmLabel(in.Dst.Label))
	case IRLabel:
		e.line("%s:", nasmLabel(in.Dst.Label))
	case IRPrintInt:
		e.line("\tlea %s, [%s]", t.ArgRegs[0], nasmLabel(numFmtLabel))
		e.nasmLoad(in, in.Src1, t.ArgRegs[1])
		e.nasmCallPrintf()
	case IRPrintStr:
		if in.Src1.Kind != OpStringRef {
			e.fail(in, "print.str operand is %s, want string ref", in.Src1)
			return
		}
		e.line("\tlea %s, [%s]", t.ArgRegs[0], nasmLabel(strFmtLabel))
		e.line("\tlea %s, [%s]", t.ArgRegs[1], nasmLabel(in.Src1.Label))
		e.nasmCallPrintf()
	case IRRet:
		e.line("\tmov rax, %d", in.Src1.Imm)
		e.line("\tleave")
		e.line("\tret")
	default:
		e.fail(in, "unsupported instruction %s", in.Op)
	}
}

func (e *x86_64Emitter) nasmCallPrintf() {
	t := e.target
	if t.ShadowSpace > 0 {
		e.line("\tsub rsp, %d", t.ShadowSpace)
	}
	e.line("\txor eax, eax")
	e.line("\tcall printf")
	if t.ShadowSpace > 0 {
		e.line("\tadd rsp, %d", t.ShadowSpace)
	}
}

// nasmLoad loads an operand into the named register; NASM encodes
// mov r64, imm64 directly.
func (e *x86_64Emitter) nasmLoad(in IRInstr, o Operand, reg string) {
	if o.Kind == OpImmediate {
		e.line("\tmov %s, %d", reg, o.Imm)
		return
	}
	e.line("\tmov %s, %s", reg, e.nasmMem(in, o))
}

// nasmRHS renders the second operand of an ALU or compare instruction,
// detouring immediates wider than 32 bits through rbx.
func (e *x86_64Emitter) nasmRHS(in IRInstr, o Operand) string {
	if o.Kind == OpImmediate {
		if !fitsInt32(o.Imm) {
			e.line("\tmov rbx, %d", o.Imm)
			return "rbx"
		}
		return fmt.Sprintf("%d", o.Imm)
	}
	return e.nasmMem(in, o)
}

func (e *x86_64Emitter) nasmMem(in IRInstr, o Operand) string {
	switch o.Kind {
	case OpField:
		return fmt.Sprintf("[rbp%d]", e.fieldOffset(in, o.Field))
	case OpVirtReg:
		return fmt.Sprintf("[rbp%d]", e.vregOffset(o.Reg))
	default:
		e.fail(in, "operand %s is not addressable", o)
		return "[rbp]"
	}
}

// nasmQuoteString renders a string as numeric db bytes with a NUL
// terminator, sidestepping NASM quoting rules entirely.
func nasmQuoteString(s string) string {
	parts := make([]string, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		parts = append(parts, fmt.Sprintf("%d", s[i]))
	}
	parts = append(parts, "0")
	return strings.Join(parts, ", ")
}
