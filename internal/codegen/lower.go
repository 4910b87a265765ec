package codegen

import "github.com/SuperJPcoder/katappa/internal/ast"

// ---------------------------------------------------------------------------
// Lowering — AST to the flat instruction IR
// ---------------------------------------------------------------------------

// Lowerer walks the program in statement order and produces the flat IR.
// All mutable counters (labels, frame slots, temporaries) live here, so a
// fresh Lowerer over the same AST yields an identical module.
type Lowerer struct {
	mod      *IRModule
	fn       *IRFunc
	labels   *LabelGen
	nextVReg int
	loopEnds []string // innermost last; stop jumps to the top entry
}

// Lower converts the validated program into an IRModule. The first
// malformed statement aborts lowering with a fatal *Error.
func Lower(prog *ast.Program) (*IRModule, error) {
	l := &Lowerer{mod: NewModule(), labels: &LabelGen{}}
	l.fn = l.mod.Main

	for _, s := range prog.Stmts {
		if err := l.lowerStmt(s); err != nil {
			return nil, err
		}
	}

	l.fn.Emit(IRInstr{Op: IRRet, Src1: Imm(0)})
	l.fn.VRegs = l.nextVReg
	return l.mod, nil
}

func (l *Lowerer) lowerStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.AssignStmt:
		return l.lowerAssign(s)
	case *ast.PrintStmt:
		return l.lowerPrint(s)
	case *ast.WhenStmt:
		return l.lowerWhen(s)
	case *ast.LoopStmt:
		return l.lowerLoop(s)
	case *ast.StopStmt:
		return l.lowerStop(s)
	case *ast.BlockStmt:
		return l.lowerBlock(s)
	default:
		return errorf(EmissionInternal, s.GetPos(), "unsupported statement %T", s)
	}
}

func (l *Lowerer) lowerBlock(b *ast.BlockStmt) error {
	for _, s := range b.Stmts {
		if err := l.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) lowerAssign(s *ast.AssignStmt) error {
	src, err := l.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	// The first assignment to a field reserves its frame slot.
	if _, err := l.fn.Frame.Allocate(s.Field); err != nil {
		return at(err, s.Pos)
	}
	l.fn.Emit(IRInstr{Op: IRMov, Dst: FieldRef(s.Field), Src1: src, Pos: s.Pos})
	return nil
}

func (l *Lowerer) lowerPrint(s *ast.PrintStmt) error {
	if lit, ok := s.Value.(*ast.StringLitExpr); ok {
		label, err := l.mod.AddString(lit.Value, l.labels)
		if err != nil {
			return at(err, s.Pos)
		}
		l.fn.Emit(IRInstr{Op: IRPrintStr, Src1: StrRef(label), Pos: s.Pos})
		return nil
	}
	val, err := l.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	l.fn.Emit(IRInstr{Op: IRPrintInt, Src1: val, Pos: s.Pos})
	return nil
}

// lowerWhen emits the skip branch on the inverted condition. A when
// without an other-block consumes one label, a when with one consumes
// two.
func (l *Lowerer) lowerWhen(s *ast.WhenStmt) error {
	endLabel, err := l.labels.Next("END_WHEN")
	if err != nil {
		return at(err, s.Pos)
	}

	skipTarget := endLabel
	elseLabel := ""
	if s.Other != nil {
		elseLabel, err = l.labels.Next("ELSE")
		if err != nil {
			return at(err, s.Pos)
		}
		skipTarget = elseLabel
	}

	if err := l.lowerCondBranch(s.Condition, skipTarget); err != nil {
		return err
	}
	if err := l.lowerBlock(s.Then); err != nil {
		return err
	}

	if s.Other != nil {
		l.fn.Emit(IRInstr{Op: IRJmp, Dst: LabelOp(endLabel), Pos: s.Pos})
		l.fn.Emit(IRInstr{Op: IRLabel, Dst: LabelOp(elseLabel)})
		if err := l.lowerBlock(s.Other); err != nil {
			return err
		}
	}
	l.fn.Emit(IRInstr{Op: IRLabel, Dst: LabelOp(endLabel)})
	return nil
}

// lowerLoop emits a pre-test loop: the condition runs before every pass,
// including the first, and a false condition jumps straight to the end.
func (l *Lowerer) lowerLoop(s *ast.LoopStmt) error {
	startLabel, err := l.labels.Next("LOOP_START")
	if err != nil {
		return at(err, s.Pos)
	}
	endLabel, err := l.labels.Next("LOOP_END")
	if err != nil {
		return at(err, s.Pos)
	}

	l.fn.Emit(IRInstr{Op: IRLabel, Dst: LabelOp(startLabel)})
	if err := l.lowerCondBranch(s.Condition, endLabel); err != nil {
		return err
	}

	l.loopEnds = append(l.loopEnds, endLabel)
	err = l.lowerBlock(s.Body)
	l.loopEnds = l.loopEnds[:len(l.loopEnds)-1]
	if err != nil {
		return err
	}

	l.fn.Emit(IRInstr{Op: IRJmp, Dst: LabelOp(startLabel), Pos: s.Pos})
	l.fn.Emit(IRInstr{Op: IRLabel, Dst: LabelOp(endLabel)})
	return nil
}

func (l *Lowerer) lowerStop(s *ast.StopStmt) error {
	if len(l.loopEnds) == 0 {
		// Semantic analysis rejects this before lowering.
		return errorf(EmissionInternal, s.Pos, "stop statement outside of loop reached the backend")
	}
	l.fn.Emit(IRInstr{Op: IRJmp, Dst: LabelOp(l.loopEnds[len(l.loopEnds)-1]), Pos: s.Pos})
	return nil
}

// lowerCondBranch lowers a condition and emits the branch taken when it
// is FALSE, jumping to target.
func (l *Lowerer) lowerCondBranch(cond ast.Expr, target string) error {
	cmp, ok := cond.(*ast.CompareExpr)
	if !ok {
		return errorf(InvalidComparison, cond.GetPos(), "condition must be a comparison, got %s", ast.ExprString(cond))
	}
	op, ok := ParseCmpOp(cmp.Op)
	if !ok {
		return errorf(InvalidComparison, cmp.Pos, "unsupported comparison operator %q", cmp.Op)
	}
	lhs, err := l.lowerExpr(cmp.Left)
	if err != nil {
		return err
	}
	rhs, err := l.lowerExpr(cmp.Right)
	if err != nil {
		return err
	}
	l.fn.Emit(IRInstr{Op: IRBranchFalse, Cmp: op, Src1: lhs, Src2: rhs, Dst: LabelOp(target), Pos: cmp.Pos})
	return nil
}

// lowerExpr reduces an expression to a single operand, spilling nested
// arithmetic into numbered temporaries.
func (l *Lowerer) lowerExpr(e ast.Expr) (Operand, error) {
	switch e := e.(type) {
	case *ast.IntLitExpr:
		return Imm(e.Value), nil
	case *ast.FieldExpr:
		if _, err := l.fn.Frame.Lookup(e.Name); err != nil {
			return None(), at(err, e.Pos)
		}
		return FieldRef(e.Name), nil
	case *ast.ArithExpr:
		return l.lowerArith(e)
	case *ast.CompareExpr:
		return None(), errorf(InvalidComparison, e.Pos, "comparison is only valid as a when or loop condition")
	case *ast.StringLitExpr:
		// Semantic analysis rejects strings outside print.
		return None(), errorf(EmissionInternal, e.Pos, "string literal in integer position reached the backend")
	default:
		return None(), errorf(EmissionInternal, e.GetPos(), "unsupported expression %T", e)
	}
}

func (l *Lowerer) lowerArith(e *ast.ArithExpr) (Operand, error) {
	var op IROp
	switch e.Op {
	case "+":
		op = IRAdd
	case "-":
		op = IRSub
	case "*":
		op = IRMul
	case "/":
		op = IRDiv
	default:
		return None(), errorf(EmissionInternal, e.Pos, "unsupported arithmetic operator %q", e.Op)
	}
	lhs, err := l.lowerExpr(e.Left)
	if err != nil {
		return None(), err
	}
	rhs, err := l.lowerExpr(e.Right)
	if err != nil {
		return None(), err
	}
	dst := VReg(l.nextVReg)
	l.nextVReg++
	l.fn.Emit(IRInstr{Op: op, Dst: dst, Src1: lhs, Src2: rhs, Pos: e.Pos})
	return dst, nil
}
