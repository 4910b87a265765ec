package semantic

import (
	"fmt"

	"github.com/SuperJPcoder/katappa/internal/ast"
)

// ---------------------------------------------------------------------------
// Diagnostic severity
// ---------------------------------------------------------------------------

// Severity indicates whether a diagnostic is an error or a warning.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Diagnostic
// ---------------------------------------------------------------------------

// Diagnostic represents a single message produced by the semantic analyser.
type Diagnostic struct {
	Message  string
	Pos      ast.Position
	Severity Severity
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d, col %d: %s: %s", d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}

// HasErrors returns true if any diagnostic in the slice is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Field symbol table
//
// All fields share one flat namespace: the program's single activation
// record. A field is declared by its first assignment; there is no
// shadowing and no nested scope.
// ---------------------------------------------------------------------------

// FieldInfo records the declaration site and usage of a field.
type FieldInfo struct {
	Name     string
	DeclPos  ast.Position // position of the first assignment
	ReadPos  ast.Position // position of the first read (if any)
	WasRead  bool
	Assigned bool
}

// ---------------------------------------------------------------------------
// Analyser
// ---------------------------------------------------------------------------

// Analyzer holds the state for a single semantic-analysis pass.
type Analyzer struct {
	diagnostics []Diagnostic
	fields      map[string]*FieldInfo
	fieldOrder  []string // declaration order, for deterministic reporting
	loopDepth   int      // > 0 when inside a loop
}

// Analyze runs semantic analysis on the given AST program and returns all
// diagnostics (errors and warnings). The returned slice is empty when the
// program is semantically valid.
//
// Statements are checked in source order: a field read is valid only if
// some assignment to that field appears earlier in the program text. This
// is a purely textual rule, matching how the single frame is laid out.
func Analyze(program *ast.Program) []Diagnostic {
	a := &Analyzer{
		fields: make(map[string]*FieldInfo),
	}
	a.analyzeBlockStmts(program.Stmts)
	a.reportUnreadFields()
	return a.diagnostics
}

// Fields returns the fields declared by the program in declaration order.
// Useful for tools that want the frame layout without running codegen.
func Fields(program *ast.Program) []string {
	a := &Analyzer{fields: make(map[string]*FieldInfo)}
	a.analyzeBlockStmts(program.Stmts)
	return a.fieldOrder
}

// ---- helpers ----

func (a *Analyzer) error(pos ast.Position, msg string) {
	a.diagnostics = append(a.diagnostics, Diagnostic{
		Message:  msg,
		Pos:      pos,
		Severity: Error,
	})
}

func (a *Analyzer) warn(pos ast.Position, msg string) {
	a.diagnostics = append(a.diagnostics, Diagnostic{
		Message:  msg,
		Pos:      pos,
		Severity: Warning,
	})
}

// ---------------------------------------------------------------------------
// Statement analysis
// ---------------------------------------------------------------------------

func (a *Analyzer) analyzeBlockStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		a.analyzeStmt(stmt)
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		a.analyzeAssignStmt(s)
	case *ast.PrintStmt:
		a.analyzePrintStmt(s)
	case *ast.WhenStmt:
		a.analyzeWhenStmt(s)
	case *ast.LoopStmt:
		a.analyzeLoopStmt(s)
	case *ast.StopStmt:
		if a.loopDepth == 0 {
			a.error(s.Pos, "stop statement outside of loop")
		}
	case *ast.BlockStmt:
		a.analyzeBlockStmts(s.Stmts)
	}
}

// ---- Assign ----

func (a *Analyzer) analyzeAssignStmt(s *ast.AssignStmt) {
	// The value is analysed first so that  .x = .x + 1;  before any
	// assignment to .x is reported as a read of an undeclared field.
	a.analyzeExpr(s.Value)

	info := a.fields[s.Field]
	if info == nil {
		info = &FieldInfo{Name: s.Field, DeclPos: s.Pos, Assigned: true}
		a.fields[s.Field] = info
		a.fieldOrder = append(a.fieldOrder, s.Field)
	}
}

// ---- Print ----

func (a *Analyzer) analyzePrintStmt(s *ast.PrintStmt) {
	if _, ok := s.Value.(*ast.StringLitExpr); ok {
		return
	}
	a.analyzeExpr(s.Value)
}

// ---- When ----

func (a *Analyzer) analyzeWhenStmt(s *ast.WhenStmt) {
	a.analyzeCondition(s.Condition)
	a.analyzeBlockStmts(s.Then.Stmts)
	if s.Other != nil {
		a.analyzeBlockStmts(s.Other.Stmts)
	}
}

// ---- Loop ----

func (a *Analyzer) analyzeLoopStmt(s *ast.LoopStmt) {
	a.analyzeCondition(s.Condition)
	a.loopDepth++
	a.analyzeBlockStmts(s.Body.Stmts)
	a.loopDepth--
}

// ---- Conditions ----

func (a *Analyzer) analyzeCondition(cond ast.Expr) {
	cmp, ok := cond.(*ast.CompareExpr)
	if !ok {
		a.error(cond.GetPos(), "condition must be a comparison")
		a.analyzeExpr(cond)
		return
	}

	a.analyzeExpr(cmp.Left)
	a.analyzeExpr(cmp.Right)

	// A comparison of two literals never changes at runtime.
	_, leftLit := cmp.Left.(*ast.IntLitExpr)
	_, rightLit := cmp.Right.(*ast.IntLitExpr)
	if leftLit && rightLit {
		a.warn(cmp.Pos, "condition compares two constants and is always the same")
	}
}

// ---------------------------------------------------------------------------
// Expression analysis
// ---------------------------------------------------------------------------

func (a *Analyzer) analyzeExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.FieldExpr:
		a.analyzeFieldRead(e)
	case *ast.IntLitExpr:
		// nothing to check
	case *ast.StringLitExpr:
		a.error(e.Pos, "string value is not allowed here")
	case *ast.ArithExpr:
		a.analyzeExpr(e.Left)
		a.analyzeExpr(e.Right)
		if e.Op == "/" {
			if lit, ok := e.Right.(*ast.IntLitExpr); ok && lit.Value == 0 {
				a.warn(e.Pos, "division by constant zero")
			}
		}
	case *ast.CompareExpr:
		a.error(e.Pos, "comparison is only allowed as a when or loop condition")
	}
}

func (a *Analyzer) analyzeFieldRead(e *ast.FieldExpr) {
	info := a.fields[e.Name]
	if info == nil || !info.Assigned {
		a.error(e.Pos, fmt.Sprintf("field .%s read before any assignment", e.Name))
		return
	}
	if !info.WasRead {
		info.WasRead = true
		info.ReadPos = e.Pos
	}
}

// ---------------------------------------------------------------------------
// Post-pass checks
// ---------------------------------------------------------------------------

func (a *Analyzer) reportUnreadFields() {
	for _, name := range a.fieldOrder {
		info := a.fields[name]
		if !info.WasRead {
			a.warn(info.DeclPos, fmt.Sprintf("field .%s is assigned but never read", name))
		}
	}
}
