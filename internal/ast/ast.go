package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// Program (root)
//
// A Katappa program is a flat, ordered statement list; there are no
// function declarations and no nested scopes. All fields live in one
// implicit activation record, declared by their first assignment.
// ---------------------------------------------------------------------------

type Program struct {
	Stmts []Stmt
	Pos   Position
}

func (n *Program) GetPos() Position { return n.Pos }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// BlockStmt is a brace-delimited list of statements.
type BlockStmt struct {
	Stmts []Stmt
	Pos   Position
}

func (n *BlockStmt) GetPos() Position { return n.Pos }
func (n *BlockStmt) stmtNode()        {}

// AssignStmt: .field = <expr>;
// The first assignment to a field also declares it.
type AssignStmt struct {
	Field string // field name without the leading dot
	Value Expr
	Pos   Position
}

func (n *AssignStmt) GetPos() Position { return n.Pos }
func (n *AssignStmt) stmtNode()        {}

// PrintStmt: print <string-literal | expr>;
type PrintStmt struct {
	Value Expr
	Pos   Position
}

func (n *PrintStmt) GetPos() Position { return n.Pos }
func (n *PrintStmt) stmtNode()        {}

// WhenStmt: when <cond> { ... } [other { ... }]
type WhenStmt struct {
	Condition Expr // always a *CompareExpr after parsing
	Then      *BlockStmt
	Other     *BlockStmt // nil when there is no other-block
	Pos       Position
}

func (n *WhenStmt) GetPos() Position { return n.Pos }
func (n *WhenStmt) stmtNode()        {}

// LoopStmt: loop <cond> { ... }
// Pre-test loop: the condition is evaluated before every pass,
// including the first.
type LoopStmt struct {
	Condition Expr // always a *CompareExpr after parsing
	Body      *BlockStmt
	Pos       Position
}

func (n *LoopStmt) GetPos() Position { return n.Pos }
func (n *LoopStmt) stmtNode()        {}

// StopStmt: stop;  exits the innermost enclosing loop.
type StopStmt struct {
	Pos Position
}

func (n *StopStmt) GetPos() Position { return n.Pos }
func (n *StopStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// FieldExpr is a reference to a field: .name
type FieldExpr struct {
	Name string // without the leading dot
	Pos  Position
}

func (n *FieldExpr) GetPos() Position { return n.Pos }
func (n *FieldExpr) exprNode()        {}

// IntLitExpr is a 64-bit signed integer literal.
type IntLitExpr struct {
	Value int64
	Pos   Position
}

func (n *IntLitExpr) GetPos() Position { return n.Pos }
func (n *IntLitExpr) exprNode()        {}

// StringLitExpr is a string literal (value already unescaped, without quotes).
type StringLitExpr struct {
	Value string
	Pos   Position
}

func (n *StringLitExpr) GetPos() Position { return n.Pos }
func (n *StringLitExpr) exprNode()        {}

// ArithExpr: <left> op <right> with op in {+, -, *, /}.
// Arithmetic appears only on the right-hand side of an assignment or
// as a print argument.
type ArithExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *ArithExpr) GetPos() Position { return n.Pos }
func (n *ArithExpr) exprNode()        {}

// CompareExpr: <left> op <right> with op in {==, !=, <, <=, >, >=}.
// Comparisons appear only as the condition of a when or loop.
type CompareExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *CompareExpr) GetPos() Position { return n.Pos }
func (n *CompareExpr) exprNode()        {}

// ---------------------------------------------------------------------------
// Debug printer – produces a human-readable tree representation
// ---------------------------------------------------------------------------

// DebugString returns a readable multi-line representation of the AST.
func DebugString(prog *Program) string {
	var b strings.Builder
	b.WriteString("Program\n")
	for _, s := range prog.Stmts {
		debugStmt(&b, s, 1)
	}
	return b.String()
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func debugStmt(b *strings.Builder, s Stmt, level int) {
	switch s := s.(type) {
	case *AssignStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "AssignStmt .%s = %s\n", s.Field, ExprString(s.Value))
	case *PrintStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "PrintStmt %s\n", ExprString(s.Value))
	case *WhenStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "WhenStmt (%s)\n", ExprString(s.Condition))
		debugBlock(b, s.Then, level+1)
		if s.Other != nil {
			writeIndent(b, level+1)
			b.WriteString("Other:\n")
			debugBlock(b, s.Other, level+2)
		}
	case *LoopStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "LoopStmt (%s)\n", ExprString(s.Condition))
		debugBlock(b, s.Body, level+1)
	case *StopStmt:
		writeIndent(b, level)
		b.WriteString("StopStmt\n")
	case *BlockStmt:
		debugBlock(b, s, level)
	default:
		writeIndent(b, level)
		b.WriteString("<unknown stmt>\n")
	}
}

func debugBlock(b *strings.Builder, block *BlockStmt, level int) {
	writeIndent(b, level)
	fmt.Fprintf(b, "Block [%d statements]\n", len(block.Stmts))
	for _, s := range block.Stmts {
		debugStmt(b, s, level+1)
	}
}

// ExprString returns a concise one-line representation of an expression.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *FieldExpr:
		return "." + e.Name
	case *IntLitExpr:
		return fmt.Sprintf("%d", e.Value)
	case *StringLitExpr:
		return fmt.Sprintf("%q", e.Value)
	case *ArithExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *CompareExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	default:
		return "<unknown expr>"
	}
}
