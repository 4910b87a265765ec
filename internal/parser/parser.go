package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SuperJPcoder/katappa/internal/ast"
	"github.com/SuperJPcoder/katappa/internal/lexer"
)

// ---------------------------------------------------------------------------
// Precedence levels for Pratt expression parsing
// ---------------------------------------------------------------------------

const (
	precNone     = iota
	precAdditive // + -
	precMultiply // * /
	precUnary    // -
)

// ---------------------------------------------------------------------------
// ParseError
// ---------------------------------------------------------------------------

// ParseError represents a single error found during parsing.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []ParseError
}

// Parse is the main entry point. It takes a token slice (as produced by
// lexer.Lex) and returns an AST program plus any parse errors collected.
func Parse(tokens []lexer.Token) (*ast.Program, []ParseError) {
	p := &Parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	return prog, p.errors
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// peek returns the current token without consuming it.
func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: lexer.EOF}
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// previous returns the most recently consumed token.
func (p *Parser) previous() lexer.Token {
	if p.pos > 0 {
		return p.tokens[p.pos-1]
	}
	return lexer.Token{Type: lexer.EOF}
}

// check returns true if the current token has the given type.
func (p *Parser) check(typ string) bool {
	return p.peek().Type == typ
}

// match consumes the current token if it matches any of the given types.
func (p *Parser) match(types ...string) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches typ; otherwise it records
// an error and returns the current token WITHOUT advancing.
func (p *Parser) expect(typ string, msg string) lexer.Token {
	if p.check(typ) {
		return p.advance()
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("%s (got %s %q)", msg, tok.Type, tok.Value))
	return tok
}

// addError appends a ParseError at the given token's location.
func (p *Parser) addError(tok lexer.Token, msg string) {
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

// synchronize advances past tokens until it reaches a likely statement
// boundary, allowing the parser to recover from an error and keep going.
func (p *Parser) synchronize() {
	p.advance()
	for !p.check(lexer.EOF) {
		// If we just passed a semicolon, we're at a fresh statement.
		if p.previous().Type == lexer.SEMICOLON {
			return
		}
		// If the current token starts a new construct, stop here.
		switch p.peek().Type {
		case lexer.FIELD, lexer.PRINT, lexer.WHEN, lexer.LOOP,
			lexer.STOP, lexer.RBRACE:
			return
		}
		p.advance()
	}
}

// position converts a token into an ast.Position.
func (p *Parser) position(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// =========================================================================
// Top-level parsing
// =========================================================================

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{Pos: p.position(p.peek())}

	for !p.check(lexer.EOF) {
		startPos := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
		// Safety: if no tokens were consumed, skip one to avoid an infinite loop.
		if p.pos == startPos {
			p.advance()
		}
	}

	return prog
}

// =========================================================================
// Block and statement parsing
// =========================================================================

func (p *Parser) parseBlock() *ast.BlockStmt {
	tok := p.expect(lexer.LBRACE, "expected '{'")
	block := &ast.BlockStmt{Pos: p.position(tok)}

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		startPos := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.pos == startPos {
			p.advance()
		}
	}

	p.expect(lexer.RBRACE, "expected '}'")
	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.peek().Type {
	case lexer.FIELD:
		return p.parseAssignStmt()
	case lexer.PRINT:
		return p.parsePrintStmt()
	case lexer.WHEN:
		return p.parseWhenStmt()
	case lexer.LOOP:
		return p.parseLoopStmt()
	case lexer.STOP:
		return p.parseStopStmt()
	default:
		p.addError(p.peek(), fmt.Sprintf("expected statement, got %s %q", p.peek().Type, p.peek().Value))
		p.synchronize()
		return nil
	}
}

// ---- Assignment ----

// parseAssignStmt parses: .field = <expr>;
func (p *Parser) parseAssignStmt() *ast.AssignStmt {
	tok := p.advance() // consume FIELD
	p.expect(lexer.ASSIGN, "expected '=' after field")
	value := p.parseExpression()
	p.expect(lexer.SEMICOLON, "expected ';' after assignment")
	return &ast.AssignStmt{
		Field: tok.Value,
		Value: value,
		Pos:   p.position(tok),
	}
}

// ---- Print ----

// parsePrintStmt parses: print <string | expr>;
func (p *Parser) parsePrintStmt() *ast.PrintStmt {
	tok := p.advance() // consume PRINT
	var value ast.Expr
	if p.check(lexer.STRING) {
		str := p.advance()
		value = &ast.StringLitExpr{
			Value: unquoteString(str.Value),
			Pos:   p.position(str),
		}
	} else {
		value = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON, "expected ';' after print statement")
	return &ast.PrintStmt{Value: value, Pos: p.position(tok)}
}

// ---- When ----

// parseWhenStmt parses: when <cond> { ... } [other { ... }]
func (p *Parser) parseWhenStmt() *ast.WhenStmt {
	tok := p.advance() // consume WHEN
	cond := p.parseComparison()
	body := p.parseBlock()

	var other *ast.BlockStmt
	if p.match(lexer.OTHER) {
		other = p.parseBlock()
	}

	return &ast.WhenStmt{
		Condition: cond,
		Then:      body,
		Other:     other,
		Pos:       p.position(tok),
	}
}

// ---- Loop ----

// parseLoopStmt parses: loop <cond> { ... }
func (p *Parser) parseLoopStmt() *ast.LoopStmt {
	tok := p.advance() // consume LOOP
	cond := p.parseComparison()
	body := p.parseBlock()
	return &ast.LoopStmt{Condition: cond, Body: body, Pos: p.position(tok)}
}

// ---- Stop ----

func (p *Parser) parseStopStmt() *ast.StopStmt {
	tok := p.advance()
	p.expect(lexer.SEMICOLON, "expected ';' after stop")
	return &ast.StopStmt{Pos: p.position(tok)}
}

// =========================================================================
// Expression parsing
// =========================================================================

// parseComparison parses exactly one comparison: <arith> <cmp-op> <arith>.
// Conditions are always a single comparison; chained or boolean-combined
// comparisons are not part of the language.
func (p *Parser) parseComparison() ast.Expr {
	left := p.parseExpression()

	tok := p.peek()
	switch tok.Type {
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LTE, lexer.GTE:
		p.advance()
		right := p.parseExpression()
		return &ast.CompareExpr{
			Op:    tok.Value,
			Left:  left,
			Right: right,
			Pos:   p.position(tok),
		}
	}

	p.addError(tok, fmt.Sprintf("expected comparison operator, got %s %q", tok.Type, tok.Value))
	return &ast.CompareExpr{
		Op:    "==",
		Left:  left,
		Right: &ast.IntLitExpr{Value: 0, Pos: p.position(tok)},
		Pos:   p.position(tok),
	}
}

// parseExpression is the entry point for arithmetic expression parsing.
func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(precAdditive)
}

// parsePrecedence parses an expression with at least the given minimum
// precedence. This is the core of the Pratt algorithm.
func (p *Parser) parsePrecedence(minPrec int) ast.Expr {
	left := p.parsePrefix()

	for {
		prec := infixPrecedence(p.peek().Type)
		if prec < minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}

	return left
}

// ---- Prefix (atoms & unary minus) ----

func (p *Parser) parsePrefix() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case lexer.FIELD:
		p.advance()
		return &ast.FieldExpr{Name: tok.Value, Pos: p.position(tok)}

	case lexer.INT:
		p.advance()
		return p.intLit(tok, false)

	case lexer.MINUS:
		p.advance()
		// Negative literals only; there is no general unary minus.
		num := p.expect(lexer.INT, "expected integer after '-'")
		return p.intLit(num, true)

	case lexer.STRING:
		p.advance()
		p.addError(tok, "string literals are only allowed in print statements")
		return &ast.IntLitExpr{Value: 0, Pos: p.position(tok)}

	default:
		p.addError(tok, fmt.Sprintf("unexpected token %s in expression", tok.Type))
		p.advance() // consume the bad token so we make progress
		return &ast.IntLitExpr{Value: 0, Pos: p.position(tok)}
	}
}

// intLit converts an INT token to an IntLitExpr, recording an error when
// the literal does not fit in a signed 64-bit integer.
func (p *Parser) intLit(tok lexer.Token, negative bool) *ast.IntLitExpr {
	text := tok.Value
	if negative {
		text = "-" + text
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.addError(tok, fmt.Sprintf("integer literal %s out of range", text))
		v = 0
	}
	return &ast.IntLitExpr{Value: v, Pos: p.position(tok)}
}

// ---- Infix precedence table ----

func infixPrecedence(typ string) int {
	switch typ {
	case lexer.PLUS, lexer.MINUS:
		return precAdditive
	case lexer.STAR, lexer.SLASH:
		return precMultiply
	default:
		return precNone
	}
}

// ---- Infix dispatch ----

func (p *Parser) parseInfix(left ast.Expr, prec int) ast.Expr {
	tok := p.advance()
	// Binary operator (left-associative: recurse with prec+1).
	right := p.parsePrecedence(prec + 1)
	return &ast.ArithExpr{
		Op:    tok.Value,
		Left:  left,
		Right: right,
		Pos:   p.position(tok),
	}
}

// ---------------------------------------------------------------------------
// String literal decoding
// ---------------------------------------------------------------------------

// unquoteString strips the surrounding quotes from a STRING token value and
// decodes its escape sequences.
func unquoteString(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte('\\')
				b.WriteByte(raw[i])
			}
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
