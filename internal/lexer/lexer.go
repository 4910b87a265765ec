package lexer

import "fmt"

const (
	// Special
	EOF     = "EOF"
	ILLEGAL = "ILLEGAL"

	// Literals
	FIELD  = "FIELD"  // field references: .count, .total, …
	INT    = "INT"    // integer literals: 0, 42, -7, …
	STRING = "STRING" // string literals: "hello"

	// Keywords
	PRINT = "PRINT"
	WHEN  = "WHEN"
	OTHER = "OTHER"
	LOOP  = "LOOP"
	STOP  = "STOP"

	// Delimiters
	LBRACE    = "LBRACE"    // {
	RBRACE    = "RBRACE"    // }
	SEMICOLON = "SEMICOLON" // ;

	// Operators
	ASSIGN = "ASSIGN" // =
	PLUS   = "PLUS"   // +
	MINUS  = "MINUS"  // -
	STAR   = "STAR"   // *
	SLASH  = "SLASH"  // /

	// Comparison operators
	EQ  = "EQ"  // ==
	NEQ = "NEQ" // !=
	LT  = "LT"  // <
	GT  = "GT"  // >
	LTE = "LTE" // <=
	GTE = "GTE" // >=
)

// keywords maps reserved words to their token types.
var keywords = map[string]string{
	"print": PRINT,
	"when":  WHEN,
	"other": OTHER,
	"loop":  LOOP,
	"stop":  STOP,
}

// Token represents a single lexical token produced by the lexer.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
}

// LexError represents a recoverable error encountered during lexing.
type LexError struct {
	Message string
	Lexeme  string
	Line    int
	Column  int
}

func (e LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s (got %q)", e.Line, e.Column, e.Message, e.Lexeme)
}

/**
* Lexes the given input string into a slice of Tokens. Also returns a slice
* of LexErrors for any recoverable errors encountered during lexing
* (e.g. unterminated strings, bare dots).
* @param input The source code to lex.
* @return A slice of Tokens and a slice of LexErrors.
 */
func Lex(input string) ([]Token, []LexError) {
	var tokens []Token
	var errors []LexError
	line, col, i := 1, 1, 0

	for i < len(input) {
		ch := input[i]
		if isWhitespace(ch) {
			if ch == '\n' {
				line++
				col = 1
			} else if ch != '\r' {
				col++
			}
			i++
			continue
		}

		// Ignore comments: ## … to end of line
		if ch == '#' && i+1 < len(input) && input[i+1] == '#' {
			i, col = skipLineComment(input, i, col)
			continue
		}

		// Strings
		if ch == '"' {
			tok, errs, newI, newLine, newCol := lexString(input, i, line, col)
			i, line, col = newI, newLine, newCol
			errors = append(errors, errs...)
			if tok != nil {
				tokens = append(tokens, *tok)
			}
			continue
		}

		// Fields: a dot followed by an identifier
		if ch == '.' {
			tok, err, newI, newCol := lexField(input, i, line, col)
			i, col = newI, newCol
			if err != nil {
				errors = append(errors, *err)
				continue
			}
			tokens = append(tokens, tok)
			continue
		}

		// Integers
		if isDigit(ch) {
			tok, newI, newCol := lexNumber(input, i, line, col)
			tokens = append(tokens, tok)
			i, col = newI, newCol
			continue
		}

		// Keywords and bare identifiers
		if isIdentStart(ch) {
			tok, newI, newCol := lexIdentifier(input, i, line, col)
			tokens = append(tokens, tok)
			i, col = newI, newCol
			continue
		}

		// Multi-character and single-character operators / delimiters
		if tok, width := lexOperatorOrDelimiter(input, i, line, col); width > 0 {
			tokens = append(tokens, tok)
			i += width
			col += width
			continue
		}

		// Unknown characters
		errors = append(errors, LexError{
			Message: "unexpected character",
			Lexeme:  string(ch),
			Line:    line,
			Column:  col,
		})
		i++
		col++
	}

	tokens = append(tokens, Token{EOF, "", line, col})
	return tokens, errors
}

func skipLineComment(input string, i int, col int) (int, int) {
	for i < len(input) && input[i] != '\n' {
		i++
		col++
	}
	return i, col
}

// lexField scans a field reference: '.' followed by an identifier.
// The token value carries the name without the dot.
func lexField(input string, start int, line int, col int) (Token, *LexError, int, int) {
	startCol := col
	i := start + 1
	col++

	if i >= len(input) || !isIdentStart(input[i]) {
		return Token{}, &LexError{
			Message: "expected field name after '.'",
			Lexeme:  ".",
			Line:    line,
			Column:  startCol,
		}, i, col
	}

	for i < len(input) && isIdentPart(input[i]) {
		i++
		col++
	}
	return Token{FIELD, input[start+1 : i], line, startCol}, nil, i, col
}

func lexString(input string, start int, line int, col int) (*Token, []LexError, int, int, int) {
	startLine, startCol := line, col
	var errs []LexError
	i := start + 1
	col++

	for i < len(input) {
		ch := input[i]

		// Newline inside a string → unterminated.
		if ch == '\n' || ch == '\r' {
			errs = append(errs, LexError{
				Message: "unterminated string literal (newline in string)",
				Lexeme:  input[start:i],
				Line:    startLine,
				Column:  startCol,
			})
			return nil, errs, i, line, col
		}

		// Escape sequence: validate and skip both characters.
		if ch == '\\' {
			if i+1 >= len(input) {
				errs = append(errs, LexError{
					Message: "unterminated escape sequence at end of input",
					Lexeme:  "\\",
					Line:    line,
					Column:  col,
				})
				return nil, errs, i + 1, line, col + 1
			}
			next := input[i+1]
			if !isValidEscape(next) {
				errs = append(errs, LexError{
					Message: fmt.Sprintf("invalid escape sequence '\\%c'", next),
					Lexeme:  string([]byte{'\\', next}),
					Line:    line,
					Column:  col,
				})
				// Keep scanning; the rest of the string may still be valid.
			}
			i += 2
			col += 2
			continue
		}

		// Closing quote.
		if ch == '"' {
			tok := Token{
				Type:   STRING,
				Value:  input[start : i+1],
				Line:   startLine,
				Column: startCol,
			}
			i++
			col++
			return &tok, errs, i, line, col
		}

		i++
		col++
	}

	// Reached end of input without a closing quote.
	errs = append(errs, LexError{
		Message: "unterminated string literal (reached end of input)",
		Lexeme:  input[start:],
		Line:    startLine,
		Column:  startCol,
	})
	return nil, errs, i, line, col
}

// lexNumber scans a decimal integer literal.
func lexNumber(input string, start int, line int, col int) (Token, int, int) {
	i := start
	startCol := col
	for i < len(input) && isDigit(input[i]) {
		i++
		col++
	}
	return Token{INT, input[start:i], line, startCol}, i, col
}

func lexIdentifier(input string, start int, line int, col int) (Token, int, int) {
	i := start
	startCol := col
	for i < len(input) && isIdentPart(input[i]) {
		i++
		col++
	}
	word := input[start:i]
	tokType := ILLEGAL
	if kw, ok := keywords[word]; ok {
		tokType = kw
	}
	return Token{tokType, word, line, startCol}, i, col
}

// lexOperatorOrDelimiter tries to match a 1- or 2-character operator or
// delimiter starting at input[i]. Returns the token and the number of
// characters consumed (0 if nothing matched).
func lexOperatorOrDelimiter(input string, i int, line int, col int) (Token, int) {
	ch := input[i]
	var next byte
	if i+1 < len(input) {
		next = input[i+1]
	}

	// Two-character tokens
	switch ch {
	case '=':
		if next == '=' {
			return Token{EQ, "==", line, col}, 2
		}
		return Token{ASSIGN, "=", line, col}, 1
	case '!':
		if next == '=' {
			return Token{NEQ, "!=", line, col}, 2
		}
		return Token{}, 0
	case '<':
		if next == '=' {
			return Token{LTE, "<=", line, col}, 2
		}
		return Token{LT, "<", line, col}, 1
	case '>':
		if next == '=' {
			return Token{GTE, ">=", line, col}, 2
		}
		return Token{GT, ">", line, col}, 1
	}

	// Single-character tokens
	switch ch {
	case '{':
		return Token{LBRACE, "{", line, col}, 1
	case '}':
		return Token{RBRACE, "}", line, col}, 1
	case ';':
		return Token{SEMICOLON, ";", line, col}, 1
	case '+':
		return Token{PLUS, "+", line, col}, 1
	case '-':
		return Token{MINUS, "-", line, col}, 1
	case '*':
		return Token{STAR, "*", line, col}, 1
	case '/':
		return Token{SLASH, "/", line, col}, 1
	}

	return Token{}, 0
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

func isValidEscape(ch byte) bool {
	switch ch {
	case 'n', 'r', 't', '\\', '"', '0':
		return true
	default:
		return false
	}
}
