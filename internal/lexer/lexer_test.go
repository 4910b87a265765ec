package lexer

import (
	"os"
	"strings"
	"testing"
)

func tokenTypes(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestKeywords(t *testing.T) {
	tokens, errs := Lex("print when other loop stop")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expected := []struct {
		typ string
		val string
	}{
		{PRINT, "print"},
		{WHEN, "when"},
		{OTHER, "other"},
		{LOOP, "loop"},
		{STOP, "stop"},
		{EOF, ""},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count: got %d, want %d", len(tokens), len(expected))
	}
	for i, exp := range expected {
		if tokens[i].Type != exp.typ || tokens[i].Value != exp.val {
			t.Errorf("token[%d]: got (%s, %q), want (%s, %q)",
				i, tokens[i].Type, tokens[i].Value, exp.typ, exp.val)
		}
	}
}

func TestFieldReferences(t *testing.T) {
	tokens, errs := Lex(".count .total_sum ._hidden .x42")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expected := []string{"count", "total_sum", "_hidden", "x42"}
	for i, exp := range expected {
		if tokens[i].Type != FIELD || tokens[i].Value != exp {
			t.Errorf("token[%d]: got (%s, %q), want (FIELD, %q)",
				i, tokens[i].Type, tokens[i].Value, exp)
		}
	}
}

func TestBareDotIsError(t *testing.T) {
	tokens, errs := Lex(". 5")
	if len(errs) == 0 {
		t.Fatal("expected error for bare '.'")
	}
	if !strings.Contains(errs[0].Message, "field name") {
		t.Errorf("error message should mention 'field name', got: %s", errs[0].Message)
	}
	types := tokenTypes(tokens)
	expected := []string{INT, EOF}
	if len(types) != len(expected) {
		t.Fatalf("token count after recovery: got %d, want %d; types: %v", len(types), len(expected), types)
	}
}

func TestIntegerLiterals(t *testing.T) {
	tokens, errs := Lex("0 42 100000")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expected := []string{"0", "42", "100000"}
	for i, exp := range expected {
		if tokens[i].Type != INT || tokens[i].Value != exp {
			t.Errorf("token[%d]: got (%s, %q), want (INT, %q)",
				i, tokens[i].Type, tokens[i].Value, exp)
		}
	}
}

func TestStringLiteral(t *testing.T) {
	tokens, errs := Lex(`"Hello, World!"`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Type != STRING || tokens[0].Value != `"Hello, World!"` {
		t.Errorf("got (%s, %q), want (STRING, %q)", tokens[0].Type, tokens[0].Value, `"Hello, World!"`)
	}
}

func TestStringEscapeSequences(t *testing.T) {
	input := `"esc: \n\r\t\\\"\0"`
	tokens, errs := Lex(input)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Type != STRING {
		t.Errorf("got type %s, want STRING", tokens[0].Type)
	}
	if tokens[0].Value != input {
		t.Errorf("got value %q, want %q", tokens[0].Value, input)
	}
}

func TestDelimitersAndOperators(t *testing.T) {
	tokens, errs := Lex("{ } ; = + - * / == != < > <= >=")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expected := []string{
		LBRACE, RBRACE, SEMICOLON,
		ASSIGN, PLUS, MINUS, STAR, SLASH,
		EQ, NEQ, LT, GT, LTE, GTE,
		EOF,
	}
	types := tokenTypes(tokens)
	if len(types) != len(expected) {
		t.Fatalf("token count: got %d, want %d; types: %v", len(types), len(expected), types)
	}
	for i, exp := range expected {
		if types[i] != exp {
			t.Errorf("token[%d]: got type %s, want %s", i, types[i], exp)
		}
	}
}

func TestComparisonOperatorAmbiguity(t *testing.T) {
	// Make sure = vs == is distinguished correctly
	tokens, errs := Lex(".x = 1; .x == 1; .x != 2; .x <= 3; .x >= 4")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	types := tokenTypes(tokens)
	expected := []string{
		FIELD, ASSIGN, INT, SEMICOLON,
		FIELD, EQ, INT, SEMICOLON,
		FIELD, NEQ, INT, SEMICOLON,
		FIELD, LTE, INT, SEMICOLON,
		FIELD, GTE, INT,
		EOF,
	}
	if len(types) != len(expected) {
		t.Fatalf("token count: got %d, want %d; types: %v", len(types), len(expected), types)
	}
	for i, exp := range expected {
		if types[i] != exp {
			t.Errorf("token[%d]: got %s, want %s (value=%q)", i, types[i], exp, tokens[i].Value)
		}
	}
}

func TestWhenOtherSnippet(t *testing.T) {
	input := `when .x > 0 { print "pos"; } other { print "neg"; }`
	tokens, errs := Lex(input)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	types := tokenTypes(tokens)
	expected := []string{
		WHEN, FIELD, GT, INT, LBRACE,
		PRINT, STRING, SEMICOLON, RBRACE,
		OTHER, LBRACE,
		PRINT, STRING, SEMICOLON, RBRACE,
		EOF,
	}
	if len(types) != len(expected) {
		t.Fatalf("token count: got %d, want %d; types: %v", len(types), len(expected), types)
	}
	for i, exp := range expected {
		if types[i] != exp {
			t.Errorf("token[%d]: got %s, want %s", i, types[i], exp)
		}
	}
}

func TestLoopSnippet(t *testing.T) {
	input := `loop .i < 10 { .i = .i + 1; }`
	tokens, errs := Lex(input)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	types := tokenTypes(tokens)
	expected := []string{
		LOOP, FIELD, LT, INT, LBRACE,
		FIELD, ASSIGN, FIELD, PLUS, INT, SEMICOLON,
		RBRACE, EOF,
	}
	if len(types) != len(expected) {
		t.Fatalf("token count: got %d, want %d; types: %v", len(types), len(expected), types)
	}
	for i, exp := range expected {
		if types[i] != exp {
			t.Errorf("token[%d]: got %s, want %s", i, types[i], exp)
		}
	}
}

func TestLineComment(t *testing.T) {
	tokens, errs := Lex(".x = 1; ## comment\n.y = 2;")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	types := tokenTypes(tokens)
	expected := []string{FIELD, ASSIGN, INT, SEMICOLON, FIELD, ASSIGN, INT, SEMICOLON, EOF}
	if len(types) != len(expected) {
		t.Fatalf("token count: got %d, want %d; types: %v", len(types), len(expected), types)
	}
	if tokens[4].Line != 2 {
		t.Errorf("'.y' should be on line 2, got line %d", tokens[4].Line)
	}
}

func TestSingleHashIsError(t *testing.T) {
	tokens, errs := Lex(".x # 1")
	if len(errs) == 0 {
		t.Fatal("expected error for single '#'")
	}
	if errs[0].Lexeme != "#" {
		t.Errorf("error lexeme: got %q, want %q", errs[0].Lexeme, "#")
	}
	types := tokenTypes(tokens)
	if len(types) != 3 {
		t.Errorf("expected 3 tokens after recovery, got %d: %v", len(types), types)
	}
}

func TestLineColumnTracking(t *testing.T) {
	tokens, errs := Lex("when .ready == 1 {")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Column != 1 {
		t.Errorf("'when' column: got %d, want 1", tokens[0].Column)
	}
	if tokens[1].Column != 6 {
		t.Errorf("'.ready' column: got %d, want 6", tokens[1].Column)
	}
	if tokens[2].Column != 13 {
		t.Errorf("'==' column: got %d, want 13", tokens[2].Column)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, errs := Lex(`"hello`)
	if len(errs) == 0 {
		t.Fatal("expected error for unterminated string")
	}
	if !strings.Contains(errs[0].Message, "unterminated") {
		t.Errorf("error message should mention 'unterminated', got: %s", errs[0].Message)
	}
}

func TestNewlineInString(t *testing.T) {
	_, errs := Lex("\"hello\nworld\"")
	if len(errs) == 0 {
		t.Fatal("expected error for newline in string")
	}
	if !strings.Contains(errs[0].Message, "newline") {
		t.Errorf("error message should mention 'newline', got: %s", errs[0].Message)
	}
}

func TestInvalidEscapeSequence(t *testing.T) {
	tokens, errs := Lex(`"bad\q"`)
	if len(errs) == 0 {
		t.Fatal("expected error for invalid escape sequence")
	}
	if !strings.Contains(errs[0].Message, "invalid escape") {
		t.Errorf("error message should mention 'invalid escape', got: %s", errs[0].Message)
	}
	if len(tokens) < 2 || tokens[0].Type != STRING {
		t.Errorf("string token should still be emitted after invalid escape, got types: %v", tokenTypes(tokens))
	}
}

func TestUnknownIdentifierIsIllegal(t *testing.T) {
	tokens, errs := Lex("frobnicate")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Type != ILLEGAL || tokens[0].Value != "frobnicate" {
		t.Errorf("got (%s, %q), want (ILLEGAL, %q)", tokens[0].Type, tokens[0].Value, "frobnicate")
	}
}

func TestEmptyInput(t *testing.T) {
	tokens, errs := Lex("")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tokens) != 1 || tokens[0].Type != EOF {
		t.Errorf("empty input should produce only EOF, got %v", tokenTypes(tokens))
	}
}

func TestMultipleErrorRecovery(t *testing.T) {
	tokens, errs := Lex("@ \"oops\n.x = 1")
	if len(errs) < 2 {
		t.Fatalf("expected at least 2 errors, got %d: %v", len(errs), errs)
	}
	found := false
	for _, tok := range tokens {
		if tok.Type == FIELD {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected to find FIELD token after error recovery")
	}
}

func TestExampleKatFile(t *testing.T) {
	content, err := os.ReadFile("../../example.katp")
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	tokens, errs := Lex(string(content))
	if len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("lex error: %s", e.Error())
		}
		t.FailNow()
	}
	for i, tok := range tokens {
		if tok.Type == ILLEGAL {
			t.Errorf("token[%d]: unexpected ILLEGAL token %q at line %d, col %d",
				i, tok.Value, tok.Line, tok.Column)
		}
	}
	last := tokens[len(tokens)-1]
	if last.Type != EOF {
		t.Errorf("last token should be EOF, got %s", last.Type)
	}
	foundLoop := false
	foundWhen := false
	foundPrint := false
	for _, tok := range tokens {
		switch tok.Type {
		case LOOP:
			foundLoop = true
		case WHEN:
			foundWhen = true
		case PRINT:
			foundPrint = true
		}
	}
	if !foundLoop {
		t.Error("did not find LOOP keyword")
	}
	if !foundWhen {
		t.Error("did not find WHEN keyword")
	}
	if !foundPrint {
		t.Error("did not find PRINT keyword")
	}
}
