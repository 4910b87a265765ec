package semantic_test

import (
	"strings"
	"testing"

	"github.com/SuperJPcoder/katappa/internal/ast"
	"github.com/SuperJPcoder/katappa/internal/lexer"
	"github.com/SuperJPcoder/katappa/internal/parser"
	"github.com/SuperJPcoder/katappa/internal/semantic"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, lexErrs := lexer.Lex(input)
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	prog, parseErrs := parser.Parse(tokens)
	if len(parseErrs) > 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	return prog
}

func analyze(t *testing.T, input string) []semantic.Diagnostic {
	t.Helper()
	return semantic.Analyze(mustParse(t, input))
}

func errorsOnly(diags []semantic.Diagnostic) []semantic.Diagnostic {
	var out []semantic.Diagnostic
	for _, d := range diags {
		if d.Severity == semantic.Error {
			out = append(out, d)
		}
	}
	return out
}

func containsMessage(diags []semantic.Diagnostic, substr string) bool {
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Field declaration and use
// ---------------------------------------------------------------------------

func TestValidProgram(t *testing.T) {
	diags := analyze(t, `
.i = 0;
loop .i < 10 {
    print .i;
    .i = .i + 1;
}
`)
	if len(errorsOnly(diags)) > 0 {
		t.Fatalf("unexpected errors: %v", diags)
	}
}

func TestReadBeforeAssignment(t *testing.T) {
	diags := analyze(t, "print .missing;")
	if !semantic.HasErrors(diags) {
		t.Fatal("expected error for read before assignment")
	}
	if !containsMessage(diags, "read before any assignment") {
		t.Errorf("expected read-before-assignment message, got: %v", diags)
	}
}

func TestSelfReferenceBeforeDeclaration(t *testing.T) {
	diags := analyze(t, ".x = .x + 1;")
	if !semantic.HasErrors(diags) {
		t.Fatal("expected error for self-reference before declaration")
	}
}

func TestSelfReferenceAfterDeclaration(t *testing.T) {
	diags := analyze(t, ".x = 0; .x = .x + 1; print .x;")
	if len(errorsOnly(diags)) > 0 {
		t.Fatalf("unexpected errors: %v", diags)
	}
}

func TestFieldAssignedInWhenVisibleAfter(t *testing.T) {
	// The analysis is textual, so a field assigned inside a when-block
	// counts as declared for everything after it.
	diags := analyze(t, `
.a = 1;
when .a == 1 {
    .b = 2;
}
print .b;
`)
	if len(errorsOnly(diags)) > 0 {
		t.Fatalf("unexpected errors: %v", diags)
	}
}

func TestUnreadFieldWarning(t *testing.T) {
	diags := analyze(t, ".unused = 5;")
	if semantic.HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if !containsMessage(diags, "never read") {
		t.Errorf("expected unread-field warning, got: %v", diags)
	}
}

func TestFieldsDeclarationOrder(t *testing.T) {
	prog := mustParse(t, ".b = 1; .a = 2; .b = 3; .c = 4;")
	fields := semantic.Fields(prog)
	want := []string{"b", "a", "c"}
	if len(fields) != len(want) {
		t.Fatalf("fields: got %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d]: got %q, want %q", i, fields[i], want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func TestStopOutsideLoop(t *testing.T) {
	diags := analyze(t, "stop;")
	if !semantic.HasErrors(diags) {
		t.Fatal("expected error for stop outside loop")
	}
	if !containsMessage(diags, "outside of loop") {
		t.Errorf("expected stop-outside-loop message, got: %v", diags)
	}
}

func TestStopInsideLoop(t *testing.T) {
	diags := analyze(t, ".i = 0; loop .i < 10 { stop; } print .i;")
	if len(errorsOnly(diags)) > 0 {
		t.Fatalf("unexpected errors: %v", diags)
	}
}

func TestStopInsideWhenInsideLoop(t *testing.T) {
	diags := analyze(t, `
.i = 0;
loop .i < 10 {
    when .i == 5 {
        stop;
    }
    .i = .i + 1;
}
print .i;
`)
	if len(errorsOnly(diags)) > 0 {
		t.Fatalf("unexpected errors: %v", diags)
	}
}

func TestStopInsideWhenOutsideLoop(t *testing.T) {
	diags := analyze(t, ".x = 1; when .x == 1 { stop; } print .x;")
	if !semantic.HasErrors(diags) {
		t.Fatal("expected error for stop inside when but outside loop")
	}
}

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

func TestConstantConditionWarning(t *testing.T) {
	diags := analyze(t, "when 1 == 1 { print 1; }")
	if semantic.HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if !containsMessage(diags, "constants") {
		t.Errorf("expected constant-condition warning, got: %v", diags)
	}
}

func TestDivisionByConstantZeroWarning(t *testing.T) {
	diags := analyze(t, ".x = 10 / 0; print .x;")
	if !containsMessage(diags, "division by constant zero") {
		t.Errorf("expected division-by-zero warning, got: %v", diags)
	}
}

func TestDivisionByFieldNoWarning(t *testing.T) {
	diags := analyze(t, ".d = 2; .x = 10 / .d; print .x;")
	if containsMessage(diags, "division") {
		t.Errorf("unexpected division warning: %v", diags)
	}
}
