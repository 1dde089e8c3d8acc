package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/memoscheme/pkg/ast"
	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
	"github.com/thomasrohde/memoscheme/pkg/parser"
	"github.com/thomasrohde/memoscheme/pkg/validator"
)

var builtins = []string{"+", "-", "*", "/", "=", "<", ">"}

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	forms, parseErrs := parser.Parse(source, "test.scm")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(forms, builtins)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// ===== Valid Programs (zero diagnostics) =====

func TestValid_Literal(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "42"))
}

func TestValid_Empty(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, ""))
}

func TestValid_DefineThenUse(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "(define x 2) (+ x 3)"))
}

func TestValid_Square(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "(define square (lambda (x) (* x x))) (square 7)"))
}

func TestValid_RecursiveFib(t *testing.T) {
	src := `
(define fib
  (memoize
    (lambda (n)
      (if (< n 2) n (+ (fib (- n 1)) (fib (- n 2)))))))
(fib 30)`
	assertNoDiags(t, mustParseAndValidate(t, src))
}

func TestValid_BodyUsesLaterDefinition(t *testing.T) {
	src := `
(define f (lambda (x) (g x)))
(define g (lambda (x) (* x 2)))
(f 1)`
	assertNoDiags(t, mustParseAndValidate(t, src))
}

func TestValid_NestedClosures(t *testing.T) {
	src := `
(define make-adder (lambda (n) (lambda (x) (+ x n))))
((make-adder 1) 2)`
	assertNoDiags(t, mustParseAndValidate(t, src))
}

func TestValid_DefineInsideBody(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "((lambda (x) (define y x)) 1)"))
}

func TestValid_ParamShadowsBuiltin(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "((lambda (+) (+ 1 2)) *)"))
}

func TestValid_Globals(t *testing.T) {
	forms, _ := parser.Parse("(+ x 1)", "test.scm")
	assertNoDiags(t, validator.Validate(forms, append([]string{"x"}, builtins...)))
}

// ===== Unbound symbols =====

func TestUndefined_Simple(t *testing.T) {
	diags := mustParseAndValidate(t, "(+ foo 1)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefined)
	if !strings.Contains(diags[0].Message, "foo") {
		t.Errorf("message should name the symbol: %q", diags[0].Message)
	}
	if diags[0].Span == nil || diags[0].Span.StartCol != 4 {
		t.Errorf("unexpected span %+v", diags[0].Span)
	}
}

func TestUndefined_UseBeforeDefine(t *testing.T) {
	diags := mustParseAndValidate(t, "(+ x 1) (define x 2)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefined)
}

func TestUndefined_SelfReferenceAtTopLevel(t *testing.T) {
	diags := mustParseAndValidate(t, "(define x (+ x 1))")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefined)
}

func TestUndefined_ParamOutOfScope(t *testing.T) {
	diags := mustParseAndValidate(t, "(define f (lambda (x) x)) (+ x 1)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefined)
}

func TestUndefined_Suggestion(t *testing.T) {
	diags := mustParseAndValidate(t, "(define square (lambda (x) (* x x))) (sqare 2)")
	assertDiagCount(t, diags, 1)
	if !strings.Contains(diags[0].Hint, "square") {
		t.Errorf("hint = %q, want a suggestion of square", diags[0].Hint)
	}
}

func TestUndefined_ReportsAll(t *testing.T) {
	diags := mustParseAndValidate(t, "(+ a b) (- c 1)")
	assertDiagCount(t, diags, 3)
}

// ===== Special forms =====

func TestSpecialForm_DefineArity(t *testing.T) {
	diags := mustParseAndValidate(t, "(define x)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestSpecialForm_DefineTarget(t *testing.T) {
	diags := mustParseAndValidate(t, "(define 1 2)")
	assertHasCode(t, diags, diagnostics.EInvalid)
}

func TestSpecialForm_Redefine(t *testing.T) {
	diags := mustParseAndValidate(t, "(define if 1)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.ESpecialForm)
}

func TestSpecialForm_AsValue(t *testing.T) {
	diags := mustParseAndValidate(t, "(+ lambda 1)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.ESpecialForm)
}

func TestSpecialForm_IfArity(t *testing.T) {
	diags := mustParseAndValidate(t, "(if 1 2)")
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestSpecialForm_LambdaParams(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{"(lambda x x)", diagnostics.EInvalid},
		{"(lambda (1) 1)", diagnostics.EInvalid},
		{"(lambda (x x) x)", diagnostics.EInvalid},
		{"(lambda (if) 1)", diagnostics.ESpecialForm},
		{"(lambda (x))", diagnostics.EArity},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assertHasCode(t, mustParseAndValidate(t, tt.src), tt.code)
		})
	}
}

func TestSpecialForm_MemoizeNumber(t *testing.T) {
	diags := mustParseAndValidate(t, "(memoize 3)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EInvalid)
}

func TestSpecialForm_MemoizeArity(t *testing.T) {
	assertHasCode(t, mustParseAndValidate(t, "(memoize + -)"), diagnostics.EArity)
}

// ===== Applications =====

func TestApply_NumberHead(t *testing.T) {
	diags := mustParseAndValidate(t, "(1 2)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EInvalid)
}

func TestApply_LambdaLiteralArity(t *testing.T) {
	diags := mustParseAndValidate(t, "((lambda (x y) x) 1)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArity)
}

func TestEmptyFormBuiltInCode(t *testing.T) {
	diags := validator.Validate([]ast.Expr{ast.NewList()}, nil)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EInvalid)
	if diags[0].Span != nil {
		t.Errorf("a zero span should not be reported, got %+v", diags[0].Span)
	}
}

func TestValidate_NullaryLambda(t *testing.T) {
	diags := mustParseAndValidate(t, "(define seven (lambda () 7)) (+ (seven) 1)")
	assertNoDiags(t, diags)

	diags = mustParseAndValidate(t, "((lambda () 1) 2)")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArity)
}
