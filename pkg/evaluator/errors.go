package evaluator

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/memoscheme/pkg/ast"
	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
)

// ErrEvaluation is matched by every evaluation error via errors.Is.
var ErrEvaluation = errors.New("evaluation failed")

// Error is implemented by every evaluation failure.
type Error interface {
	error
	// Code is the diagnostic code, one of the diagnostics.E* constants.
	Code() string
	// Pos is the location of the offending expression, nil when unknown.
	Pos() *ast.Span
}

type positioned struct {
	Span *ast.Span
}

func (p *positioned) Pos() *ast.Span { return p.Span }

func (p *positioned) setPos(span ast.Span) {
	if p.Span == nil && span != (ast.Span{}) {
		p.Span = &span
	}
}

// UndefinedSymbolError reports a lookup that reached the root environment.
type UndefinedSymbolError struct {
	positioned
	Symbol string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol '%s'", e.Symbol)
}
func (e *UndefinedSymbolError) Code() string        { return diagnostics.EUndefined }
func (e *UndefinedSymbolError) Is(target error) bool { return target == ErrEvaluation }

// InvalidExpressionError reports a structurally malformed form.
type InvalidExpressionError struct {
	positioned
	// Form is the special form or context being evaluated, e.g. "define".
	Form string
	// Expected describes the shape that was required.
	Expected string
	// Got describes what was found instead, if known.
	Got string
}

func (e *InvalidExpressionError) Error() string {
	msg := e.Expected
	if e.Form != "" {
		msg = fmt.Sprintf("%s: %s", e.Form, e.Expected)
	}
	if e.Got != "" {
		msg += ", got " + e.Got
	}
	return msg
}
func (e *InvalidExpressionError) Code() string        { return diagnostics.EInvalid }
func (e *InvalidExpressionError) Is(target error) bool { return target == ErrEvaluation }

// ArityError reports an argument count mismatch for a special form or procedure.
type ArityError struct {
	positioned
	Name     string
	Expected int
	Actual   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s expects %d argument%s, got %d", e.Name, e.Expected, plural(e.Expected), e.Actual)
}
func (e *ArityError) Code() string        { return diagnostics.EArity }
func (e *ArityError) Is(target error) bool { return target == ErrEvaluation }

// TypeMismatchError reports a builtin operand of the wrong type.
type TypeMismatchError struct {
	positioned
	Op       string
	Position int // zero-based operand index
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("'%s' expects a %s as operand %d, got %s", e.Op, e.Expected, e.Position+1, e.Got)
}
func (e *TypeMismatchError) Code() string        { return diagnostics.EType }
func (e *TypeMismatchError) Is(target error) bool { return target == ErrEvaluation }

// DivisionByZeroError reports a zero divisor.
type DivisionByZeroError struct {
	positioned
	Op string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("'%s': division by zero", e.Op)
}
func (e *DivisionByZeroError) Code() string        { return diagnostics.EDivZero }
func (e *DivisionByZeroError) Is(target error) bool { return target == ErrEvaluation }

// BudgetError reports that evaluation nested deeper than Options.MaxDepth.
type BudgetError struct {
	positioned
	MaxDepth int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("depth budget exceeded (max %d)", e.MaxDepth)
}
func (e *BudgetError) Code() string        { return diagnostics.EBudget }
func (e *BudgetError) Is(target error) bool { return target == ErrEvaluation }

// BuiltinError wraps a plain error returned by a native procedure.
type BuiltinError struct {
	positioned
	Name string
	Err  error
}

func (e *BuiltinError) Error() string {
	return fmt.Sprintf("builtin '%s' failed: %s", e.Name, e.Err)
}
func (e *BuiltinError) Code() string        { return diagnostics.EBuiltin }
func (e *BuiltinError) Unwrap() error       { return e.Err }
func (e *BuiltinError) Is(target error) bool { return target == ErrEvaluation }

// ToDiagnostic converts an evaluation error into a diagnostic. Undefined
// symbols get a "did you mean" hint drawn from env when env is non-nil.
func ToDiagnostic(err error, env *Env) diagnostics.Diagnostic {
	var evalErr Error
	if !errors.As(err, &evalErr) {
		return diagnostics.MakeDiag(diagnostics.EInvalid, err.Error(), nil, "")
	}
	hint := ""
	var undef *UndefinedSymbolError
	if env != nil && errors.As(err, &undef) {
		hint = diagnostics.Suggest(undef.Symbol, env.Names())
	}
	return diagnostics.MakeDiag(evalErr.Code(), evalErr.Error(), evalErr.Pos(), hint)
}

// attachSpan records span on err if err is an evaluation error without a position.
func attachSpan(err error, span ast.Span) error {
	if p, ok := err.(interface{ setPos(ast.Span) }); ok {
		p.setPos(span)
	}
	return err
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
