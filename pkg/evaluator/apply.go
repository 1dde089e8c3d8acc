package evaluator

import (
	"errors"

	"github.com/thomasrohde/memoscheme/pkg/ast"
)

// Apply calls proc with already-evaluated arguments.
func (ev *Evaluator) Apply(proc Procedure, args []Value) (Value, error) {
	if proc == nil {
		return nil, &InvalidExpressionError{Form: "application", Expected: "a procedure", Got: "nothing"}
	}
	return ev.apply(proc, args, ast.Span{})
}

func (ev *Evaluator) apply(proc Procedure, args []Value, span ast.Span) (Value, error) {
	switch p := proc.(type) {
	case *Builtin:
		return ev.applyBuiltin(p, args, span)
	case *Closure:
		return ev.applyClosure(p, args, span)
	case *Memoized:
		return ev.applyMemoized(p, args, span)
	}
	return nil, attachSpan(&InvalidExpressionError{Form: "application", Expected: "a procedure", Got: typeNameOf(proc)}, span)
}

func (ev *Evaluator) applyBuiltin(p *Builtin, args []Value, span ast.Span) (Value, error) {
	if len(args) != p.Arity {
		return nil, attachSpan(&ArityError{Name: "'" + p.Name + "'", Expected: p.Arity, Actual: len(args)}, span)
	}

	if ev.tracing() {
		ev.emitWithData(TraceApplyStart, &span, map[string]string{"proc": p.Name})
	}
	val, err := p.Fn(args)
	if err != nil {
		var evalErr Error
		if !errors.As(err, &evalErr) {
			err = &BuiltinError{Name: p.Name, Err: err}
		}
		return nil, attachSpan(err, span)
	}
	if ev.tracing() {
		ev.emitWithData(TraceApplyEnd, &span, map[string]string{"proc": p.Name, "value": FormatValue(val)})
	}
	return val, nil
}

func (ev *Evaluator) applyClosure(p *Closure, args []Value, span ast.Span) (Value, error) {
	if len(args) != len(p.Params) {
		return nil, attachSpan(&ArityError{Name: FormatValue(p), Expected: len(p.Params), Actual: len(args)}, span)
	}

	callEnv := p.Env.Child()
	for i, name := range p.Params {
		callEnv.Define(name, args[i])
	}

	if ev.tracing() {
		ev.emitWithData(TraceApplyStart, &span, map[string]string{"proc": FormatValue(p)})
	}
	val, err := ev.eval(p.Body, callEnv)
	if err != nil {
		return nil, err
	}
	if ev.tracing() {
		ev.emitWithData(TraceApplyEnd, &span, map[string]string{"proc": FormatValue(p), "value": FormatValue(val)})
	}
	return val, nil
}
