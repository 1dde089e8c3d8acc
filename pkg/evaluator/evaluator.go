package evaluator

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/memoscheme/pkg/ast"
)

// Options configures an Evaluator.
type Options struct {
	// Trace receives structured events when non-nil.
	Trace func(event TraceEvent)
	// RunID is stamped on every trace event.
	RunID string
	// MaxDepth bounds eval nesting; zero means unlimited.
	MaxDepth int
}

// Evaluator evaluates expression trees. It is not safe for concurrent use;
// neither are the environments and memoized procedures it touches.
type Evaluator struct {
	opts  Options
	depth depthTracker
}

// New creates an evaluator with the given options.
func New(opts Options) *Evaluator {
	return &Evaluator{opts: opts}
}

// Evaluate evaluates expr in env with default options.
func Evaluate(expr ast.Expr, env *Env) (Value, error) {
	return New(Options{}).Eval(expr, env)
}

// Eval evaluates a single expression in env.
func (ev *Evaluator) Eval(expr ast.Expr, env *Env) (Value, error) {
	if env == nil {
		return nil, &InvalidExpressionError{Expected: "an environment", Got: "nil"}
	}
	return ev.eval(expr, env)
}

// Execute evaluates forms in order against env and returns the value of the
// last one. Evaluation stops at the first error; definitions made by earlier
// forms are kept.
func (ev *Evaluator) Execute(forms []ast.Expr, env *Env) (Value, error) {
	if env == nil {
		return nil, &InvalidExpressionError{Expected: "an environment", Got: "nil"}
	}
	ev.emitWithData(TraceRunStart, nil, map[string]string{"forms": itoa(len(forms))})

	var last Value = NewUnit()
	for _, form := range forms {
		span := form.NodeSpan()
		ev.emit(TraceFormStart, &span)
		val, err := ev.eval(form, env)
		if err != nil {
			ev.emitWithData(TraceFormEnd, &span, map[string]string{"error": err.Error()})
			ev.emit(TraceRunEnd, nil)
			return nil, err
		}
		ev.emitWithData(TraceFormEnd, &span, map[string]string{"value": FormatValue(val)})
		last = val
	}

	ev.emit(TraceRunEnd, nil)
	return last, nil
}

// form identifies how a compound form is evaluated, decided by its head.
type form int

const (
	formApply form = iota
	formDefine
	formIf
	formLambda
	formMemoize
)

var specialForms = map[string]form{
	"define":  formDefine,
	"if":      formIf,
	"lambda":  formLambda,
	"memoize": formMemoize,
}

// IsSpecialForm reports whether name is the head of a special form.
func IsSpecialForm(name string) bool {
	_, ok := specialForms[name]
	return ok
}

func classify(head ast.Expr) form {
	if sym, ok := head.(*ast.Symbol); ok {
		if f, ok := specialForms[sym.Name]; ok {
			return f
		}
	}
	return formApply
}

func (ev *Evaluator) eval(expr ast.Expr, env *Env) (Value, error) {
	if expr == nil {
		return nil, &InvalidExpressionError{Expected: "an expression", Got: "nothing"}
	}

	span := expr.NodeSpan()
	if err := ev.enter(span); err != nil {
		return nil, err
	}
	defer ev.leave()

	switch e := expr.(type) {
	case *ast.Number:
		switch {
		case e.IsFloat:
			return NewFloat(e.Float), nil
		case e.Big != nil:
			return NewBigInt(e.Big), nil
		}
		return NewInt(e.Int), nil

	case *ast.Symbol:
		val, err := env.Lookup(e.Name)
		if err != nil {
			return nil, attachSpan(err, span)
		}
		return val, nil

	case *ast.List:
		return ev.evalList(e, env)
	}

	return nil, attachSpan(&InvalidExpressionError{
		Expected: "a number, symbol or form",
		Got:      fmt.Sprintf("%T", expr),
	}, span)
}

func (ev *Evaluator) evalList(e *ast.List, env *Env) (Value, error) {
	if len(e.Items) == 0 {
		return nil, attachSpan(&InvalidExpressionError{Expected: "a non-empty form", Got: "()"}, e.Span)
	}

	switch classify(e.Head()) {
	case formDefine:
		return ev.evalDefine(e, env)
	case formIf:
		return ev.evalIf(e, env)
	case formLambda:
		return ev.evalLambda(e, env)
	case formMemoize:
		return ev.evalMemoize(e, env)
	}
	return ev.evalApplication(e, env)
}

// (define name expr)
func (ev *Evaluator) evalDefine(e *ast.List, env *Env) (Value, error) {
	args := e.Args()
	if len(args) != 2 {
		return nil, attachSpan(&ArityError{Name: "define", Expected: 2, Actual: len(args)}, e.Span)
	}
	name, ok := ast.SymbolName(args[0])
	if !ok {
		return nil, attachSpan(&InvalidExpressionError{
			Form:     "define",
			Expected: "a symbol as the definition target",
			Got:      describeExpr(args[0]),
		}, args[0].NodeSpan())
	}
	if IsSpecialForm(name) {
		return nil, attachSpan(&InvalidExpressionError{
			Form:     "define",
			Expected: "cannot redefine special form",
			Got:      fmt.Sprintf("'%s'", name),
		}, args[0].NodeSpan())
	}

	val, err := ev.eval(args[1], env)
	if err != nil {
		return nil, err
	}
	env.Define(name, val)

	if ev.tracing() {
		ev.emitWithData(TraceDefine, &e.Span, map[string]string{"name": name, "value": FormatValue(val)})
	}
	return NewUnit(), nil
}

// (if cond then else)
func (ev *Evaluator) evalIf(e *ast.List, env *Env) (Value, error) {
	args := e.Args()
	if len(args) != 3 {
		return nil, attachSpan(&ArityError{Name: "if", Expected: 3, Actual: len(args)}, e.Span)
	}
	cond, err := ev.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	if Truthiness(cond) {
		return ev.eval(args[1], env)
	}
	return ev.eval(args[2], env)
}

// (lambda (param...) body)
func (ev *Evaluator) evalLambda(e *ast.List, env *Env) (Value, error) {
	args := e.Args()
	if len(args) != 2 {
		return nil, attachSpan(&ArityError{Name: "lambda", Expected: 2, Actual: len(args)}, e.Span)
	}
	paramList, ok := args[0].(*ast.List)
	if !ok {
		return nil, attachSpan(&InvalidExpressionError{
			Form:     "lambda",
			Expected: "a parameter list of symbols",
			Got:      describeExpr(args[0]),
		}, args[0].NodeSpan())
	}

	params := make([]string, 0, len(paramList.Items))
	seen := make(map[string]bool, len(paramList.Items))
	for i, p := range paramList.Items {
		name, ok := ast.SymbolName(p)
		if !ok {
			return nil, attachSpan(&InvalidExpressionError{
				Form:     "lambda",
				Expected: fmt.Sprintf("parameter %d to be a symbol", i+1),
				Got:      describeExpr(p),
			}, p.NodeSpan())
		}
		if seen[name] {
			return nil, attachSpan(&InvalidExpressionError{
				Form:     "lambda",
				Expected: "distinct parameter names",
				Got:      fmt.Sprintf("duplicate '%s'", name),
			}, p.NodeSpan())
		}
		seen[name] = true
		params = append(params, name)
	}

	return &Closure{Params: params, Body: args[1], Env: env}, nil
}

// (memoize expr)
func (ev *Evaluator) evalMemoize(e *ast.List, env *Env) (Value, error) {
	args := e.Args()
	if len(args) != 1 {
		return nil, attachSpan(&ArityError{Name: "memoize", Expected: 1, Actual: len(args)}, e.Span)
	}
	val, err := ev.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	proc, ok := val.(Procedure)
	if !ok {
		return nil, attachSpan(&InvalidExpressionError{
			Form:     "memoize",
			Expected: "a procedure",
			Got:      typeNameOf(val),
		}, args[0].NodeSpan())
	}
	return Memoize(proc), nil
}

// (op arg...)
func (ev *Evaluator) evalApplication(e *ast.List, env *Env) (Value, error) {
	head, err := ev.eval(e.Items[0], env)
	if err != nil {
		return nil, err
	}
	proc, ok := head.(Procedure)
	if !ok {
		return nil, attachSpan(&InvalidExpressionError{
			Form:     "application",
			Expected: "a procedure in operator position",
			Got:      strings.TrimSpace(typeNameOf(head) + " " + FormatValue(head)),
		}, e.Items[0].NodeSpan())
	}

	args := make([]Value, 0, len(e.Items)-1)
	for _, argExpr := range e.Args() {
		val, err := ev.eval(argExpr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	return ev.apply(proc, args, e.Span)
}

// describeExpr summarizes an expression for error messages.
func describeExpr(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Number:
		return "number " + x.String()
	case *ast.Symbol:
		return "symbol " + x.Name
	case *ast.List:
		parts := make([]string, 0, len(x.Items))
		for _, item := range x.Items {
			switch it := item.(type) {
			case *ast.Number:
				parts = append(parts, it.String())
			case *ast.Symbol:
				parts = append(parts, it.Name)
			default:
				parts = append(parts, "(...)")
			}
		}
		return "form (" + strings.Join(parts, " ") + ")"
	}
	return fmt.Sprintf("%T", e)
}
