// Package validator implements static checks of parsed programs.
package validator

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/memoscheme/pkg/ast"
	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
	"github.com/thomasrohde/memoscheme/pkg/evaluator"
)

// scope tracks names visible at a point in the program. bindings are names
// bound before the current form; later are names a define in this scope will
// bind eventually, which a procedure body may rely on because it runs after
// the enclosing forms.
type scope struct {
	bindings map[string]bool
	later    map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), later: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string, deferred bool) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.bindings[name] || (deferred && sc.later[name]) {
			return true
		}
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

func (s *scope) names() []string {
	seen := make(map[string]bool)
	var out []string
	for sc := s; sc != nil; sc = sc.parent {
		for _, m := range []map[string]bool{sc.bindings, sc.later} {
			for name := range m {
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks forms without evaluating them and returns diagnostics for
// malformed special forms and for symbols that would be unbound when
// referenced. globals lists the names already bound in the environment the
// forms will run in.
func Validate(forms []ast.Expr, globals []string) []diagnostics.Diagnostic {
	v := &validator{}
	top := newScope(nil)
	for _, name := range globals {
		top.add(name)
	}
	for _, form := range forms {
		collectDefines(form, top.later)
	}

	for _, form := range forms {
		v.validateExpr(form, top, false)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	var sp *ast.Span
	if span != (ast.Span{}) {
		sp = &span
	}
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, sp, hint))
}

// collectDefines records the targets of define forms evaluated in the same
// scope as e. Lambda bodies open a new scope and are skipped.
func collectDefines(e ast.Expr, into map[string]bool) {
	list, ok := e.(*ast.List)
	if !ok || len(list.Items) == 0 {
		return
	}
	head, _ := ast.SymbolName(list.Head())
	switch head {
	case "lambda":
		return
	case "define":
		if args := list.Args(); len(args) == 2 {
			if name, ok := ast.SymbolName(args[0]); ok {
				into[name] = true
			}
		}
	}
	for _, item := range list.Items {
		collectDefines(item, into)
	}
}

// validateExpr checks e in sc. deferred is true inside a procedure body,
// where later definitions of enclosing scopes are already in place.
func (v *validator) validateExpr(e ast.Expr, sc *scope, deferred bool) {
	switch x := e.(type) {
	case nil:
		v.addDiag(diagnostics.EInvalid, "missing expression", ast.Span{}, "")

	case *ast.Number:
		// literals are always valid

	case *ast.Symbol:
		v.validateSymbol(x, sc, deferred)

	case *ast.List:
		v.validateList(x, sc, deferred)
	}
}

func (v *validator) validateSymbol(sym *ast.Symbol, sc *scope, deferred bool) {
	if sc.has(sym.Name, deferred) {
		return
	}
	if evaluator.IsSpecialForm(sym.Name) {
		v.addDiag(diagnostics.ESpecialForm, fmt.Sprintf("special form '%s' cannot be used as a value", sym.Name), sym.Span, "")
		return
	}
	v.addDiag(diagnostics.EUndefined, fmt.Sprintf("undefined symbol '%s'", sym.Name), sym.Span,
		diagnostics.Suggest(sym.Name, sc.names()))
}

func (v *validator) validateList(list *ast.List, sc *scope, deferred bool) {
	if len(list.Items) == 0 {
		v.addDiag(diagnostics.EInvalid, "empty form '()' is not an expression", list.Span, "")
		return
	}

	head, _ := ast.SymbolName(list.Head())
	switch head {
	case "define":
		v.validateDefine(list, sc, deferred)
	case "if":
		if v.checkArity("if", list, 3) {
			for _, arg := range list.Args() {
				v.validateExpr(arg, sc, deferred)
			}
		}
	case "lambda":
		v.validateLambda(list, sc)
	case "memoize":
		if v.checkArity("memoize", list, 1) {
			arg := list.Args()[0]
			if n, ok := arg.(*ast.Number); ok {
				v.addDiag(diagnostics.EInvalid, fmt.Sprintf("memoize: expected a procedure, got number %s", n.String()), n.Span, "")
				return
			}
			v.validateExpr(arg, sc, deferred)
		}
	default:
		v.validateApplication(list, sc, deferred)
	}
}

func (v *validator) checkArity(form string, list *ast.List, want int) bool {
	if got := len(list.Args()); got != want {
		v.addDiag(diagnostics.EArity, fmt.Sprintf("%s expects %d argument%s, got %d", form, want, plural(want), got), list.Span, "")
		return false
	}
	return true
}

func (v *validator) validateDefine(list *ast.List, sc *scope, deferred bool) {
	if !v.checkArity("define", list, 2) {
		return
	}
	args := list.Args()
	name, ok := ast.SymbolName(args[0])
	if !ok {
		v.addDiag(diagnostics.EInvalid, "define: expected a symbol as the definition target", args[0].NodeSpan(), "")
		v.validateExpr(args[1], sc, deferred)
		return
	}
	if evaluator.IsSpecialForm(name) {
		v.addDiag(diagnostics.ESpecialForm, fmt.Sprintf("cannot redefine special form '%s'", name), args[0].NodeSpan(), "")
	}
	v.validateExpr(args[1], sc, deferred)
	sc.add(name)
}

// params checks a lambda parameter list and returns the names it binds.
func (v *validator) params(list *ast.List) []string {
	paramList, ok := list.Args()[0].(*ast.List)
	if !ok {
		v.addDiag(diagnostics.EInvalid, "lambda: expected a parameter list of symbols", list.Args()[0].NodeSpan(), "")
		return nil
	}
	seen := make(map[string]bool, len(paramList.Items))
	names := make([]string, 0, len(paramList.Items))
	for _, p := range paramList.Items {
		name, ok := ast.SymbolName(p)
		switch {
		case !ok:
			v.addDiag(diagnostics.EInvalid, "lambda: parameters must be symbols", p.NodeSpan(), "")
		case seen[name]:
			v.addDiag(diagnostics.EInvalid, fmt.Sprintf("lambda: duplicate parameter '%s'", name), p.NodeSpan(), "")
		case evaluator.IsSpecialForm(name):
			v.addDiag(diagnostics.ESpecialForm, fmt.Sprintf("parameter '%s' can never be called: the name is a special form", name), p.NodeSpan(), "")
		default:
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func (v *validator) validateLambda(list *ast.List, sc *scope) {
	if !v.checkArity("lambda", list, 2) {
		return
	}
	body := list.Args()[1]
	child := newScope(sc)
	for _, name := range v.params(list) {
		child.add(name)
	}
	collectDefines(body, child.later)
	v.validateExpr(body, child, true)
}

func (v *validator) validateApplication(list *ast.List, sc *scope, deferred bool) {
	switch h := list.Head().(type) {
	case *ast.Number:
		v.addDiag(diagnostics.EInvalid, fmt.Sprintf("cannot apply number %s", h.String()), h.Span, "")
	case *ast.List:
		// ((lambda (x) ...) arg) can be checked for arity.
		if name, _ := ast.SymbolName(h.Head()); name == "lambda" && len(h.Args()) == 2 {
			if params, ok := h.Args()[0].(*ast.List); ok && len(params.Items) != len(list.Args()) {
				v.addDiag(diagnostics.EArity, fmt.Sprintf("lambda expects %d argument%s, got %d",
					len(params.Items), plural(len(params.Items)), len(list.Args())), list.Span, "")
			}
		}
		v.validateExpr(h, sc, deferred)
	default:
		v.validateExpr(h, sc, deferred)
	}
	for _, arg := range list.Args() {
		v.validateExpr(arg, sc, deferred)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
