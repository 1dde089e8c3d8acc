// Package formatter implements the source code formatter.
package formatter

import (
	"strings"

	"github.com/thomasrohde/memoscheme/pkg/ast"
)

const indent = "  "

// maxWidth is the column limit a form must fit in to stay on one line.
const maxWidth = 80

// Format pretty-prints parsed forms back to source code, one top-level form
// per line. Multi-line forms are separated from their neighbours by a blank
// line.
func Format(forms []ast.Expr) string {
	var b strings.Builder
	prevMulti := false
	for i, form := range forms {
		out := formatExpr(form, 0)
		multi := strings.Contains(out, "\n")
		if i > 0 && (multi || prevMulti) {
			b.WriteByte('\n')
		}
		b.WriteString(out)
		b.WriteByte('\n')
		prevMulti = multi
	}
	return b.String()
}

// FormatExpr formats a single expression without a trailing newline.
func FormatExpr(e ast.Expr) string {
	return formatExpr(e, 0)
}

// HasComments reports whether source contains comments, which formatting drops.
func HasComments(source string) bool {
	return strings.ContainsRune(source, ';')
}

// flat renders e on a single line.
func flat(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Number:
		return x.String()
	case *ast.Symbol:
		return x.Name
	case *ast.List:
		parts := make([]string, len(x.Items))
		for i, item := range x.Items {
			parts[i] = flat(item)
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return ""
}

// formatExpr renders e starting at nesting depth. The first line carries no
// indentation; continuation lines are indented absolutely.
func formatExpr(e ast.Expr, depth int) string {
	one := flat(e)
	list, ok := e.(*ast.List)
	if !ok || len(list.Items) < 2 || len(one)+depth*len(indent) <= maxWidth {
		return one
	}

	pad := "\n" + strings.Repeat(indent, depth+1)
	head := flat(list.Head())
	args := list.Args()

	switch head {
	case "define", "lambda":
		// The name or parameter list stays next to the keyword.
		out := "(" + head + " " + flat(args[0])
		for _, arg := range args[1:] {
			out += pad + formatExpr(arg, depth+1)
		}
		return out + ")"
	case "if":
		out := "(if " + formatExpr(args[0], depth+2)
		for _, arg := range args[1:] {
			out += pad + formatExpr(arg, depth+1)
		}
		return out + ")"
	}

	// An atom head keeps its first argument on the same line.
	out := "(" + formatExpr(list.Head(), depth+1)
	if _, isList := list.Head().(*ast.List); !isList {
		out += " " + formatExpr(args[0], depth+1)
		args = args[1:]
	}
	for _, arg := range args {
		out += pad + formatExpr(arg, depth+1)
	}
	return out + ")"
}
