// Package ast defines the expression tree consumed by the evaluator.
package ast

import (
	"math/big"
	"strconv"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Expr is one of *Number, *Symbol or *List.
type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Atoms ---

// Number is an integer or floating-point literal. Integer literals outside
// the int64 range are held in Big.
type Number struct {
	Span    Span
	Int     int64
	Big     *big.Int
	Float   float64
	IsFloat bool
}

func (n *Number) Kind() string   { return "Number" }
func (n *Number) NodeSpan() Span { return n.Span }
func (n *Number) exprNode()      {}

// String renders the literal the way it would be written in source.
func (n *Number) String() string {
	if n.IsFloat {
		s := strconv.FormatFloat(n.Float, 'g', -1, 64)
		for i := 0; i < len(s); i++ {
			if s[i] == '.' || s[i] == 'e' || s[i] == 'I' || s[i] == 'N' {
				return s
			}
		}
		return s + ".0"
	}
	if n.Big != nil {
		return n.Big.String()
	}
	return strconv.FormatInt(n.Int, 10)
}

// Symbol names a variable, an operator or a special form.
type Symbol struct {
	Span Span
	Name string
}

func (n *Symbol) Kind() string   { return "Symbol" }
func (n *Symbol) NodeSpan() Span { return n.Span }
func (n *Symbol) exprNode()      {}

// --- Compound forms ---

// List is a parenthesized form (head arg...).
type List struct {
	Span  Span
	Items []Expr
}

func (n *List) Kind() string   { return "List" }
func (n *List) NodeSpan() Span { return n.Span }
func (n *List) exprNode()      {}

// Head returns the first item, or nil for an empty list.
func (n *List) Head() Expr {
	if len(n.Items) == 0 {
		return nil
	}
	return n.Items[0]
}

// Args returns every item after the head.
func (n *List) Args() []Expr {
	if len(n.Items) == 0 {
		return nil
	}
	return n.Items[1:]
}

// --- Constructors for trees built in code ---

// Int creates an integer literal with a zero span.
func Int(v int64) *Number {
	return &Number{Int: v}
}

// Float creates a floating-point literal with a zero span.
func Float(v float64) *Number {
	return &Number{Float: v, IsFloat: true}
}

// Sym creates a symbol with a zero span.
func Sym(name string) *Symbol {
	return &Symbol{Name: name}
}

// NewList creates a compound form with a zero span.
func NewList(items ...Expr) *List {
	return &List{Items: items}
}

// SymbolName returns the name if e is a symbol.
func SymbolName(e Expr) (string, bool) {
	if s, ok := e.(*Symbol); ok {
		return s.Name, true
	}
	return "", false
}
