// Package evaluator implements the expression evaluator, its environments and procedures.
package evaluator

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/thomasrohde/memoscheme/pkg/ast"
)

// Value is the interface for all runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
}

// Number is an exact integer or a floating-point value. Integers that do
// not fit in an int64 are held in Big; Big is nil for every other number.
type Number struct {
	Int     int64
	Big     *big.Int
	Float   float64
	IsFloat bool
}

func (Number) value() {}

// Symbol is a symbol carried as a value.
type Symbol struct {
	Name string
}

func (Symbol) value() {}

// Unit is the value returned by define.
type Unit struct{}

func (Unit) value() {}

// Procedure is one of *Builtin, *Closure or *Memoized.
type Procedure interface {
	Value
	procedure() // sealed marker
}

// BuiltinFunc implements a native procedure. The argument count has already
// been checked against the declared arity.
type BuiltinFunc func(args []Value) (Value, error)

// Builtin is a fixed-arity native procedure.
type Builtin struct {
	Name  string
	Arity int
	Fn    BuiltinFunc
}

func (*Builtin) value()     {}
func (*Builtin) procedure() {}

// Closure is a user-defined procedure. Env is the defining scope, held by
// reference so later definitions in that scope are visible to the body.
type Closure struct {
	Params []string
	Body   ast.Expr
	Env    *Env
}

func (*Closure) value()     {}
func (*Closure) procedure() {}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Number{Int: n}
}

// NewBigInt creates an integer value from b. Values in int64 range are
// stored as Int, so two equal integers always have the same representation.
func NewBigInt(b *big.Int) Value {
	if b.IsInt64() {
		return NewInt(b.Int64())
	}
	return Number{Big: new(big.Int).Set(b)}
}

// NewFloat creates a floating-point value.
func NewFloat(f float64) Value {
	return Number{Float: f, IsFloat: true}
}

// NewSymbol creates a symbol value.
func NewSymbol(name string) Value {
	return Symbol{Name: name}
}

// NewUnit returns the unit value.
func NewUnit() Value {
	return Unit{}
}

// Bool converts a Go boolean to the numbers 1 and 0.
func Bool(b bool) Value {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

// AsFloat returns the number as a float64.
func (n Number) AsFloat() float64 {
	switch {
	case n.IsFloat:
		return n.Float
	case n.Big != nil:
		f, _ := new(big.Float).SetInt(n.Big).Float64()
		return f
	}
	return float64(n.Int)
}

// AsBig returns an integer number as a new big.Int.
func (n Number) AsBig() *big.Int {
	if n.Big != nil {
		return new(big.Int).Set(n.Big)
	}
	return big.NewInt(n.Int)
}

// IsZero reports whether the number equals zero.
func (n Number) IsZero() bool {
	switch {
	case n.IsFloat:
		return n.Float == 0
	case n.Big != nil:
		return n.Big.Sign() == 0
	}
	return n.Int == 0
}

// Truthiness returns the boolean interpretation of a value.
// Zero and unit are falsy; every other value is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Number:
		return !val.IsZero()
	case Unit:
		return false
	case nil:
		return false
	default:
		return true
	}
}

// typeNameOf returns the type name for error messages.
func typeNameOf(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case Symbol:
		return "symbol"
	case Unit:
		return "unit"
	case *Builtin, *Closure, *Memoized:
		return "procedure"
	default:
		return "unknown"
	}
}

// TypeName returns the type name of a value.
func TypeName(v Value) string {
	return typeNameOf(v)
}

// FormatValue renders a value for display.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case Number:
		return formatNumber(val)
	case Symbol:
		return val.Name
	case Unit:
		return ""
	case *Builtin:
		return fmt.Sprintf("#<builtin %s>", val.Name)
	case *Closure:
		return fmt.Sprintf("#<lambda (%s)>", strings.Join(val.Params, " "))
	case *Memoized:
		return fmt.Sprintf("#<memoized %s>", FormatValue(val.inner))
	case nil:
		return ""
	}
	return fmt.Sprintf("#<%T>", v)
}

func formatNumber(n Number) string {
	if !n.IsFloat {
		if n.Big != nil {
			return n.Big.String()
		}
		return strconv.FormatInt(n.Int, 10)
	}
	if math.IsInf(n.Float, 0) || math.IsNaN(n.Float) {
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}
	s := strconv.FormatFloat(n.Float, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// NumEqual compares two numbers by value across int and float.
func NumEqual(a, b Number) bool {
	if !a.IsFloat && !b.IsFloat {
		if a.Big != nil || b.Big != nil {
			return a.AsBig().Cmp(b.AsBig()) == 0
		}
		return a.Int == b.Int
	}
	return a.AsFloat() == b.AsFloat()
}

// Equal compares two values. Numbers compare numerically, symbols by name,
// procedures by identity.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && NumEqual(av, bv)
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av.Name == bv.Name
	case Unit:
		_, ok := b.(Unit)
		return ok
	case *Builtin:
		bv, ok := b.(*Builtin)
		return ok && av == bv
	case *Closure:
		bv, ok := b.(*Closure)
		return ok && av == bv
	case *Memoized:
		bv, ok := b.(*Memoized)
		return ok && av == bv
	}
	return false
}
