package stdlib_test

import (
	"errors"
	"math"
	"testing"

	"github.com/thomasrohde/memoscheme/pkg/evaluator"
	"github.com/thomasrohde/memoscheme/pkg/stdlib"
)

func call(t *testing.T, name string, args ...evaluator.Value) (evaluator.Value, error) {
	t.Helper()
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)
	fn := reg.Get(name)
	if fn == nil {
		t.Fatalf("builtin %q not registered", name)
	}
	return fn.Execute(args)
}

func mustCall(t *testing.T, name string, args ...evaluator.Value) evaluator.Value {
	t.Helper()
	v, err := call(t, name, args...)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return v
}

func TestDefaultsRegistered(t *testing.T) {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)

	want := []string{"*", "+", "-", "/", "<", "=", ">"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
		if reg.Get(want[i]).Arity != 2 {
			t.Errorf("%q arity = %d, want 2", want[i], reg.Get(want[i]).Arity)
		}
	}
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		op   string
		a, b int64
		want int64
	}{
		{"+", 2, 3, 5},
		{"+", -4, 4, 0},
		{"-", 10, 3, 7},
		{"-", 3, 10, -7},
		{"*", 6, 7, 42},
		{"*", -3, 5, -15},
	}
	for _, tt := range tests {
		v := mustCall(t, tt.op, evaluator.NewInt(tt.a), evaluator.NewInt(tt.b))
		n, ok := v.(evaluator.Number)
		if !ok || n.IsFloat || n.Int != tt.want {
			t.Errorf("(%s %d %d) = %v, want integer %d", tt.op, tt.a, tt.b, v, tt.want)
		}
	}
}

func TestIntegerOverflowPromotesToBig(t *testing.T) {
	maxInt := evaluator.NewInt(math.MaxInt64)
	minInt := evaluator.NewInt(math.MinInt64)
	tests := []struct {
		op   string
		a, b evaluator.Value
		want string
	}{
		{"+", maxInt, evaluator.NewInt(1), "9223372036854775808"},
		{"+", minInt, evaluator.NewInt(-1), "-9223372036854775809"},
		{"-", minInt, evaluator.NewInt(1), "-9223372036854775809"},
		{"-", evaluator.NewInt(0), minInt, "9223372036854775808"},
		{"*", minInt, evaluator.NewInt(-1), "9223372036854775808"},
		{"*", maxInt, maxInt, "85070591730234615847396907784232501249"},
	}
	for _, tt := range tests {
		v := mustCall(t, tt.op, tt.a, tt.b)
		n := v.(evaluator.Number)
		if n.IsFloat || n.Big == nil || n.Big.String() != tt.want {
			t.Errorf("(%s %s %s) = %s, want %s", tt.op, evaluator.FormatValue(tt.a), evaluator.FormatValue(tt.b), evaluator.FormatValue(v), tt.want)
		}
	}

	// Operations that stay in range keep the int64 form.
	big := mustCall(t, "+", maxInt, evaluator.NewInt(1))
	v := mustCall(t, "-", big, evaluator.NewInt(1))
	if n := v.(evaluator.Number); n.Big != nil || n.Int != math.MaxInt64 {
		t.Errorf("expected int64 %d, got %+v", int64(math.MaxInt64), n)
	}
	if v := mustCall(t, "*", maxInt, evaluator.NewInt(0)); !evaluator.Equal(v, evaluator.NewInt(0)) {
		t.Errorf("(* max 0) = %s", evaluator.FormatValue(v))
	}
}

func TestFloatPromotion(t *testing.T) {
	v := mustCall(t, "+", evaluator.NewInt(1), evaluator.NewFloat(0.5))
	n := v.(evaluator.Number)
	if !n.IsFloat || n.Float != 1.5 {
		t.Errorf("(+ 1 0.5) = %v, want 1.5", v)
	}
}

func TestDivision(t *testing.T) {
	v := mustCall(t, "/", evaluator.NewInt(10), evaluator.NewInt(4))
	n := v.(evaluator.Number)
	if !n.IsFloat || n.Float != 2.5 {
		t.Errorf("(/ 10 4) = %v, want 2.5", v)
	}

	v = mustCall(t, "/", evaluator.NewInt(6), evaluator.NewInt(3))
	n = v.(evaluator.Number)
	if !n.IsFloat || n.Float != 2 {
		t.Errorf("(/ 6 3) = %v, want float 2", v)
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, divisor := range []evaluator.Value{evaluator.NewInt(0), evaluator.NewFloat(0), evaluator.NewFloat(math.Copysign(0, -1))} {
		_, err := call(t, "/", evaluator.NewInt(1), divisor)
		var dz *evaluator.DivisionByZeroError
		if !errors.As(err, &dz) {
			t.Fatalf("expected *DivisionByZeroError for divisor %v, got %v", divisor, err)
		}
		if !errors.Is(err, evaluator.ErrEvaluation) {
			t.Error("division by zero should match ErrEvaluation")
		}
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		op   string
		a, b evaluator.Value
		want int64
	}{
		{"=", evaluator.NewInt(1), evaluator.NewInt(1), 1},
		{"=", evaluator.NewInt(1), evaluator.NewInt(2), 0},
		{"=", evaluator.NewInt(2), evaluator.NewFloat(2), 1},
		{"<", evaluator.NewInt(1), evaluator.NewInt(2), 1},
		{"<", evaluator.NewInt(2), evaluator.NewInt(2), 0},
		{"<", evaluator.NewFloat(1.5), evaluator.NewInt(2), 1},
		{">", evaluator.NewInt(3), evaluator.NewInt(2), 1},
		{">", evaluator.NewInt(2), evaluator.NewFloat(2.5), 0},
	}
	for _, tt := range tests {
		v := mustCall(t, tt.op, tt.a, tt.b)
		n, ok := v.(evaluator.Number)
		if !ok || n.IsFloat || n.Int != tt.want {
			t.Errorf("(%s %s %s) = %v, want %d", tt.op, evaluator.FormatValue(tt.a), evaluator.FormatValue(tt.b), v, tt.want)
		}
	}
}

func TestTypeMismatch(t *testing.T) {
	square := &evaluator.Closure{Params: []string{"x"}}
	for _, op := range []string{"+", "-", "*", "/", "=", "<", ">"} {
		_, err := call(t, op, evaluator.NewInt(1), square)
		var tm *evaluator.TypeMismatchError
		if !errors.As(err, &tm) {
			t.Fatalf("%s: expected *TypeMismatchError, got %v", op, err)
		}
		if tm.Op != op || tm.Position != 1 || tm.Got != "procedure" || tm.Expected != "number" {
			t.Errorf("%s: unexpected error fields %+v", op, tm)
		}
	}

	_, err := call(t, "+", evaluator.NewSymbol("x"), evaluator.NewInt(1))
	var tm *evaluator.TypeMismatchError
	if !errors.As(err, &tm) || tm.Position != 0 || tm.Got != "symbol" {
		t.Errorf("expected symbol mismatch at operand 0, got %v", err)
	}
}

func TestGlobalEnv(t *testing.T) {
	env := stdlib.NewGlobalEnv()
	for _, name := range []string{"+", "-", "*", "/", "=", "<", ">"} {
		v, ok := env.Get(name)
		if !ok {
			t.Fatalf("%q not bound in global env", name)
		}
		b, ok := v.(*evaluator.Builtin)
		if !ok || b.Name != name || b.Arity != 2 {
			t.Errorf("%q bound to %v", name, v)
		}
	}
	if env.Parent() != nil {
		t.Error("global env should have no parent")
	}

	// Each call builds an independent environment.
	other := stdlib.NewGlobalEnv()
	env.Define("x", evaluator.NewInt(1))
	if other.Has("x") {
		t.Error("global environments should not share bindings")
	}
}

func TestCustomPrimitive(t *testing.T) {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)
	reg.Register(stdlib.Fn{Name: "max", Arity: 2, Execute: func(args []evaluator.Value) (evaluator.Value, error) {
		a, b := args[0].(evaluator.Number), args[1].(evaluator.Number)
		if a.AsFloat() >= b.AsFloat() {
			return a, nil
		}
		return b, nil
	}})

	env := stdlib.GlobalEnvFrom(reg)
	v, ok := env.Get("max")
	if !ok {
		t.Fatal("max not bound")
	}
	got, err := v.(*evaluator.Builtin).Fn([]evaluator.Value{evaluator.NewInt(10), evaluator.NewInt(3)})
	if err != nil || !evaluator.Equal(got, evaluator.NewInt(10)) {
		t.Errorf("(max 10 3) = %v, %v", got, err)
	}
}
