package evaluator_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/thomasrohde/memoscheme/pkg/evaluator"
)

func TestNewValues(t *testing.T) {
	values := []evaluator.Value{
		evaluator.NewInt(42),
		evaluator.NewFloat(3.14),
		evaluator.NewSymbol("x"),
		evaluator.NewUnit(),
		evaluator.Bool(true),
	}

	for i, v := range values {
		if v == nil {
			t.Errorf("value %d: got nil", i)
		}
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{evaluator.NewInt(0), false},
		{evaluator.NewFloat(0), false},
		{evaluator.NewInt(1), true},
		{evaluator.NewInt(-1), true},
		{evaluator.NewFloat(0.001), true},
		{evaluator.NewUnit(), false},
		{evaluator.NewSymbol("x"), true},
		{&evaluator.Builtin{Name: "+"}, true},
		{&evaluator.Closure{}, true},
		{evaluator.Bool(true), true},
		{evaluator.Bool(false), false},
	}

	for _, tt := range tests {
		got := evaluator.Truthiness(tt.value)
		if got != tt.expected {
			t.Errorf("Truthiness(%s) = %v, want %v", evaluator.FormatValue(tt.value), got, tt.expected)
		}
	}
}

func TestFormatValue(t *testing.T) {
	closure := &evaluator.Closure{Params: []string{"a", "b"}}
	tests := []struct {
		value    evaluator.Value
		expected string
	}{
		{evaluator.NewInt(42), "42"},
		{evaluator.NewInt(-3), "-3"},
		{evaluator.NewFloat(2.5), "2.5"},
		{evaluator.NewFloat(4), "4.0"},
		{evaluator.NewFloat(1e21), "1e+21"},
		{evaluator.NewFloat(math.Inf(1)), "+Inf"},
		{evaluator.NewSymbol("foo"), "foo"},
		{evaluator.NewUnit(), ""},
		{&evaluator.Builtin{Name: "*"}, "#<builtin *>"},
		{closure, "#<lambda (a b)>"},
		{evaluator.Memoize(closure), "#<memoized #<lambda (a b)>>"},
	}

	for _, tt := range tests {
		got := evaluator.FormatValue(tt.value)
		if got != tt.expected {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected string
	}{
		{evaluator.NewInt(1), "number"},
		{evaluator.NewFloat(1.5), "number"},
		{evaluator.NewSymbol("s"), "symbol"},
		{evaluator.NewUnit(), "unit"},
		{&evaluator.Builtin{}, "procedure"},
		{&evaluator.Closure{}, "procedure"},
		{evaluator.Memoize(&evaluator.Builtin{}), "procedure"},
	}
	for _, tt := range tests {
		if got := evaluator.TypeName(tt.value); got != tt.expected {
			t.Errorf("TypeName(%s) = %q, want %q", evaluator.FormatValue(tt.value), got, tt.expected)
		}
	}
}

func TestEqual(t *testing.T) {
	plus := &evaluator.Builtin{Name: "+"}
	otherPlus := &evaluator.Builtin{Name: "+"}
	tests := []struct {
		name     string
		a, b     evaluator.Value
		expected bool
	}{
		{"int=int", evaluator.NewInt(3), evaluator.NewInt(3), true},
		{"int!=int", evaluator.NewInt(3), evaluator.NewInt(4), false},
		{"int=float", evaluator.NewInt(2), evaluator.NewFloat(2), true},
		{"symbol", evaluator.NewSymbol("a"), evaluator.NewSymbol("a"), true},
		{"symbol!=number", evaluator.NewSymbol("a"), evaluator.NewInt(1), false},
		{"unit", evaluator.NewUnit(), evaluator.NewUnit(), true},
		{"same builtin", plus, plus, true},
		{"distinct builtins", plus, otherPlus, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluator.Equal(tt.a, tt.b); got != tt.expected {
				t.Errorf("Equal = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValueToJSON(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected string
	}{
		{evaluator.NewInt(89), "89"},
		{evaluator.NewFloat(2.5), "2.5"},
		{evaluator.NewFloat(math.NaN()), `"NaN"`},
		{evaluator.NewSymbol("x"), `"x"`},
		{evaluator.NewUnit(), "null"},
		{&evaluator.Builtin{Name: "+"}, `"#<builtin +>"`},
	}
	for _, tt := range tests {
		if got := evaluator.ValueToJSONString(tt.value); got != tt.expected {
			t.Errorf("ValueToJSONString(%s) = %s, want %s", evaluator.FormatValue(tt.value), got, tt.expected)
		}
	}
}

func TestNewBigInt(t *testing.T) {
	small := evaluator.NewBigInt(big.NewInt(42))
	if n := small.(evaluator.Number); n.Big != nil || n.Int != 42 {
		t.Errorf("in-range big should normalize to int64, got %+v", n)
	}

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	v := evaluator.NewBigInt(huge)
	huge.SetInt64(0) // the value must not alias its argument
	if got := evaluator.FormatValue(v); got != "123456789012345678901234567890" {
		t.Errorf("FormatValue = %q", got)
	}
	if got := evaluator.ValueToJSONString(v); got != "123456789012345678901234567890" {
		t.Errorf("ValueToJSON = %s", got)
	}
	if !evaluator.Truthiness(v) {
		t.Error("big integers are truthy")
	}
	other, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	if !evaluator.Equal(v, evaluator.NewBigInt(other)) {
		t.Error("equal big integers should compare equal")
	}
	if evaluator.Equal(v, evaluator.NewInt(1)) {
		t.Error("big and small integers should differ")
	}
}
