package stdlib

import (
	"math"
	"math/big"

	"github.com/thomasrohde/memoscheme/pkg/evaluator"
)

// intOps computes an integer result. fast works on int64 operands and reports
// false on overflow, in which case slow recomputes exactly with big.Int.
type intOps struct {
	fast func(a, b int64) (int64, bool)
	slow func(z, a, b *big.Int) *big.Int
}

// arith applies ints when both operands are integers and floatOp otherwise.
func arith(op string, args []evaluator.Value, ints intOps, floatOp func(a, b float64) float64) (evaluator.Value, error) {
	nums, err := numbers(op, args)
	if err != nil {
		return nil, err
	}
	a, b := nums[0], nums[1]
	if a.IsFloat || b.IsFloat {
		return evaluator.NewFloat(floatOp(a.AsFloat(), b.AsFloat())), nil
	}
	if a.Big == nil && b.Big == nil {
		if r, ok := ints.fast(a.Int, b.Int); ok {
			return evaluator.NewInt(r), nil
		}
	}
	return evaluator.NewBigInt(ints.slow(new(big.Int), a.AsBig(), b.AsBig())), nil
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	return c, (a^c)&(b^c) >= 0
}

func subInt64(a, b int64) (int64, bool) {
	c := a - b
	return c, (a^b)&(a^c) >= 0
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}

// (+ a b)
func stdlibAdd(args []evaluator.Value) (evaluator.Value, error) {
	return arith("+", args,
		intOps{addInt64, (*big.Int).Add},
		func(a, b float64) float64 { return a + b })
}

// (- a b)
func stdlibSub(args []evaluator.Value) (evaluator.Value, error) {
	return arith("-", args,
		intOps{subInt64, (*big.Int).Sub},
		func(a, b float64) float64 { return a - b })
}

// (* a b)
func stdlibMul(args []evaluator.Value) (evaluator.Value, error) {
	return arith("*", args,
		intOps{mulInt64, (*big.Int).Mul},
		func(a, b float64) float64 { return a * b })
}

// (/ a b) is true division and always yields a float.
func stdlibDiv(args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers("/", args)
	if err != nil {
		return nil, err
	}
	if nums[1].IsZero() {
		return nil, &evaluator.DivisionByZeroError{Op: "/"}
	}
	a, b := nums[0], nums[1]
	if !a.IsFloat && !b.IsFloat && (a.Big != nil || b.Big != nil) {
		q, _ := new(big.Rat).SetFrac(a.AsBig(), b.AsBig()).Float64()
		return evaluator.NewFloat(q), nil
	}
	return evaluator.NewFloat(a.AsFloat() / b.AsFloat()), nil
}
