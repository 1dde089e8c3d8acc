package stdlib

import (
	"github.com/thomasrohde/memoscheme/pkg/evaluator"
)

// compare yields 1 or 0 from a numeric comparison across int and float.
// Big integers are compared through the sign of their difference.
func compare(op string, args []evaluator.Value, intCmp func(a, b int64) bool, floatCmp func(a, b float64) bool) (evaluator.Value, error) {
	nums, err := numbers(op, args)
	if err != nil {
		return nil, err
	}
	a, b := nums[0], nums[1]
	if !a.IsFloat && !b.IsFloat {
		if a.Big != nil || b.Big != nil {
			return evaluator.Bool(intCmp(int64(a.AsBig().Cmp(b.AsBig())), 0)), nil
		}
		return evaluator.Bool(intCmp(a.Int, b.Int)), nil
	}
	return evaluator.Bool(floatCmp(a.AsFloat(), b.AsFloat())), nil
}

// (= a b)
func stdlibEq(args []evaluator.Value) (evaluator.Value, error) {
	return compare("=", args,
		func(a, b int64) bool { return a == b },
		func(a, b float64) bool { return a == b })
}

// (< a b)
func stdlibLt(args []evaluator.Value) (evaluator.Value, error) {
	return compare("<", args,
		func(a, b int64) bool { return a < b },
		func(a, b float64) bool { return a < b })
}

// (> a b)
func stdlibGt(args []evaluator.Value) (evaluator.Value, error) {
	return compare(">", args,
		func(a, b int64) bool { return a > b },
		func(a, b float64) bool { return a > b })
}
