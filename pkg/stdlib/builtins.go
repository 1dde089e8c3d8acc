package stdlib

import (
	"github.com/thomasrohde/memoscheme/pkg/evaluator"
)

// RegisterDefaults adds the arithmetic and comparison procedures.
func RegisterDefaults(r *Registry) {
	// Arithmetic
	r.Register(Fn{Name: "+", Arity: 2, Execute: stdlibAdd})
	r.Register(Fn{Name: "-", Arity: 2, Execute: stdlibSub})
	r.Register(Fn{Name: "*", Arity: 2, Execute: stdlibMul})
	r.Register(Fn{Name: "/", Arity: 2, Execute: stdlibDiv})

	// Comparison
	r.Register(Fn{Name: "=", Arity: 2, Execute: stdlibEq})
	r.Register(Fn{Name: "<", Arity: 2, Execute: stdlibLt})
	r.Register(Fn{Name: ">", Arity: 2, Execute: stdlibGt})
}

// NewGlobalEnv creates a fresh root environment holding the default procedures.
func NewGlobalEnv() *evaluator.Env {
	r := NewRegistry()
	RegisterDefaults(r)
	return GlobalEnvFrom(r)
}

// GlobalEnvFrom creates a fresh root environment holding every procedure in r.
func GlobalEnvFrom(r *Registry) *evaluator.Env {
	env := evaluator.NewEnv(nil)
	for _, name := range r.Names() {
		env.Define(name, r.Get(name).Builtin())
	}
	return env
}

// numbers checks that every operand of op is a number.
func numbers(op string, args []evaluator.Value) ([]evaluator.Number, error) {
	nums := make([]evaluator.Number, len(args))
	for i, arg := range args {
		n, ok := arg.(evaluator.Number)
		if !ok {
			return nil, &evaluator.TypeMismatchError{
				Op:       op,
				Position: i,
				Expected: "number",
				Got:      evaluator.TypeName(arg),
			}
		}
		nums[i] = n
	}
	return nums, nil
}
