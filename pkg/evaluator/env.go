package evaluator

import "sort"

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping. Bindings are only
// ever added or overwritten, never removed.
type Env struct {
	bindings map[string]Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, ok := env.bindings[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Lookup is Get that fails with *UndefinedSymbolError when the name is unbound.
func (e *Env) Lookup(name string) (Value, error) {
	if val, ok := e.Get(name); ok {
		return val, nil
	}
	return nil, &UndefinedSymbolError{Symbol: name}
}

// Define binds a variable in this scope, overwriting any binding of the same
// name here. Enclosing scopes are never touched.
func (e *Env) Define(name string, val Value) {
	e.bindings[name] = val
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// HasLocal checks whether a variable is defined in this scope only.
func (e *Env) HasLocal(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Names lists every visible name, innermost scope first. Names within one
// scope are sorted and shadowed names appear once.
func (e *Env) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for env := e; env != nil; env = env.parent {
		local := make([]string, 0, len(env.bindings))
		for name := range env.bindings {
			if !seen[name] {
				seen[name] = true
				local = append(local, name)
			}
		}
		sort.Strings(local)
		out = append(out, local...)
	}
	return out
}
