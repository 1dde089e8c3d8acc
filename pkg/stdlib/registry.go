// Package stdlib provides the built-in procedure registry and the global environment.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/memoscheme/pkg/evaluator"
)

// Fn represents a built-in procedure of fixed arity.
type Fn struct {
	Name    string
	Arity   int
	Execute func(args []evaluator.Value) (evaluator.Value, error)
}

// Registry holds registered built-in procedures.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a procedure to the registry, replacing any of the same name.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a procedure by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered procedures.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin converts a registered procedure into a runtime value.
func (f *Fn) Builtin() *evaluator.Builtin {
	return &evaluator.Builtin{
		Name:  f.Name,
		Arity: f.Arity,
		Fn:    f.Execute,
	}
}
