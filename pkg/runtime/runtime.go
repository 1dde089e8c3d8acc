// Package runtime provides the top-level orchestrator that reads, checks and
// evaluates programs against one persistent global environment.
package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
	"github.com/thomasrohde/memoscheme/pkg/evaluator"
	"github.com/thomasrohde/memoscheme/pkg/formatter"
	"github.com/thomasrohde/memoscheme/pkg/parser"
	"github.com/thomasrohde/memoscheme/pkg/stdlib"
	"github.com/thomasrohde/memoscheme/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value     evaluator.Value
	PeakDepth int
}

// Runtime wires together the reader, evaluator and global environment.
// Definitions made by one Run are visible to the next.
type Runtime struct {
	stdlib   *stdlib.Registry
	env      *evaluator.Env
	runID    string
	trace    func(event evaluator.TraceEvent)
	maxDepth int
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithRegistry sets the builtin registry used to build the global environment.
func WithRegistry(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithMaxDepth bounds evaluation nesting. Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = n
	}
}

// New creates a new Runtime with the given options.
// By default the arithmetic and comparison builtins are registered and the
// run ID is a random UUID.
func New(opts ...Option) *Runtime {
	stdlibReg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(stdlibReg)

	rt := &Runtime{
		stdlib: stdlibReg,
		runID:  uuid.New().String(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.env = stdlib.GlobalEnvFrom(rt.stdlib)
	return rt
}

// RunID returns the identifier stamped on this runtime's trace events.
func (rt *Runtime) RunID() string {
	return rt.runID
}

// Env returns the global environment shared by every Run.
func (rt *Runtime) Env() *evaluator.Env {
	return rt.env
}

// Run parses a program and evaluates its forms in order. The result holds the
// value of the last form. Parse failures are reported as *DiagnosticError
// before anything is evaluated; evaluation errors are returned as is.
func (rt *Runtime) Run(source, filename string) (*Result, error) {
	forms, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	ev := evaluator.New(evaluator.Options{
		Trace:    rt.trace,
		RunID:    rt.runID,
		MaxDepth: rt.maxDepth,
	})
	value, err := ev.Execute(forms, rt.env)
	if err != nil {
		return &Result{PeakDepth: ev.PeakDepth()}, err
	}
	return &Result{Value: value, PeakDepth: ev.PeakDepth()}, nil
}

// Check parses and validates a program without evaluating it. Names already
// bound in the global environment count as defined.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	forms, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(forms, rt.env.Names())
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	forms, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(forms), nil
}

// Diagnose converts any error returned by Run into diagnostics.
func (rt *Runtime) Diagnose(err error) []diagnostics.Diagnostic {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	return []diagnostics.Diagnostic{evaluator.ToDiagnostic(err, rt.env)}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
