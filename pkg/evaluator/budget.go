package evaluator

import "github.com/thomasrohde/memoscheme/pkg/ast"

// depthTracker counts how deeply eval calls are nested.
type depthTracker struct {
	Current int
	Peak    int
}

func (ev *Evaluator) enter(span ast.Span) error {
	if ev.opts.MaxDepth > 0 && ev.depth.Current >= ev.opts.MaxDepth {
		ev.emitWithData(TraceBudgetExceeded, &span, map[string]string{"depth": itoa(ev.depth.Current)})
		err := &BudgetError{MaxDepth: ev.opts.MaxDepth}
		return attachSpan(err, span)
	}
	ev.depth.Current++
	if ev.depth.Current > ev.depth.Peak {
		ev.depth.Peak = ev.depth.Current
	}
	return nil
}

func (ev *Evaluator) leave() {
	ev.depth.Current--
}

// PeakDepth reports the deepest nesting reached so far by this evaluator.
func (ev *Evaluator) PeakDepth() int {
	return ev.depth.Peak
}
