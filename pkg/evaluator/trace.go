package evaluator

import (
	"strconv"
	"time"

	"github.com/thomasrohde/memoscheme/pkg/ast"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceFormStart      TraceEventType = "form_start"
	TraceFormEnd        TraceEventType = "form_end"
	TraceDefine         TraceEventType = "define"
	TraceApplyStart     TraceEventType = "apply_start"
	TraceApplyEnd       TraceEventType = "apply_end"
	TraceMemoHit        TraceEventType = "memo_hit"
	TraceMemoMiss       TraceEventType = "memo_miss"
	TraceMemoBypass     TraceEventType = "memo_bypass"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

func (ev *Evaluator) emit(event TraceEventType, span *ast.Span) {
	ev.emitWithData(event, span, nil)
}

func (ev *Evaluator) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace == nil {
		return
	}
	if span != nil && *span == (ast.Span{}) {
		span = nil
	}
	ev.opts.Trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.opts.RunID,
		Event:     event,
		Span:      span,
		Data:      data,
	})
}

func (ev *Evaluator) tracing() bool {
	return ev.opts.Trace != nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
