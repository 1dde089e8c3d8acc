// Command memoscheme is the CLI entry point.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/thomasrohde/memoscheme/pkg/diagnostics"
	"github.com/thomasrohde/memoscheme/pkg/evaluator"
	"github.com/thomasrohde/memoscheme/pkg/formatter"
	"github.com/thomasrohde/memoscheme/pkg/runtime"
)

const (
	exitOK      = 0
	exitUsage   = 1
	exitDiag    = 2
	exitRuntime = 3
	exitIO      = 4
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: memoscheme <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: run, check, fmt, trace")
		os.Exit(exitUsage)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(exitUsage)
	}
}

const runUsage = "usage: memoscheme run <file> [--pretty] [--json] [--max-depth N] [--trace <path>]"

func cmdRun(args []string) int {
	var file string
	pretty := false
	jsonOutput := false
	maxDepth := 0
	tracePath := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		case "--json":
			jsonOutput = true
		case "--max-depth":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--max-depth requires a value")
				fmt.Fprintln(os.Stderr, runUsage)
				return exitUsage
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 0 {
				fmt.Fprintf(os.Stderr, "invalid --max-depth value: %s\n", args[i])
				return exitUsage
			}
			maxDepth = n
		case "--trace":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--trace requires a path")
				fmt.Fprintln(os.Stderr, runUsage)
				return exitUsage
			}
			i++
			tracePath = args[i]
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, runUsage)
		return exitUsage
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != exitOK {
		return exitCode
	}

	opts := []runtime.Option{runtime.WithMaxDepth(maxDepth)}
	var sink *traceSink
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write trace file: %s", tracePath), nil, ""), pretty)
			return exitIO
		}
		sink = newTraceSink(f)
		opts = append(opts, runtime.WithTrace(sink.write))
	}

	rt := runtime.New(opts...)
	result, execErr := rt.Run(source, filename)
	if sink != nil {
		if err := sink.close(); err != nil {
			printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write trace file %s: %s", tracePath, err), nil, ""), pretty)
			if execErr == nil {
				return exitIO
			}
		}
	}
	if execErr != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(rt.Diagnose(execErr), pretty))
		return exitCodeForError(execErr)
	}

	if jsonOutput {
		jsonBytes, err := evaluator.ValueToJSON(result.Value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error serializing result: %s\n", err)
			return exitIO
		}
		fmt.Println(string(jsonBytes))
		return exitOK
	}
	if out := evaluator.FormatValue(result.Value); out != "" {
		fmt.Println(out)
	}
	return exitOK
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: memoscheme check <file> [--pretty]")
		return exitUsage
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != exitOK {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return exitDiag
	}

	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return exitOK
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: memoscheme fmt <file> [--write]")
		return exitUsage
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != exitOK {
		return exitCode
	}

	rt := runtime.New()
	formatted, fmtErr := rt.Format(source, filename)
	if fmtErr != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(rt.Diagnose(fmtErr), false))
		return exitDiag
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(os.Stderr, "warning: comments are not preserved by the formatter")
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return exitIO
		}
		return exitOK
	}
	fmt.Print(formatted)
	return exitOK
}

func cmdTrace(args []string) int {
	var file string
	textOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			textOutput = false
		case "--text":
			textOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: memoscheme trace <file.jsonl> [--json|--text]")
		return exitUsage
	}

	f, err := os.Open(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), false)
		return exitIO
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file %s: %s", file, err), nil, ""), false)
		return exitIO
	}
	if textOutput {
		printTraceSummaryText(os.Stdout, summary)
		return exitOK
	}
	b, err := json.Marshal(summary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error serializing summary: %s\n", err)
		return exitIO
	}
	fmt.Println(string(b))
	return exitOK
}

// traceSink writes trace events as JSON lines. The first write error is kept
// and later events are dropped.
type traceSink struct {
	w   *bufio.Writer
	c   io.Closer
	enc *json.Encoder
	err error
}

func newTraceSink(w io.Writer) *traceSink {
	bw := bufio.NewWriter(w)
	s := &traceSink{w: bw, enc: json.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *traceSink) write(event evaluator.TraceEvent) {
	if s.err != nil {
		return
	}
	s.err = s.enc.Encode(event)
}

// close flushes buffered events, closes the underlying file and reports the
// first error seen.
func (s *traceSink) close() error {
	if s.err == nil {
		s.err = s.w.Flush()
	}
	if s.c != nil {
		if err := s.c.Close(); err != nil && s.err == nil {
			s.err = err
		}
	}
	return s.err
}

// TraceSummary aggregates the events of one trace file.
type TraceSummary struct {
	RunID          string         `json:"runId"`
	TotalEvents    int            `json:"totalEvents"`
	Forms          int            `json:"forms"`
	Definitions    int            `json:"definitions"`
	Applications   int            `json:"applications"`
	CallsByProc    map[string]int `json:"callsByProc"`
	MemoHits       int            `json:"memoHits"`
	MemoMisses     int            `json:"memoMisses"`
	MemoBypasses   int            `json:"memoBypasses"`
	Failures       int            `json:"failures"`
	BudgetExceeded int            `json:"budgetExceeded"`
	StartTime      string         `json:"startTime,omitempty"`
	EndTime        string         `json:"endTime,omitempty"`
	DurationMs     float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string            `json:"event"`
	RunID string            `json:"runId"`
	TS    string            `json:"ts"`
	Data  map[string]string `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{
		CallsByProc: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch evaluator.TraceEventType(event.Event) {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
		case evaluator.TraceFormStart:
			summary.Forms++
		case evaluator.TraceFormEnd:
			if event.Data["error"] != "" {
				summary.Failures++
			}
		case evaluator.TraceDefine:
			summary.Definitions++
		case evaluator.TraceApplyStart:
			summary.Applications++
			if name := event.Data["proc"]; name != "" {
				summary.CallsByProc[name]++
			}
		case evaluator.TraceMemoHit:
			summary.MemoHits++
		case evaluator.TraceMemoMiss:
			summary.MemoMisses++
		case evaluator.TraceMemoBypass:
			summary.MemoBypasses++
		case evaluator.TraceBudgetExceeded:
			summary.BudgetExceeded++
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Milliseconds())
		}
	}

	return summary, scanner.Err()
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Forms: %d (%d failures)\n", s.Forms, s.Failures)
	fmt.Fprintf(w, "Definitions: %d\n", s.Definitions)
	fmt.Fprintf(w, "Applications: %d\n", s.Applications)
	names := make([]string, 0, len(s.CallsByProc))
	for name := range s.CallsByProc {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByProc[name])
	}
	fmt.Fprintf(w, "Memo: %d hits, %d misses, %d bypasses\n", s.MemoHits, s.MemoMisses, s.MemoBypasses)
	if s.BudgetExceeded > 0 {
		fmt.Fprintf(w, "Budget exceeded: %d\n", s.BudgetExceeded)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.0fms\n", s.DurationMs)
	}
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", exitIO
		}
		return string(data), "<stdin>", exitOK
	}

	source, err := os.ReadFile(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), pretty)
		return "", "", exitIO
	}
	return string(source), file, exitOK
}

func printDiag(d diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{d}, pretty))
}

// exitCodeForError maps a Run failure to a process exit code.
func exitCodeForError(err error) int {
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		return exitDiag
	}
	if errors.Is(err, evaluator.ErrEvaluation) {
		return exitRuntime
	}
	return exitIO
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
