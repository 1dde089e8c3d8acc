package evaluator

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/memoscheme/pkg/ast"
)

// Memoized wraps a procedure with a cache keyed by the argument tuple.
// The cache only grows.
type Memoized struct {
	inner Procedure
	cache map[string]Value
	stats CacheStats
}

func (*Memoized) value()     {}
func (*Memoized) procedure() {}

// CacheStats counts how calls to a memoized procedure were served.
type CacheStats struct {
	Hits     int
	Misses   int
	Bypasses int // calls whose arguments could not be used as a key
	Entries  int
}

// Memoize wraps proc with an empty cache.
func Memoize(proc Procedure) *Memoized {
	return &Memoized{
		inner: proc,
		cache: make(map[string]Value),
	}
}

// Inner returns the wrapped procedure.
func (m *Memoized) Inner() Procedure {
	return m.inner
}

// Stats returns a snapshot of the cache counters.
func (m *Memoized) Stats() CacheStats {
	s := m.stats
	s.Entries = len(m.cache)
	return s
}

// Len returns the number of cached results.
func (m *Memoized) Len() int {
	return len(m.cache)
}

// Cached returns the stored result for args without calling the inner procedure.
func (m *Memoized) Cached(args ...Value) (Value, bool) {
	key, ok := cacheKey(args)
	if !ok {
		return nil, false
	}
	v, found := m.cache[key]
	return v, found
}

func (ev *Evaluator) applyMemoized(m *Memoized, args []Value, span ast.Span) (Value, error) {
	key, hashable := cacheKey(args)
	if !hashable {
		m.stats.Bypasses++
		ev.emit(TraceMemoBypass, &span)
		return ev.apply(m.inner, args, span)
	}

	if val, ok := m.cache[key]; ok {
		m.stats.Hits++
		if ev.tracing() {
			ev.emitWithData(TraceMemoHit, &span, map[string]string{"key": key})
		}
		return val, nil
	}

	m.stats.Misses++
	if ev.tracing() {
		ev.emitWithData(TraceMemoMiss, &span, map[string]string{"key": key})
	}
	val, err := ev.apply(m.inner, args, span)
	if err != nil {
		return nil, err
	}
	m.cache[key] = val
	return val, nil
}

// cacheKey encodes an argument tuple. It reports false when any argument is
// not hashable (procedures), in which case the call must bypass the cache.
// Integers and floats never share a key, so 2.0 is not served the result
// cached for 2.
func cacheKey(args []Value) (string, bool) {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch v := arg.(type) {
		case Number:
			writeNumberKey(&b, v)
		case Symbol:
			b.WriteByte('s')
			b.WriteString(strconv.Itoa(len(v.Name)))
			b.WriteByte(':')
			b.WriteString(v.Name)
		case Unit:
			b.WriteByte('u')
		default:
			return "", false
		}
	}
	return b.String(), true
}

func writeNumberKey(b *strings.Builder, n Number) {
	switch {
	case n.IsFloat:
		b.WriteByte('f')
		b.WriteString(strconv.FormatFloat(n.Float, 'g', -1, 64))
	case n.Big != nil:
		b.WriteByte('i')
		b.WriteString(n.Big.String())
	default:
		b.WriteByte('i')
		b.WriteString(strconv.FormatInt(n.Int, 10))
	}
}
