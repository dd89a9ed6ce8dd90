package tracing

import (
	"go/token"

	"github.com/sirkon/vartrace/internal/variables"
)

// usageKind describes varieties of variable usages.
type usageKind int

const (
	usageKindInvalid usageKind = iota
	usageDefinite
	usagePotential
	usageMerge
	usageRelease
	usageName
)

type versionKey struct {
	variable *variables.Variable
	version  int
}

// arena owns traces of a compilation unit. Forks of a collection share it.
type arena struct {
	traces    []*Trace
	byVersion map[versionKey][]TraceID
	initial   map[*variables.Variable]TraceID
	sweep     int
}

func newArena() *arena {
	return &arena{
		byVersion: map[versionKey][]TraceID{},
		initial:   map[*variables.Variable]TraceID{},
	}
}

func (a *arena) get(id TraceID) *Trace {
	if id <= NoTrace || int(id) > len(a.traces) {
		variables.Panicf(token.NoPos, "trace #%d does not exist", id)
	}

	return a.traces[id-1]
}

func (a *arena) add(t *Trace) TraceID {
	t.id = TraceID(len(a.traces) + 1)
	t.sweep = a.sweep
	a.traces = append(a.traces, t)

	switch t.kind {
	case TraceUninitialized:
		t.noValue = true
	case TraceInit, TraceAssigned:
		t.hasValue = true
	case TraceDeleted, TraceReleased, TraceEscaped:
	case TraceMerged:
		t.hasValue = true
		for _, p := range t.preds {
			if !a.get(p).hasValue {
				t.hasValue = false
				break
			}
		}
	default:
		variables.Panicf(token.NoPos, "trace of %s with %s", t.variable, t.kind)
	}

	if t.kind == TraceAssigned {
		key := versionKey{variable: t.variable, version: t.version}
		a.byVersion[key] = append(a.byVersion[key], t.id)
	}

	return t.id
}

// addUsage counts the usage on the trace and on everything the trace stands for:
// escaped traces pass usages down to the value they wrap, merged ones pass them to
// their predecessors as merge usages.
func (a *arena) addUsage(id TraceID, kind usageKind) {
	t := a.get(id)

	switch kind {
	case usageDefinite:
		t.definite++
	case usagePotential:
		t.potential++
	case usageMerge:
		t.potential++
		t.merge++
	case usageRelease:
		t.potential++
		t.release++
	case usageName:
		t.name++
	default:
		variables.Panicf(token.NoPos, "usage of %s with kind %d", t, kind)
	}

	switch t.kind {
	case TraceEscaped:
		if t.previous != NoTrace {
			a.addUsage(t.previous, kind)
		}
	case TraceMerged:
		predKind := kind
		if kind == usageDefinite || kind == usagePotential {
			predKind = usageMerge
		}
		for _, p := range t.preds {
			a.addUsage(p, predKind)
		}
	}
}
