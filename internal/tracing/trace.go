package tracing

import (
	"fmt"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/variables"
)

// TraceID is a handle of a trace in its arena.
type TraceID int32

// NoTrace is a zero handle.
const NoTrace TraceID = 0

// TraceKind describes varieties of traces.
type TraceKind int

const (
	traceKindInvalid TraceKind = iota

	// TraceUninitialized is the state of a local before any write.
	TraceUninitialized

	// TraceInit is a value bound on scope entry, like a parameter.
	TraceInit

	// TraceAssigned is a value stored by an assignment.
	TraceAssigned

	// TraceDeleted follows a delete statement.
	TraceDeleted

	// TraceReleased follows a release on scope exit.
	TraceReleased

	// TraceMerged joins traces of several control flow paths.
	TraceMerged

	// TraceEscaped is a value foreign code may have observed, mutated or rebound.
	// Variables not owned by the walked scope start with it too.
	TraceEscaped
)

var traceKindValueMap = map[TraceKind]string{
	TraceUninitialized: "uninitialized",
	TraceInit:          "init",
	TraceAssigned:      "assigned",
	TraceDeleted:       "deleted",
	TraceReleased:      "released",
	TraceMerged:        "merged",
	TraceEscaped:       "escaped",
}

func (k TraceKind) String() string {
	v, ok := traceKindValueMap[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

// Trace is a node of a variable history.
type Trace struct {
	id       TraceID
	kind     TraceKind
	variable *variables.Variable
	version  int
	sweep    int

	previous TraceID
	preds    []TraceID
	source   ir.Expr

	replacement ir.Expr

	hasValue bool
	noValue  bool

	definite  int
	potential int
	name      int
	merge     int
	release   int
}

// --- Getters --------------------------------------------------------------------------------------------------------

// ID returns the trace handle.
func (t *Trace) ID() TraceID { return t.id }

// Kind returns the trace kind.
func (t *Trace) Kind() TraceKind { return t.kind }

// Variable returns the variable this trace belongs to.
func (t *Trace) Variable() *variables.Variable { return t.variable }

// Version returns the write version for assigned and deleted traces, zero otherwise.
func (t *Trace) Version() int { return t.version }

// Sweep returns the number of the sweep the trace was created in.
func (t *Trace) Sweep() int { return t.sweep }

// Previous returns the trace this one follows, NoTrace for the first one.
func (t *Trace) Previous() TraceID { return t.previous }

// Predecessors returns traces joined by a merge trace.
func (t *Trace) Predecessors() []TraceID {
	res := make([]TraceID, len(t.preds))
	copy(res, t.preds)
	return res
}

// Source returns the assigned expression of an assigned trace.
func (t *Trace) Source() ir.Expr { return t.source }

// Replacement returns an expression reads of this trace are to be replaced with, nil
// when there is none.
func (t *Trace) Replacement() ir.Expr { return t.replacement }

// MustHaveValue tells if the variable is surely bound here.
func (t *Trace) MustHaveValue() bool { return t.hasValue }

// MustNotHaveValue tells if the variable is surely unbound here.
func (t *Trace) MustNotHaveValue() bool { return t.noValue }

// IsUninitialized checks if this is the state before any write.
func (t *Trace) IsUninitialized() bool { return t.kind == TraceUninitialized }

// IsAssigned checks if this trace is an assignment.
func (t *Trace) IsAssigned() bool { return t.kind == TraceAssigned }

// DefiniteUsages returns the number of reads reachable from this trace on all paths.
func (t *Trace) DefiniteUsages() int { return t.definite }

// PotentialUsages returns the number of reads reachable on at least one path. Merge
// and release usages are potential usages too.
func (t *Trace) PotentialUsages() int { return t.potential }

// NameUsages returns the number of reads by name.
func (t *Trace) NameUsages() int { return t.name }

// MergeUsages returns the number of potential usages coming through merge traces.
func (t *Trace) MergeUsages() int { return t.merge }

// ReleaseUsages returns the number of potential usages recorded by deletes that become
// no-ops when the variable holds no value.
func (t *Trace) ReleaseUsages() int { return t.release }

// HasUsages checks if the trace has usages of any kind.
func (t *Trace) HasUsages() bool {
	return t.definite > 0 || t.potential > 0 || t.name > 0
}

func (t *Trace) String() string {
	return fmt.Sprintf(
		"%s#%d(%s v%d sweep %d, uses %d/%d/%d)",
		t.variable.Name,
		t.id,
		t.kind,
		t.version,
		t.sweep,
		t.definite,
		t.potential,
		t.name,
	)
}
