package tracing

import (
	"go/token"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/variables"
)

// ExceptionExit is a point where the walked code may raise.
type ExceptionExit struct {
	Kind  string
	Sweep int
}

// Collection tracks variable traces along a walk over statements of the owner scope.
// Calls must come in program order.
type Collection struct {
	owner *variables.Scope
	arena *arena
	state *state
	exits []ExceptionExit
}

// NewCollection creates a collection for the walk over the given scope.
func NewCollection(owner *variables.Scope) *Collection {
	if owner == nil {
		variables.Panicf(token.NoPos, "trace collection without an owner")
	}

	return &Collection{
		owner: owner,
		arena: newArena(),
		state: newState(),
	}
}

// Owner returns the scope being walked.
func (c *Collection) Owner() *variables.Scope {
	return c.owner
}

// StartSweep starts a new linear pass: every variable goes back to its initial trace
// and exception exits are forgotten. Traces of earlier sweeps stay in the arena, this
// is how assignments find their own trace from the previous pass.
func (c *Collection) StartSweep() int {
	c.arena.sweep++
	c.arena.initial = map[*variables.Variable]TraceID{}
	c.state = newState()
	c.exits = nil

	return c.arena.sweep
}

// Sweep returns the current sweep number.
func (c *Collection) Sweep() int {
	return c.arena.sweep
}

// Trace gives read access to a trace.
func (c *Collection) Trace(id TraceID) *Trace {
	return c.arena.get(id)
}

// GetVariableCurrentTrace returns the most recent trace of the variable.
func (c *Collection) GetVariableCurrentTrace(v *variables.Variable) TraceID {
	if id, ok := c.state.get(v); ok {
		return id
	}

	return c.initialTrace(v)
}

// initialTrace returns the trace a variable starts the sweep with. It is created
// once per sweep, so every fork of the collection sees the same one.
func (c *Collection) initialTrace(v *variables.Variable) TraceID {
	if id, ok := c.arena.initial[v]; ok {
		return id
	}

	kind := TraceUninitialized
	switch {
	case v.Owner != c.owner || v.IsModuleVariable():
		kind = TraceEscaped
	case v.Parameter:
		kind = TraceInit
	}

	id := c.arena.add(&Trace{
		kind:     kind,
		variable: v,
	})
	c.arena.initial[v] = id

	return id
}

// OnVariableSet records an assignment of the source to the target.
func (c *Collection) OnVariableSet(target *variables.TargetRef, source ir.Expr) TraceID {
	v := target.Variable()
	id := c.arena.add(&Trace{
		kind:     TraceAssigned,
		variable: v,
		version:  target.Version(),
		previous: c.GetVariableCurrentTrace(v),
		source:   source,
	})
	c.state.set(v, id)

	return id
}

// OnVariableDel records a delete of the target variable.
func (c *Collection) OnVariableDel(target *variables.TargetRef) TraceID {
	v := target.Variable()
	id := c.arena.add(&Trace{
		kind:     TraceDeleted,
		variable: v,
		version:  target.Version(),
		previous: c.GetVariableCurrentTrace(v),
	})
	c.state.set(v, id)

	return id
}

// OnVariableRelease records a release of the variable on scope exit. It returns the
// trace being released, not the new one.
func (c *Collection) OnVariableRelease(v *variables.Variable) TraceID {
	prev := c.GetVariableCurrentTrace(v)
	id := c.arena.add(&Trace{
		kind:     TraceReleased,
		variable: v,
		previous: prev,
	})
	c.state.set(v, id)

	return prev
}

// OnVariableContentEscapes marks the current value of the variable as observed by
// foreign code. Later reads of it are not the assigned value anymore.
func (c *Collection) OnVariableContentEscapes(v *variables.Variable) {
	cur := c.arena.get(c.GetVariableCurrentTrace(v))
	switch cur.kind {
	case TraceUninitialized, TraceDeleted, TraceReleased:
		// Nothing to escape.
		return
	}

	id := c.arena.add(&Trace{
		kind:     TraceEscaped,
		variable: v,
		previous: cur.id,
	})
	c.state.set(v, id)
}

// OnControlFlowEscape records that arbitrary code may run at this point. Variables
// that code can reach become unknown, locals proven private to the owner scope keep
// their traces.
func (c *Collection) OnControlFlowEscape(node ir.Node) {
	vars := make([]*variables.Variable, 0, len(c.state.order))
	vars = append(vars, c.state.order...)
	for _, v := range c.owner.Variables() {
		if _, ok := c.state.get(v); !ok {
			vars = append(vars, v)
		}
	}

	for _, v := range vars {
		if v.HasAccessesOutsideOf(c.owner) == variables.False {
			continue
		}

		id := c.arena.add(&Trace{
			kind:     TraceEscaped,
			variable: v,
			previous: c.GetVariableCurrentTrace(v),
		})
		c.state.set(v, id)
	}
}

// OnExceptionRaiseExit records a possible raise of the given kind here.
func (c *Collection) OnExceptionRaiseExit(kind string) {
	c.exits = append(c.exits, ExceptionExit{
		Kind:  kind,
		Sweep: c.arena.sweep,
	})
}

// ExceptionExits returns exception exits recorded in the current sweep.
func (c *Collection) ExceptionExits() []ExceptionExit {
	res := make([]ExceptionExit, len(c.exits))
	copy(res, c.exits)
	return res
}

// GetMatchingAssignTrace returns the trace the same write produced in an earlier sweep.
// Its usage counters are complete, unlike the counters of the trace being built now.
func (c *Collection) GetMatchingAssignTrace(target *variables.TargetRef) (TraceID, bool) {
	key := versionKey{
		variable: target.Variable(),
		version:  target.Version(),
	}

	ids := c.arena.byVersion[key]
	for i := len(ids) - 1; i >= 0; i-- {
		if c.arena.get(ids[i]).sweep < c.arena.sweep {
			return ids[i], true
		}
	}

	return NoTrace, false
}

// OnVariableRead counts a read of the variable. It returns the trace read and a fresh
// copy of the replacement expression when reads of the trace are to be replaced.
func (c *Collection) OnVariableRead(v *variables.Variable) (TraceID, ir.Expr) {
	id := c.GetVariableCurrentTrace(v)
	t := c.arena.get(id)
	if t.replacement != nil {
		// The read is gone, it is not a usage.
		return id, ir.Clone(t.replacement)
	}

	c.arena.addUsage(id, usageDefinite)
	return id, nil
}

// OnNameRead counts a read by name of every variable of the scope.
func (c *Collection) OnNameRead(scope *variables.Scope) {
	for _, v := range scope.Variables() {
		c.arena.addUsage(c.GetVariableCurrentTrace(v), usageName)
	}
}

// AddPotentialUsage counts a usage that may happen.
func (c *Collection) AddPotentialUsage(id TraceID) {
	c.arena.addUsage(id, usagePotential)
}

// AddReleaseUsage counts a usage of a delete that turns into no-op when there is no
// value to delete.
func (c *Collection) AddReleaseUsage(id TraceID) {
	c.arena.addUsage(id, usageRelease)
}

// SetReplacement sets an expression reads of an assigned trace are replaced with.
// It can be set only once.
func (c *Collection) SetReplacement(id TraceID, e ir.Expr) {
	t := c.arena.get(id)
	if t.kind != TraceAssigned {
		variables.Panicf(token.NoPos, "replacement for %s", t)
	}
	if t.replacement != nil {
		variables.Panicf(token.NoPos, "replacement for %s was set already", t)
	}

	t.replacement = e
}
