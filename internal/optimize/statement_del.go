package optimize

import (
	"fmt"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
	"github.com/sirkon/vartrace/internal/variables"
)

// optimizeDel treats deletes of temporaries as tolerant ones: a temporary is never
// observed unbound by user code, its strict delete cannot raise.
func (s *Scheduler) optimizeDel(st *ir.Del) Result {
	v := st.Target.Variable()
	lenient := st.Tolerant || v.IsTempVariable()

	cur := s.coll.GetVariableCurrentTrace(v)
	s.priors[st.ID()] = cur
	trace := s.coll.Trace(cur)

	if lenient && trace.IsUninitialized() {
		return removed(
			optrules.TolerantDelRemoved(),
			fmt.Sprintf("%s is never assigned before the delete", v.Name),
		)
	}

	if lenient {
		s.coll.AddReleaseUsage(cur)
	} else {
		s.coll.AddPotentialUsage(cur)
	}

	if !lenient && !trace.MustHaveValue() {
		s.coll.OnExceptionRaiseExit(raiseUnbound)
	}

	s.traces[st.ID()] = s.coll.OnVariableDel(st.Target)
	s.coll.OnVariableContentEscapes(v)
	s.coll.OnControlFlowEscape(st)

	return unchanged()
}

func (s *Scheduler) optimizeRelease(st *ir.Release) Result {
	v := st.Variable

	prior := s.coll.OnVariableRelease(v)
	s.priors[st.ID()] = prior
	if s.coll.Trace(prior).IsUninitialized() {
		return removed(
			optrules.UninitReleaseRemoved(),
			fmt.Sprintf("%s holds no value to release", v.Name),
		)
	}

	s.coll.OnVariableContentEscapes(v)
	s.coll.OnControlFlowEscape(st)
	s.traces[st.ID()] = s.coll.GetVariableCurrentTrace(v)

	return unchanged()
}

// MayRaiseException tells if the statement may raise as of the last sweep.
func (s *Scheduler) MayRaiseException(st ir.Stmt) bool {
	switch v := st.(type) {
	case *ir.Del:
		if v.Tolerant || v.Target.Variable().IsTempVariable() {
			return false
		}
		prior, ok := s.priors[v.ID()]
		if !ok {
			return true
		}
		return !s.coll.Trace(prior).MustHaveValue()
	case *ir.Release:
		return false
	case *ir.Assign:
		return ir.HasSideEffects(v.Source, alwaysUnbound)
	case *ir.ExprOnly:
		return ir.HasSideEffects(v.Expr, alwaysUnbound)
	default:
		return true
	}
}

func alwaysUnbound(*variables.Variable) bool {
	return true
}
