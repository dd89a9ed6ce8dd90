package optimize

import (
	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
)

func (s *Scheduler) optimizeExprOnly(st *ir.ExprOnly) Result {
	e, rule := s.expression(st.Expr, st.Pos())
	st.Expr = e

	if !ir.HasSideEffects(e, s.mayBeUnbound) {
		return removed(optrules.ExpressionWithoutEffect(), "")
	}
	if rule.IsValid() {
		return updated(rule, "expression simplified")
	}

	return unchanged()
}

// optimizeBranch walks each arm on its own fork of the collection and merges them
// back. Arms are spliced in place, the branch itself is only ever reduced when
// both arms are empty.
func (s *Scheduler) optimizeBranch(st *ir.Branch) Result {
	cond, rule := s.expression(st.Cond, st.Pos())
	st.Cond = cond

	if len(st.Then.Stmts) == 0 && len(st.Else.Stmts) == 0 {
		return replaced(
			optrules.EmptyBranchReduced(),
			"",
			ir.At(st.Pos(), ir.NewExprOnly(cond)),
		)
	}

	parent := s.coll
	then := parent.Fork()
	els := parent.Fork()

	s.coll = then
	s.walkBody(st.Then)
	s.coll = els
	s.walkBody(st.Else)
	s.coll = parent

	parent.MergeBranches(then, els)

	if rule.IsValid() {
		return updated(rule, "condition simplified")
	}

	return unchanged()
}

// optimizeOpaque registers effects of a statement nothing is known about. Whatever
// it reads is a potential usage and escapes, whatever it writes gets an unknown
// value.
func (s *Scheduler) optimizeOpaque(st *ir.Opaque) Result {
	for _, v := range st.Reads {
		s.coll.AddPotentialUsage(s.coll.GetVariableCurrentTrace(v))
		s.coll.OnVariableContentEscapes(v)
	}
	s.coll.OnControlFlowEscape(st)
	s.coll.OnExceptionRaiseExit(raiseException)

	for _, w := range st.Writes {
		s.coll.OnVariableSet(w, nil)
	}

	return unchanged()
}
