package optimize

import (
	"fmt"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
	"github.com/sirkon/vartrace/internal/tracing"
	"github.com/sirkon/vartrace/internal/variables"
)

func (s *Scheduler) optimizeAssign(st *ir.Assign) Result {
	target := st.Target
	v := target.Variable()

	// Side effects go first as statements of their own, so they survive if the store
	// is dropped later.
	if se, ok := st.Source.(*ir.SideEffects); ok && len(se.Effects) > 0 {
		stmts := make([]ir.Stmt, 0, len(se.Effects)+1)
		for _, eff := range se.Effects {
			stmts = append(stmts, ir.At(st.Pos(), ir.NewExprOnly(eff)))
		}
		st.Source = se.Value
		stmts = append(stmts, st)

		return replaced(
			optrules.SideEffectsSplit(),
			fmt.Sprintf("%d side effects of %s split", len(se.Effects), target),
			stmts...,
		)
	}

	source, rule := s.expression(st.Source, st.Pos())
	st.Source = source

	if ir.WillRaise(source) {
		return replaced(
			optrules.AssignRaises(),
			fmt.Sprintf("value assigned to %s raises", v.Name),
			ir.At(st.Pos(), ir.NewExprOnly(source)),
		)
	}

	if ref, ok := source.(*ir.VarRef); ok && ref.Variable == v && !v.IsModuleVariable() {
		if s.coll.Trace(s.coll.GetVariableCurrentTrace(v)).MustHaveValue() {
			return removed(
				optrules.SelfAssignRemoved(),
				fmt.Sprintf("%s assigned to itself", v.Name),
			)
		}

		return replaced(
			optrules.SelfAssignReduced(),
			fmt.Sprintf("%s assigned to itself, it may be unbound", v.Name),
			ir.At(st.Pos(), ir.NewExprOnly(ref)),
		)
	}

	if v.HasAccessesOutsideOf(s.coll.Owner()) == variables.False {
		if res, ok := s.assignOfPrivate(st, source); ok {
			return res
		}
	}

	s.traces[st.ID()] = s.coll.OnVariableSet(target, source)
	if rule.IsValid() {
		return updated(rule, "assigned value simplified")
	}

	return unchanged()
}

// assignOfPrivate handles stores to variables nobody else can see. These can be
// forwarded and dropped based on usages of the same store in the previous sweep.
// Returns false when the store needs the regular treatment.
func (s *Scheduler) assignOfPrivate(st *ir.Assign, source ir.Expr) (Result, bool) {
	target := st.Target
	v := target.Variable()

	matchID, ok := s.coll.GetMatchingAssignTrace(target)
	if !ok {
		return Result{}, false
	}
	match := s.coll.Trace(matchID)
	if match.MergeUsages() > 0 || match.NameUsages() > 0 {
		return Result{}, false
	}

	constant := ir.IsImmutableConstant(source)
	potential := match.PotentialUsages()
	if constant {
		// Deletes that turn into no-ops once the store is gone.
		potential -= match.ReleaseUsages()
	}

	if match.DefiniteUsages() == 0 && potential == 0 {
		return s.dropAssign(st, source, match), true
	}

	if !constant || !s.forwardable(v) {
		return Result{}, false
	}

	id := s.coll.OnVariableSet(target, source)
	s.coll.SetReplacement(id, ir.Clone(source))
	s.traces[st.ID()] = id

	return unchanged(), true
}

func (s *Scheduler) dropAssign(st *ir.Assign, source ir.Expr, match *tracing.Trace) Result {
	v := st.Target.Variable()

	rule := optrules.DeadStoreDropped()
	reason := fmt.Sprintf("value stored to %s is never used", st.Target)
	if match.Replacement() != nil {
		rule = optrules.PropagatedStoreDropped()
		reason = fmt.Sprintf("value of %s was propagated to its uses", st.Target)
	}

	var stmts []ir.Stmt
	if ir.HasSideEffects(source, s.mayBeUnbound) {
		stmts = append(stmts, ir.At(st.Pos(), ir.NewExprOnly(source)))
	}
	if !s.coll.Trace(s.coll.GetVariableCurrentTrace(v)).MustNotHaveValue() {
		// The store released the previous value, the delete keeps it released here.
		del := ir.NewDel(variables.NewTargetRef(s.reg, v), true)
		stmts = append(stmts, ir.At(st.Pos(), del))
	}

	if len(stmts) == 0 {
		return removed(rule, reason)
	}

	return replaced(rule, reason, stmts...)
}

// forwardable tells if reads of the variable may be replaced with its value.
func (s *Scheduler) forwardable(v *variables.Variable) bool {
	if !s.opts.Forwarding {
		return false
	}

	switch v.Kind {
	case variables.KindTemp:
		return true
	case variables.KindLocal:
		return !v.Owner.DynamicNames
	default:
		return false
	}
}
