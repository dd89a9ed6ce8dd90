package optimize

import (
	"fmt"
	"go/token"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
	"github.com/sirkon/vartrace/internal/variables"
)

// Kinds of exceptions the optimizer raises on its own behalf.
const (
	raiseUnbound   = "UnboundLocalError"
	raiseException = "Exception"
)

// expression walks an expression in evaluation order, notifying the collection of
// its effects, and simplifies it. It returns the expression to use instead and the
// first rule applied, the rule is invalid when nothing changed.
func (s *Scheduler) expression(e ir.Expr, pos token.Pos) (ir.Expr, optrules.Rule) {
	switch v := e.(type) {
	case *ir.Constant:
		return e, noRule

	case *ir.VarRef:
		id, repl := s.coll.OnVariableRead(v.Variable)
		if repl != nil {
			s.exprs.Report(
				s.coll.Sweep(),
				optrules.ConstantForwarded(),
				fmt.Sprintf("%s replaced with %s", v.Variable.Name, ir.ExprString(repl)),
				pos,
				ir.ExprString(e),
			)
			return repl, optrules.ConstantForwarded()
		}

		if !v.Variable.IsModuleVariable() && !s.coll.Trace(id).MustHaveValue() {
			s.coll.OnExceptionRaiseExit(raiseUnbound)
		}
		return e, noRule

	case *ir.NameRead:
		s.coll.OnNameRead(v.Scope)
		return e, noRule

	case *ir.Call:
		var rule optrules.Rule
		for i, arg := range v.Args {
			var r optrules.Rule
			v.Args[i], r = s.expression(arg, pos)
			rule = firstRule(rule, r)
		}

		if !v.Pure {
			for _, arg := range v.Args {
				for _, av := range ir.ExprVariables(arg) {
					s.coll.OnVariableContentEscapes(av)
				}
			}
			s.coll.OnControlFlowEscape(v)
		}

		switch {
		case v.Raises:
			s.coll.OnExceptionRaiseExit(v.Callee)
		case !v.Pure || v.MayRaise:
			s.coll.OnExceptionRaiseExit(raiseException)
		}
		return v, rule

	case *ir.SideEffects:
		var rule optrules.Rule
		effects := make([]ir.Expr, 0, len(v.Effects))
		for _, eff := range v.Effects {
			ne, r := s.expression(eff, pos)
			rule = firstRule(rule, r)
			if !ir.HasSideEffects(ne, s.mayBeUnbound) {
				continue
			}
			effects = append(effects, ne)
		}

		value, r := s.expression(v.Value, pos)
		rule = firstRule(rule, r)

		if len(effects) == len(v.Effects) && len(effects) > 0 {
			v.Effects = effects
			v.Value = value
			return v, rule
		}

		before := ir.ExprString(v)
		var res ir.Expr = value
		if len(effects) > 0 {
			res = &ir.SideEffects{
				Effects: effects,
				Value:   value,
			}
		}
		reason := fmt.Sprintf("%d of %d side effects dropped", len(v.Effects)-len(effects), len(v.Effects))
		if len(v.Effects) == 0 {
			reason = "empty side effects unwrapped"
		}
		s.exprs.Report(s.coll.Sweep(), optrules.SideEffectsReduced(), reason, pos, before)
		return res, firstRule(rule, optrules.SideEffectsReduced())

	case *ir.Raise:
		s.coll.OnExceptionRaiseExit(v.Kind)
		return e, noRule

	default:
		variables.Panicf(pos, "unexpected expression %T", e)
		return nil, noRule
	}
}

// mayBeUnbound tells if reading the variable here may raise.
func (s *Scheduler) mayBeUnbound(v *variables.Variable) bool {
	return !s.coll.Trace(s.coll.GetVariableCurrentTrace(v)).MustHaveValue()
}

var noRule optrules.Rule

func firstRule(a, b optrules.Rule) optrules.Rule {
	if a.IsValid() {
		return a
	}

	return b
}
