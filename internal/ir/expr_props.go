package ir

import (
	"fmt"
	"slices"

	"github.com/sirkon/vartrace/internal/variables"
)

// IsCompileTimeConstant checks if the expression is a constant.
func IsCompileTimeConstant(e Expr) bool {
	_, ok := e.(*Constant)
	return ok
}

// IsImmutableConstant checks if the expression is a constant nobody can mutate.
func IsImmutableConstant(e Expr) bool {
	c, ok := e.(*Constant)
	return ok && !c.Mutable
}

// WillRaise checks if evaluation of the expression never completes normally.
func WillRaise(e Expr) bool {
	switch v := e.(type) {
	case *Raise:
		return true
	case *Call:
		if v.Raises {
			return true
		}
		return slices.ContainsFunc(v.Args, WillRaise)
	case *SideEffects:
		return slices.ContainsFunc(v.Effects, WillRaise) || WillRaise(v.Value)
	case *Constant, *VarRef, *NameRead:
		return false
	default:
		panic(fmt.Errorf("unexpected expression %T", e))
	}
}

// HasSideEffects checks if evaluation of the expression can be observed other than
// by its value. Reading a variable is free of side effects when it surely has a value,
// it is up to the caller to know that, so mayBeUnbound tells which reads may raise.
func HasSideEffects(e Expr, mayBeUnbound func(v *variables.Variable) bool) bool {
	switch v := e.(type) {
	case *Constant, *NameRead:
		return false
	case *VarRef:
		return mayBeUnbound(v.Variable)
	case *Raise:
		return true
	case *Call:
		if !v.Pure || v.MayRaise || v.Raises {
			return true
		}
		for _, arg := range v.Args {
			if HasSideEffects(arg, mayBeUnbound) {
				return true
			}
		}
		return false
	case *SideEffects:
		if len(v.Effects) > 0 {
			return true
		}
		return HasSideEffects(v.Value, mayBeUnbound)
	default:
		panic(fmt.Errorf("unexpected expression %T", e))
	}
}

// Clone makes a deep copy of an expression. Mutable constant values are not copied,
// they are never forwarded.
func Clone(e Expr) Expr {
	switch v := e.(type) {
	case *Constant:
		c := *v
		return &c
	case *VarRef:
		c := *v
		return &c
	case *NameRead:
		c := *v
		return &c
	case *Raise:
		c := *v
		return &c
	case *Call:
		c := *v
		c.Args = cloneList(v.Args)
		return &c
	case *SideEffects:
		return &SideEffects{
			Effects: cloneList(v.Effects),
			Value:   Clone(v.Value),
		}
	default:
		panic(fmt.Errorf("unexpected expression %T", e))
	}
}

func cloneList(list []Expr) []Expr {
	if list == nil {
		return nil
	}

	res := make([]Expr, len(list))
	for i, e := range list {
		res[i] = Clone(e)
	}
	return res
}

// ExprVariables returns variables read by the expression in order of first appearance.
func ExprVariables(e Expr) []*variables.Variable {
	var res []*variables.Variable
	seen := map[*variables.Variable]struct{}{}
	collectExpr(e, seen, &res)
	return res
}

// StmtVariables returns the set of variables a statement mentions in any way,
// nested statements included.
func StmtVariables(s Stmt) map[*variables.Variable]struct{} {
	seen := map[*variables.Variable]struct{}{}
	var order []*variables.Variable
	collectStmt(s, seen, &order)
	return seen
}

func collectStmt(s Stmt, seen map[*variables.Variable]struct{}, res *[]*variables.Variable) {
	add := func(v *variables.Variable) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		*res = append(*res, v)
	}

	switch v := s.(type) {
	case *Assign:
		add(v.Target.Variable())
		collectExpr(v.Source, seen, res)
	case *Del:
		add(v.Target.Variable())
	case *Release:
		add(v.Variable)
	case *ExprOnly:
		collectExpr(v.Expr, seen, res)
	case *Branch:
		collectExpr(v.Cond, seen, res)
		for _, sub := range v.Then.Stmts {
			collectStmt(sub, seen, res)
		}
		for _, sub := range v.Else.Stmts {
			collectStmt(sub, seen, res)
		}
	case *Opaque:
		for _, r := range v.Reads {
			add(r)
		}
		for _, w := range v.Writes {
			add(w.Variable())
		}
	default:
		panic(fmt.Errorf("unexpected statement %T", s))
	}
}

func collectExpr(e Expr, seen map[*variables.Variable]struct{}, res *[]*variables.Variable) {
	switch v := e.(type) {
	case *VarRef:
		if _, ok := seen[v.Variable]; ok {
			return
		}
		seen[v.Variable] = struct{}{}
		*res = append(*res, v.Variable)
	case *Call:
		for _, arg := range v.Args {
			collectExpr(arg, seen, res)
		}
	case *SideEffects:
		for _, eff := range v.Effects {
			collectExpr(eff, seen, res)
		}
		collectExpr(v.Value, seen, res)
	case *Constant, *NameRead, *Raise:
	default:
		panic(fmt.Errorf("unexpected expression %T", e))
	}
}
