package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sirkon/vartrace/internal/variables"
)

func newTestScope() (*variables.Registry, *variables.Scope) {
	r := variables.NewRegistry("mod")
	return r, r.NewScope("f", variables.ScopeFunction, r.Module(), 1, 100)
}

func TestUnitAdoptAndWalk(t *testing.T) {
	r, fn := newTestScope()
	x := r.Declare("x", fn, variables.KindLocal)
	p := r.Declare("p", fn, variables.KindLocal)

	assign := NewAssign(variables.NewTargetRef(r, x), &Constant{Value: 1})
	inner := NewExprOnly(&Call{Callee: "print", Args: []Expr{&VarRef{Variable: x}}})
	branch := NewBranch(&VarRef{Variable: p}, NewBody(inner), nil)
	u := NewUnit(fn, NewBody(assign, branch))

	if assign.ID() == NoStmt || branch.ID() == NoStmt || inner.ID() == NoStmt {
		t.Fatal("every statement must be adopted, nested ones included")
	}
	if got, ok := u.Stmt(inner.ID()); !ok || got != inner {
		t.Fatal("nested statement must be reachable by handle")
	}

	var order []StmtID
	u.Walk(func(s Stmt) bool {
		order = append(order, s.ID())
		return true
	})
	want := []StmtID{assign.ID(), branch.ID(), inner.ID()}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}

	u.Forget(branch)
	if _, ok := u.Stmt(inner.ID()); ok {
		t.Error("forgetting a branch forgets its arms")
	}
}

func TestPrint(t *testing.T) {
	r, fn := newTestScope()
	x := r.Declare("x", fn, variables.KindLocal)
	p := r.Declare("p", fn, variables.KindLocal)

	body := NewBody(
		NewAssign(variables.NewTargetRef(r, x), &Constant{Value: "a"}),
		NewBranch(
			&VarRef{Variable: p},
			NewBody(NewExprOnly(&Call{Callee: "print", Args: []Expr{&VarRef{Variable: x}}})),
			NewBody(NewDel(variables.NewTargetRef(r, x), true)),
		),
		NewExprOnly(&SideEffects{
			Effects: []Expr{&Call{Callee: "f"}},
			Value:   &Constant{Value: []any{}, Mutable: true},
		}),
		NewRelease(x),
		NewExprOnly(&Raise{Kind: "NameError"}),
	)

	want := `x@1 = "a"
if p
  print(x)
else
  del x@2 (tolerant)
sideeffects(f(), mutable([]))
release x
raise NameError
`
	if diff := cmp.Diff(want, Print(body)); diff != "" {
		t.Errorf("print mismatch (-want +got):\n%s", diff)
	}
}

func TestExprProps(t *testing.T) {
	r, fn := newTestScope()
	x := r.Declare("x", fn, variables.KindLocal)
	unbound := func(*variables.Variable) bool { return true }
	bound := func(*variables.Variable) bool { return false }

	tests := []struct {
		name      string
		expr      Expr
		raise     bool
		effects   bool
		unbounded bool
	}{
		{
			name: "constant",
			expr: &Constant{Value: 1},
		},
		{
			name:      "variable read",
			expr:      &VarRef{Variable: x},
			unbounded: true,
		},
		{
			name:      "pure call",
			expr:      &Call{Callee: "len", Args: []Expr{&VarRef{Variable: x}}, Pure: true},
			unbounded: true,
		},
		{
			name:      "impure call",
			expr:      &Call{Callee: "f"},
			effects:   true,
			unbounded: true,
		},
		{
			name:      "raising call",
			expr:      &Call{Callee: "panic", Raises: true},
			raise:     true,
			effects:   true,
			unbounded: true,
		},
		{
			name:      "raise nested into side effects",
			expr:      &SideEffects{Effects: []Expr{&Raise{Kind: "E"}}, Value: &Constant{Value: 1}},
			raise:     true,
			effects:   true,
			unbounded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WillRaise(tt.expr); got != tt.raise {
				t.Errorf("WillRaise: got %t, want %t", got, tt.raise)
			}
			if got := HasSideEffects(tt.expr, bound); got != tt.effects {
				t.Errorf("HasSideEffects(bound): got %t, want %t", got, tt.effects)
			}
			if got := HasSideEffects(tt.expr, unbound); got != tt.unbounded {
				t.Errorf("HasSideEffects(unbound): got %t, want %t", got, tt.unbounded)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	r, fn := newTestScope()
	x := r.Declare("x", fn, variables.KindLocal)

	orig := &Call{Callee: "f", Args: []Expr{&Constant{Value: 1}, &VarRef{Variable: x}}}
	c := Clone(orig).(*Call)
	c.Args[0].(*Constant).Value = 2

	if orig.Args[0].(*Constant).Value != 1 {
		t.Error("clone shares argument nodes with the original")
	}
	if got := ExprVariables(orig); len(got) != 1 || got[0] != x {
		t.Errorf("unexpected variables %v", got)
	}
}
