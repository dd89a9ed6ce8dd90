package persist

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirkon/deepequal"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optimize"
	"github.com/sirkon/vartrace/internal/variables"
)

type testScopes struct {
	reg *variables.Registry
	fn  *variables.Scope
}

// newTestScopes creates the same scopes in the same order every time, so handles
// match between registries.
func newTestScopes() *testScopes {
	reg := variables.NewRegistry("mod")
	return &testScopes{
		reg: reg,
		fn:  reg.NewScope("f", variables.ScopeFunction, reg.Module(), 10, 1000),
	}
}

func (s *testScopes) unit() *ir.Unit {
	x := s.reg.Declare("x", s.fn, variables.KindLocal)
	y := s.reg.Declare("y", s.fn, variables.KindLocal)
	tmp := s.reg.Declare("t", s.fn, variables.KindTemp)
	p := s.reg.Declare("p", s.fn, variables.KindLocal)
	p.Parameter = true
	g := s.reg.Resolve("g", s.fn)

	tref := func(v *variables.Variable) *variables.TargetRef {
		return variables.NewTargetRef(s.reg, v)
	}

	return ir.NewUnit(s.fn, ir.NewBody(
		ir.NewAssign(tref(y), &ir.Call{Callee: "f"}),
		ir.NewAssign(tref(y), &ir.Call{Callee: "g"}),
		ir.NewAssign(tref(tmp), &ir.Constant{Value: 0}),
		ir.NewAssign(tref(x), &ir.Call{Callee: "use", Args: []ir.Expr{
			&ir.VarRef{Variable: y},
			&ir.VarRef{Variable: tmp},
			&ir.Constant{Value: "text"},
			&ir.Constant{Value: nil},
			&ir.Constant{Value: false},
		}}),
		ir.NewDel(tref(tmp), false),
		ir.NewBranch(
			&ir.VarRef{Variable: p},
			ir.NewBody(
				ir.NewAssign(tref(g), &ir.SideEffects{
					Effects: []ir.Expr{&ir.Call{Callee: "h"}},
					Value:   &ir.Constant{Value: "[]", Mutable: true},
				}),
				ir.NewDel(tref(x), true),
			),
			ir.NewBody(
				ir.NewExprOnly(&ir.Call{Callee: "use", Args: []ir.Expr{&ir.NameRead{Scope: s.fn}}}),
				ir.NewExprOnly(&ir.Raise{Kind: "ValueError"}),
			),
		),
		ir.NewOpaque("loop", []*variables.Variable{x, p}, []*variables.TargetRef{tref(x)}),
		ir.NewExprOnly(&ir.Call{Callee: "+", Args: []ir.Expr{&ir.VarRef{Variable: x}, &ir.Constant{Value: 1}}, Pure: true, MayRaise: true}),
		ir.NewRelease(x),
	))
}

func requireEqual[T any](t *testing.T, name string, want, got T) {
	t.Helper()

	if !reflect.DeepEqual(want, got) {
		deepequal.SideBySide(t, name, want, got)
		t.Errorf("%s mismatch", name)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestScopes()
	unit := s.unit()
	if err := optimize.NewScheduler(s.reg, unit, optimize.DefaultOptions()).Run(); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	data, err := Export(unit)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	t.Run("same registry", func(t *testing.T) {
		got, err := Import(data, s.reg)
		if err != nil {
			t.Fatalf("import: %v", err)
		}

		if diff := cmp.Diff(ir.Print(unit.Body), ir.Print(got.Body)); diff != "" {
			t.Errorf("rebuilt body mismatch (-want +got):\n%s", diff)
		}
		if got.Scope != unit.Scope {
			t.Errorf("unit scope must be the same, got %s#%d", got.Scope.Name, got.Scope.ID)
		}

		wantTargets := targets(unit.Body)
		gotTargets := targets(got.Body)
		if len(wantTargets) != len(gotTargets) {
			t.Fatalf("targets: got %d, want %d", len(gotTargets), len(wantTargets))
		}
		for i, want := range wantTargets {
			g := gotTargets[i]
			if g.Variable() != want.Variable() || g.Version() != want.Version() {
				t.Errorf("target %d: got %s of %p, want %s of %p", i, g, g.Variable(), want, want.Variable())
			}
		}

		wantTree, err := NewTree(unit)
		if err != nil {
			t.Fatal(err)
		}
		gotTree, err := NewTree(got)
		if err != nil {
			t.Fatal(err)
		}
		requireEqual(t, "tree", wantTree, gotTree)
	})

	t.Run("fresh registry", func(t *testing.T) {
		fresh := newTestScopes()
		got, err := Import(data, fresh.reg)
		if err != nil {
			t.Fatalf("import: %v", err)
		}

		if diff := cmp.Diff(ir.Print(unit.Body), ir.Print(got.Body)); diff != "" {
			t.Errorf("rebuilt body mismatch (-want +got):\n%s", diff)
		}

		for _, target := range targets(got.Body) {
			v := target.Variable()
			if v.LastVersion() < target.Version() {
				t.Errorf("%s: stored version must be reserved, last is %d", target, v.LastVersion())
			}
			if next := variables.NewTargetRef(fresh.reg, v); next.Version() <= target.Version() {
				t.Errorf("%s: version %d allocated again", target, next.Version())
			}
		}

		p, err := fresh.reg.Lookup(fresh.fn.ID, "p")
		if err != nil {
			t.Fatal(err)
		}
		if !p.Parameter || p.Kind != variables.KindLocal {
			t.Errorf("p must be rebuilt as a parameter local, got %s parameter=%v", p.Kind, p.Parameter)
		}
	})
}

func targets(b *ir.Body) []*variables.TargetRef {
	var res []*variables.TargetRef
	walkBody(b, func(s ir.Stmt) {
		switch v := s.(type) {
		case *ir.Assign:
			res = append(res, v.Target)
		case *ir.Del:
			res = append(res, v.Target)
		case *ir.Opaque:
			res = append(res, v.Writes...)
		}
	})
	return res
}

func walkBody(b *ir.Body, f func(s ir.Stmt)) {
	for _, s := range b.Stmts {
		f(s)
		if br, ok := s.(*ir.Branch); ok {
			walkBody(br.Then, f)
			walkBody(br.Else, f)
		}
	}
}

func TestExportFormat(t *testing.T) {
	s := newTestScopes()
	x := s.reg.Declare("x", s.fn, variables.KindLocal)
	unit := ir.NewUnit(s.fn, ir.NewBody(
		ir.NewAssign(variables.NewTargetRef(s.reg, x), &ir.Constant{Value: 0}),
		ir.NewDel(variables.NewTargetRef(s.reg, x), true),
	))

	data, err := Export(unit)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	want := `unit:
  id: 2
  name: f
body:
  - node: assign
    target:
      name: x
      scope:
        id: 2
        name: f
      kind: local
      version: 1
    expr:
      expr: constant
      constant:
        value: 0
  - node: del
    target:
      name: x
      scope:
        id: 2
        name: f
      kind: local
      version: 2
    tolerant: true
`
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("exported tree mismatch (-want +got):\n%s", diff)
	}
}

func TestImportErrors(t *testing.T) {
	const valid = `unit:
  id: 2
  name: f
body:
  - node: del
    target:
      name: x
      scope:
        id: 2
        name: f
      kind: local
      version: 1
`

	tests := []struct {
		name string
		data string
		err  string
	}{
		{
			name: "empty",
			data: "",
			err:  "empty document",
		},
		{
			name: "unknown field",
			data: valid + "    color: red\n",
			err:  "field color not found",
		},
		{
			name: "unknown scope",
			data: strings.ReplaceAll(valid, "id: 2", "id: 7"),
			err:  "unknown scope f#7",
		},
		{
			name: "scope name mismatch",
			data: strings.ReplaceAll(valid, "name: f", "name: h"),
			err:  "scope #2 is f, not h",
		},
		{
			name: "no version",
			data: strings.ReplaceAll(valid, "      version: 1\n", ""),
			err:  "target x has no version",
		},
		{
			name: "unknown node",
			data: strings.ReplaceAll(valid, "node: del", "node: goto"),
			err:  `unknown kind "goto" of node`,
		},
		{
			name: "module variable in function",
			data: strings.ReplaceAll(valid, "kind: local", "kind: module"),
			err:  "module variable x in function scope f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScopes()
			_, err := Import([]byte(tt.data), s.reg)
			if err == nil {
				t.Fatal("error expected")
			}
			if !strings.Contains(err.Error(), tt.err) {
				t.Errorf("error %q must contain %q", err, tt.err)
			}
		})
	}
}

func TestImportKindMismatch(t *testing.T) {
	s := newTestScopes()
	s.reg.Declare("x", s.fn, variables.KindTemp)

	_, err := Import([]byte(`unit: {id: 2, name: f}
body:
  - node: release
    target: {name: x, scope: {id: 2, name: f}, kind: local}
`), s.reg)
	if err == nil || !strings.Contains(err.Error(), "variable f.x is temp, not local") {
		t.Errorf("kind mismatch error expected, got %v", err)
	}
}
