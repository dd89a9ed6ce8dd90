package variables

import (
	"errors"
	"testing"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry("mod")
	fn := r.NewScope("f", ScopeFunction, r.Module(), 10, 100)
	inner := r.NewScope("f.g", ScopeFunction, fn, 40, 60)

	x := r.Declare("x", fn, KindLocal)
	if got := r.Declare("x", fn, KindLocal); got != x {
		t.Fatal("declaration must be idempotent")
	}
	if got := r.Resolve("x", fn); got != x {
		t.Fatalf("resolve from owner: got %v", got)
	}

	if got := x.HasAccessesOutsideOf(fn); got != False {
		t.Errorf("no foreign accesses expected yet, got %s", got)
	}
	if got := r.Resolve("x", inner); got != x {
		t.Fatalf("resolve from nested scope: got %v", got)
	}
	if got := x.HasAccessesOutsideOf(fn); got != True {
		t.Errorf("nested scope access must be noted, got %s", got)
	}

	g := r.Resolve("print", fn)
	if !g.IsModuleVariable() || g.Owner != r.Module() {
		t.Errorf("unknown names are module variables, got %s in %s", g.Kind, g.Owner.Name)
	}
	if got := g.HasAccessesOutsideOf(fn); got != Unknown {
		t.Errorf("module variables are never proven local, got %s", got)
	}
}

func TestRegistryKinds(t *testing.T) {
	r := NewRegistry("mod")
	fn := r.NewScope("f", ScopeFunction, r.Module(), 10, 100)

	tests := []struct {
		name   string
		kind   Kind
		check  func(v *Variable) bool
		access Tristate
	}{
		{
			name:   "local",
			kind:   KindLocal,
			check:  (*Variable).IsLocalVariable,
			access: False,
		},
		{
			name:   "temp",
			kind:   KindTemp,
			check:  (*Variable).IsTempVariable,
			access: False,
		},
		{
			name:   "closure",
			kind:   KindClosure,
			check:  (*Variable).IsClosureVariable,
			access: True,
		},
		{
			name:   "class",
			kind:   KindClass,
			check:  (*Variable).IsClassVariable,
			access: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := r.Declare(tt.name, fn, tt.kind)
			if !tt.check(v) {
				t.Errorf("%s predicate failed", tt.kind)
			}
			if got := v.HasAccessesOutsideOf(fn); got != tt.access {
				t.Errorf("accesses outside: got %s, want %s", got, tt.access)
			}
		})
	}
}

func TestRegistryVersions(t *testing.T) {
	r := NewRegistry("mod")
	fn := r.NewScope("f", ScopeFunction, r.Module(), 10, 100)
	x := r.Declare("x", fn, KindLocal)

	prev := 0
	for i := 0; i < 5; i++ {
		ref := NewTargetRef(r, x)
		if ref.Version() <= prev {
			t.Fatalf("version %d after %d", ref.Version(), prev)
		}
		prev = ref.Version()
	}

	rebuilt := NewTargetRefWithVersion(r, x, 42)
	if rebuilt.Version() != 42 {
		t.Fatalf("explicit version was changed to %d", rebuilt.Version())
	}
	if next := NewTargetRef(r, x); next.Version() != 43 {
		t.Errorf("allocation after rebuild must skip reloaded versions, got %d", next.Version())
	}

	low := NewTargetRefWithVersion(r, x, 2)
	if low.Version() != 2 || x.LastVersion() != 43 {
		t.Errorf("rebuilding an old version must not move the counter back, got %d", x.LastVersion())
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry("mod")
	fn := r.NewScope("f", ScopeFunction, r.Module(), 10, 100)
	x := r.Declare("x", fn, KindLocal)

	got, err := r.Lookup(fn.ID, "x")
	if err != nil {
		t.Fatal(err)
	}
	if got != x {
		t.Fatal("lookup must return the declared variable")
	}

	if _, err := r.Lookup(fn.ID, "y"); err == nil {
		t.Error("missing variable must be an error")
	}
	if _, err := r.Lookup(ScopeID(100), "x"); err == nil {
		t.Error("missing scope must be an error")
	}
}

func TestInvariantViolations(t *testing.T) {
	r := NewRegistry("mod")
	fn := r.NewScope("f", ScopeFunction, r.Module(), 10, 100)

	mustPanic := func(name string, f func()) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				rec := recover()
				err, ok := rec.(error)
				if !ok {
					t.Fatalf("panic with *InternalError expected, got %v", rec)
				}
				var ie *InternalError
				if !errors.As(err, &ie) {
					t.Fatalf("unexpected panic value %T", rec)
				}
			}()
			f()
		})
	}

	mustPanic("target without variable", func() {
		NewTargetRef(r, nil)
	})
	mustPanic("version before allocation", func() {
		var ref TargetRef
		ref.version = 0
		ref.variable = r.Declare("x", fn, KindLocal)
		_ = ref.Version()
	})
	mustPanic("kind mismatch", func() {
		r.Declare("y", fn, KindLocal)
		r.Declare("y", fn, KindTemp)
	})
	mustPanic("module variable in function", func() {
		r.Declare("z", fn, KindModule)
	})
}
