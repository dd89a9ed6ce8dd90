package optimize

import (
	"testing"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
	"github.com/sirkon/vartrace/internal/variables"
)

func TestDelOfUnassigned(t *testing.T) {
	tests := []struct {
		name     string
		kind     variables.Kind
		tolerant bool
		want     string
		raises   bool
	}{
		{
			name:     "tolerant local",
			kind:     variables.KindLocal,
			tolerant: true,
			want:     "",
		},
		{
			name:     "strict temporary",
			kind:     variables.KindTemp,
			tolerant: false,
			want:     "",
		},
		{
			name:     "strict local",
			kind:     variables.KindLocal,
			tolerant: false,
			want:     "del x@1\n",
			raises:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUnit()
			x := u.reg.Declare("x", u.fn, tt.kind)
			del := u.del(x, tt.tolerant)

			opts := testOptions()
			s, _ := u.run(t, opts, tt.want, del)

			if !tt.raises {
				if !hasRule(opts.Reporter.Reports(), optrules.TolerantDelRemoved()) {
					t.Error("removal must be reported")
				}
				return
			}

			exits := s.ExceptionExits()
			if len(exits) != 1 || exits[0].Kind != raiseUnbound {
				t.Errorf("unbound delete must raise, got exits %v", exits)
			}
			if !s.MayRaiseException(del) {
				t.Error("strict delete of unbound local may raise")
			}
		})
	}
}

func TestDelMayRaise(t *testing.T) {
	u := newTestUnit()
	x := u.local("x")
	y := u.local("y")
	c := u.param("c")

	stmts := []ir.Stmt{
		u.assign(x, call("f")),
		ir.NewBranch(ref(c), ir.NewBody(u.assign(y, call("g"))), nil),
	}
	delX := u.del(x, false)
	delY := u.del(y, false)
	tolerant := u.del(y, true)
	stmts = append(stmts, delX, delY, tolerant)

	s, _ := u.run(t, testOptions(), "x@1 = f()\nif c\n  y@1 = g()\ndel x@2\ndel y@2\ndel y@3 (tolerant)\n", stmts...)

	if s.MayRaiseException(delX) {
		t.Error("x is bound on every path")
	}
	if !s.MayRaiseException(delY) {
		t.Error("y is bound on one path only")
	}
	if s.MayRaiseException(tolerant) {
		t.Error("tolerant delete never raises")
	}
}

func TestRelease(t *testing.T) {
	u := newTestUnit()
	x := u.local("x")
	p := u.param("p")
	y := u.local("y")

	relX := ir.NewRelease(x)
	relP := ir.NewRelease(p)
	relY := ir.NewRelease(y)

	opts := testOptions()
	s, _ := u.run(t, opts, "y@1 = f()\nuse(y)\nrelease p\nrelease y\n",
		relX,
		u.assign(y, call("f")),
		eval(call("use", ref(y))),
		relP,
		relY,
	)

	if !hasRule(opts.Reporter.Reports(), optrules.UninitReleaseRemoved()) {
		t.Error("release of unassigned variable must be reported")
	}
	for _, rel := range []*ir.Release{relP, relY} {
		if s.MayRaiseException(rel) {
			t.Errorf("%s must never raise", ir.StmtString(rel))
		}
	}
	if len(s.ExceptionExits()) != 2 {
		// f() and use(y)
		t.Errorf("releases must not raise, got exits %v", s.ExceptionExits())
	}
}
