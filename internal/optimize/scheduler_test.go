package optimize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
	"github.com/sirkon/vartrace/internal/variables"
)

func TestRunInternalError(t *testing.T) {
	u := newTestUnit()
	unit := ir.NewUnit(u.fn, ir.NewBody(
		eval(call("f")),
		ir.NewDel(&variables.TargetRef{}, false),
	))

	err := NewScheduler(u.reg, unit, testOptions()).Run()
	var ierr *variables.InternalError
	if !errors.As(err, &ierr) {
		t.Fatalf("internal error expected, got %v", err)
	}
	if unit.Body != nil {
		t.Error("partial output must be dropped")
	}
}

func TestRunNoFixpoint(t *testing.T) {
	u := newTestUnit()
	unit := ir.NewUnit(u.fn, ir.NewBody(eval(call("f"))))

	opts := testOptions()
	opts.MaxSweeps = 1
	err := NewScheduler(u.reg, unit, opts).Run()
	if !errors.Is(err, ErrNoFixpoint) {
		t.Fatalf("no fixpoint error expected, got %v", err)
	}
}

func TestRunSweeps(t *testing.T) {
	u := newTestUnit()

	s, _ := u.run(t, testOptions(), "")
	if s.Sweeps() != 0 {
		t.Errorf("empty unit needs no sweeps, got %d", s.Sweeps())
	}

	s, _ = u.run(t, testOptions(), "f()\n", eval(call("f")))
	if s.Sweeps() != 2 || s.Changes() != 0 {
		t.Errorf("unchanged statements are walked twice: sweeps %d, changes %d", s.Sweeps(), s.Changes())
	}
}

func TestStatementTrace(t *testing.T) {
	u := newTestUnit()
	x := u.local("x")
	assign := u.assign(x, call("f"))
	read := eval(call("use", ref(x)))

	s, _ := u.run(t, testOptions(), "x@1 = f()\nuse(x)\n", assign, read)

	id, ok := s.StatementTrace(assign)
	if !ok {
		t.Fatal("assignment must have a trace")
	}
	tr := s.Collection().Trace(id)
	if !tr.IsAssigned() || tr.Sweep() != s.Sweeps() || tr.DefiniteUsages() != 1 {
		t.Errorf("unexpected trace of the assignment %s", tr)
	}
	if _, ok := s.StatementTrace(read); ok {
		t.Error("expressions have no traces")
	}
}

func TestRunLogs(t *testing.T) {
	u := newTestUnit()
	x := u.local("x")

	var buf bytes.Buffer
	opts := testOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	u.run(t, opts, "", u.assign(x, konst(1)))

	out := buf.String()
	for _, want := range []string{"statement changed", "unit optimized", "unit=f", optrules.DeadStoreDropped().String()} {
		if !strings.Contains(out, want) {
			t.Errorf("log must contain %q, got:\n%s", want, out)
		}
	}
}

func TestOptimizeUnits(t *testing.T) {
	reg := variables.NewRegistry("mod")

	var units []*ir.Unit
	var wants []string
	for i := range 8 {
		fn := reg.NewScope(fmt.Sprintf("f%d", i), variables.ScopeFunction, reg.Module(), token.Pos(100*i+1), token.Pos(100*i+99))
		x := reg.Declare("x", fn, variables.KindLocal)
		g := reg.Resolve("counter", fn)
		units = append(units, ir.NewUnit(fn, ir.NewBody(
			ir.NewAssign(variables.NewTargetRef(reg, x), konst(i)),
			ir.NewAssign(variables.NewTargetRef(reg, g), call("use", ref(x))),
		)))
		wants = append(wants, fmt.Sprintf("counter@%d = use(%d)\n", i+1, i))
	}

	opts := testOptions()
	opts.Workers = 3
	results, err := OptimizeUnits(context.Background(), reg, units, opts)
	if err != nil {
		t.Fatalf("optimize units: %v", err)
	}

	for i, res := range results {
		if res.Unit != units[i] || res.Err != nil {
			t.Fatalf("unit %d: unexpected result %+v", i, res)
		}
		if diff := cmp.Diff(wants[i], ir.Print(res.Unit.Body)); diff != "" {
			t.Errorf("unit %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestOptimizeUnitsCanceled(t *testing.T) {
	u := newTestUnit()
	unit := ir.NewUnit(u.fn, ir.NewBody(eval(call("f"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := OptimizeUnits(ctx, u.reg, []*ir.Unit{unit}, testOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation expected, got %v", err)
	}
	if !errors.Is(results[0].Err, context.Canceled) || results[0].Sweeps != 0 {
		t.Errorf("unit must not be started, got %+v", results[0])
	}
}

func TestReporter_ReportPhases(t *testing.T) {
	tests := []struct {
		name    string
		phase   ReportPhase
		rule    optrules.Rule
		message string
		want    string
		pos     token.Pos
	}{
		{
			name:    "statement",
			phase:   ReportStatement,
			rule:    optrules.DeadStoreDropped(),
			message: "value stored to y@1 is never used",
			want:    "value stored to y@1 is never used",
			pos:     10,
		},
		{
			name:  "expression default message",
			phase: ReportExpression,
			rule:  optrules.ConstantForwarded(),
			want:  optrules.ConstantForwarded().Description(),
			pos:   20,
		},
	}

	var r Reporter
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Phase("f", tt.phase).Report(3, tt.rule, tt.message, tt.pos, "details")
		})
	}

	reps := r.Reports()
	if len(reps) != len(tests) {
		t.Fatalf("expected %d reports, got %d", len(tests), len(reps))
	}

	for i, rep := range reps {
		want := tests[i]
		if rep.Unit != "f" || rep.Sweep != 3 || rep.Details != "details" {
			t.Errorf("[%s] bound attributes lost: %+v", want.name, rep)
		}
		if rep.Phase != want.phase {
			t.Errorf("[%s] phase mismatch: got %v, want %v", want.name, rep.Phase, want.phase)
		}
		if rep.RuleCode != want.rule {
			t.Errorf("[%s] rule mismatch: got %v, want %v", want.name, rep.RuleCode, want.rule)
		}
		if rep.Message != want.want {
			t.Errorf("[%s] message mismatch: got %q, want %q", want.name, rep.Message, want.want)
		}
		if rep.Pos != want.pos {
			t.Errorf("[%s] position mismatch: got %d, want %d", want.name, rep.Pos, want.pos)
		}
	}

	var buf bytes.Buffer
	if err := r.PrintSummary(&buf, nil); err != nil {
		t.Fatalf("print summary: %v", err)
	}
	want := "[f/statement #3] VTR040: DeadStoreDropped: value stored to y@1 is never used (pos 10)\n" +
		"[f/expression #3] VTR080: ConstantForwarded: Variable read replaced with a forwarded constant. (pos 20)\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestReporter_ConcurrencySafety(t *testing.T) {
	const n = 500
	var (
		r  Reporter
		wg sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Report(Report{
				Phase:    ReportStatement,
				RuleCode: optrules.TolerantDelRemoved(),
				Message:  "parallel add",
				Pos:      token.Pos(i),
			})
		}(i)
	}
	wg.Wait()

	if got := len(r.Reports()); got != n {
		t.Fatalf("expected %d reports, got %d", n, got)
	}
}
