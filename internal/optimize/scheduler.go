package optimize

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/tracing"
	"github.com/sirkon/vartrace/internal/variables"
)

// DefaultMaxSweeps limits the number of sweeps over a unit.
const DefaultMaxSweeps = 64

// Options of optimization.
type Options struct {
	// Logger receives debug records for every change and an info record per unit.
	// Nothing is logged when it is nil.
	Logger *slog.Logger

	// Reporter receives every change applied. Optional.
	Reporter *Reporter

	// Forwarding enables replacement of reads with assigned constants.
	Forwarding bool

	// MaxSweeps is the number of sweeps after which optimization of a unit fails.
	// DefaultMaxSweeps is used when it is zero.
	MaxSweeps int

	// Workers is the number of units optimized concurrently by OptimizeUnits.
	// Zero means one.
	Workers int
}

// DefaultOptions returns options with every optimization enabled.
func DefaultOptions() Options {
	return Options{
		Forwarding: true,
		MaxSweeps:  DefaultMaxSweeps,
		Workers:    1,
	}
}

// ErrNoFixpoint is returned when a unit keeps changing after the allowed number of sweeps.
var ErrNoFixpoint = errors.New("no fixpoint reached")

// Scheduler drives statement optimizers of one unit to a fixpoint.
//
// A sweep walks every statement of the unit in program order with a fresh trace
// state, the collection needs all of them to know the state at each point. The
// work-list decides if another sweep is needed: it is seeded with every statement,
// each changed statement puts its replacements and every statement sharing a
// variable with it there, and a statement stays in it until it was walked twice
// since the last change that scheduled it. Decisions on stores use usages counted
// in the previous sweep, so the first walk after a change only refreshes them.
// Optimization ends when a sweep leaves the work-list empty.
type Scheduler struct {
	reg  *variables.Registry
	unit *ir.Unit
	opts Options
	log  *slog.Logger

	stmts *ReporterPhase
	exprs *ReporterPhase

	coll   *tracing.Collection
	traces map[ir.StmtID]tracing.TraceID
	priors map[ir.StmtID]tracing.TraceID
	visits map[ir.StmtID]int
	queue  *workQueue

	changes int
}

// NewScheduler creates a scheduler of the unit.
func NewScheduler(reg *variables.Registry, unit *ir.Unit, opts Options) *Scheduler {
	if opts.MaxSweeps <= 0 {
		opts.MaxSweeps = DefaultMaxSweeps
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rep := opts.Reporter
	if rep == nil {
		rep = &Reporter{}
	}

	return &Scheduler{
		reg:    reg,
		unit:   unit,
		opts:   opts,
		log:    logger.With("unit", unit.Scope.Name),
		stmts:  rep.Phase(unit.Scope.Name, ReportStatement),
		exprs:  rep.Phase(unit.Scope.Name, ReportExpression),
		coll:   tracing.NewCollection(unit.Scope),
		traces: map[ir.StmtID]tracing.TraceID{},
		priors: map[ir.StmtID]tracing.TraceID{},
		visits: map[ir.StmtID]int{},
		queue:  newWorkQueue(),
	}
}

// Run optimizes the unit. A broken invariant is returned as an error wrapping
// *variables.InternalError, the unit body is dropped then: a partially optimized
// body must not be used.
func (s *Scheduler) Run() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		var ierr *variables.InternalError
		rerr, ok := r.(error)
		if !ok || !errors.As(rerr, &ierr) {
			panic(r)
		}

		s.unit.Body = nil
		err = fmt.Errorf("optimize %s: %w", s.unit.Scope.Name, rerr)
	}()

	s.unit.Walk(func(st ir.Stmt) bool {
		s.queue.push(st.ID())
		return true
	})

	for !s.queue.empty() {
		if s.coll.Sweep() >= s.opts.MaxSweeps {
			return fmt.Errorf("optimize %s: %w after %d sweeps", s.unit.Scope.Name, ErrNoFixpoint, s.coll.Sweep())
		}

		pending := s.queue.drain()
		sweep := s.coll.StartSweep()
		s.log.Debug("sweep started", "sweep", sweep, "pending", len(pending))

		s.walkBody(s.unit.Body)
	}

	s.log.Info("unit optimized", "sweeps", s.coll.Sweep(), "changes", s.changes)
	return nil
}

// Sweeps returns the number of sweeps done.
func (s *Scheduler) Sweeps() int {
	return s.coll.Sweep()
}

// Changes returns the number of changes applied.
func (s *Scheduler) Changes() int {
	return s.changes
}

// Collection gives access to traces of the unit.
func (s *Scheduler) Collection() *tracing.Collection {
	return s.coll
}

// ExceptionExits returns exception exits recorded in the last sweep.
func (s *Scheduler) ExceptionExits() []tracing.ExceptionExit {
	return s.coll.ExceptionExits()
}

// StatementTrace returns the trace the statement produced in the last sweep.
func (s *Scheduler) StatementTrace(st ir.Stmt) (tracing.TraceID, bool) {
	id, ok := s.traces[st.ID()]
	return id, ok
}

func (s *Scheduler) walkBody(b *ir.Body) {
	out := make([]ir.Stmt, 0, len(b.Stmts))
	for _, st := range b.Stmts {
		out = append(out, s.walkStmt(st)...)
	}
	b.Stmts = out
}

// walkStmt optimizes the statement and returns what takes its place. Replacements
// are walked right away: the rest of the sweep must see their effects.
func (s *Scheduler) walkStmt(st ir.Stmt) []ir.Stmt {
	s.visits[st.ID()]++
	before := ir.StmtString(st)
	vars := ir.StmtVariables(st)

	res := s.optimizeStmt(st)
	switch res.Kind {
	case ResultUnchanged:
		if s.visits[st.ID()] < 2 {
			s.queue.push(st.ID())
		}
		return []ir.Stmt{st}

	case ResultUpdated:
		s.changed(st, res, before, vars)
		s.schedule(st.ID())
		return []ir.Stmt{st}

	case ResultReplaced:
		s.changed(st, res, before, vars)
		var out []ir.Stmt
		for _, n := range res.Stmts {
			out = append(out, s.walkStmt(n)...)
		}
		return out

	case ResultRemoved:
		s.changed(st, res, before, vars)
		return nil

	default:
		variables.Panicf(st.Pos(), "statement %s optimized to %s", before, res.Kind)
		return nil
	}
}

func (s *Scheduler) optimizeStmt(st ir.Stmt) Result {
	switch v := st.(type) {
	case *ir.Assign:
		return s.optimizeAssign(v)
	case *ir.Del:
		return s.optimizeDel(v)
	case *ir.Release:
		return s.optimizeRelease(v)
	case *ir.ExprOnly:
		return s.optimizeExprOnly(v)
	case *ir.Branch:
		return s.optimizeBranch(v)
	case *ir.Opaque:
		return s.optimizeOpaque(v)
	default:
		variables.Panicf(st.Pos(), "unexpected statement %T", st)
		return Result{}
	}
}

// changed splices bookkeeping of a change: reports it, retires the old statement,
// adopts replacements and schedules everything that may be affected.
func (s *Scheduler) changed(st ir.Stmt, res Result, before string, vars map[*variables.Variable]struct{}) {
	s.changes++
	sweep := s.coll.Sweep()
	s.stmts.Report(sweep, res.Rule, res.Reason, st.Pos(), before)
	s.log.Debug(
		"statement changed",
		"sweep", sweep,
		"rule", res.Rule.String(),
		"reason", res.Reason,
		"stmt", before,
	)

	if res.Kind == ResultReplaced || res.Kind == ResultRemoved {
		s.unit.Forget(st)
	}
	for _, n := range res.Stmts {
		s.unit.Adopt(n)
		s.schedule(n.ID())
		for v := range ir.StmtVariables(n) {
			vars[v] = struct{}{}
		}
	}

	s.unit.Walk(func(other ir.Stmt) bool {
		if other == st {
			return true
		}
		if _, ok := s.unit.Stmt(other.ID()); !ok {
			return true
		}
		for v := range ir.StmtVariables(other) {
			if _, ok := vars[v]; ok {
				s.schedule(other.ID())
				break
			}
		}
		return true
	})
}

// schedule puts the statement into the work-list and restarts its visit count.
func (s *Scheduler) schedule(id ir.StmtID) {
	s.visits[id] = 0
	s.queue.push(id)
}

// workQueue is an ordered set of statement handles.
type workQueue struct {
	ids []ir.StmtID
	in  map[ir.StmtID]struct{}
}

func newWorkQueue() *workQueue {
	return &workQueue{
		in: map[ir.StmtID]struct{}{},
	}
}

func (q *workQueue) push(id ir.StmtID) {
	if _, ok := q.in[id]; ok {
		return
	}
	q.in[id] = struct{}{}
	q.ids = append(q.ids, id)
}

func (q *workQueue) empty() bool {
	return len(q.ids) == 0
}

func (q *workQueue) drain() []ir.StmtID {
	res := q.ids
	q.ids = nil
	q.in = map[ir.StmtID]struct{}{}
	return res
}
