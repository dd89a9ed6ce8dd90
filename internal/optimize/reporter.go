package optimize

import (
	"fmt"
	"go/token"
	"io"
	"sync"

	"github.com/sirkon/vartrace/internal/optrules"
)

// Reporter collects changes applied by optimizers. It is shared between units
// optimized concurrently.
type Reporter struct {
	mu      sync.Mutex
	reports []Report
}

// Report represents a single change.
type Report struct {
	Unit     string
	Sweep    int
	Phase    ReportPhase
	RuleCode optrules.Rule
	Pos      token.Pos
	Message  string

	// Details is the text of the statement before the change.
	Details string
}

// ReportPhase marks the optimizer stage where a report was generated.
type ReportPhase int

const (
	reportPhaseInvalid ReportPhase = iota
	ReportStatement                // statement optimizers
	ReportExpression               // expression simplification
)

func (p ReportPhase) String() string {
	switch p {
	case ReportStatement:
		return "statement"
	case ReportExpression:
		return "expression"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// ReporterPhase binds a Reporter to a fixed unit and phase.
type ReporterPhase struct {
	parent *Reporter
	unit   string
	phase  ReportPhase
}

// Phase returns a reporter that sets the given unit and phase for all reports
// produced through it.
func (r *Reporter) Phase(unit string, p ReportPhase) *ReporterPhase {
	return &ReporterPhase{
		parent: r,
		unit:   unit,
		phase:  p,
	}
}

// Report adds a new record to the reporter.
func (r *Reporter) Report(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

// Report records a change under the bound phase. An empty message is replaced
// with the rule description.
func (rp *ReporterPhase) Report(sweep int, rule optrules.Rule, message string, pos token.Pos, details string) {
	if message == "" {
		message = rule.Description()
	}
	rp.parent.Report(Report{
		Unit:     rp.unit,
		Sweep:    sweep,
		Phase:    rp.phase,
		RuleCode: rule,
		Pos:      pos,
		Message:  message,
		Details:  details,
	})
}

// Reports returns a snapshot of all collected records.
func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// PrintSummary prints all collected reports in a compact, human-readable form.
// Positions are printed raw when fset is nil.
func (r *Reporter) PrintSummary(w io.Writer, fset *token.FileSet) error {
	for _, rep := range r.Reports() {
		where := fmt.Sprintf("pos %d", rep.Pos)
		if fset != nil && rep.Pos.IsValid() {
			pos := fset.Position(rep.Pos)
			where = fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
		}

		if _, err := fmt.Fprintf(w, "[%s/%s #%d] %s: %s (%s)\n",
			rep.Unit,
			rep.Phase,
			rep.Sweep,
			rep.RuleCode,
			rep.Message,
			where,
		); err != nil {
			return fmt.Errorf("print report: %w", err)
		}
	}

	return nil
}
