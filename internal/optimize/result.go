package optimize

import (
	"fmt"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/optrules"
)

// ResultKind describes what a statement optimizer did.
type ResultKind int

const (
	resultKindInvalid ResultKind = iota

	// ResultUnchanged means the statement stays as it is.
	ResultUnchanged

	// ResultUpdated means the statement was rewritten in place.
	ResultUpdated

	// ResultReplaced means the statement must be replaced with Result.Stmts.
	ResultReplaced

	// ResultRemoved means the statement must be removed.
	ResultRemoved
)

func (k ResultKind) String() string {
	switch k {
	case ResultUnchanged:
		return "unchanged"
	case ResultUpdated:
		return "updated"
	case ResultReplaced:
		return "replaced"
	case ResultRemoved:
		return "removed"
	default:
		return fmt.Sprintf("invalid(%d)", k)
	}
}

// Result of a statement optimizer.
type Result struct {
	Kind   ResultKind
	Stmts  []ir.Stmt
	Rule   optrules.Rule
	Reason string
}

// Changed tells if the statement was changed in any way.
func (r Result) Changed() bool {
	return r.Kind != ResultUnchanged
}

func unchanged() Result {
	return Result{Kind: ResultUnchanged}
}

func updated(rule optrules.Rule, reason string) Result {
	return Result{
		Kind:   ResultUpdated,
		Rule:   rule,
		Reason: reason,
	}
}

func replaced(rule optrules.Rule, reason string, stmts ...ir.Stmt) Result {
	return Result{
		Kind:   ResultReplaced,
		Stmts:  stmts,
		Rule:   rule,
		Reason: reason,
	}
}

func removed(rule optrules.Rule, reason string) Result {
	return Result{
		Kind:   ResultRemoved,
		Rule:   rule,
		Reason: reason,
	}
}
