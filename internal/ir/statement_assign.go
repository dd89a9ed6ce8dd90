package ir

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// Assign stores a value into a variable.
//
//	x = f()  // Target: x@N, Source: f()
type Assign struct {
	stmtHeader

	Target *variables.TargetRef
	Source Expr
}

// NewAssign creates an assignment statement.
func NewAssign(target *variables.TargetRef, source Expr) *Assign {
	return &Assign{
		Target: target,
		Source: source,
	}
}

func (*Assign) isNode() {}
func (*Assign) isStmt() {}
