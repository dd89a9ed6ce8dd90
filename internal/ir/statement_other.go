package ir

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// ExprOnly evaluates an expression for its side effects only.
//
//	f(x)
type ExprOnly struct {
	stmtHeader

	Expr Expr
}

// NewExprOnly creates a bare evaluation statement.
func NewExprOnly(e Expr) *ExprOnly {
	return &ExprOnly{
		Expr: e,
	}
}

// Branch is a two-way conditional.
//
//	if cond { Then } else { Else }
type Branch struct {
	stmtHeader

	Cond Expr
	Then *Body
	Else *Body
}

// NewBranch creates a conditional statement. Missing bodies are made empty.
func NewBranch(cond Expr, then, els *Body) *Branch {
	if then == nil {
		then = &Body{}
	}
	if els == nil {
		els = &Body{}
	}

	return &Branch{
		Cond: cond,
		Then: then,
		Else: els,
	}
}

// Opaque stands for a statement the front end could not model. It reads every
// variable of Reads and binds each of Writes to an unknown value. It is never
// rewritten.
//
//	for i := range xs { total += i }  // Reads: [xs, total], Writes: [i@N, total@M]
type Opaque struct {
	stmtHeader

	What   string
	Reads  []*variables.Variable
	Writes []*variables.TargetRef
}

// NewOpaque creates an opaque statement.
func NewOpaque(what string, reads []*variables.Variable, writes []*variables.TargetRef) *Opaque {
	return &Opaque{
		What:   what,
		Reads:  reads,
		Writes: writes,
	}
}

func (*ExprOnly) isNode() {}
func (*ExprOnly) isStmt() {}
func (*Branch) isNode()   {}
func (*Branch) isStmt()   {}
func (*Opaque) isNode()   {}
func (*Opaque) isStmt()   {}
