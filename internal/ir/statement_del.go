package ir

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// Del unbinds a variable.
//
//	del x
//
// A Tolerant delete is allowed to be a no-op when the variable has no value, a
// strict one raises then.
type Del struct {
	stmtHeader

	Target   *variables.TargetRef
	Tolerant bool
}

// NewDel creates a delete statement.
func NewDel(target *variables.TargetRef, tolerant bool) *Del {
	return &Del{
		Target:   target,
		Tolerant: tolerant,
	}
}

// Release drops the value of a variable on scope exit. Unlike Del it never rebinds
// and never raises.
type Release struct {
	stmtHeader

	Variable *variables.Variable
}

// NewRelease creates a release statement.
func NewRelease(v *variables.Variable) *Release {
	return &Release{
		Variable: v,
	}
}

func (*Del) isNode()     {}
func (*Del) isStmt()     {}
func (*Release) isNode() {}
func (*Release) isStmt() {}
