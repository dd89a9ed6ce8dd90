package ir

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// Constant is a compile time constant.
//
//	42, "text", None    // Mutable: false
//	[], {}              // Mutable: true
type Constant struct {
	Value   any
	Mutable bool
}

// VarRef reads a variable.
//
//	x
type VarRef struct {
	Variable *variables.Variable
}

// NameRead reads variables of the scope by name, these reads cannot be tracked to
// a variable.
//
//	locals()
//	eval("x")
type NameRead struct {
	Scope *variables.Scope
}

// Call invokes code the optimizer knows nothing about, except flags.
//
//	f(x)       // Callee: "f", Args: [x]
//	x + 1      // Callee: "+", Args: [x, 1], Pure: true, MayRaise: true
//	panic(x)   // Callee: "panic", Args: [x], Raises: true
type Call struct {
	Callee string
	Args   []Expr

	// Pure calls neither run foreign code nor let their arguments escape.
	Pure bool

	// MayRaise is meaningful for pure calls only, impure calls may always raise.
	MayRaise bool

	// Raises is set for calls known to never return normally.
	Raises bool
}

// SideEffects is a value computed after independent side effects.
//
//	(f(), g(), x)  // Effects: [f(), g()], Value: x
type SideEffects struct {
	Effects []Expr
	Value   Expr
}

// Raise unconditionally raises an exception of the given kind.
type Raise struct {
	Kind string
}

func (*Constant) isNode()    {}
func (*Constant) isExpr()    {}
func (*VarRef) isNode()      {}
func (*VarRef) isExpr()      {}
func (*NameRead) isNode()    {}
func (*NameRead) isExpr()    {}
func (*Call) isNode()        {}
func (*Call) isExpr()        {}
func (*SideEffects) isNode() {}
func (*SideEffects) isExpr() {}
func (*Raise) isNode()       {}
func (*Raise) isExpr()       {}
