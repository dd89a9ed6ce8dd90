package persist

import (
	"encoding"
	"fmt"

	"github.com/sirkon/vartrace/internal/variables"
)

// Tree is the stored form of a unit.
type Tree struct {
	Unit ScopeRef `yaml:"unit"`
	Body []Node   `yaml:"body"`
}

// ScopeRef identifies a scope by its handle. The name is kept for diagnostics and
// to detect trees loaded against a wrong registry.
type ScopeRef struct {
	ID   variables.ScopeID `yaml:"id"`
	Name string            `yaml:"name"`
}

// VarRef is a mention of a variable. Version is set for write references only.
type VarRef struct {
	Name      string         `yaml:"name"`
	Scope     ScopeRef       `yaml:"scope"`
	Kind      variables.Kind `yaml:"kind"`
	Parameter bool           `yaml:"parameter,omitempty"`
	Version   int            `yaml:"version,omitempty"`
}

// Node is a stored statement.
type Node struct {
	Kind NodeKind `yaml:"node"`

	// Target of assign and del, variable of release.
	Target *VarRef `yaml:"target,omitempty"`

	Tolerant bool `yaml:"tolerant,omitempty"`

	// Expr is a source of assign, an expression of expr and a condition of branch.
	Expr *ExprNode `yaml:"expr,omitempty"`

	Then []Node `yaml:"then,omitempty"`
	Else []Node `yaml:"else,omitempty"`

	What   string   `yaml:"what,omitempty"`
	Reads  []VarRef `yaml:"reads,omitempty"`
	Writes []VarRef `yaml:"writes,omitempty"`
}

// ExprNode is a stored expression.
type ExprNode struct {
	Kind ExprKind `yaml:"expr"`

	Constant *ConstantNode `yaml:"constant,omitempty"`

	Variable *VarRef   `yaml:"variable,omitempty"`
	Scope    *ScopeRef `yaml:"scope,omitempty"`

	Callee   string     `yaml:"callee,omitempty"`
	Args     []ExprNode `yaml:"args,omitempty"`
	Pure     bool       `yaml:"pure,omitempty"`
	MayRaise bool       `yaml:"may_raise,omitempty"`
	Raises   bool       `yaml:"raises,omitempty"`

	Effects []ExprNode `yaml:"effects,omitempty"`
	Result  *ExprNode  `yaml:"result,omitempty"`

	Raise string `yaml:"raise,omitempty"`
}

// ConstantNode is a stored constant. Value is always present, zero values and
// None included.
type ConstantNode struct {
	Value   any  `yaml:"value"`
	Mutable bool `yaml:"mutable,omitempty"`
}

// NodeKind describes varieties of stored statements.
type NodeKind int

const (
	_ NodeKind = iota
	NodeAssign
	NodeDel
	NodeRelease
	NodeExpr
	NodeBranch
	NodeOpaque
)

func (k *NodeKind) String() string {
	v, err := k.MarshalText()
	if err != nil {
		return fmt.Sprintf("node-kind-invalid(%d)", *k)
	}

	return string(v)
}

var _ encoding.TextUnmarshaler = (*NodeKind)(nil)

func (k *NodeKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "assign":
		*k = NodeAssign
	case "del":
		*k = NodeDel
	case "release":
		*k = NodeRelease
	case "expr":
		*k = NodeExpr
	case "branch":
		*k = NodeBranch
	case "opaque":
		*k = NodeOpaque
	default:
		return fmt.Errorf("unknown kind %q of node", b)
	}

	return nil
}

func (k NodeKind) MarshalText() ([]byte, error) {
	switch k {
	case NodeAssign:
		return []byte("assign"), nil
	case NodeDel:
		return []byte("del"), nil
	case NodeRelease:
		return []byte("release"), nil
	case NodeExpr:
		return []byte("expr"), nil
	case NodeBranch:
		return []byte("branch"), nil
	case NodeOpaque:
		return []byte("opaque"), nil
	default:
		return nil, fmt.Errorf("cannot marshal invalid NodeKind(%d)", k)
	}
}

// ExprKind describes varieties of stored expressions.
type ExprKind int

const (
	_ ExprKind = iota
	ExprConstant
	ExprVarRef
	ExprNameRead
	ExprCall
	ExprSideEffects
	ExprRaise
)

func (k *ExprKind) String() string {
	v, err := k.MarshalText()
	if err != nil {
		return fmt.Sprintf("expr-kind-invalid(%d)", *k)
	}

	return string(v)
}

var _ encoding.TextUnmarshaler = (*ExprKind)(nil)

func (k *ExprKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "constant":
		*k = ExprConstant
	case "var":
		*k = ExprVarRef
	case "names":
		*k = ExprNameRead
	case "call":
		*k = ExprCall
	case "sideeffects":
		*k = ExprSideEffects
	case "raise":
		*k = ExprRaise
	default:
		return fmt.Errorf("unknown kind %q of expression", b)
	}

	return nil
}

func (k ExprKind) MarshalText() ([]byte, error) {
	switch k {
	case ExprConstant:
		return []byte("constant"), nil
	case ExprVarRef:
		return []byte("var"), nil
	case ExprNameRead:
		return []byte("names"), nil
	case ExprCall:
		return []byte("call"), nil
	case ExprSideEffects:
		return []byte("sideeffects"), nil
	case ExprRaise:
		return []byte("raise"), nil
	default:
		return nil, fmt.Errorf("cannot marshal invalid ExprKind(%d)", k)
	}
}
