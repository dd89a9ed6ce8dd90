package persist

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/variables"
)

// Export renders the unit in the stored tree format.
func Export(unit *ir.Unit) ([]byte, error) {
	tree, err := NewTree(unit)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode tree of %s: %w", unit.Scope.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finish tree of %s: %w", unit.Scope.Name, err)
	}

	return buf.Bytes(), nil
}

// NewTree converts the unit into the stored form.
func NewTree(unit *ir.Unit) (*Tree, error) {
	if unit.Body == nil {
		return nil, fmt.Errorf("unit %s has no body", unit.Scope.Name)
	}

	body, err := exportBody(unit.Body)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", unit.Scope.Name, err)
	}

	return &Tree{
		Unit: scopeRef(unit.Scope),
		Body: body,
	}, nil
}

func exportBody(b *ir.Body) ([]Node, error) {
	res := make([]Node, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		n, err := exportStmt(s)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}

	return res, nil
}

func exportStmt(s ir.Stmt) (Node, error) {
	switch v := s.(type) {
	case *ir.Assign:
		src, err := exportExpr(v.Source)
		if err != nil {
			return Node{}, fmt.Errorf("assign to %s: %w", v.Target, err)
		}
		target := targetRef(v.Target)
		return Node{
			Kind:   NodeAssign,
			Target: &target,
			Expr:   src,
		}, nil

	case *ir.Del:
		target := targetRef(v.Target)
		return Node{
			Kind:     NodeDel,
			Target:   &target,
			Tolerant: v.Tolerant,
		}, nil

	case *ir.Release:
		target := varRef(v.Variable)
		return Node{
			Kind:   NodeRelease,
			Target: &target,
		}, nil

	case *ir.ExprOnly:
		e, err := exportExpr(v.Expr)
		if err != nil {
			return Node{}, err
		}
		return Node{
			Kind: NodeExpr,
			Expr: e,
		}, nil

	case *ir.Branch:
		cond, err := exportExpr(v.Cond)
		if err != nil {
			return Node{}, fmt.Errorf("branch condition: %w", err)
		}
		then, err := exportBody(v.Then)
		if err != nil {
			return Node{}, err
		}
		els, err := exportBody(v.Else)
		if err != nil {
			return Node{}, err
		}
		return Node{
			Kind: NodeBranch,
			Expr: cond,
			Then: then,
			Else: els,
		}, nil

	case *ir.Opaque:
		n := Node{
			Kind: NodeOpaque,
			What: v.What,
		}
		for _, r := range v.Reads {
			n.Reads = append(n.Reads, varRef(r))
		}
		for _, w := range v.Writes {
			n.Writes = append(n.Writes, targetRef(w))
		}
		return n, nil

	default:
		return Node{}, fmt.Errorf("unsupported statement %T", s)
	}
}

func exportExpr(e ir.Expr) (*ExprNode, error) {
	switch v := e.(type) {
	case *ir.Constant:
		return &ExprNode{
			Kind:     ExprConstant,
			Constant: &ConstantNode{
				Value:   v.Value,
				Mutable: v.Mutable,
			},
		}, nil

	case *ir.VarRef:
		ref := varRef(v.Variable)
		return &ExprNode{
			Kind:     ExprVarRef,
			Variable: &ref,
		}, nil

	case *ir.NameRead:
		scope := scopeRef(v.Scope)
		return &ExprNode{
			Kind:  ExprNameRead,
			Scope: &scope,
		}, nil

	case *ir.Call:
		args, err := exportExprs(v.Args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", v.Callee, err)
		}
		return &ExprNode{
			Kind:     ExprCall,
			Callee:   v.Callee,
			Args:     args,
			Pure:     v.Pure,
			MayRaise: v.MayRaise,
			Raises:   v.Raises,
		}, nil

	case *ir.SideEffects:
		effects, err := exportExprs(v.Effects)
		if err != nil {
			return nil, err
		}
		value, err := exportExpr(v.Value)
		if err != nil {
			return nil, err
		}
		return &ExprNode{
			Kind:    ExprSideEffects,
			Effects: effects,
			Result:  value,
		}, nil

	case *ir.Raise:
		return &ExprNode{
			Kind:  ExprRaise,
			Raise: v.Kind,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

func exportExprs(list []ir.Expr) ([]ExprNode, error) {
	var res []ExprNode
	for _, e := range list {
		n, err := exportExpr(e)
		if err != nil {
			return nil, err
		}
		res = append(res, *n)
	}

	return res, nil
}

func scopeRef(s *variables.Scope) ScopeRef {
	return ScopeRef{
		ID:   s.ID,
		Name: s.Name,
	}
}

func varRef(v *variables.Variable) VarRef {
	return VarRef{
		Name:      v.Name,
		Scope:     scopeRef(v.Owner),
		Kind:      v.Kind,
		Parameter: v.Parameter,
	}
}

func targetRef(t *variables.TargetRef) VarRef {
	ref := varRef(t.Variable())
	ref.Version = t.Version()
	return ref
}
