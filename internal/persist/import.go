package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/variables"
)

// Import rebuilds a unit stored with Export. Scopes are looked up in the registry by
// their handles, variables missing in them are declared. Write references get their
// stored versions.
func Import(data []byte, reg *variables.Registry) (*ir.Unit, error) {
	var tree Tree
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tree); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode tree: empty document")
		}
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	return tree.Rebuild(reg)
}

// Rebuild creates the unit this tree was made of.
func (t *Tree) Rebuild(reg *variables.Registry) (*ir.Unit, error) {
	b := &builder{reg: reg}

	scope, err := b.scope(t.Unit)
	if err != nil {
		return nil, fmt.Errorf("unit: %w", err)
	}

	body, err := b.body(t.Body)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", scope.Name, err)
	}

	return ir.NewUnit(scope, body), nil
}

type builder struct {
	reg *variables.Registry
}

func (b *builder) body(nodes []Node) (*ir.Body, error) {
	res := &ir.Body{}
	for i, n := range nodes {
		s, err := b.stmt(n)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		res.Stmts = append(res.Stmts, s)
	}

	return res, nil
}

func (b *builder) stmt(n Node) (ir.Stmt, error) {
	switch n.Kind {
	case NodeAssign:
		target, err := b.target(n.Target)
		if err != nil {
			return nil, err
		}
		src, err := b.expr(n.Expr)
		if err != nil {
			return nil, fmt.Errorf("assign to %s: %w", target, err)
		}
		return ir.NewAssign(target, src), nil

	case NodeDel:
		target, err := b.target(n.Target)
		if err != nil {
			return nil, err
		}
		return ir.NewDel(target, n.Tolerant), nil

	case NodeRelease:
		if n.Target == nil {
			return nil, errors.New("release without a variable")
		}
		v, err := b.variable(*n.Target)
		if err != nil {
			return nil, err
		}
		return ir.NewRelease(v), nil

	case NodeExpr:
		e, err := b.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		return ir.NewExprOnly(e), nil

	case NodeBranch:
		cond, err := b.expr(n.Expr)
		if err != nil {
			return nil, fmt.Errorf("branch condition: %w", err)
		}
		then, err := b.body(n.Then)
		if err != nil {
			return nil, fmt.Errorf("then: %w", err)
		}
		els, err := b.body(n.Else)
		if err != nil {
			return nil, fmt.Errorf("else: %w", err)
		}
		return ir.NewBranch(cond, then, els), nil

	case NodeOpaque:
		var reads []*variables.Variable
		for _, r := range n.Reads {
			v, err := b.variable(r)
			if err != nil {
				return nil, err
			}
			reads = append(reads, v)
		}
		var writes []*variables.TargetRef
		for i := range n.Writes {
			w, err := b.target(&n.Writes[i])
			if err != nil {
				return nil, err
			}
			writes = append(writes, w)
		}
		return ir.NewOpaque(n.What, reads, writes), nil

	default:
		return nil, fmt.Errorf("unknown node kind %d", n.Kind)
	}
}

func (b *builder) expr(n *ExprNode) (ir.Expr, error) {
	if n == nil {
		return nil, errors.New("missing expression")
	}

	switch n.Kind {
	case ExprConstant:
		if n.Constant == nil {
			return nil, errors.New("constant without a value")
		}
		return &ir.Constant{
			Value:   n.Constant.Value,
			Mutable: n.Constant.Mutable,
		}, nil

	case ExprVarRef:
		if n.Variable == nil {
			return nil, errors.New("variable read without a variable")
		}
		v, err := b.variable(*n.Variable)
		if err != nil {
			return nil, err
		}
		return &ir.VarRef{Variable: v}, nil

	case ExprNameRead:
		if n.Scope == nil {
			return nil, errors.New("name read without a scope")
		}
		s, err := b.scope(*n.Scope)
		if err != nil {
			return nil, err
		}
		return &ir.NameRead{Scope: s}, nil

	case ExprCall:
		args, err := b.exprs(n.Args)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", n.Callee, err)
		}
		return &ir.Call{
			Callee:   n.Callee,
			Args:     args,
			Pure:     n.Pure,
			MayRaise: n.MayRaise,
			Raises:   n.Raises,
		}, nil

	case ExprSideEffects:
		effects, err := b.exprs(n.Effects)
		if err != nil {
			return nil, err
		}
		value, err := b.expr(n.Result)
		if err != nil {
			return nil, fmt.Errorf("side effects value: %w", err)
		}
		return &ir.SideEffects{
			Effects: effects,
			Value:   value,
		}, nil

	case ExprRaise:
		return &ir.Raise{Kind: n.Raise}, nil

	default:
		return nil, fmt.Errorf("unknown expression kind %d", n.Kind)
	}
}

func (b *builder) exprs(list []ExprNode) ([]ir.Expr, error) {
	var res []ir.Expr
	for i := range list {
		e, err := b.expr(&list[i])
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}

	return res, nil
}

func (b *builder) scope(ref ScopeRef) (*variables.Scope, error) {
	s, ok := b.reg.ScopeByID(ref.ID)
	if !ok {
		return nil, fmt.Errorf("unknown scope %s#%d", ref.Name, ref.ID)
	}
	if s.Name != ref.Name {
		return nil, fmt.Errorf("scope #%d is %s, not %s", ref.ID, s.Name, ref.Name)
	}

	return s, nil
}

func (b *builder) variable(ref VarRef) (*variables.Variable, error) {
	s, err := b.scope(ref.Scope)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", ref.Name, err)
	}

	v, err := b.reg.Lookup(s.ID, ref.Name)
	if err != nil {
		switch ref.Kind {
		case variables.KindModule:
			if s.Kind != variables.ScopeModule {
				return nil, fmt.Errorf("module variable %s in %s scope %s", ref.Name, s.Kind, s.Name)
			}
		case variables.KindLocal, variables.KindTemp, variables.KindClosure, variables.KindClass:
		default:
			return nil, fmt.Errorf("variable %s of unknown kind %d", ref.Name, ref.Kind)
		}

		v = b.reg.Declare(ref.Name, s, ref.Kind)
		v.Parameter = ref.Parameter
		return v, nil
	}

	if v.Kind != ref.Kind {
		return nil, fmt.Errorf("variable %s is %s, not %s", v, v.Kind, ref.Kind)
	}

	return v, nil
}

func (b *builder) target(ref *VarRef) (*variables.TargetRef, error) {
	if ref == nil {
		return nil, errors.New("missing target")
	}

	v, err := b.variable(*ref)
	if err != nil {
		return nil, err
	}
	if ref.Version <= 0 {
		return nil, fmt.Errorf("target %s has no version", ref.Name)
	}

	return variables.NewTargetRefWithVersion(b.reg, v, ref.Version), nil
}
