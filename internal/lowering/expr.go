package lowering

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/sirkon/vartrace/internal/ir"
)

func (t *Translator) expr(e ast.Expr, st *state) ir.Expr {
	e = ast.Unparen(e)
	if tv, ok := t.info.Types[e]; ok {
		switch {
		case tv.Value != nil:
			return &ir.Constant{Value: constantValue(tv.Value)}
		case tv.IsNil():
			return &ir.Constant{Value: nil}
		}
	}

	switch e := e.(type) {
	case *ast.Ident:
		if obj := t.objectVar(e); obj != nil {
			return t.varRef(t.variable(obj), st)
		}
		return &ir.Constant{Value: e.Name}

	case *ast.FuncLit:
		t.queueLit(e, st)
		return &ir.Constant{Value: "func literal", Mutable: true}

	case *ast.CompositeLit:
		return t.composite(e, st)

	case *ast.SelectorExpr:
		return t.selector(e, st)

	case *ast.IndexExpr:
		if isFunc(t.info.TypeOf(e.X)) {
			// Instantiation of a generic function.
			return &ir.Constant{Value: types.ExprString(e)}
		}
		_, isMap := under(t.info.TypeOf(e.X)).(*types.Map)
		return &ir.Call{
			Callee:   "[]",
			Args:     []ir.Expr{t.expr(e.X, st), t.expr(e.Index, st)},
			Pure:     true,
			MayRaise: !isMap,
		}

	case *ast.IndexListExpr:
		return &ir.Constant{Value: types.ExprString(e)}

	case *ast.SliceExpr:
		args := []ir.Expr{t.expr(e.X, st)}
		for _, idx := range []ast.Expr{e.Low, e.High, e.Max} {
			if idx != nil {
				args = append(args, t.expr(idx, st))
			}
		}
		return &ir.Call{Callee: "[:]", Args: args, Pure: true, MayRaise: true}

	case *ast.StarExpr:
		return &ir.Call{Callee: "*", Args: []ir.Expr{t.expr(e.X, st)}, Pure: true, MayRaise: true}

	case *ast.UnaryExpr:
		arg := t.expr(e.X, st)
		if e.Op == token.ARROW {
			return &ir.Call{Callee: "<-", Args: []ir.Expr{arg}}
		}
		return &ir.Call{Callee: e.Op.String(), Args: []ir.Expr{arg}, Pure: true}

	case *ast.BinaryExpr:
		return t.binary(e.Op, e.X, e.Y, st)

	case *ast.TypeAssertExpr:
		return &ir.Call{
			Callee:   ".(" + types.ExprString(e.Type) + ")",
			Args:     []ir.Expr{t.expr(e.X, st)},
			Pure:     true,
			MayRaise: true,
		}

	case *ast.CallExpr:
		return t.call(e, st)
	}

	// Whatever is left is evaluated without being understood.
	c := t.newCollector(st)
	ast.Inspect(e, c.visit)
	args := make([]ir.Expr, len(c.reads))
	for i, v := range c.reads {
		args[i] = t.varRef(v, st)
	}
	return &ir.Call{Callee: types.ExprString(e), Args: args}
}

func (t *Translator) binary(op token.Token, x, y ast.Expr, st *state) ir.Expr {
	return &ir.Call{
		Callee:   op.String(),
		Args:     []ir.Expr{t.expr(x, st), t.expr(y, st)},
		Pure:     true,
		MayRaise: t.binaryMayPanic(op, x, y),
	}
}

// binaryMayPanic covers integer division by zero, negative shift counts and
// comparison of interfaces holding incomparable values.
func (t *Translator) binaryMayPanic(op token.Token, x, y ast.Expr) bool {
	xt, yt := t.info.Types[ast.Unparen(x)], t.info.Types[ast.Unparen(y)]

	switch op {
	case token.QUO, token.REM:
		return yt.Value == nil && isInteger(xt.Type)
	case token.SHL, token.SHR:
		return yt.Value == nil && !isUnsigned(yt.Type)
	case token.EQL, token.NEQ:
		if xt.IsNil() || yt.IsNil() {
			return false
		}
		return isInterface(xt.Type) || isInterface(yt.Type)
	default:
		return false
	}
}

func (t *Translator) selector(e *ast.SelectorExpr, st *state) ir.Expr {
	if obj := t.qualifiedVar(e); obj != nil {
		return t.varRef(t.variable(obj), st)
	}

	sel, ok := t.info.Selections[e]
	if !ok {
		// Qualified function.
		return &ir.Constant{Value: types.ExprString(e)}
	}

	return &ir.Call{
		Callee:   "." + e.Sel.Name,
		Args:     []ir.Expr{t.expr(e.X, st)},
		Pure:     true,
		MayRaise: sel.Indirect(),
	}
}

func (t *Translator) composite(e *ast.CompositeLit, st *state) ir.Expr {
	name := "composite"
	if e.Type != nil {
		name = types.ExprString(e.Type)
	}

	if len(e.Elts) == 0 {
		return &ir.Constant{Value: name + "{}", Mutable: true}
	}

	_, isStruct := under(t.info.TypeOf(e)).(*types.Struct)
	var args []ir.Expr
	for _, elt := range e.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			args = append(args, t.expr(elt, st))
			continue
		}

		if !isStruct {
			args = append(args, t.expr(kv.Key, st))
		}
		args = append(args, t.expr(kv.Value, st))
	}

	return &ir.Call{Callee: name + "{}", Args: args, Pure: true}
}

func (t *Translator) call(e *ast.CallExpr, st *state) ir.Expr {
	fun := ast.Unparen(e.Fun)
	if tv := t.info.Types[fun]; tv.IsType() {
		var args []ir.Expr
		for _, arg := range e.Args {
			args = append(args, t.expr(arg, st))
		}
		return &ir.Call{
			Callee:   types.ExprString(fun),
			Args:     args,
			Pure:     true,
			MayRaise: conversionMayPanic(tv.Type),
		}
	}

	res := &ir.Call{
		Callee: types.ExprString(fun),
		Raises: t.calls.Raises(e),
		Pure:   t.calls.Pure(e),
	}
	if res.Pure {
		res.MayRaise = !t.isBuiltin(fun)
	}

	switch f := fun.(type) {
	case *ast.Ident:
		if t.objectVar(f) != nil {
			res.Args = append(res.Args, t.expr(f, st))
		}
	case *ast.SelectorExpr:
		switch {
		case t.qualifiedVar(f) != nil:
			res.Args = append(res.Args, t.expr(f, st))
		case t.info.Selections[f] != nil:
			// Receiver goes first.
			res.Args = append(res.Args, t.expr(f.X, st))
		}
	default:
		res.Args = append(res.Args, t.expr(fun, st))
	}

	for _, arg := range e.Args {
		res.Args = append(res.Args, t.expr(arg, st))
	}

	return res
}

func (t *Translator) isBuiltin(fun ast.Expr) bool {
	id, ok := fun.(*ast.Ident)
	if !ok {
		return false
	}
	_, ok = t.info.Uses[id].(*types.Builtin)
	return ok
}

func constantValue(v constant.Value) any {
	switch v.Kind() {
	case constant.Bool:
		return constant.BoolVal(v)
	case constant.String:
		return constant.StringVal(v)
	case constant.Int:
		if i, ok := constant.Int64Val(v); ok {
			return int(i)
		}
		return v.ExactString()
	case constant.Float:
		f, _ := constant.Float64Val(v)
		return f
	default:
		return v.ExactString()
	}
}

// conversionMayPanic is true for slice to array and slice to array pointer conversions.
func conversionMayPanic(typ types.Type) bool {
	switch v := under(typ).(type) {
	case *types.Array:
		return true
	case *types.Pointer:
		_, ok := under(v.Elem()).(*types.Array)
		return ok
	default:
		return false
	}
}

func under(typ types.Type) types.Type {
	if typ == nil {
		return nil
	}
	return typ.Underlying()
}

func isFunc(typ types.Type) bool {
	_, ok := under(typ).(*types.Signature)
	return ok
}

func isInteger(typ types.Type) bool {
	b, ok := under(typ).(*types.Basic)
	return ok && b.Info()&types.IsInteger != 0
}

func isUnsigned(typ types.Type) bool {
	b, ok := under(typ).(*types.Basic)
	return ok && b.Info()&types.IsUnsigned != 0
}

func isInterface(typ types.Type) bool {
	return typ != nil && types.IsInterface(typ)
}
