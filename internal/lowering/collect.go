package lowering

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/sirkon/vartrace/internal/variables"
)

// collector gathers variables read and written by a piece of code lowered as a
// whole. Function literals met on the way are queued for lowering on their own.
type collector struct {
	t      *Translator
	st     *state
	reads  []*variables.Variable
	writes []*variables.Variable
	seenR  map[*variables.Variable]bool
	seenW  map[*variables.Variable]bool
}

func (t *Translator) newCollector(st *state) *collector {
	return &collector{
		t:     t,
		st:    st,
		seenR: map[*variables.Variable]bool{},
		seenW: map[*variables.Variable]bool{},
	}
}

func (c *collector) read(v *variables.Variable) {
	if c.seenR[v] {
		return
	}
	c.seenR[v] = true
	c.t.reg.NoteAccess(v, c.st.scope)
	c.reads = append(c.reads, v)
}

func (c *collector) write(v *variables.Variable) {
	if c.seenW[v] {
		return
	}
	c.seenW[v] = true
	c.t.reg.NoteAccess(v, c.st.scope)
	c.writes = append(c.writes, v)
}

func (c *collector) visit(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.FuncLit:
		c.t.queueLit(n, c.st)
		return false

	case *ast.AssignStmt:
		update := n.Tok != token.ASSIGN && n.Tok != token.DEFINE
		for _, lhs := range n.Lhs {
			c.target(lhs, update)
		}
		for _, rhs := range n.Rhs {
			ast.Inspect(rhs, c.visit)
		}
		return false

	case *ast.IncDecStmt:
		c.target(n.X, true)
		return false

	case *ast.RangeStmt:
		if n.Key != nil {
			c.target(n.Key, false)
		}
		if n.Value != nil {
			c.target(n.Value, false)
		}
		ast.Inspect(n.X, c.visit)
		ast.Inspect(n.Body, c.visit)
		return false

	case *ast.ValueSpec:
		for _, id := range n.Names {
			c.target(id, false)
		}
		for _, v := range n.Values {
			ast.Inspect(v, c.visit)
		}
		return false

	case *ast.SelectorExpr:
		if obj := c.t.qualifiedVar(n); obj != nil {
			c.read(c.t.variable(obj))
			return false
		}
		ast.Inspect(n.X, c.visit)
		return false

	case *ast.Ident:
		if obj := c.t.objectVar(n); obj != nil {
			c.read(c.t.variable(obj))
		}
	}

	return true
}

// target records a write of a variable. Other targets are read to find the
// variable they update.
func (c *collector) target(e ast.Expr, update bool) {
	if v := c.t.targetVar(e); v != nil {
		c.write(v)
		if update {
			c.read(v)
		}
		return
	}

	ast.Inspect(e, c.visit)
}

// ---------- Escapes ----------

// scanEscapes finds variables captured by function literals or updated through an
// address, these are closure variables.
func (t *Translator) scanEscapes(body *ast.BlockStmt) {
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			ast.Inspect(n.Body, func(m ast.Node) bool {
				id, ok := m.(*ast.Ident)
				if !ok {
					return true
				}
				obj := t.objectVar(id)
				if obj == nil || isPackageLevel(obj) {
					return true
				}
				if obj.Pos() < n.Pos() || obj.Pos() >= n.End() {
					t.escaping[obj] = true
				}
				return true
			})

		case *ast.UnaryExpr:
			if n.Op == token.AND {
				t.markAddressed(n.X)
			}

		case *ast.AssignStmt:
			for _, lhs := range n.Lhs {
				if _, ok := ast.Unparen(lhs).(*ast.Ident); !ok {
					t.markAddressed(lhs)
				}
			}

		case *ast.IncDecStmt:
			if _, ok := ast.Unparen(n.X).(*ast.Ident); !ok {
				t.markAddressed(n.X)
			}

		case *ast.SelectorExpr:
			sel, ok := t.info.Selections[n]
			if ok && sel.Kind() == types.MethodVal && pointerRecv(sel) && !isPointer(t.info.TypeOf(n.X)) {
				t.markAddressed(n.X)
			}
		}

		return true
	})
}

// markAddressed marks the variable holding the addressed storage. Storage behind
// pointers, slices and maps does not belong to the variable.
func (t *Translator) markAddressed(e ast.Expr) {
	for {
		switch v := ast.Unparen(e).(type) {
		case *ast.Ident:
			if obj := t.objectVar(v); obj != nil && !isPackageLevel(obj) {
				t.escaping[obj] = true
			}
			return
		case *ast.SelectorExpr:
			if _, ok := t.info.Selections[v]; !ok || isPointer(t.info.TypeOf(v.X)) {
				return
			}
			e = v.X
		case *ast.IndexExpr:
			if _, ok := under(t.info.TypeOf(v.X)).(*types.Array); !ok {
				return
			}
			e = v.X
		default:
			return
		}
	}
}

func pointerRecv(sel *types.Selection) bool {
	fn, ok := sel.Obj().(*types.Func)
	if !ok {
		return false
	}
	recv := fn.Type().(*types.Signature).Recv()
	return recv != nil && isPointer(recv.Type())
}

func isPointer(typ types.Type) bool {
	_, ok := under(typ).(*types.Pointer)
	return ok
}
