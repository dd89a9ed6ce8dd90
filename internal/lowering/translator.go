package lowering

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/variables"
)

// ErrUnsupported is returned for functions with control flow that cannot be lowered.
var ErrUnsupported = errors.New("unsupported control flow")

// CallClassifier tells what may be assumed about a call.
type CallClassifier interface {
	// Raises tells the call never returns normally.
	Raises(call *ast.CallExpr) bool

	// Pure tells the call neither runs foreign code nor lets its arguments escape.
	Pure(call *ast.CallExpr) bool
}

// ---------- Translator ----------

// Translator lowers functions of one package. Variables are shared between functions
// through the registry, so a single translator must serve the whole package.
type Translator struct {
	reg   *variables.Registry
	info  *types.Info
	pkg   *types.Package
	calls CallClassifier

	vars     map[*types.Var]*variables.Variable
	escaping map[*types.Var]bool
	names    map[*variables.Scope]map[string]int
	queued   map[*ast.FuncLit]bool
	pending  []pendingLit
}

type pendingLit struct {
	lit    *ast.FuncLit
	parent *variables.Scope
	name   string
}

// New creates a translator. A nil classifier knows nothing about any call.
func New(reg *variables.Registry, pkg *types.Package, info *types.Info, calls CallClassifier) *Translator {
	if calls == nil {
		calls = noClassifier{}
	}

	return &Translator{
		reg:      reg,
		info:     info,
		pkg:      pkg,
		calls:    calls,
		vars:     map[*types.Var]*variables.Variable{},
		escaping: map[*types.Var]bool{},
		names:    map[*variables.Scope]map[string]int{},
		queued:   map[*ast.FuncLit]bool{},
	}
}

// TranslateFunc lowers the function and every function literal nested in it. The
// declaration unit goes first. Declarations without a body produce nothing.
func (t *Translator) TranslateFunc(fn *ast.FuncDecl) ([]*ir.Unit, error) {
	if fn.Body == nil {
		return nil, nil
	}

	name := funcName(fn)
	if hasLabels(fn.Body) {
		return nil, fmt.Errorf("lower %s: %w", name, ErrUnsupported)
	}

	t.scanEscapes(fn.Body)

	scope := t.reg.NewScope(name, variables.ScopeFunction, t.reg.Module(), fn.Pos(), fn.End())
	units := []*ir.Unit{t.lowerFunc(scope, fn.Recv, fn.Type, fn.Body)}

	for len(t.pending) > 0 {
		p := t.pending[0]
		t.pending = t.pending[1:]

		scope := t.reg.NewScope(p.name, variables.ScopeFunction, p.parent, p.lit.Pos(), p.lit.End())
		units = append(units, t.lowerFunc(scope, nil, p.lit.Type, p.lit.Body))
	}

	return units, nil
}

// Registry returns the registry variables are declared in.
func (t *Translator) Registry() *variables.Registry {
	return t.reg
}

// TranslateSource type checks a single file package and lowers all its functions.
// Function literals at the package level are not lowered.
func TranslateSource(filename, src string, calls CallClassifier) (*variables.Registry, []*ir.Unit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	conf := types.Config{Importer: importer.Default()}
	info := &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
	}
	pkg, err := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)
	if err != nil {
		return nil, nil, fmt.Errorf("type check %s: %w", filename, err)
	}

	reg := variables.NewRegistry(pkg.Path())
	t := New(reg, pkg, info, calls)

	var units []*ir.Unit
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		us, err := t.TranslateFunc(fn)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			return nil, nil, err
		}
		units = append(units, us...)
	}

	return reg, units, nil
}

type state struct {
	unit    string
	scope   *variables.Scope
	results []*variables.Variable
	lits    int
}

func (t *Translator) lowerFunc(scope *variables.Scope, recv *ast.FieldList, typ *ast.FuncType, body *ast.BlockStmt) *ir.Unit {
	st := &state{
		unit:  scope.Name,
		scope: scope,
	}

	t.bindParams(recv, st)
	t.bindParams(typ.Params, st)
	if typ.Results != nil {
		for _, field := range typ.Results.List {
			for _, id := range field.Names {
				if v := t.bindParam(id); v != nil {
					st.results = append(st.results, v)
				}
			}
		}
	}

	return ir.NewUnit(scope, ir.NewBody(t.walkBlock(body.List, st)...))
}

func (t *Translator) bindParams(fields *ast.FieldList, st *state) {
	if fields == nil {
		return
	}

	for _, field := range fields.List {
		for _, id := range field.Names {
			t.bindParam(id)
		}
	}
}

func (t *Translator) bindParam(id *ast.Ident) *variables.Variable {
	obj, ok := t.info.Defs[id].(*types.Var)
	if !ok || id.Name == "_" {
		return nil
	}

	v := t.variable(obj)
	v.Parameter = true
	return v
}

func (t *Translator) walkBlock(list []ast.Stmt, st *state) []ir.Stmt {
	var out []ir.Stmt
	for _, s := range list {
		switch s := s.(type) {
		case *ast.AssignStmt:
			out = append(out, t.onAssign(s, st)...)
		case *ast.IncDecStmt:
			out = append(out, t.onIncDec(s, st)...)
		case *ast.DeclStmt:
			out = append(out, t.onDecl(s, st)...)
		case *ast.ExprStmt:
			out = append(out, ir.At(s.Pos(), ir.NewExprOnly(t.expr(s.X, st))))
		case *ast.SendStmt:
			send := &ir.Call{
				Callee: "<-",
				Args:   []ir.Expr{t.expr(s.Chan, st), t.expr(s.Value, st)},
			}
			out = append(out, ir.At(s.Pos(), ir.NewExprOnly(send)))
		case *ast.IfStmt:
			out = append(out, t.onIf(s, st)...)
		case *ast.BlockStmt:
			out = append(out, t.walkBlock(s.List, st)...)
		case *ast.ReturnStmt:
			out = append(out, t.onReturn(s, st))
		case *ast.EmptyStmt:
		default:
			out = append(out, t.opaque(stmtKind(s), s, true, st))
		}
	}
	return out
}

// ---------- Handlers ----------

func (t *Translator) onAssign(as *ast.AssignStmt, st *state) []ir.Stmt {
	switch as.Tok {
	case token.ASSIGN, token.DEFINE:
		if len(as.Lhs) == 1 && len(as.Rhs) == 1 {
			return t.store(as, as.Lhs[0], as.Rhs[0], st)
		}
		return []ir.Stmt{t.opaque("assign", as, false, st)}
	}

	op, ok := assignOps[as.Tok]
	v := t.targetVar(as.Lhs[0])
	if !ok || v == nil {
		return []ir.Stmt{t.opaque("assign", as, false, st)}
	}

	source := t.binary(op, as.Lhs[0], as.Rhs[0], st)
	return []ir.Stmt{ir.At(as.Pos(), ir.NewAssign(variables.NewTargetRef(t.reg, v), source))}
}

func (t *Translator) onIncDec(s *ast.IncDecStmt, st *state) []ir.Stmt {
	v := t.targetVar(s.X)
	if v == nil {
		return []ir.Stmt{t.opaque("assign", s, false, st)}
	}

	op := token.ADD
	if s.Tok == token.DEC {
		op = token.SUB
	}
	source := &ir.Call{
		Callee: op.String(),
		Args:   []ir.Expr{t.varRef(v, st), &ir.Constant{Value: 1}},
		Pure:   true,
	}

	return []ir.Stmt{ir.At(s.Pos(), ir.NewAssign(variables.NewTargetRef(t.reg, v), source))}
}

func (t *Translator) onDecl(d *ast.DeclStmt, st *state) []ir.Stmt {
	gen, ok := d.Decl.(*ast.GenDecl)
	if !ok || gen.Tok != token.VAR {
		return nil
	}

	var out []ir.Stmt
	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)
		if len(vs.Values) != len(vs.Names) {
			out = append(out, t.opaque("var", vs, false, st))
			continue
		}

		for i, name := range vs.Names {
			out = append(out, t.store(vs, name, vs.Values[i], st)...)
		}
	}
	return out
}

func (t *Translator) onIf(s *ast.IfStmt, st *state) []ir.Stmt {
	var out []ir.Stmt
	// emit init before if
	if s.Init != nil {
		out = append(out, t.walkBlock([]ast.Stmt{s.Init}, st)...)
	}

	cond := t.expr(s.Cond, st)
	then := t.walkBlock(s.Body.List, st)
	var els []ir.Stmt
	switch e := s.Else.(type) {
	case *ast.BlockStmt:
		els = t.walkBlock(e.List, st)
	case *ast.IfStmt:
		els = t.walkBlock([]ast.Stmt{e}, st)
	}

	out = append(out, ir.At(s.Pos(), ir.NewBranch(cond, ir.NewBody(then...), ir.NewBody(els...))))
	return out
}

// onReturn reads results and named results, the caller and deferred calls see them.
func (t *Translator) onReturn(r *ast.ReturnStmt, st *state) ir.Stmt {
	c := t.newCollector(st)
	for _, res := range r.Results {
		ast.Inspect(res, c.visit)
	}
	for _, v := range st.results {
		c.read(v)
	}

	return ir.At(r.Pos(), ir.NewOpaque("return", c.reads, nil))
}

// store lowers a single value assignment. Targets other than variables make the
// whole statement opaque.
func (t *Translator) store(stmt ast.Node, lhs, rhs ast.Expr, st *state) []ir.Stmt {
	if id, ok := ast.Unparen(lhs).(*ast.Ident); ok && id.Name == "_" {
		return []ir.Stmt{ir.At(stmt.Pos(), ir.NewExprOnly(t.expr(rhs, st)))}
	}

	v := t.targetVar(lhs)
	if v == nil {
		return []ir.Stmt{t.opaque("assign", stmt, false, st)}
	}

	source := t.expr(rhs, st)
	return []ir.Stmt{ir.At(stmt.Pos(), ir.NewAssign(variables.NewTargetRef(t.reg, v), source))}
}

// opaque lowers a statement into an opaque one. Writes of conditional statements
// may not happen, so they are reads as well.
func (t *Translator) opaque(what string, n ast.Node, conditional bool, st *state) *ir.Opaque {
	c := t.newCollector(st)
	ast.Inspect(n, c.visit)

	if conditional {
		for _, v := range c.writes {
			c.read(v)
		}
	}

	writes := make([]*variables.TargetRef, len(c.writes))
	for i, v := range c.writes {
		writes[i] = variables.NewTargetRef(t.reg, v)
	}

	return ir.At(n.Pos(), ir.NewOpaque(what, c.reads, writes))
}

// ---------- Variables ----------

// variable returns the IR variable of the object, declaring it on the first use.
// Locals belong to the innermost function scope covering their declaration.
func (t *Translator) variable(obj *types.Var) *variables.Variable {
	if v, ok := t.vars[obj]; ok {
		return v
	}

	var v *variables.Variable
	if isPackageLevel(obj) {
		name := obj.Name()
		if obj.Pkg() != t.pkg {
			name = obj.Pkg().Name() + "." + name
		}
		v = t.reg.Declare(name, t.reg.Module(), variables.KindModule)
	} else {
		scope := t.reg.ScopeAt(obj.Pos())
		kind := variables.KindLocal
		if t.escaping[obj] {
			kind = variables.KindClosure
		}
		v = t.reg.Declare(t.uniqueName(scope, obj.Name()), scope, kind)
	}

	t.vars[obj] = v
	return v
}

// uniqueName disambiguates shadowed variables of one function: x, x#2, x#3.
func (t *Translator) uniqueName(scope *variables.Scope, name string) string {
	names := t.names[scope]
	if names == nil {
		names = map[string]int{}
		t.names[scope] = names
	}

	names[name]++
	if n := names[name]; n > 1 {
		return fmt.Sprintf("%s#%d", name, n)
	}
	return name
}

// objectVar returns a variable object the identifier denotes, if any.
func (t *Translator) objectVar(id *ast.Ident) *types.Var {
	if id.Name == "_" {
		return nil
	}

	obj, ok := t.info.ObjectOf(id).(*types.Var)
	if !ok || obj.IsField() {
		return nil
	}
	return obj
}

// targetVar returns a variable the expression denotes: a plain or a package
// qualified one.
func (t *Translator) targetVar(e ast.Expr) *variables.Variable {
	switch e := ast.Unparen(e).(type) {
	case *ast.Ident:
		if obj := t.objectVar(e); obj != nil {
			return t.variable(obj)
		}
	case *ast.SelectorExpr:
		if obj := t.qualifiedVar(e); obj != nil {
			return t.variable(obj)
		}
	}
	return nil
}

func (t *Translator) qualifiedVar(sel *ast.SelectorExpr) *types.Var {
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil
	}
	if _, ok := t.info.Uses[x].(*types.PkgName); !ok {
		return nil
	}

	obj, ok := t.info.Uses[sel.Sel].(*types.Var)
	if !ok {
		return nil
	}
	return obj
}

func (t *Translator) varRef(v *variables.Variable, st *state) *ir.VarRef {
	t.reg.NoteAccess(v, st.scope)
	return &ir.VarRef{Variable: v}
}

func (t *Translator) queueLit(lit *ast.FuncLit, st *state) {
	if t.queued[lit] {
		return
	}
	t.queued[lit] = true

	st.lits++
	t.pending = append(t.pending, pendingLit{
		lit:    lit,
		parent: st.scope,
		name:   fmt.Sprintf("%s.func%d", st.unit, st.lits),
	})
}

// ---------- Utilities ----------

var assignOps = map[token.Token]token.Token{
	token.ADD_ASSIGN:     token.ADD,
	token.SUB_ASSIGN:     token.SUB,
	token.MUL_ASSIGN:     token.MUL,
	token.QUO_ASSIGN:     token.QUO,
	token.REM_ASSIGN:     token.REM,
	token.AND_ASSIGN:     token.AND,
	token.OR_ASSIGN:      token.OR,
	token.XOR_ASSIGN:     token.XOR,
	token.SHL_ASSIGN:     token.SHL,
	token.SHR_ASSIGN:     token.SHR,
	token.AND_NOT_ASSIGN: token.AND_NOT,
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}

	typ := fn.Recv.List[0].Type
	for {
		switch v := typ.(type) {
		case *ast.StarExpr:
			typ = v.X
			continue
		case *ast.ParenExpr:
			typ = v.X
			continue
		case *ast.IndexExpr:
			typ = v.X
			continue
		case *ast.IndexListExpr:
			typ = v.X
			continue
		}
		break
	}

	return types.ExprString(typ) + "." + fn.Name.Name
}

func stmtKind(s ast.Stmt) string {
	switch s.(type) {
	case *ast.ForStmt:
		return "for"
	case *ast.RangeStmt:
		return "range"
	case *ast.SwitchStmt:
		return "switch"
	case *ast.TypeSwitchStmt:
		return "type switch"
	case *ast.SelectStmt:
		return "select"
	case *ast.GoStmt:
		return "go"
	case *ast.DeferStmt:
		return "defer"
	case *ast.BranchStmt:
		return "branch"
	default:
		return fmt.Sprintf("%T", s)
	}
}

func hasLabels(body *ast.BlockStmt) bool {
	var found bool
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.LabeledStmt:
			found = true
		case *ast.BranchStmt:
			if n.Tok == token.GOTO {
				found = true
			}
		}
		return !found
	})
	return found
}

func isPackageLevel(obj types.Object) bool {
	return obj.Pkg() != nil && obj.Parent() == obj.Pkg().Scope()
}

type noClassifier struct{}

func (noClassifier) Raises(*ast.CallExpr) bool { return false }
func (noClassifier) Pure(*ast.CallExpr) bool   { return false }
