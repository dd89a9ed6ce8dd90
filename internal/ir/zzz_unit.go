package ir

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// Body is an ordered list of statements.
type Body struct {
	Stmts []Stmt
}

// NewBody creates a body of the given statements.
func NewBody(stmts ...Stmt) *Body {
	return &Body{Stmts: stmts}
}

// Unit is a body of one scope being optimized: a function, a module or a class body.
// It owns statement handles.
type Unit struct {
	Scope *variables.Scope
	Body  *Body

	nextID StmtID
	stmts  map[StmtID]Stmt
}

// NewUnit creates a unit and adopts every statement of the body.
func NewUnit(scope *variables.Scope, body *Body) *Unit {
	if body == nil {
		body = &Body{}
	}

	u := &Unit{
		Scope: scope,
		Body:  body,
		stmts: map[StmtID]Stmt{},
	}
	u.adoptBody(body)

	return u
}

// Adopt assigns handles to the statement and everything nested in it. Statements
// having a handle already keep it.
func (u *Unit) Adopt(s Stmt) {
	h := s.header()
	if h.id == NoStmt {
		u.nextID++
		h.id = u.nextID
	}
	u.stmts[h.id] = s

	if b, ok := s.(*Branch); ok {
		u.adoptBody(b.Then)
		u.adoptBody(b.Else)
	}
}

func (u *Unit) adoptBody(b *Body) {
	for _, s := range b.Stmts {
		u.Adopt(s)
	}
}

// Forget drops the handle of a statement spliced out of the unit.
func (u *Unit) Forget(s Stmt) {
	delete(u.stmts, s.ID())
	if b, ok := s.(*Branch); ok {
		for _, sub := range b.Then.Stmts {
			u.Forget(sub)
		}
		for _, sub := range b.Else.Stmts {
			u.Forget(sub)
		}
	}
}

// Stmt returns a statement by its handle.
func (u *Unit) Stmt(id StmtID) (Stmt, bool) {
	s, ok := u.stmts[id]
	return s, ok
}

// Walk visits statements in program order, nested bodies included. The callback
// returning false stops the walk.
func (u *Unit) Walk(f func(s Stmt) bool) {
	walkBody(u.Body, f)
}

func walkBody(b *Body, f func(s Stmt) bool) bool {
	for _, s := range b.Stmts {
		if !f(s) {
			return false
		}
		if br, ok := s.(*Branch); ok {
			if !walkBody(br.Then, f) || !walkBody(br.Else, f) {
				return false
			}
		}
	}

	return true
}
