package ir

import (
	"go/token"
)

// Node is the base interface implemented by all IR node types.
type Node interface {
	isNode()
}

// Expr marks expression nodes.
type Expr interface {
	Node
	isExpr()
}

// Stmt marks statement nodes.
type Stmt interface {
	Node
	isStmt()

	// ID returns the handle assigned by the owning Unit, zero before adoption.
	ID() StmtID

	// Pos returns the source position of the statement.
	Pos() token.Pos

	header() *stmtHeader
}

// StmtID is a statement handle.
type StmtID int

// NoStmt is a handle of a statement not adopted yet.
const NoStmt StmtID = 0

type stmtHeader struct {
	id  StmtID
	pos token.Pos
}

func (h *stmtHeader) ID() StmtID          { return h.id }
func (h *stmtHeader) Pos() token.Pos      { return h.pos }
func (h *stmtHeader) header() *stmtHeader { return h }

// At sets the source position of a statement and returns it.
func At[S Stmt](pos token.Pos, s S) S {
	s.header().pos = pos
	return s
}
