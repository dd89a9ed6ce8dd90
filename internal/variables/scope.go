package variables

import (
	"go/token"
)

// ScopeID is an explicit handle of a scope within its registry. It is what the
// persisted tree format stores, so it is stable for a given registry.
type ScopeID int

// NoScope is a zero handle.
const NoScope ScopeID = 0

// Scope is a module, function or class body owning variables.
type Scope struct {
	ID     ScopeID
	Name   string
	Kind   ScopeKind
	Parent *Scope

	// DynamicNames is set when the scope allows name based access to its variables,
	// like locals() or exec. Such variables are never forwarded.
	DynamicNames bool

	Start token.Pos
	End   token.Pos

	vars  map[string]*Variable
	order []*Variable
}

// Variables returns variables owned by the scope in declaration order.
func (s *Scope) Variables() []*Variable {
	res := make([]*Variable, len(s.order))
	copy(res, s.order)
	return res
}

// Encloses checks if the scope is the given one or one of its parents.
func (s *Scope) Encloses(other *Scope) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == s {
			return true
		}
	}

	return false
}

func (s *Scope) lookup(name string) *Variable {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.vars[name]; ok {
			return v
		}
	}

	return nil
}
