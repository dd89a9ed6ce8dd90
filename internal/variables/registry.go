package variables

import (
	"fmt"
	"go/token"
	"sync"

	"github.com/sirkon/rbtree"
)

// Registry keeps scopes and variables of a compilation unit.
type Registry struct {
	mu     sync.Mutex
	scopes map[ScopeID]*Scope
	module *Scope
	spans  *rbtree.Tree[*scopeSpan]
}

// NewRegistry creates a registry with the module scope already in place.
func NewRegistry(module string) *Registry {
	r := &Registry{
		scopes: map[ScopeID]*Scope{},
		spans:  rbtree.New[*scopeSpan](),
	}
	r.module = r.addScope(module, ScopeModule, nil, token.NoPos, token.NoPos)

	return r
}

// Module returns the module scope.
func (r *Registry) Module() *Scope {
	return r.module
}

// NewScope registers a nested scope. A parent is mandatory, use Module for
// top level definitions.
func (r *Registry) NewScope(name string, kind ScopeKind, parent *Scope, start, end token.Pos) *Scope {
	if parent == nil {
		Panicf(start, "scope %q has no parent", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addScope(name, kind, parent, start, end)
}

func (r *Registry) addScope(name string, kind ScopeKind, parent *Scope, start, end token.Pos) *Scope {
	s := &Scope{
		ID:     ScopeID(len(r.scopes) + 1),
		Name:   name,
		Kind:   kind,
		Parent: parent,
		Start:  start,
		End:    end,
		vars:   map[string]*Variable{},
	}
	r.scopes[s.ID] = s

	if start.IsValid() && end.IsValid() {
		attachScope(r.spans, &scopeSpan{start: start, end: end, scope: s})
	}

	return s
}

// ScopeByID looks for a scope with the given handle.
func (r *Registry) ScopeByID(id ScopeID) (*Scope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scopes[id]
	return s, ok
}

// ScopeAt returns the innermost scope covering the given position. The module
// scope is returned for positions out of any registered span.
func (r *Registry) ScopeAt(pos token.Pos) *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := searchScope(r.spans, pos); s != nil {
		return s
	}

	return r.module
}

// Declare introduces a variable in the given scope. It is idempotent: the second
// declaration of the same name returns the same variable and the kind must match.
func (r *Registry) Declare(name string, scope *Scope, kind Kind) *Variable {
	if scope == nil {
		Panicf(token.NoPos, "declare %q without a scope", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := scope.vars[name]; ok {
		if v.Kind != kind {
			Panicf(scope.Start, "variable %s redeclared as %s, was %s", v, kind, v.Kind)
		}
		return v
	}

	switch kind {
	case KindModule:
		if scope.Kind != ScopeModule {
			Panicf(scope.Start, "module variable %q declared in %s scope", name, scope.Kind)
		}
	case KindLocal, KindTemp, KindClosure, KindClass:
	default:
		Panicf(scope.Start, "declare %q of %s", name, kind)
	}

	v := &Variable{
		Name:  name,
		Owner: scope,
		Kind:  kind,
		reg:   r,
	}
	scope.vars[name] = v
	scope.order = append(scope.order, v)

	return v
}

// Resolve finds a variable visible from the given scope. Names unknown anywhere in
// the scope chain are module variables, this is what a dynamic language does.
// Accesses from a scope other than the owner are noted for HasAccessesOutsideOf.
func (r *Registry) Resolve(name string, scope *Scope) *Variable {
	if scope == nil {
		scope = r.module
	}

	r.mu.Lock()
	v := scope.lookup(name)
	r.mu.Unlock()

	if v == nil {
		return r.Declare(name, r.module, KindModule)
	}

	r.NoteAccess(v, scope)
	return v
}

// Lookup re-resolves a variable from an explicit scope handle and name.
func (r *Registry) Lookup(id ScopeID, name string) (*Variable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scopes[id]
	if !ok {
		return nil, fmt.Errorf("unknown scope #%d", id)
	}

	v, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("no variable %q in scope %s#%d", name, s.Name, id)
	}

	return v, nil
}

// NoteAccess records the variable is accessed from the given scope.
func (r *Registry) NoteAccess(v *Variable, scope *Scope) {
	if scope == nil || scope == v.Owner {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v.accessors == nil {
		v.accessors = map[ScopeID]struct{}{}
	}
	v.accessors[scope.ID] = struct{}{}
}

// HasAccessesOutsideOf see [Variable.HasAccessesOutsideOf].
func (r *Registry) HasAccessesOutsideOf(v *Variable, scope *Scope) Tristate {
	switch v.Kind {
	case KindModule, KindClass:
		// Any code may reach these by name.
		return Unknown
	case KindClosure:
		return True
	case KindTemp:
		if scope != v.Owner {
			return True
		}
		return False
	case KindLocal:
		if scope != v.Owner {
			return True
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		for id := range v.accessors {
			if id != scope.ID {
				return True
			}
		}
		return False
	default:
		Panicf(token.NoPos, "variable %s has %s", v, v.Kind)
		return Unknown
	}
}

// AllocateVersion returns a new version for the variable. Versions start at 1 and
// strictly increase.
func (r *Registry) AllocateVersion(v *Variable) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	v.version++
	return v.version
}

// EnsureVersion makes sure future allocations never return the given version or
// anything below it. Used when write references are rebuilt with explicit versions.
func (r *Registry) EnsureVersion(v *Variable, version int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if version > v.version {
		v.version = version
	}
}
