package variables

import (
	"fmt"
)

// Variable is identified by the owning scope and a name.
type Variable struct {
	Name  string
	Owner *Scope
	Kind  Kind

	// Parameter variables are bound on scope entry.
	Parameter bool

	reg       *Registry
	version   int
	accessors map[ScopeID]struct{}
}

func (v *Variable) String() string {
	if v.Owner == nil {
		return v.Name
	}

	return fmt.Sprintf("%s.%s", v.Owner.Name, v.Name)
}

// IsModuleVariable checks if this is a module level variable.
func (v *Variable) IsModuleVariable() bool {
	return v.Kind == KindModule
}

// IsLocalVariable checks if this is a plain function local.
func (v *Variable) IsLocalVariable() bool {
	return v.Kind == KindLocal
}

// IsTempVariable checks if this is a compiler generated temporary.
func (v *Variable) IsTempVariable() bool {
	return v.Kind == KindTemp
}

// IsClosureVariable checks if this variable is shared with nested scopes.
func (v *Variable) IsClosureVariable() bool {
	return v.Kind == KindClosure
}

// IsClassVariable checks if this is a class body variable.
func (v *Variable) IsClassVariable() bool {
	return v.Kind == KindClass
}

// HasAccessesOutsideOf tells if the variable may be read or written from code
// other than the given scope.
func (v *Variable) HasAccessesOutsideOf(scope *Scope) Tristate {
	return v.reg.HasAccessesOutsideOf(v, scope)
}

// LastVersion returns the last allocated version, zero when none were allocated.
func (v *Variable) LastVersion() int {
	v.reg.mu.Lock()
	defer v.reg.mu.Unlock()

	return v.version
}
