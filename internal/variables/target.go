package variables

import (
	"fmt"
	"go/token"
)

// TargetRef is a write occurrence of a variable at one statement.
type TargetRef struct {
	variable *Variable
	version  int
}

// NewTargetRef creates a write reference with a freshly allocated version.
func NewTargetRef(r *Registry, v *Variable) *TargetRef {
	if v == nil {
		Panicf(token.NoPos, "target reference without a variable")
	}

	return &TargetRef{
		variable: v,
		version:  r.AllocateVersion(v),
	}
}

// NewTargetRefWithVersion rebuilds a write reference with an explicit version. Nothing
// is allocated, the registry is only told not to hand the version out again.
func NewTargetRefWithVersion(r *Registry, v *Variable, version int) *TargetRef {
	if v == nil {
		Panicf(token.NoPos, "target reference without a variable")
	}
	if version <= 0 {
		Panicf(token.NoPos, "target reference to %s with version %d", v, version)
	}

	r.EnsureVersion(v, version)
	return &TargetRef{
		variable: v,
		version:  version,
	}
}

// Variable returns the referenced variable.
func (t *TargetRef) Variable() *Variable {
	if t == nil || t.variable == nil {
		Panicf(token.NoPos, "target reference has no variable")
	}

	return t.variable
}

// Version returns the version allocated at construction.
func (t *TargetRef) Version() int {
	if t == nil || t.version == 0 {
		Panicf(token.NoPos, "version read before allocation")
	}

	return t.version
}

func (t *TargetRef) String() string {
	return fmt.Sprintf("%s@%d", t.Variable().Name, t.Version())
}
