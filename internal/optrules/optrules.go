// Package optrules defines the canonical change tags (VTR-series) of the optimizer.
//
// Tag numbering scheme:
//
//	000–039  Assignment rewrites
//	040–059  Dead and propagated stores
//	060–079  Delete and release statements
//	080–099  Expressions and statement sequences
package optrules

import "fmt"

// Rule represents a change tag (VTR-series).
type Rule int

const (
	ruleInvalid Rule = iota

	VTR000AssignRaises
	VTR010SelfAssignRemoved
	VTR011SelfAssignReduced
	VTR020SideEffectsSplit
	VTR040DeadStoreDropped
	VTR041PropagatedStoreDropped
	VTR060TolerantDelRemoved
	VTR061UninitReleaseRemoved
	VTR080ConstantForwarded
	VTR081SideEffectsReduced
	VTR082ExpressionWithoutEffect
	VTR083EmptyBranchReduced
)

// String returns the canonical code and short name of the rule.
// Example: "VTR010: SelfAssignRemoved"
func (r Rule) String() string {
	switch r {
	case VTR000AssignRaises:
		return "VTR000: AssignRaises"
	case VTR010SelfAssignRemoved:
		return "VTR010: SelfAssignRemoved"
	case VTR011SelfAssignReduced:
		return "VTR011: SelfAssignReduced"
	case VTR020SideEffectsSplit:
		return "VTR020: SideEffectsSplit"
	case VTR040DeadStoreDropped:
		return "VTR040: DeadStoreDropped"
	case VTR041PropagatedStoreDropped:
		return "VTR041: PropagatedStoreDropped"
	case VTR060TolerantDelRemoved:
		return "VTR060: TolerantDelRemoved"
	case VTR061UninitReleaseRemoved:
		return "VTR061: UninitReleaseRemoved"
	case VTR080ConstantForwarded:
		return "VTR080: ConstantForwarded"
	case VTR081SideEffectsReduced:
		return "VTR081: SideEffectsReduced"
	case VTR082ExpressionWithoutEffect:
		return "VTR082: ExpressionWithoutEffect"
	case VTR083EmptyBranchReduced:
		return "VTR083: EmptyBranchReduced"
	default:
		return fmt.Sprintf("rule-unknown(%d)", r)
	}
}

// Description returns the human-readable explanation of the rule.
func (r Rule) Description() string {
	switch r {
	case VTR000AssignRaises:
		return "Assignment raises, store removed."
	case VTR010SelfAssignRemoved:
		return "Self assignment removed."
	case VTR011SelfAssignReduced:
		return "Self assignment reduced to a read."
	case VTR020SideEffectsSplit:
		return "Side effects of an assigned value split into statements."
	case VTR040DeadStoreDropped:
		return "Dropped dead assignment."
	case VTR041PropagatedStoreDropped:
		return "Dropped propagated assignment."
	case VTR060TolerantDelRemoved:
		return "Tolerant delete without effect removed."
	case VTR061UninitReleaseRemoved:
		return "Uninitialized value not released."
	case VTR080ConstantForwarded:
		return "Variable read replaced with a forwarded constant."
	case VTR081SideEffectsReduced:
		return "Side effects expression without effects reduced to its value."
	case VTR082ExpressionWithoutEffect:
		return "Expression without effect removed."
	case VTR083EmptyBranchReduced:
		return "Branch with empty arms reduced to its condition."
	default:
		return fmt.Sprintf("unknown-rule(%d)", r)
	}
}

// IsValid checks if this is one of the known rules.
func (r Rule) IsValid() bool {
	return r > ruleInvalid && r <= VTR083EmptyBranchReduced
}

// Finding tells if a rewrite points to a likely mistake in the source rather than
// to an ordinary optimization opportunity.
func (r Rule) Finding() bool {
	switch r {
	case VTR000AssignRaises, VTR010SelfAssignRemoved, VTR011SelfAssignReduced, VTR040DeadStoreDropped:
		return true
	default:
		return false
	}
}

// Canonical constructors.

func AssignRaises() Rule            { return VTR000AssignRaises }
func SelfAssignRemoved() Rule       { return VTR010SelfAssignRemoved }
func SelfAssignReduced() Rule       { return VTR011SelfAssignReduced }
func SideEffectsSplit() Rule        { return VTR020SideEffectsSplit }
func DeadStoreDropped() Rule        { return VTR040DeadStoreDropped }
func PropagatedStoreDropped() Rule  { return VTR041PropagatedStoreDropped }
func TolerantDelRemoved() Rule      { return VTR060TolerantDelRemoved }
func UninitReleaseRemoved() Rule    { return VTR061UninitReleaseRemoved }
func ConstantForwarded() Rule       { return VTR080ConstantForwarded }
func SideEffectsReduced() Rule      { return VTR081SideEffectsReduced }
func ExpressionWithoutEffect() Rule { return VTR082ExpressionWithoutEffect }
func EmptyBranchReduced() Rule      { return VTR083EmptyBranchReduced }
