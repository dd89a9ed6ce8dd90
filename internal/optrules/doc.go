// Package optrules defines the canonical change tags (VTR-series) the optimizer attaches
// to every transformation it applies.
//
// Each tag identifies one soundness-preserving rewrite. Tags give transformations a
// stable numeric and textual identity, so rewrites can be reported, filtered and
// checked consistently by the scheduler journal, the analyzer and tests.
//
// # Structure
//
// Tags follow the format “VTR<NNN>: <Name>” and are grouped by area:
//
//	000–039  Assignment rewrites
//	040–059  Dead and propagated stores
//	060–079  Delete and release statements
//	080–099  Expressions and statement sequences
//
// Example:
//
//	optrules.VTR010SelfAssignRemoved.String()      → "VTR010: SelfAssignRemoved"
//	optrules.VTR010SelfAssignRemoved.Description() → "Self assignment removed."
//
// # Notes
//
//   - Tag identifiers are stable; never renumber existing codes.
//   - New tags must follow the next available slot of their area.
//   - A rewrite without a tag is a bug: every change carries one plus a reason text.
package optrules
