// Package variables is the variable registry of the optimizer.
//
// It identifies variables by their owning scope and name, classifies their
// storage kind and hands out version numbers for write references.
//
// Core components:
//
//   - Registry
//     Owns scopes and variables of one compilation unit. It is shared between
//     every scope of the unit, so its mutating operations are serialized.
//
//   - Scope
//     A module, function or class body. Scopes nest and carry a source span,
//     the registry indexes spans to find the innermost scope at a position.
//
//   - Variable
//     The (scope, name) identity with a storage Kind and a version counter.
//
//   - TargetRef
//     One write occurrence of a variable. The version is allocated once, at
//     construction, and never changes afterwards.
//
// Broken invariants are programming errors, they panic with *InternalError.
package variables
