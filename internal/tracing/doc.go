// Package tracing maintains the per-variable history of values ("traces") across
// a linear walk over the statements of a scope.
//
// It is the single authority on "what is known about variable V here" and the only
// place traces are created or changed. Statement optimizers request changes through
// a Collection and keep TraceID handles to the results.
//
// Core components:
//
//   - Trace
//     A record of a variable state at one program point: uninitialized, bound on
//     entry, assigned, deleted, released, merged from several paths or escaped to
//     foreign code. Traces carry usage counters which only ever grow, and a slot for
//     the expression later reads may be replaced with.
//
//   - Arena
//     Owns every trace of a compilation unit for its whole life. Handles stay valid
//     when the statement tree is rewritten under the walk.
//
//   - Collection
//     The walker state: current trace of every variable, exception exits, the sweep
//     number. Forks of a collection walk branch arms and are merged back.
//
// A Collection belongs to exactly one walk and is not safe for concurrent use.
// Broken invariants panic with *variables.InternalError.
package tracing
