// Package optimize rewrites statements of a compilation unit using what the trace
// collection knows about variables.
//
// Core components:
//
//   - Statement optimizers
//     One per statement kind. An optimizer registers the effect of its statement in
//     the trace collection and decides whether the statement can be removed, reduced
//     or must stay. It returns a Result, it never splices the tree itself.
//
//   - Expression simplification
//     Notifies the collection of reads, escapes and raises an expression causes and
//     replaces reads of forwarded variables with their values.
//
//   - Scheduler
//     Drives optimizers of a unit to a fixpoint with an explicit work-list and
//     splices their results.
//
//   - Reporter
//     A journal of every change applied, for diagnostics.
//
// Units are independent, OptimizeUnits runs their schedulers concurrently.
package optimize
