// Package ir defines the statement and expression nodes the optimizer works on.
//
// Nodes form a small tagged union. Expressions are values computed for their
// result and side effects, statements are the units the scheduler hands to
// statement optimizers. Every statement gets a StmtID when adopted by a Unit,
// which is the handle schedulers and persisted trees refer to.
package ir
