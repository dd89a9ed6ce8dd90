// Package lowering maps typed Go function bodies onto the optimizer IR.
//
// Straight line code keeps its shape: single assignments, declarations with values,
// expression statements and if/else chains. Everything with control flow the IR
// cannot express (loops, switches, select, defer, go, return) becomes an opaque
// statement listing variables it reads and writes. Functions with labels or goto
// are not lowered at all.
//
// Variables whose address is taken or which are captured by function literals are
// closure variables, parameters and named results are bound on entry, package level
// variables are module variables.
package lowering
