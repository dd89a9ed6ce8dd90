// Package persist stores optimized statement trees as YAML and rebuilds them.
//
// Every variable mention carries the explicit handle of its owning scope next to
// the variable name, so reconstruction never depends on ambient state. Write
// references keep their versions: a rebuilt tree is numbered exactly like the
// stored one and the registry never hands these versions out again.
package persist
