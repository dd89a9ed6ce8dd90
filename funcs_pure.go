package main

import (
	"maps"
)

// Pure funcs neither run code the optimizer does not know about nor keep their
// arguments. Their calls are only observable by the value and by a panic.
type knownPureFuncs struct {
	known map[packagedFunc]struct{}
}

func newKnownPureFuncs(custom []packagedFunc) *knownPureFuncs {
	predefined := map[packagedFunc]struct{}{
		// Builtins.
		{pkgPath: "builtin", name: "len"}:     {},
		{pkgPath: "builtin", name: "cap"}:     {},
		{pkgPath: "builtin", name: "min"}:     {},
		{pkgPath: "builtin", name: "max"}:     {},
		{pkgPath: "builtin", name: "complex"}: {},
		{pkgPath: "builtin", name: "real"}:    {},
		{pkgPath: "builtin", name: "imag"}:    {},

		// Stdlib.
		{pkgPath: "strings", name: "Contains"}:   {},
		{pkgPath: "strings", name: "HasPrefix"}:  {},
		{pkgPath: "strings", name: "HasSuffix"}:  {},
		{pkgPath: "strings", name: "Index"}:      {},
		{pkgPath: "strings", name: "ToLower"}:    {},
		{pkgPath: "strings", name: "ToUpper"}:    {},
		{pkgPath: "strings", name: "TrimSpace"}:  {},
		{pkgPath: "strings", name: "TrimPrefix"}: {},
		{pkgPath: "strings", name: "TrimSuffix"}: {},
		{pkgPath: "strings", name: "Repeat"}:     {},
		{pkgPath: "strconv", name: "Itoa"}:       {},
		{pkgPath: "strconv", name: "FormatInt"}:  {},
		{pkgPath: "strconv", name: "Quote"}:      {},
		{pkgPath: "math", name: "Abs"}:           {},
		{pkgPath: "math", name: "Max"}:           {},
		{pkgPath: "math", name: "Min"}:           {},
		{pkgPath: "math", name: "Sqrt"}:          {},
		{pkgPath: "unicode", name: "IsDigit"}:    {},
		{pkgPath: "unicode", name: "IsLetter"}:   {},
		{pkgPath: "unicode", name: "IsSpace"}:    {},
	}

	known := maps.Clone(predefined)
	for _, f := range custom {
		known[f] = struct{}{}
	}

	return &knownPureFuncs{known: known}
}

func (k *knownPureFuncs) has(f packagedFunc) bool {
	_, ok := k.known[f]
	return ok
}
