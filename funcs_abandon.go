package main

import (
	"maps"
)

// Some funcs are known for stopping current func execution or even stopping the whole program.
// A value assigned from such a call is never stored.
type knownRaisingFuncs struct {
	known map[packagedFunc]struct{}
}

func newKnownRaisingFuncs(custom []packagedFunc) *knownRaisingFuncs {
	predefined := map[packagedFunc]struct{}{
		// Stdlib.
		{pkgPath: "builtin", name: "panic"}:              {},
		{pkgPath: "os", name: "Exit"}:                    {},
		{pkgPath: "runtime", name: "Goexit"}:             {},
		{pkgPath: "log", name: "Fatal"}:                  {},
		{pkgPath: "log", name: "Fatalf"}:                 {},
		{pkgPath: "log", name: "Fatalln"}:                {},
		{pkgPath: "log", name: "Panic"}:                  {},
		{pkgPath: "log", name: "Panicf"}:                 {},
		{pkgPath: "log", name: "Panicln"}:                {},
		{pkgPath: "log", recv: "Logger", name: "Fatal"}:  {},
		{pkgPath: "log", recv: "Logger", name: "Fatalf"}: {},
		{pkgPath: "log", recv: "Logger", name: "Panic"}:  {},
		{pkgPath: "log", recv: "Logger", name: "Panicf"}: {},
		{pkgPath: "testing", recv: "T", name: "Fatal"}:   {},
		{pkgPath: "testing", recv: "T", name: "Fatalf"}:  {},
		{pkgPath: "testing", recv: "T", name: "FailNow"}: {},
		{pkgPath: "testing", recv: "T", name: "SkipNow"}: {},
		{pkgPath: "testing", recv: "B", name: "Fatal"}:   {},
		{pkgPath: "testing", recv: "B", name: "Fatalf"}:  {},
		{pkgPath: "testing", recv: "B", name: "FailNow"}: {},

		// My bias again!
		{pkgPath: "github.com/sirkon/message", name: "Fatal"}:  {},
		{pkgPath: "github.com/sirkon/message", name: "Fatalf"}: {},
	}

	known := maps.Clone(predefined)
	for _, f := range custom {
		known[f] = struct{}{}
	}

	return &knownRaisingFuncs{
		known: known,
	}
}

func (k *knownRaisingFuncs) has(f packagedFunc) bool {
	_, ok := k.known[f]
	return ok
}
