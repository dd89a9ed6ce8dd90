package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/vartrace/internal/config"
	"github.com/sirkon/vartrace/internal/lowering"
)

var _ lowering.CallClassifier = (*callClassifier)(nil)

// callClassifier resolves callees and looks them up in known functions.
type callClassifier struct {
	info    *types.Info
	raising *knownRaisingFuncs
	pure    *knownPureFuncs
}

func newCallClassifier(info *types.Info, cfg *config.Config) *callClassifier {
	return &callClassifier{
		info:    info,
		raising: newKnownRaisingFuncs(referencesFuncs(cfg.RaisingFuncs)),
		pure:    newKnownPureFuncs(referencesFuncs(cfg.PureFuncs)),
	}
}

func (c *callClassifier) Raises(call *ast.CallExpr) bool {
	f, ok := c.callee(call)
	return ok && c.raising.has(f)
}

func (c *callClassifier) Pure(call *ast.CallExpr) bool {
	f, ok := c.callee(call)
	return ok && c.pure.has(f)
}

func (c *callClassifier) callee(call *ast.CallExpr) (packagedFunc, bool) {
	fn := typeutil.Callee(c.info, call)
	if fn == nil {
		// Function values are never known.
		return packagedFunc{}, false
	}

	return calleeFunc(fn)
}

func referencesFuncs(refs []config.Reference) []packagedFunc {
	res := make([]packagedFunc, len(refs))
	for i, ref := range refs {
		res[i] = packagedFuncOf(ref)
	}
	return res
}
