package main

import (
	"go/types"

	"github.com/sirkon/vartrace/internal/config"
)

// packagedFunc identifies a function or a method by its package path, receiver type
// name and name. Builtins live in the "builtin" package.
type packagedFunc struct {
	pkgPath string
	recv    string
	name    string
}

func packagedFuncOf(ref config.Reference) packagedFunc {
	return packagedFunc{
		pkgPath: ref.Package,
		recv:    ref.Type,
		name:    ref.Name,
	}
}

func (f packagedFunc) String() string {
	return config.Reference{
		Package: f.pkgPath,
		Type:    f.recv,
		Name:    f.name,
	}.String()
}

// calleeFunc describes a resolved callee. Function values and closures resolve to
// nothing.
func calleeFunc(obj types.Object) (packagedFunc, bool) {
	switch v := obj.(type) {
	case *types.Builtin:
		return packagedFunc{pkgPath: "builtin", name: v.Name()}, true

	case *types.Func:
		pkg := v.Pkg()
		if pkg == nil {
			// Methods of the universe, like error.Error.
			return packagedFunc{}, false
		}

		res := packagedFunc{
			pkgPath: pkg.Path(),
			name:    v.Name(),
		}
		if recv := v.Type().(*types.Signature).Recv(); recv != nil {
			res.recv = recvTypeName(recv.Type())
		}
		return res, true

	default:
		return packagedFunc{}, false
	}
}

func recvTypeName(typ types.Type) string {
	if ptr, ok := typ.(*types.Pointer); ok {
		typ = ptr.Elem()
	}

	switch v := typ.(type) {
	case *types.Named:
		return v.Obj().Name()
	case *types.Alias:
		return v.Obj().Name()
	default:
		return ""
	}
}
