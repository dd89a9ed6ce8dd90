package variables

import (
	"fmt"
)

// Kind is a storage kind of a variable.
type Kind int

const (
	kindInvalid Kind = iota

	// KindModule is a module level (global) variable.
	KindModule

	// KindLocal is a function local variable.
	KindLocal

	// KindTemp is a compiler generated temporary. It is never visible to user code.
	KindTemp

	// KindClosure is a local shared with nested scopes through a cell.
	KindClosure

	// KindClass is a variable of a class body.
	KindClass
)

var kindValueMap = map[Kind]string{
	KindModule:  "module",
	KindLocal:   "local",
	KindTemp:    "temp",
	KindClosure: "closure",
	KindClass:   "class",
}

func (k Kind) String() string {
	v, ok := kindValueMap[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

// MarshalText for the persisted tree format.
func (k Kind) MarshalText() ([]byte, error) {
	v, ok := kindValueMap[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Kind(%d)", k)
	}

	return []byte(v), nil
}

// UnmarshalText for the persisted tree format.
func (k *Kind) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for key, v := range kindValueMap {
		if v == text {
			*k = key
			return nil
		}
	}

	return fmt.Errorf("unknown variable kind %q", text)
}

// ScopeKind describes varieties of scopes.
type ScopeKind int

const (
	scopeKindInvalid ScopeKind = iota
	ScopeModule
	ScopeFunction
	ScopeClass
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	default:
		return fmt.Sprintf("invalid(%d)", k)
	}
}

// Tristate is a boolean answer that can also be "don't know".
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

func (t Tristate) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case False:
		return "false"
	case True:
		return "true"
	default:
		return fmt.Sprintf("invalid(%d)", t)
	}
}
