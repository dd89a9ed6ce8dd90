package variables

import (
	"fmt"
	"go/token"
)

// InternalError reports a broken invariant of the optimizer itself. It is only ever
// raised with panic, drivers recover it at the compilation unit boundary.
type InternalError struct {
	Pos token.Pos
	Msg string
}

func (e *InternalError) Error() string {
	if !e.Pos.IsValid() {
		return "internal error: " + e.Msg
	}

	return fmt.Sprintf("internal error at pos %d: %s", e.Pos, e.Msg)
}

// Panicf panics with an *InternalError.
func Panicf(pos token.Pos, format string, a ...any) {
	panic(&InternalError{
		Pos: pos,
		Msg: fmt.Sprintf(format, a...),
	})
}
