package runtime

import (
	"fmt"
	"reflect"
)

// Exception wraps a raised value that is not already a Go error, so a
// Driver can still satisfy the error interface when a raise escapes a
// generator uncaught.
type Exception struct{ Value any }

func (e *Exception) Error() string { return fmt.Sprintf("uncaught exception: %v", e.Value) }

// IsInstance reports whether exc's concrete type is named typeName. An
// `except T:` arm compiles down to exactly this call
// (lower/split.go's buildExceptDispatch), matching typeName against the
// name carried by the arm's ir.Custom type.
func IsInstance(exc any, typeName string) bool {
	if exc == nil {
		return false
	}
	return reflect.TypeOf(exc).Name() == typeName
}

// RouteException reports which state a raise executing in atState must
// jump to next: that state's own except handler if it has one, the
// enclosing finally if it has none, or -1 if the exception is uncaught.
// table is the exception table spec.md §3 describes: table[i]==0 means no
// handler covers state i, table[i]<0 means abs(table[i])-1 is an
// except-state index, table[i]>0 means table[i]-1 is a finally-state
// index. Every raise a lowered function contains compiles down to a call
// to this exact function (lower/dispatch.go's lowerRaises).
func RouteException(table []int16, atState int) int {
	if atState < 0 || atState >= len(table) {
		return -1
	}
	switch entry := table[atState]; {
	case entry == 0:
		return -1
	case entry < 0:
		return int(-entry) - 1
	default:
		return int(entry) - 1
	}
}
