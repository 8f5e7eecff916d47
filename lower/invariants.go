package lower

import "fmt"

// InvariantError is raised, never returned, when a component discovers the
// tree it was handed violates an invariant a prior component was supposed
// to guarantee (spec.md §7: "these are bugs in the pass, not user errors").
// Function recovers at its own boundary and turns it back into a normal
// error return; nothing below that boundary ever has to thread an error
// value through the recursive rewrites above.
type InvariantError struct {
	Component string
	Msg       string
}

func (e *InvariantError) Error() string {
	if e.Component == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Msg)
}

func invariant(component string, cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(&InvariantError{Component: component, Msg: fmt.Sprintf(format, args...)})
}
