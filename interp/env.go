// Package interp provides two tree-walking evaluators used to check the
// lower package's output against ground truth: Reference runs a generator
// function's original, pre-lowering body on its own goroutine, suspending
// at each yield exactly like a real coroutine; Flat drives a *lower.Lowered
// function's flattened dispatch shell through runtime.Driver. Comparing the
// two for the same inputs is the correctness oracle spec.md §8 calls for.
package interp

// Env is the variable namespace one evaluation runs against. Reference and
// Flat back it differently — Reference with a plain map, Flat with the
// runtime.Frame a Driver keeps alive across suspensions — but expression
// evaluation in eval.go only ever needs Get/Set.
type Env interface {
	Get(name string) any
	Set(name string, v any)
}

type mapEnv struct{ vars map[string]any }

// NewEnv returns a flat, map-backed Env: user parameters, locals, and (for
// Reference, which never sees synthetic control variables at all) nothing
// else share one namespace.
func NewEnv() Env { return &mapEnv{vars: map[string]any{}} }

func (e *mapEnv) Get(name string) any    { return e.vars[name] }
func (e *mapEnv) Set(name string, v any) { e.vars[name] = v }
