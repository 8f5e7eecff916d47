package interp

import (
	"testing"

	"github.com/genstate/closureiter/ir"
	"github.com/genstate/closureiter/lower"
	"github.com/genstate/closureiter/runtime"
)

// generator is the pull-based interface both oracles present: Reference
// wraps the pre-lowering tree, runtime.Driver wraps whatever lower.Function
// produced from it. Every scenario below runs the same arguments and
// resume values through both and checks they agree at every step.
type generator interface {
	Next(sent any) (any, bool)
	Result() any
	Err() error
}

var (
	_ generator = (*Reference)(nil)
	_ generator = (*runtime.Driver)(nil)
)

// SomeError is the one exception type the scenarios below raise; its Go
// type name doubles as the except arm's matched type name, exactly how
// runtime.IsInstance compares them.
type SomeError struct{ Msg string }

func compareSequences(t *testing.T, name string, ref, flat generator, sends []any) {
	t.Helper()
	i := 0
	for {
		var sent any
		if i < len(sends) {
			sent = sends[i]
		}
		rv, rok := ref.Next(sent)
		fv, fok := flat.Next(sent)
		if rok != fok {
			t.Fatalf("%s: step %d: reference ok=%v, flat ok=%v", name, i, rok, fok)
		}
		if !rok {
			break
		}
		if rv != fv {
			t.Fatalf("%s: step %d: reference yielded %v, flat yielded %v", name, i, rv, fv)
		}
		i++
	}
	if ref.Result() != flat.Result() {
		t.Errorf("%s: reference result %v != flat result %v", name, ref.Result(), flat.Result())
	}
	rerr, ferr := ref.Err(), flat.Err()
	if (rerr == nil) != (ferr == nil) {
		t.Fatalf("%s: reference err=%v, flat err=%v", name, rerr, ferr)
	}
}

func lowerOrFatal(t *testing.T, fn *ir.FuncDecl) *lower.Lowered {
	t.Helper()
	lowered, err := lower.Function(fn)
	if err != nil {
		t.Fatalf("lower.Function(%s): %v", fn.Name, err)
	}
	return lowered
}

// TestScenarioSimpleLoop covers spec.md §8(a): a while loop yielding an
// incrementing counter, no exceptions, no early return.
func TestScenarioSimpleLoop(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "simpleLoop",
		Result: ir.Int,
		Body: ir.NewStmtList(
			&ir.VarSection{Name: ir.NewIdent("i"), Type: ir.Int, Init: ir.NewLit(int64(0))},
			&ir.While{
				Cond: ir.NewBinary(ir.NewIdent("i"), ir.OpLt, ir.NewLit(int64(3))),
				Body: ir.NewStmtList(
					ir.NewExprStmt(&ir.Yield{Value: ir.NewIdent("i")}),
					ir.NewAssign(ir.NewIdent("i"), ir.OpAddAssign, ir.NewLit(int64(1))),
				),
			},
		),
	}

	ref := NewReference(fn, nil, nil)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, nil)

	compareSequences(t, "simpleLoop", ref, flat, nil)
}

// TestScenarioTryExceptYields covers spec.md §8(b): a yield inside the try
// body, an exception raised after it, and a yield inside the matching
// except arm.
func TestScenarioTryExceptYields(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "tryExceptYields",
		Result: ir.Int,
		Body: ir.NewStmtList(
			&ir.Try{
				Body: ir.NewStmtList(
					ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}),
					&ir.Raise{X: ir.NewCall(ir.NewIdent("newSomeError"))},
				),
				Except: []ir.ExceptArm{
					{
						Type: ir.Custom("SomeError"),
						Var:  ir.NewIdent("e"),
						Body: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(2))})),
					},
				},
			},
		),
	}

	builtins := map[string]func([]any) any{
		"newSomeError": func([]any) any { return SomeError{Msg: "boom"} },
	}

	ref := NewReference(fn, nil, builtins)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, builtins)

	compareSequences(t, "tryExceptYields", ref, flat, nil)
}

// TestScenarioYieldInCondition covers spec.md §8(c): a yield sitting
// directly inside a branching condition, which C2 must hoist into a temp
// before the branch can be evaluated.
func TestScenarioYieldInCondition(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "yieldInCondition",
		Result: ir.Int,
		Body: ir.NewStmtList(
			&ir.If{
				Cond: ir.NewBinary(&ir.Yield{Value: ir.NewLit(int64(1))}, ir.OpEq, ir.NewLit(int64(5))),
				Body: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(2))})),
				Else: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(3))})),
			},
		),
	}

	ref := NewReference(fn, nil, nil)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, nil)

	// First Next(nil) reaches the yield inside the condition; sending 5
	// back makes the comparison true and steers into the if-body's yield.
	compareSequences(t, "yieldInCondition/true-branch", ref, flat, []any{nil, int64(5)})
}

// TestScenarioYieldInConditionFalseBranch is the same shape as
// TestScenarioYieldInCondition but drives the else branch, checking the
// hoisted temp doesn't leak state between the two outcomes.
func TestScenarioYieldInConditionFalseBranch(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "yieldInConditionFalse",
		Result: ir.Int,
		Body: ir.NewStmtList(
			&ir.If{
				Cond: ir.NewBinary(&ir.Yield{Value: ir.NewLit(int64(1))}, ir.OpEq, ir.NewLit(int64(5))),
				Body: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(2))})),
				Else: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(3))})),
			},
		),
	}

	ref := NewReference(fn, nil, nil)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, nil)

	compareSequences(t, "yieldInCondition/false-branch", ref, flat, []any{nil, int64(9)})
}

// TestScenarioReturnFromTryRunsFinally covers spec.md §8(d): a return
// nested in a try body must still run the finally clause before actually
// exiting, and the value it carries must survive that detour.
func TestScenarioReturnFromTryRunsFinally(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "returnFromTryRunsFinally",
		Result: ir.Int,
		Body: ir.NewStmtList(
			&ir.Try{
				Body: ir.NewStmtList(
					ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}),
					&ir.Return{X: ir.NewLit(int64(42))},
				),
				Finally: ir.NewStmtList(
					ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(99))}),
				),
			},
		),
	}

	ref := NewReference(fn, nil, nil)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, nil)

	compareSequences(t, "returnFromTryRunsFinally", ref, flat, nil)

	if flat.Result() != int64(42) {
		t.Errorf("expected flat result 42, got %v", flat.Result())
	}
}

// TestScenarioDeadStatesDontDisruptYields covers spec.md §8(e): structural
// statements that carry no yield of their own (an empty if, a while whose
// condition is never true) still have to be threaded through the dispatch
// states correctly, without shifting or dropping the yields around them.
func TestScenarioDeadStatesDontDisruptYields(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "deadStates",
		Result: ir.Int,
		Body: ir.NewStmtList(
			ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}),
			&ir.If{Cond: ir.NewLit(true), Body: ir.NewStmtList(), Else: ir.NewStmtList()},
			&ir.While{
				Cond: ir.NewLit(false),
				Body: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(999))})),
			},
			ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(2))}),
			&ir.Return{X: ir.NewLit(int64(7))},
		),
	}

	ref := NewReference(fn, nil, nil)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, nil)

	compareSequences(t, "deadStates", ref, flat, nil)

	if flat.Result() != int64(7) {
		t.Errorf("expected flat result 7, got %v", flat.Result())
	}
}

// TestScenarioNestedTryOuterExceptCatchesBeforeOuterFinally covers a nested
// try where the inner try has only a finally (no except of its own): the
// exception raised inside it must escape the inner finally and be caught by
// the outer try's except arm before the outer try's own finally runs, never
// jumping straight from the inner finally to the outer finally the way a
// return-unwind would. It also exercises a raise with unreachable statements
// both after it in the same list and in the try body that follows the whole
// inner try.
func TestScenarioNestedTryOuterExceptCatchesBeforeOuterFinally(t *testing.T) {
	fn := &ir.FuncDecl{
		Name:   "nestedTryOuterExceptCatchesBeforeOuterFinally",
		Result: ir.Int,
		Body: ir.NewStmtList(
			&ir.Try{
				Body: ir.NewStmtList(
					&ir.Try{
						Body: ir.NewStmtList(
							ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}),
							&ir.Raise{X: ir.NewCall(ir.NewIdent("newSomeError"))},
							ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(888))}), // unreachable
						),
						Finally: ir.NewStmtList(
							ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(10))}),
						),
					},
					ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(999))}), // unreachable
				),
				Except: []ir.ExceptArm{
					{
						Type: ir.Custom("SomeError"),
						Var:  ir.NewIdent("e"),
						Body: ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(2))})),
					},
				},
				Finally: ir.NewStmtList(
					ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(3))}),
				),
			},
		),
	}

	builtins := map[string]func([]any) any{
		"newSomeError": func([]any) any { return SomeError{Msg: "boom"} },
	}

	ref := NewReference(fn, nil, builtins)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, builtins)

	compareSequences(t, "nestedTryOuterExceptCatchesBeforeOuterFinally", ref, flat, nil)
}

// TestScenarioLabelledBreakAcrossNestedWhile covers spec.md §8(f): a break
// naming the outer of two nested whiles must escape both, skipping the
// outer loop's own trailing statement entirely.
func TestScenarioLabelledBreakAcrossNestedWhile(t *testing.T) {
	inner := &ir.While{
		Cond: ir.NewLit(true),
		Body: ir.NewStmtList(
			ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}),
			&ir.Break{Label: "outer"},
		),
	}
	outer := &ir.While{
		Label: "outer",
		Cond:  ir.NewLit(true),
		Body: ir.NewStmtList(
			inner,
			ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(999))}), // unreachable
		),
	}
	fn := &ir.FuncDecl{
		Name:   "labelledBreak",
		Result: ir.Int,
		Body: ir.NewStmtList(
			outer,
			ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(2))}),
		),
	}

	ref := NewReference(fn, nil, nil)
	lowered := lowerOrFatal(t, fn)
	flat := NewFlatDriver(lowered, nil, nil)

	compareSequences(t, "labelledBreak", ref, flat, nil)
}
