package interp

import (
	"fmt"

	"github.com/genstate/closureiter/ir"
	"github.com/genstate/closureiter/lower"
	"github.com/genstate/closureiter/runtime"
)

// NewFlatDriver builds a runtime.Driver over a lowered function's
// dispatch shell, seeding its frame's locals with params (the function's
// arguments) before the first Next call. builtins resolves the same
// ordinary, non-yielding function calls interp.Reference's own builtins
// table does; the two reserved runtime intrinsic names
// (runtime.IsInstance, runtime.RouteException) are recognized regardless of
// what builtins contains. This is the "Flat" side of the oracle comparison:
// correctness means it observes the same yields, return value, and escaped
// exception as interp.Reference does for the same arguments.
func NewFlatDriver(lowered *lower.Lowered, params map[string]any, builtins map[string]func([]any) any) *runtime.Driver {
	frame := runtime.NewFrame(lowered.ExceptTable, lowered.EntryState)
	for k, v := range params {
		frame.Locals[k] = v
	}
	call := func(name string, args []any) any { return callFlat(name, args, builtins) }
	step := func(f *runtime.Frame) (any, bool) {
		return flatRun(f, lowered.Func.Body, call)
	}
	return runtime.NewDriverWithFrame(step, frame)
}

// frameEnv adapts a runtime.Frame to the Env interface: the five reserved
// synthetic names route to Frame's typed fields, everything else lives in
// Frame.Locals. Frame outlives a single Step call, so unlike Reference's
// map-backed Env this one carries state across suspensions for free.
type frameEnv struct{ f *runtime.Frame }

func (e *frameEnv) Get(name string) any {
	switch name {
	case ":state":
		return int64(e.f.State)
	case ":tmpResult":
		return e.f.TmpResult
	case ":unrollFinally":
		return e.f.UnrollFinally
	case ":curExc":
		return e.f.CurExc
	case ":sent":
		return e.f.Sent
	case ":exceptTable":
		return e.f.ExceptTable
	default:
		return e.f.Locals[name]
	}
}

func (e *frameEnv) Set(name string, v any) {
	switch name {
	case ":state":
		e.f.State = int(toInt(v))
	case ":tmpResult":
		e.f.TmpResult = v
	case ":unrollFinally":
		e.f.UnrollFinally = toBool(v)
	case ":curExc":
		e.f.CurExc = v
	case ":sent":
		e.f.Sent = v
	default:
		e.f.Locals[name] = v
	}
}

// flatReturn is how execFlat escapes the dispatch shell's infinite `for`:
// the shell only ever exits through an explicit Return node, materialize.go
// having rewritten every other exit into a plain :state assignment that
// falls through and loops the switch again.
type flatReturn struct {
	value    any
	hasValue bool
}

func flatRun(f *runtime.Frame, body *ir.StmtList, call func(string, []any) any) (val any, ok bool) {
	env := &frameEnv{f: f}
	defer func() {
		r := recover()
		if r == nil {
			panic("interp: flat dispatch shell fell through without returning")
		}
		rs, isReturn := r.(flatReturn)
		if !isReturn {
			panic(r)
		}
		val, ok = rs.value, rs.hasValue
	}()
	execFlat(env, body, call)
	return nil, false
}

func noYield(*ir.Yield) any {
	panic("interp: a yield survived lowering into the flat form")
}

// callFlat resolves an ordinary user call through builtins first, then
// falls back to the two reserved runtime intrinsics lower/split.go and
// lower/dispatch.go emit by name.
func callFlat(name string, args []any, builtins map[string]func([]any) any) any {
	if fn, ok := builtins[name]; ok {
		return fn(args)
	}
	switch name {
	case "runtime.IsInstance":
		typeName, _ := args[1].(string)
		return runtime.IsInstance(args[0], typeName)
	case "runtime.RouteException":
		table, _ := args[0].([]int16)
		return int64(runtime.RouteException(table, int(toInt(args[1]))))
	default:
		panic(fmt.Sprintf("interp: unknown flat call %q", name))
	}
}

// execFlat walks the small statement vocabulary that survives the full
// pipeline: StmtList, ExprStmt, VarSection, Assign, If, Case, the single
// outer While(true) dispatch loop, and Return. Break, Continue, Try, Raise,
// and GotoState never reach here — C4/C5/C6/C8 eliminate them.
func execFlat(env Env, s ir.Stmt, call func(string, []any) any) {
	switch s := s.(type) {
	case *ir.StmtList:
		for _, c := range s.List {
			execFlat(env, c, call)
		}
	case *ir.ExprStmt:
		evalSimpleExpr(env, s.X, noYield, call)
	case *ir.VarSection:
		var v any
		if s.Init != nil {
			v = evalSimpleExpr(env, s.Init, noYield, call)
		}
		env.Set(s.Name.Name, v)
	case *ir.Assign:
		val := evalSimpleExpr(env, s.Rhs, noYield, call)
		if s.Op != ir.OpAssign && s.Op != ir.OpDefine {
			cur := evalSimpleExpr(env, s.Lhs, noYield, call)
			val = applyCompound(s.Op, cur, val)
		}
		assignTo(env, s.Lhs, val, noYield, call)
	case *ir.If:
		if toBool(evalSimpleExpr(env, s.Cond, noYield, call)) {
			execFlat(env, s.Body, call)
		} else if s.Else != nil {
			execFlat(env, s.Else, call)
		}
	case *ir.Case:
		execCaseFlat(env, s, call)
	case *ir.While:
		for {
			execFlat(env, s.Body, call)
		}
	case *ir.Return:
		if s.X == nil {
			// generator exhausted: no value, driver reports !ok.
			panic(flatReturn{hasValue: false})
		}
		panic(flatReturn{hasValue: true, value: evalSimpleExpr(env, s.X, noYield, call)})
	default:
		panic(fmt.Sprintf("interp: unexpected flat statement %T", s))
	}
}

func execCaseFlat(env Env, s *ir.Case, call func(string, []any) any) {
	v := evalSimpleExpr(env, s.Selector, noYield, call)
	var def *ir.CaseArm
	for i, arm := range s.Arms {
		if arm.Values == nil {
			def = &s.Arms[i]
			continue
		}
		for _, cv := range arm.Values {
			if evalSimpleExpr(env, cv, noYield, call) == v {
				execFlat(env, arm.Body, call)
				return
			}
		}
	}
	if def != nil {
		execFlat(env, def.Body, call)
		return
	}
	panic(fmt.Sprintf("interp: no dispatch arm matches state %v", v))
}
