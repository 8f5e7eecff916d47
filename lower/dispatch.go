package lower

import "github.com/genstate/closureiter/ir"

// Lowered is the result of running the pipeline over one generator
// function: a flat, state-dispatching procedure plus the static exception
// table runtime.Driver consults whenever a raise needs to find its handler
// (spec.md §3, §5).
type Lowered struct {
	Func        *ir.FuncDecl
	ExceptTable []int16
	EntryState  int
}

// reservedVars names the synthetic control variables that a runtime.Frame
// already backs with dedicated, persistent fields (spec.md §9). They are
// never declared in the dispatcher shell below: NewFrame zero-initializes
// them once at construction, and every state that touches one does so with
// a plain assignment, never a fresh declaration.
var reservedVars = map[string]bool{
	varState:         true,
	varTmpResult:     true,
	varUnrollFinally: true,
	varCurExc:        true,
	varSent:          true,
}

// buildDispatcher is C8: it rewrites every remaining raise into an
// exception-table lookup, then wraps the collapsed, materialized state list
// in the outer `for { switch :state { ... } }` shell, prepending the single
// variable-declaration block spec.md §4.1 requires for every hoisted temp
// pre-lifting mode tracked in c.varOrder (spec.md §4.8). It is the last
// component in the pipeline.
//
// The shell never assigns :state = entry itself: runtime.NewFrame already
// seeds Frame.State to entry once, at construction, and interp.Flat's
// driver re-walks this whole shell from the top on every Next call — an
// unconditional reset here would discard wherever the generator actually
// suspended on every call after the first.
func buildDispatcher(c *Context, fn *ir.FuncDecl, entry int) *Lowered {
	lowerRaises(c)

	arms := make([]ir.CaseArm, 0, len(c.states)+1)
	for _, st := range c.states {
		arms = append(arms, ir.CaseArm{Values: []ir.Expr{ir.NewLit(int64(st.Index))}, Body: st.Body})
	}
	arms = append(arms, ir.CaseArm{Values: nil, Body: &ir.StmtList{List: []ir.Stmt{&ir.Return{}}}})

	loop := &ir.While{
		Cond: ir.NewLit(true),
		Body: &ir.StmtList{List: []ir.Stmt{
			&ir.Case{Selector: c.stateVar(), Arms: arms},
		}},
	}

	shell := &ir.StmtList{List: append(declBlock(c), loop)}

	return &Lowered{
		Func:        &ir.FuncDecl{Name: fn.Name, Params: fn.Params, Result: fn.Result, Body: shell},
		ExceptTable: c.exceptTable,
		EntryState:  entry,
	}
}

// declBlock builds the variable-declaration statements the dispatcher shell
// prepends to its loop body for every hoisted temp in c.varOrder, skipping
// the reserved control variables (they live on runtime.Frame, not among
// the shell's own locals). A hoisted temp whose value must survive a
// suspend is re-populated by materialize.go's resumeInto prefix on the
// resuming state before it's read, in the same call that reads it, so a
// redundant zero-value redeclaration here on every call is harmless.
func declBlock(c *Context) []ir.Stmt {
	var decls []ir.Stmt
	for _, name := range c.varOrder {
		if reservedVars[name] {
			continue
		}
		decls = append(decls, &ir.VarSection{Name: ir.NewIdent(name), Type: c.varTypes[name]})
	}
	return decls
}

// lowerRaises turns every remaining `raise` (a plain re-raise leaves :curExc
// untouched; `raise e` first stores e) into a call to the runtime's
// exception-table lookup keyed by the state the raise executes in, plus the
// early-return that fires when the lookup reports "uncaught" (spec.md §5,
// runtime.RouteException).
func lowerRaises(c *Context) {
	for _, st := range c.states {
		st.Body = rewriteRaiseList(st.Body, st.Index)
	}
}

// rewriteRaiseList walks list looking for a *ir.Raise sitting directly
// among its statements. Everything after it in the same list can never
// run: whichever branch RouteException picks, the raise itself decides
// where control goes next, so the statements the splitter originally
// appended after it (materialize.go having long since turned that
// trailing out-edge into an unconditional `:state = nextIdx`) are dropped
// instead of being left as siblings that would clobber the routed state
// right back off course.
func rewriteRaiseList(list *ir.StmtList, stateIdx int) *ir.StmtList {
	out := make([]ir.Stmt, 0, len(list.List))
	for _, s := range list.List {
		if r, ok := s.(*ir.Raise); ok {
			out = append(out, rewriteRaise(r, stateIdx, &ir.StmtList{}))
			return &ir.StmtList{List: out}
		}
		out = append(out, rewriteRaiseStmt(s, stateIdx))
	}
	return &ir.StmtList{List: out}
}

func rewriteRaiseStmt(s ir.Stmt, stateIdx int) ir.Stmt {
	switch s := s.(type) {
	case *ir.StmtList:
		return rewriteRaiseList(s, stateIdx)

	case *ir.Raise:
		// A raise reached directly, outside of any enclosing list (an
		// If/Case branch that is the bare statement itself): there is no
		// sibling code after it to worry about.
		return rewriteRaise(s, stateIdx, &ir.StmtList{})

	case *ir.If:
		return &ir.If{Cond: s.Cond, Body: rewriteRaiseList(s.Body, stateIdx), Else: rewriteRaiseElse(s.Else, stateIdx)}

	case *ir.Case:
		arms := make([]ir.CaseArm, len(s.Arms))
		for i, a := range s.Arms {
			arms[i] = ir.CaseArm{Values: a.Values, Body: rewriteRaiseList(a.Body, stateIdx)}
		}
		return &ir.Case{Selector: s.Selector, Arms: arms}

	default:
		return s
	}
}

// rewriteRaise builds the routing block for one raise: :curExc is set (a
// plain re-raise leaves it as whatever is already there), :unrollFinally is
// set so that a route landing directly on a finally state (this try has no
// except at all, or none of its arms matched) knows on arrival that it is
// running to propagate an exception rather than falling through normally —
// buildExceptDispatch's matched-arm bodies clear the flag again once the
// exception is actually handled. Then :state is looked up via the exception
// table. An uncaught result (negative) returns immediately, unwinding the
// call; a caught one runs rest (both callers pass an empty list, since
// nothing after a raise is reachable), so the routed :state survives until
// the dispatch loop's next iteration re-reads it.
func rewriteRaise(r *ir.Raise, stateIdx int, rest *ir.StmtList) ir.Stmt {
	var pre []ir.Stmt
	if r.X != nil {
		pre = append(pre, ir.NewAssign(ir.NewIdent(varCurExc), ir.OpAssign, r.X))
	}
	pre = append(pre, ir.NewAssign(ir.NewIdent(varUnrollFinally), ir.OpAssign, ir.NewLit(true)))
	route := ir.NewCall(ir.NewIdent("runtime.RouteException"), ir.NewIdent(":exceptTable"), ir.NewLit(int64(stateIdx)))
	pre = append(pre, ir.NewAssign(ir.NewIdent(varState), ir.OpAssign, route))
	pre = append(pre, &ir.If{
		Cond: ir.NewBinary(ir.NewIdent(varState), ir.OpLt, ir.NewLit(int64(0))),
		Body: &ir.StmtList{List: []ir.Stmt{&ir.Return{}}},
		Else: rest,
	})
	return &ir.StmtList{List: pre}
}

func rewriteRaiseElse(els ir.Stmt, stateIdx int) ir.Stmt {
	if els == nil {
		return nil
	}
	return rewriteRaiseStmt(els, stateIdx)
}
