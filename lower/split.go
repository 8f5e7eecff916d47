package lower

import "github.com/genstate/closureiter/ir"

// split is C5, the main pass (spec.md §4.5). It walks a normalised body and
// carves it into numbered states at every yield boundary, threading a
// goto-out edge through every recursive call: the caller commits to a
// destination for "whatever runs after this node" before descending, and
// split fills that edge's Target once it knows what state that destination
// actually is.

// splitStmtList returns the statement list that replaces list in place,
// always ending in a jump to out.
func splitStmtList(c *Context, list *ir.StmtList, out ir.Stmt) *ir.StmtList {
	items := append([]ir.Stmt(nil), list.List...)
	if len(items) == 0 {
		items = []ir.Stmt{out}
	} else if _, ok := items[len(items)-1].(*ir.GotoState); !ok {
		items = append(items, out)
	}

	var result []ir.Stmt
	i := 0
	for i < len(items) {
		child := items[i]

		if child == out {
			// out is the edge the caller committed to, not a statement
			// of this list: it is emitted as is and never split, even
			// when it is a compound node such as a finally epilogue.
			result = append(result, child)
			i++
			continue
		}

		if ir.ContainsYieldInExprContext(child) {
			replaced := normalizeStmt(c, child)
			items = append(items[:i], append(replaced, items[i+1:]...)...)
			continue
		}

		if !isStructural(child) && !ir.ContainsYield(child) {
			result = append(result, child)
			i++
			continue
		}

		// child needs splitting: everything after it moves into a
		// freshly created state, and child's own out-edge points there.
		tail := items[i+1:]
		next := c.newState()
		nextGoto := ir.NewGoto(next.Index)

		result = append(result, splitStmt(c, child, nextGoto))
		next.Body = splitStmtList(c, &ir.StmtList{List: tail}, out)
		return &ir.StmtList{List: result}
	}
	return &ir.StmtList{List: result}
}

// isStructural reports whether s is a compound statement that always needs
// to go through splitStmt, even when it contains no yield anywhere inside.
// A try with no yield still has raises that need routing through the
// exception table; a while or if with no yield still needs its condition
// re-checked as a real dispatch state rather than surviving as a native
// looping/branching construct the flat interpreter has no case for.
func isStructural(s ir.Stmt) bool {
	switch s.(type) {
	case *ir.If, *ir.Case, *ir.While, *ir.Block, *ir.Try:
		return true
	default:
		return false
	}
}

// splitStmt rewrites one yield-bearing statement, given the goto that must
// run once it (and anything it directly sequences) completes normally.
func splitStmt(c *Context, s ir.Stmt, out ir.Stmt) ir.Stmt {
	switch s := s.(type) {
	case *ir.StmtList:
		return splitStmtList(c, s, out)

	case *ir.ExprStmt:
		if y, ok := s.X.(*ir.Yield); ok {
			return &ir.StmtList{List: []ir.Stmt{&ir.ExprStmt{X: y}, out}}
		}
		return &ir.StmtList{List: []ir.Stmt{s, out}}

	case *ir.If:
		els := s.Else
		if els == nil {
			els = &ir.StmtList{}
		}
		return &ir.If{
			Cond: s.Cond,
			Body: splitStmtList(c, s.Body, out),
			Else: splitStmt(c, els, out),
		}

	case *ir.Case:
		hasDefault := false
		arms := make([]ir.CaseArm, len(s.Arms))
		for i, a := range s.Arms {
			if a.Values == nil {
				hasDefault = true
			}
			arms[i] = ir.CaseArm{Values: a.Values, Body: splitStmtList(c, a.Body, out)}
		}
		if !hasDefault {
			arms = append(arms, ir.CaseArm{Values: nil, Body: &ir.StmtList{List: []ir.Stmt{out}}})
		}
		return &ir.Case{Selector: s.Selector, Arms: arms}

	case *ir.While:
		return splitWhile(c, s, out)

	case *ir.Block:
		return splitBlock(c, s, out)

	case *ir.Try:
		return splitTry(c, s, out)

	default:
		// Assign, VarSection, Return, Raise, Break, Continue, GotoState:
		// none of these can themselves contain a yield after C2/C3 have
		// run; ContainsYield routed here only because a sibling did.
		return &ir.StmtList{List: []ir.Stmt{s, out}}
	}
}

// splitWhile implements spec.md §4.5's While rule: a fresh head state re
// -evaluates the (already yield-free, thanks to C2's normalizeStmt "while
// true" rewrite) condition and either runs the lowered body, looping back
// to the head, or exits to out.
func splitWhile(c *Context, s *ir.While, out ir.Stmt) ir.Stmt {
	head := c.newState()
	gotoHead := ir.NewGoto(head.Index)

	relocated := relocateBreakContinue(c, s.Body, s.Label, gotoHead, out)
	lowered := splitStmtList(c, relocated, gotoHead)

	head.Body = &ir.StmtList{List: []ir.Stmt{
		&ir.If{
			Cond: s.Cond,
			Body: lowered,
			Else: &ir.StmtList{List: []ir.Stmt{out}},
		},
	}}
	return ir.NewGoto(head.Index)
}

// splitBlock implements spec.md §4.5's Block rule: no new state and no loop
// head. For a labelled block, breaks naming it and unlabelled breaks at its
// own nesting level are redirected to out (relocateBlockBreaks) before
// recursing with the same out-edge; an unlabelled block is recursed into
// without any relocation.
func splitBlock(c *Context, s *ir.Block, out ir.Stmt) ir.Stmt {
	body := s.Body
	if s.Label != "" {
		body = relocateBlockBreaks(c, body, s.Label, out)
	}
	return splitStmtList(c, body, out)
}

// splitTry implements spec.md §4.5's Try rule. The finally state (and the
// except-dispatch state, when there are except arms) are allocated before
// any of the three bodies are recursed into, so the try body's ET entry,
// the except arms' re-raise gotos, and every nested return can all
// reference the right indices from the start. The try body itself gets its
// own dedicated entry state, exactly the way splitWhile gives its loop a
// dedicated head state, rather than being spliced into whatever state was
// already current: that caller state was created — and had its own ET
// entry fixed — before etEntry below is known, so a raise preceding the
// first yield in the try body would otherwise be routed with the wrong,
// ambient handler instead of this try's own.
func splitTry(c *Context, s *ir.Try, out ir.Stmt) ir.Stmt {
	finallyState := c.newState()
	gotoFinally := ir.NewGoto(finallyState.Index)

	var exceptState *State
	if len(s.Except) > 0 {
		exceptState = c.newState()
	}

	// The try body's ET entry: negative selects the except state,
	// positive (when there is no except arm at all) selects the finally
	// state directly, so unwinding always reaches it. Because state
	// indices start at 0, both branches below are offset by one so that
	// index 0 is representable and the sign still disambiguates them —
	// which also means this entry can never legitimately come out zero,
	// the Open Question's resolution spec.md §4.3 records.
	var etEntry int
	if exceptState != nil {
		etEntry = -(exceptState.Index + 1)
	} else {
		etEntry = finallyState.Index + 1
	}
	if etEntry == 0 {
		panic(&InvariantError{Msg: "try produced a zero exception-table entry"})
	}

	var tryState *State
	c.withNearestFinally(finallyState.Index, func() {
		c.withExcHandling(etEntry, func() {
			tryState = c.newState()
			tryState.Body = splitStmtList(c, rewriteReturnInTryList(c, s.Body), gotoFinally)
		})
	})

	if exceptState != nil {
		exceptState.Body = buildExceptDispatch(c, s.Except, finallyState.Index, gotoFinally)
	}

	// An exception raised while running the finally body itself is no
	// longer this try's concern: c.nearestFinally/curExcHandlingState
	// have already unwound back to whatever enclosed this try, by
	// virtue of the withNearestFinally/withExcHandling defers above.
	fin := s.Finally
	if fin == nil {
		fin = &ir.StmtList{}
	}
	finallyState.Body = splitStmtList(c, rewriteReturnInTryList(c, fin), finallyEpilogue(c, out))

	return ir.NewGoto(tryState.Index)
}

// rewriteReturnInTryList applies C3 to a *ir.StmtList and keeps the result
// typed as one; rewriteReturnInTry already preserves StmtList shape.
func rewriteReturnInTryList(c *Context, list *ir.StmtList) *ir.StmtList {
	return rewriteReturnInTry(c, list).(*ir.StmtList)
}

// buildExceptDispatch builds the "if current-exception is-of T1 { ... }
// else if is-of T2 { ... } else re-raise" chain spec.md §4.5 describes for
// the except state, binding each arm's exception variable first when
// present. Every arm gets its own dedicated entry state, created only once
// its ET entry (finallyIdx+1: an exception raised inside the handler is no
// longer caught by this same try, but the finally must still run on the
// way out) is the active handler — the exceptState itself only ever holds
// the type-dispatch chain and gotos to those arm states, so a raise before
// any yield in an arm body is never routed with whatever handler happened
// to be active before the try was entered.
func buildExceptDispatch(c *Context, arms []ir.ExceptArm, finallyIdx int, gotoFinally ir.Stmt) *ir.StmtList {
	// No arm matched: the exception is still live and must keep propagating
	// once this try's own finally has run, so :unrollFinally stays set
	// (rewriteRaise already turned it on when routing here in the first
	// place) rather than being cleared as if the exception were handled.
	reraise := &ir.StmtList{List: []ir.Stmt{gotoFinally}}

	var chain ir.Stmt = reraise
	for i := len(arms) - 1; i >= 0; i-- {
		arm := arms[i]
		// A matching arm handles the exception: clear :unrollFinally before
		// running its body so this try's own finally, entered afterwards by
		// the same gotoFinally every arm falls through to, treats the
		// completion as ordinary rather than as a still-propagating unwind.
		// :curExc stays set while the arm body runs (a bare re-raise needs
		// it) and is cleared once the body completes normally, so the
		// handled exception is not reported as escaping later.
		clear := ir.NewAssign(c.unrollFinallyVar(), ir.OpAssign, ir.NewLit(false))
		prefix := []ir.Stmt{clear}
		if arm.Var != nil {
			prefix = append(prefix, ir.NewAssign(arm.Var, ir.OpDefine, c.curExcVar()))
		}
		handled := ir.NewAssign(c.curExcVar(), ir.OpAssign, ir.NewLit(nil))
		body := &ir.StmtList{List: append(append(prefix, arm.Body.List...), handled)}

		var armState *State
		c.withNearestFinally(finallyIdx, func() {
			c.withExcHandling(finallyIdx+1, func() {
				armState = c.newState()
				armState.Body = splitStmtList(c, rewriteReturnInTryList(c, body), gotoFinally)
			})
		})
		armGoto := ir.NewGoto(armState.Index)

		if arm.Type.Kind == ir.TVoid {
			// bare `except:` catches anything; it terminates the chain.
			chain = armGoto
			continue
		}
		cond := ir.NewCall(ir.NewIdent("runtime.IsInstance"), c.curExcVar(), ir.NewLit(arm.Type.Name))
		chain = &ir.If{Cond: cond, Body: &ir.StmtList{List: []ir.Stmt{armGoto}}, Else: chain}
	}

	if list, ok := chain.(*ir.StmtList); ok {
		return list
	}
	return &ir.StmtList{List: []ir.Stmt{chain}}
}

// finallyEpilogue is what runs once the finally body itself finishes
// normally. A finally entered by ordinary fall-through (unrollFinally
// false) just continues to out; one entered to unwind a return (spec.md
// §4.3) completes it with :tmpResult; one entered to unwind a still
// -propagating exception routes onward exactly the way runtime.
// RouteException would from here, checking whatever enclosing except this
// try's own scope had installed before its own finally — never jumping
// straight past it to an enclosing finally the way a Return unwind does.
// This mirrors interp/reference.go's execTry, whose recover-based except
// check on the way out always runs before the enclosing try's own deferred
// finally.
//
// c.curExcHandlingState has already been restored, by the withExcHandling
// defer in splitTry/buildExceptDispatch, back to whatever ET entry was
// ambient just before this try started — precisely the entry a raise
// happening right after this try would itself be routed with. Decoding it
// here, at lowering time, is equivalent to calling runtime.RouteException
// with that entry at run time; there's no dynamic state to look up, so no
// call is needed.
func finallyEpilogue(c *Context, out ir.Stmt) ir.Stmt {
	var propagate ir.Stmt
	if target := decodeExcTarget(c.curExcHandlingState); target < 0 {
		// No enclosing except or finally at all: this try was the outermost
		// one, so the exception unwinds the call the same way rewriteRaise's
		// own "uncaught" branch does.
		propagate = &ir.Return{}
	} else {
		propagate = ir.NewGoto(target)
	}
	unwind := &ir.If{
		Cond: ir.NewBinary(c.curExcVar(), ir.OpNe, ir.NewLit(nil)),
		Body: &ir.StmtList{List: []ir.Stmt{propagate}},
		Else: &ir.StmtList{List: []ir.Stmt{&ir.Return{X: c.tmpResultVar()}}},
	}
	return &ir.If{
		Cond: c.unrollFinallyVar(),
		Body: &ir.StmtList{List: []ir.Stmt{unwind}},
		Else: &ir.StmtList{List: []ir.Stmt{out}},
	}
}

// decodeExcTarget decodes an exception-table entry into the state index a
// raise routed by it must jump to, or -1 if it is uncaught: the same
// negative/positive/offset-by-one scheme runtime.RouteException decodes
// from a table lookup, applied here to an entry already known statically.
func decodeExcTarget(entry int) int {
	switch {
	case entry == 0:
		return -1
	case entry < 0:
		return -entry - 1
	default:
		return entry - 1
	}
}
