package lower

import "github.com/genstate/closureiter/ir"

// rewriteReturnInTry is C3: inside a try whose enclosing finally state is
// known, `return e` becomes "store e; set the unroll flag; clear the
// pending exception; goto the nearest finally" (spec.md §4.3). It descends
// through lists, if, case, while and block (this module's ir has no nested
// function definitions inside a Stmt tree) and leaves a nested try
// untouched: C5 calls it again on that try's bodies with nearestFinally
// updated to the nested try's own finally, so every Return is rewritten
// against its *closest* enclosing finally.
//
// This file only rewrites nodes reachable from a try body/except body that
// C5 is currently splitting; c.nearestFinally being -1 (no enclosing try)
// means there is nothing to rewrite and the Return is left alone for C6 to
// turn into a plain `:state := -1; return`.
func rewriteReturnInTry(c *Context, s ir.Stmt) ir.Stmt {
	if c.nearestFinally < 0 {
		return s
	}
	switch s := s.(type) {
	case nil:
		return nil
	case *ir.StmtList:
		out := make([]ir.Stmt, len(s.List))
		for i, child := range s.List {
			out[i] = rewriteReturnInTry(c, child)
		}
		return &ir.StmtList{List: out}
	case *ir.Return:
		var body []ir.Stmt
		if s.X != nil {
			body = append(body, ir.NewAssign(c.tmpResultVar(), ir.OpAssign, s.X))
		}
		body = append(body,
			ir.NewAssign(c.unrollFinallyVar(), ir.OpAssign, ir.NewLit(true)),
			ir.NewAssign(c.curExcVar(), ir.OpAssign, ir.NewLit(nil)),
			ir.NewGoto(c.nearestFinally),
		)
		return &ir.StmtList{List: body}
	case *ir.If:
		return &ir.If{Cond: s.Cond, Body: rewriteReturnInTry(c, s.Body).(*ir.StmtList), Else: rewriteReturnInTry(c, s.Else)}
	case *ir.Case:
		arms := make([]ir.CaseArm, len(s.Arms))
		for i, a := range s.Arms {
			arms[i] = ir.CaseArm{Values: a.Values, Body: rewriteReturnInTry(c, a.Body).(*ir.StmtList)}
		}
		return &ir.Case{Selector: s.Selector, Arms: arms}
	case *ir.Try:
		// A nested try does not shield returns from this rewrite: C5
		// re-enters rewriteReturnInTry with nearestFinally updated to
		// the nested try's own finally before it splits the nested
		// try's body, so by the time control returns here the nested
		// try has already been fully processed by the recursive call
		// that split it.
		return s
	case *ir.While:
		return &ir.While{Cond: s.Cond, Body: rewriteReturnInTry(c, s.Body).(*ir.StmtList), Label: s.Label}
	case *ir.Block:
		return &ir.Block{Label: s.Label, Body: rewriteReturnInTry(c, s.Body).(*ir.StmtList)}
	default:
		return s
	}
}
