package lower

import "github.com/genstate/closureiter/ir"

// materializeStates is C6: it turns every remaining GotoState edge into a
// concrete `:state = n` assignment, and every remaining Yield into a state
// assignment followed by an actual return of the yielded value (spec.md
// §4.6). By the time this runs, C5 has already eliminated every *ir.Try and
// relocated every *ir.Break/*ir.Continue, so the only node kinds left in a
// state body are StmtList, ExprStmt, If, Case, Assign, VarSection, Return,
// GotoState, and Raise (left for C8's lowerRaises).
//
// Two forms survive materialization, distinguished only by whether X is
// nil: Return{X: v} (v non-nil) means "suspend here, produce v"; Return{X:
// nil} means "the generator is exhausted". C8 reads exactly that signal
// when it emits the dispatcher shell.
func materializeStates(c *Context) {
	resumeInto := map[int]*ir.Ident{}
	for _, st := range c.states {
		st.Body = materializeList(c, st.Body, resumeInto)
	}
	for target, tmp := range resumeInto {
		st := c.states[target]
		st.Body.List = append([]ir.Stmt{ir.NewAssign(tmp, ir.OpAssign, c.sentVar())}, st.Body.List...)
	}
}

func materializeList(c *Context, list *ir.StmtList, resumeInto map[int]*ir.Ident) *ir.StmtList {
	var out []ir.Stmt
	items := list.List
	for i := 0; i < len(items); i++ {
		if val, tmp, ok := yieldValue(items[i]); ok && i+1 < len(items) {
			if g, ok2 := items[i+1].(*ir.GotoState); ok2 {
				out = append(out, ir.NewAssign(c.stateVar(), ir.OpAssign, ir.NewLit(int64(g.Target))))
				out = append(out, &ir.Return{X: val})
				if tmp != nil {
					resumeInto[g.Target] = tmp
				}
				i++
				continue
			}
		}
		out = append(out, materializeStmt(c, items[i], resumeInto))
	}
	return &ir.StmtList{List: out}
}

func materializeStmt(c *Context, s ir.Stmt, resumeInto map[int]*ir.Ident) ir.Stmt {
	switch s := s.(type) {
	case *ir.StmtList:
		return materializeList(c, s, resumeInto)

	case *ir.GotoState:
		return ir.NewAssign(c.stateVar(), ir.OpAssign, ir.NewLit(int64(s.Target)))

	case *ir.Return:
		var pre []ir.Stmt
		if s.X != nil {
			if id, ok := s.X.(*ir.Ident); !ok || id.Name != varTmpResult {
				pre = append(pre, ir.NewAssign(c.tmpResultVar(), ir.OpAssign, s.X))
			}
		}
		pre = append(pre, ir.NewAssign(c.stateVar(), ir.OpAssign, ir.NewLit(int64(-1))))
		pre = append(pre, &ir.Return{})
		return &ir.StmtList{List: pre}

	case *ir.If:
		return &ir.If{
			Cond: s.Cond,
			Body: materializeList(c, s.Body, resumeInto),
			Else: materializeElse(c, s.Else, resumeInto),
		}

	case *ir.Case:
		arms := make([]ir.CaseArm, len(s.Arms))
		for i, a := range s.Arms {
			arms[i] = ir.CaseArm{Values: a.Values, Body: materializeList(c, a.Body, resumeInto)}
		}
		return &ir.Case{Selector: s.Selector, Arms: arms}

	case *ir.Break, *ir.Continue:
		invariant("C6", false, "break/continue survived splitting: %T", s)
		return s

	default:
		// Assign, VarSection, Raise: nothing left to materialize.
		return s
	}
}

func materializeElse(c *Context, els ir.Stmt, resumeInto map[int]*ir.Ident) ir.Stmt {
	if els == nil {
		return nil
	}
	return materializeStmt(c, els, resumeInto)
}

// yieldValue reports whether s is a bare `yield v` or `tmp := yield v`
// statement, returning the yielded value and, for the assignment form, the
// identifier to fill in with the caller's resume argument once execution
// reaches whatever state follows.
func yieldValue(s ir.Stmt) (val ir.Expr, resumeTmp *ir.Ident, ok bool) {
	switch s := s.(type) {
	case *ir.ExprStmt:
		if y, isYield := s.X.(*ir.Yield); isYield {
			return y.Value, nil, true
		}
	case *ir.Assign:
		if y, isYield := s.Rhs.(*ir.Yield); isYield {
			if id, isIdent := s.Lhs.(*ir.Ident); isIdent {
				return y.Value, id, true
			}
		}
	}
	return nil, nil, false
}
