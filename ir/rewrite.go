package ir

// Inspect visits every statement and expression in the tree rooted at n,
// depth first. f returns false to stop descending into a node's children.
// This mirrors go/ast.Inspect (and, by extension, the way the teacher's
// compiler/decls.go and compiler/function.go use ast.Inspect to scan a
// function body without needing to rewrite it).
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *StmtList:
		for _, s := range n.List {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
		Inspect(n.Else, f)
	case *Case:
		Inspect(n.Selector, f)
		for i := range n.Arms {
			for _, v := range n.Arms[i].Values {
				Inspect(v, f)
			}
			Inspect(n.Arms[i].Body, f)
		}
	case *Try:
		Inspect(n.Body, f)
		for i := range n.Except {
			Inspect(n.Except[i].Var, f)
			Inspect(n.Except[i].Body, f)
		}
		if n.Finally != nil {
			Inspect(n.Finally, f)
		}
	case *Raise:
		Inspect(n.X, f)
	case *Return:
		Inspect(n.X, f)
	case *While:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *Block:
		Inspect(n.Body, f)
	case *VarSection:
		Inspect(n.Name, f)
		Inspect(n.Init, f)
	case *Assign:
		Inspect(n.Lhs, f)
		Inspect(n.Rhs, f)
	case *StmtListExpr:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
		Inspect(n.Value, f)
	case *BinaryExpr:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *UnaryExpr:
		Inspect(n.X, f)
	case *Call:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Cast:
		Inspect(n.X, f)
	case *TupleConstr:
		for _, e := range n.Elts {
			Inspect(e, f)
		}
	case *ObjConstr:
		for _, fld := range n.Fields {
			Inspect(fld.Value, f)
		}
	case *ArrayConstr:
		for _, e := range n.Elts {
			Inspect(e, f)
		}
	case *Yield:
		Inspect(n.Value, f)
	case *IndexExpr:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *SelectorExpr:
		Inspect(n.X, f)
	case *Break, *Continue, *GotoState, *Lit, *Ident, nil:
		// leaves
	}
}

// ContainsYield reports whether n contains a Yield node anywhere in its
// subtree. This is the predicate C2 and C5 use to decide whether a node
// needs normalising or splitting (spec.md §4.2, §4.5).
func ContainsYield(n Node) bool {
	found := false
	Inspect(n, func(node Node) bool {
		if found {
			return false
		}
		if _, ok := node.(*Yield); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// ContainsYieldInExprContext reports whether n has a Yield reachable
// without crossing a statement boundary that the splitter already knows how
// to carve at (spec.md §4.2: "If a yield appears inside such an expression
// used as an argument, a branch condition, or an assignment source"). It is
// used by C5 to decide whether a statement-list child needs a C2 pass
// before it is split.
func ContainsYieldInExprContext(s Stmt) bool {
	switch s := s.(type) {
	case *ExprStmt:
		return topYieldContainsYield(s.X)
	case *If:
		return exprContainsYield(s.Cond)
	case *Case:
		return exprContainsYield(s.Selector)
	case *Return:
		return s.X != nil && exprContainsYield(s.X)
	case *Raise:
		return s.X != nil && exprContainsYield(s.X)
	case *VarSection:
		return s.Init != nil && exprContainsYield(s.Init)
	case *Assign:
		return exprContainsYield(s.Lhs) || topYieldContainsYield(s.Rhs)
	case *While:
		return exprContainsYield(s.Cond)
	default:
		return false
	}
}

// topYieldContainsYield checks an expression sitting in one of the two
// positions lower/normalize.go's hoistTop already leaves alone when it is a
// bare yield — an ExprStmt's operand, an Assign's RHS: a bare `yield v` (or
// `tmp := yield v`) there is already exactly the canonical form the
// splitter handles directly, so it is not itself a hit. Only a yield
// nested inside that yield's own operand (e.g. `yield (yield v)`) still
// needs a C2 pass first.
func topYieldContainsYield(e Expr) bool {
	if y, ok := e.(*Yield); ok {
		return exprContainsYield(y.Value)
	}
	return exprContainsYield(e)
}

func exprContainsYield(e Expr) bool {
	if e == nil {
		return false
	}
	if _, ok := e.(*Yield); ok {
		return true
	}
	found := false
	Inspect(e, func(n Node) bool {
		if found {
			return false
		}
		if _, ok := n.(*Yield); ok {
			found = true
			return false
		}
		return true
	})
	return found
}
