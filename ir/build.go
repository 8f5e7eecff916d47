package ir

// PosAlloc hands out increasing Pos values so that synthesised nodes (state
// bodies, goto-state edges, hoisted temporaries) get a stable identity
// without touching a real source position.
type PosAlloc struct{ next Pos }

func (a *PosAlloc) Next() Pos {
	a.next++
	return a.next
}

// The New* helpers below exist for the same reason the teacher reaches for
// ast.NewIdent / &ast.BlockStmt{...} everywhere in compiler/decls.go and
// compiler/desugar.go: constructing synthetic nodes should read as a single
// expression at the call site rather than a struct literal with the
// embedded baseStmt/baseExpr spelled out.

func NewIdent(name string) *Ident { return &Ident{Name: name} }

func NewLit(v any) *Lit { return &Lit{Value: v} }

func NewStmtList(stmts ...Stmt) *StmtList { return &StmtList{List: stmts} }

func NewExprStmt(x Expr) *ExprStmt { return &ExprStmt{X: x} }

func NewGoto(target int) *GotoState { return &GotoState{Target: target} }

func NewAssign(lhs Expr, op AssignOp, rhs Expr) *Assign {
	return &Assign{Lhs: lhs, Op: op, Rhs: rhs}
}

func NewIf(cond Expr, body *StmtList, els Stmt) *If {
	return &If{Cond: cond, Body: body, Else: els}
}

func NewBinary(x Expr, op BinOp, y Expr) *BinaryExpr {
	return &BinaryExpr{X: x, Op: op, Y: y}
}

func NewUnary(op UnaryOp, x Expr) *UnaryExpr {
	return &UnaryExpr{Op: op, X: x}
}

func NewCall(fn Expr, args ...Expr) *Call {
	return &Call{Fun: fn, Args: args}
}

// EndsInGoto reports whether a state body consists of nothing but a single
// bare goto-state, per spec.md §4.7's "single goto-state" test for dead-state
// detection. Statement-list wrappers are skipped, matching "after skipping
// statement-list wrappers" in §4.7; a list holding any other statement
// besides the goto reports false, even when the goto is its last statement.
func EndsInGoto(s Stmt) (*GotoState, bool) {
	for {
		list, ok := s.(*StmtList)
		if !ok {
			break
		}
		if len(list.List) != 1 {
			return nil, false
		}
		s = list.List[0]
	}
	g, ok := s.(*GotoState)
	return g, ok
}

// LastStmt returns the final statement of a statement list, or nil.
func LastStmt(list *StmtList) Stmt {
	if len(list.List) == 0 {
		return nil
	}
	return list.List[len(list.List)-1]
}
