package lower

import "github.com/genstate/closureiter/ir"

// normalizeStmtList is C2: it hoists every side-effecting sub-expression
// that contains a yield out of a compound expression context, so that after
// it runs a yield's immediate parent is always a statement, never a nested
// expression (spec.md §4.2). It is invoked once on the whole function body
// before splitting, and again by C5 on any individual statement-list child
// that the splitter finds still has a yield buried in expression context
// (spec.md §4.5, "if the child contains yields in expression context,
// invoke C2 on it first").
func normalizeStmtList(c *Context, list *ir.StmtList) *ir.StmtList {
	if list == nil {
		return nil
	}
	out := make([]ir.Stmt, 0, len(list.List))
	for _, s := range list.List {
		out = append(out, normalizeStmt(c, s)...)
	}
	return &ir.StmtList{List: out}
}

// normalizeStmt returns the statements that replace s: usually one, but a
// hoisted prologue (from a normalised sub-expression) followed by the
// rewritten statement.
func normalizeStmt(c *Context, s ir.Stmt) []ir.Stmt {
	if s == nil {
		return nil
	}
	switch s := s.(type) {
	case *ir.StmtList:
		return []ir.Stmt{normalizeStmtList(c, s)}

	case *ir.ExprStmt:
		if y, ok := s.X.(*ir.Yield); ok {
			pro, val := hoist(c, y.Value)
			return append(pro, &ir.ExprStmt{X: &ir.Yield{Value: val}})
		}
		pro, val := hoist(c, s.X)
		return append(pro, &ir.ExprStmt{X: val})

	case *ir.If:
		condPro, condVal := hoistCond(c, s.Cond)
		body := normalizeStmtList(c, s.Body)
		els := normalizeElse(c, s.Else)
		return append(condPro, &ir.If{Cond: condVal, Body: body, Else: els})

	case *ir.Case:
		selPro, selVal := hoistCond(c, s.Selector)
		arms := make([]ir.CaseArm, len(s.Arms))
		for i, arm := range s.Arms {
			arms[i] = ir.CaseArm{Values: arm.Values, Body: normalizeStmtList(c, arm.Body)}
		}
		return append(selPro, &ir.Case{Selector: selVal, Arms: arms})

	case *ir.Try:
		body := normalizeStmtList(c, s.Body)
		except := make([]ir.ExceptArm, len(s.Except))
		for i, ex := range s.Except {
			except[i] = ir.ExceptArm{Type: ex.Type, Var: ex.Var, Body: normalizeStmtList(c, ex.Body)}
		}
		var fin *ir.StmtList
		if s.Finally != nil {
			fin = normalizeStmtList(c, s.Finally)
		}
		return []ir.Stmt{&ir.Try{Body: body, Except: except, Finally: fin}}

	case *ir.Raise:
		pro, val := hoistTop(c, s.X)
		return append(pro, &ir.Raise{X: val})

	case *ir.Return:
		pro, val := hoistTop(c, s.X)
		return append(pro, &ir.Return{X: val})

	case *ir.VarSection:
		pro, val := hoistTop(c, s.Init)
		return append(pro, &ir.VarSection{Name: s.Name, Type: s.Type, Init: val})

	case *ir.Assign:
		lhsPro, lhsVal := hoist(c, s.Lhs)
		rhsPro, rhsVal := hoistTop(c, s.Rhs)
		pro := append(lhsPro, rhsPro...)
		return append(pro, &ir.Assign{Lhs: lhsVal, Op: s.Op, Rhs: rhsVal})

	case *ir.While:
		if isYield(s.Cond) || ir.ContainsYield(s.Cond) {
			// Mirror the teacher's `for ; cond; post` rewrite in
			// compiler/desugar.go: a yielding condition can't be
			// re-evaluated as a loop header, so it becomes an
			// explicit guard at the top of the body instead.
			condPro, condVal := hoistCond(c, s.Cond)
			guard := &ir.If{
				Cond: &ir.UnaryExpr{Op: ir.OpNot, X: condVal},
				Body: &ir.StmtList{List: []ir.Stmt{&ir.Break{}}},
			}
			body := normalizeStmtList(c, s.Body)
			body.List = append(append(condPro, guard), body.List...)
			return []ir.Stmt{&ir.While{Cond: ir.NewLit(true), Body: body, Label: s.Label}}
		}
		return []ir.Stmt{&ir.While{Cond: s.Cond, Body: normalizeStmtList(c, s.Body), Label: s.Label}}

	case *ir.Block:
		return []ir.Stmt{&ir.Block{Label: s.Label, Body: normalizeStmtList(c, s.Body)}}

	default:
		// Break, Continue, GotoState: leaves, nothing to hoist.
		return []ir.Stmt{s}
	}
}

func normalizeElse(c *Context, els ir.Stmt) ir.Stmt {
	if els == nil {
		return nil
	}
	stmts := normalizeStmt(c, els)
	if len(stmts) == 1 {
		if _, ok := stmts[0].(*ir.StmtList); ok {
			return stmts[0]
		}
	}
	return &ir.StmtList{List: stmts}
}

func isYield(e ir.Expr) bool {
	_, ok := e.(*ir.Yield)
	return ok
}

// hoistTop normalises an expression that already sits in a "top level"
// statement slot (an ExprStmt's operand, a Return/Raise value, a
// VarSection initialiser, an Assign's RHS). A bare yield in one of these
// positions is already exactly as spec.md wants it and is left alone
// (only its own operand is normalised); anything else containing a yield
// is decomposed via hoist.
func hoistTop(c *Context, e ir.Expr) ([]ir.Stmt, ir.Expr) {
	if e == nil {
		return nil, nil
	}
	if y, ok := e.(*ir.Yield); ok {
		pro, val := hoist(c, y.Value)
		return pro, &ir.Yield{Value: val}
	}
	if !ir.ContainsYield(e) {
		return nil, e
	}
	return hoist(c, e)
}

// hoistCond normalises an expression sitting in a branching position (an
// If condition, a Case selector, a While condition). Unlike hoistTop, a
// bare yield here is still forced into a temporary: branching directly on
// a suspension point is not a legal state boundary (spec.md §4.2, "If
// (stmt or expr form)" / "case" / "while" rows).
func hoistCond(c *Context, e ir.Expr) ([]ir.Stmt, ir.Expr) {
	if e == nil {
		return nil, nil
	}
	if !ir.ContainsYield(e) {
		if _, ok := e.(*ir.Yield); !ok {
			return nil, e
		}
	}
	return hoist(c, e)
}

// hoist is the workhorse: it decomposes a yield-containing expression into
// a statement prologue plus a yield-free value expression, per the rule
// table in spec.md §4.2.
func hoist(c *Context, e ir.Expr) ([]ir.Stmt, ir.Expr) {
	if e == nil {
		return nil, nil
	}
	if !ir.ContainsYield(e) {
		if _, ok := e.(*ir.Yield); !ok {
			return nil, e
		}
	}

	switch e := e.(type) {
	case *ir.Yield:
		pro, val := hoist(c, e.Value)
		tmp := c.newTemp(ir.Any)
		assign := ir.NewAssign(tmp, ir.OpDefine, &ir.Yield{Value: val})
		return append(pro, assign), tmp

	case *ir.StmtListExpr:
		var pro []ir.Stmt
		for _, s := range e.Stmts {
			pro = append(pro, normalizeStmt(c, s)...)
		}
		valPro, val := hoist(c, e.Value)
		return append(pro, valPro...), val

	case *ir.BinaryExpr:
		if e.Op == ir.OpLAnd || e.Op == ir.OpLOr {
			return hoistShortCircuit(c, e)
		}
		xPro, xVal := hoist(c, e.X)
		yPro, yVal := hoist(c, e.Y)
		return append(xPro, yPro...), &ir.BinaryExpr{X: xVal, Op: e.Op, Y: yVal}

	case *ir.UnaryExpr:
		pro, val := hoist(c, e.X)
		return pro, &ir.UnaryExpr{Op: e.Op, X: val}

	case *ir.Cast:
		pro, val := hoist(c, e.X)
		return pro, &ir.Cast{Type: e.Type, X: val}

	case *ir.IndexExpr:
		xPro, xVal := hoist(c, e.X)
		iPro, iVal := hoist(c, e.Index)
		return append(xPro, iPro...), &ir.IndexExpr{X: xVal, Index: iVal}

	case *ir.SelectorExpr:
		pro, val := hoist(c, e.X)
		return pro, &ir.SelectorExpr{X: val, Sel: e.Sel}

	case *ir.Call:
		funPro, funVal := hoist(c, e.Fun)
		pro := funPro
		args := make([]ir.Expr, len(e.Args))
		multi := len(e.Args) > 1
		for i, arg := range e.Args {
			argPro, argVal := hoist(c, arg)
			if multi && len(argPro) == 0 {
				// Preserve left-to-right evaluation order even for
				// call-kind arguments that don't themselves yield
				// (spec.md §4.2: "also spill every non-literal
				// call-kind argument").
				if _, isCall := argVal.(*ir.Call); isCall {
					tmp := c.newTemp(ir.Any)
					argPro = append(argPro, ir.NewAssign(tmp, ir.OpDefine, argVal))
					argVal = tmp
				}
			}
			pro = append(pro, argPro...)
			args[i] = argVal
		}
		return pro, &ir.Call{Fun: funVal, Args: args}

	case *ir.TupleConstr:
		pro, elts := hoistExprList(c, e.Elts)
		return pro, &ir.TupleConstr{Elts: elts}

	case *ir.ArrayConstr:
		pro, elts := hoistExprList(c, e.Elts)
		return pro, &ir.ArrayConstr{Elts: elts}

	case *ir.ObjConstr:
		var pro []ir.Stmt
		fields := make([]ir.ObjField, len(e.Fields))
		for i, f := range e.Fields {
			fPro, fVal := hoist(c, f.Value)
			pro = append(pro, fPro...)
			fields[i] = ir.ObjField{Name: f.Name, Value: fVal}
		}
		return pro, &ir.ObjConstr{Type: e.Type, Fields: fields}

	default:
		return nil, e
	}
}

func hoistExprList(c *Context, elts []ir.Expr) ([]ir.Stmt, []ir.Expr) {
	var pro []ir.Stmt
	out := make([]ir.Expr, len(elts))
	for i, e := range elts {
		p, v := hoist(c, e)
		pro = append(pro, p...)
		out[i] = v
	}
	return pro, out
}

// hoistShortCircuit rewrites `x and y` / `x or y` into an explicit branch
// so that y (which may yield) is only evaluated when required (spec.md
// §4.2, "Short-circuit and / or" row).
func hoistShortCircuit(c *Context, e *ir.BinaryExpr) ([]ir.Stmt, ir.Expr) {
	xPro, xVal := hoist(c, e.X)
	tmp := c.newTemp(ir.Bool)
	decl := &ir.VarSection{Name: tmp, Type: ir.Bool}

	yPro, yVal := hoist(c, e.Y)
	setY := append(yPro, ir.NewAssign(tmp, ir.OpAssign, yVal))
	setShort := []ir.Stmt{ir.NewAssign(tmp, ir.OpAssign, ir.NewLit(e.Op == ir.OpLOr))}

	var branch *ir.If
	if e.Op == ir.OpLAnd {
		branch = &ir.If{Cond: xVal, Body: &ir.StmtList{List: setY}, Else: &ir.StmtList{List: setShort}}
	} else {
		branch = &ir.If{Cond: xVal, Body: &ir.StmtList{List: setShort}, Else: &ir.StmtList{List: setY}}
	}

	pro := append(xPro, decl, branch)
	return pro, tmp
}
