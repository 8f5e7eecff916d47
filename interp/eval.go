package interp

import (
	"fmt"

	"github.com/genstate/closureiter/ir"
)

// evalSimpleExpr evaluates every expression kind whose meaning is identical
// before and after lowering: literals, identifiers, arithmetic, indexing,
// field access, composite constructors, and calls. yield gives ir.Yield its
// meaning (Reference suspends onto a channel; Flat panics, since no Yield
// node survives lowering) and call resolves a *ir.Call's callee by name.
func evalSimpleExpr(env Env, e ir.Expr, yield func(*ir.Yield) any, call func(name string, args []any) any) any {
	switch e := e.(type) {
	case nil:
		return nil
	case *ir.Lit:
		return e.Value
	case *ir.Ident:
		return env.Get(e.Name)
	case *ir.BinaryExpr:
		if e.Op == ir.OpLAnd {
			x := evalSimpleExpr(env, e.X, yield, call)
			if !toBool(x) {
				return false
			}
			return toBool(evalSimpleExpr(env, e.Y, yield, call))
		}
		if e.Op == ir.OpLOr {
			x := evalSimpleExpr(env, e.X, yield, call)
			if toBool(x) {
				return true
			}
			return toBool(evalSimpleExpr(env, e.Y, yield, call))
		}
		x := evalSimpleExpr(env, e.X, yield, call)
		y := evalSimpleExpr(env, e.Y, yield, call)
		return evalBinary(e.Op, x, y)
	case *ir.UnaryExpr:
		return evalUnary(e.Op, evalSimpleExpr(env, e.X, yield, call))
	case *ir.Cast:
		return evalCast(e.Type, evalSimpleExpr(env, e.X, yield, call))
	case *ir.Call:
		name := callName(e.Fun)
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = evalSimpleExpr(env, a, yield, call)
		}
		return call(name, args)
	case *ir.IndexExpr:
		x := evalSimpleExpr(env, e.X, yield, call)
		i := evalSimpleExpr(env, e.Index, yield, call)
		return indexValue(x, i)
	case *ir.SelectorExpr:
		return selectorValue(evalSimpleExpr(env, e.X, yield, call), e.Sel)
	case *ir.TupleConstr:
		return evalList(env, e.Elts, yield, call)
	case *ir.ArrayConstr:
		return evalList(env, e.Elts, yield, call)
	case *ir.ObjConstr:
		obj := map[string]any{}
		for _, f := range e.Fields {
			obj[f.Name] = evalSimpleExpr(env, f.Value, yield, call)
		}
		return obj
	case *ir.Yield:
		return yield(e)
	case *ir.StmtListExpr:
		panic("interp: StmtListExpr must not survive normalization")
	default:
		panic(fmt.Sprintf("interp: unhandled expression %T", e))
	}
}

func callName(fn ir.Expr) string {
	switch fn := fn.(type) {
	case *ir.Ident:
		return fn.Name
	case *ir.SelectorExpr:
		return callName(fn.X) + "." + fn.Sel
	default:
		return ""
	}
}

func evalList(env Env, elts []ir.Expr, yield func(*ir.Yield) any, call func(string, []any) any) []any {
	out := make([]any, len(elts))
	for i, e := range elts {
		out[i] = evalSimpleExpr(env, e, yield, call)
	}
	return out
}

func evalBinary(op ir.BinOp, x, y any) any {
	switch op {
	case ir.OpEq:
		return x == y
	case ir.OpNe:
		return x != y
	case ir.OpLt:
		return toFloat(x) < toFloat(y)
	case ir.OpLe:
		return toFloat(x) <= toFloat(y)
	case ir.OpGt:
		return toFloat(x) > toFloat(y)
	case ir.OpGe:
		return toFloat(x) >= toFloat(y)
	case ir.OpAdd:
		return addValues(x, y)
	case ir.OpSub:
		return toInt(x) - toInt(y)
	case ir.OpMul:
		return toInt(x) * toInt(y)
	case ir.OpDiv:
		return toInt(x) / toInt(y)
	default:
		panic(fmt.Sprintf("interp: unknown binary op %v", op))
	}
}

func evalUnary(op ir.UnaryOp, x any) any {
	switch op {
	case ir.OpNot:
		return !toBool(x)
	case ir.OpNeg:
		return -toInt(x)
	default:
		panic(fmt.Sprintf("interp: unknown unary op %v", op))
	}
}

func evalCast(t ir.Type, v any) any {
	switch t.Kind {
	case ir.TInt:
		return toInt(v)
	case ir.TBool:
		return toBool(v)
	default:
		return v
	}
}

func toInt(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int16:
		return int64(v)
	case float64:
		return int64(v)
	case nil:
		return 0
	default:
		panic(fmt.Sprintf("interp: %v (%T) is not numeric", v, v))
	}
}

func toFloat(v any) float64 {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case float64:
		return v
	default:
		panic(fmt.Sprintf("interp: %v (%T) is not numeric", v, v))
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func addValues(x, y any) any {
	if sx, ok := x.(string); ok {
		sy, _ := y.(string)
		return sx + sy
	}
	return toInt(x) + toInt(y)
}

func indexValue(x, i any) any {
	switch x := x.(type) {
	case []any:
		return x[toInt(i)]
	case map[string]any:
		k, _ := i.(string)
		return x[k]
	default:
		panic(fmt.Sprintf("interp: cannot index %T", x))
	}
}

func selectorValue(x any, sel string) any {
	m, ok := x.(map[string]any)
	if !ok {
		panic(fmt.Sprintf("interp: cannot select %q from %T", sel, x))
	}
	return m[sel]
}

func applyCompound(op ir.AssignOp, cur, val any) any {
	switch op {
	case ir.OpAddAssign:
		return evalBinary(ir.OpAdd, cur, val)
	case ir.OpSubAssign:
		return evalBinary(ir.OpSub, cur, val)
	case ir.OpMulAssign:
		return evalBinary(ir.OpMul, cur, val)
	case ir.OpDivAssign:
		return evalBinary(ir.OpDiv, cur, val)
	default:
		return val
	}
}

// assignTo stores val into lhs, shared by Reference and Flat since an
// assignment target's evaluation rules don't change across lowering.
func assignTo(env Env, lhs ir.Expr, val any, yield func(*ir.Yield) any, call func(string, []any) any) {
	switch lhs := lhs.(type) {
	case *ir.Ident:
		env.Set(lhs.Name, val)
	case *ir.IndexExpr:
		x := evalSimpleExpr(env, lhs.X, yield, call)
		i := evalSimpleExpr(env, lhs.Index, yield, call)
		switch x := x.(type) {
		case []any:
			x[toInt(i)] = val
		case map[string]any:
			k, _ := i.(string)
			x[k] = val
		default:
			panic(fmt.Sprintf("interp: cannot assign into %T", x))
		}
	case *ir.SelectorExpr:
		x := evalSimpleExpr(env, lhs.X, yield, call)
		m, ok := x.(map[string]any)
		if !ok {
			panic(fmt.Sprintf("interp: cannot assign field %q on %T", lhs.Sel, x))
		}
		m[lhs.Sel] = val
	default:
		panic(fmt.Sprintf("interp: unsupported assignment target %T", lhs))
	}
}
