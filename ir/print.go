package ir

import (
	"fmt"
	"strings"
)

// Sprint renders s as indented pseudo-code. It exists for the same reason
// compiler/desugar_test.go formats its expected trees with go/format: a
// table-driven test comparing trees is unreadable, comparing their printed
// text is not. Sprint is test scaffolding, not a code generator — it never
// claims to produce valid source in any concrete target language.
func Sprint(s Stmt) string {
	var b strings.Builder
	printStmt(&b, s, 0)
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func printStmt(b *strings.Builder, s Stmt, depth int) {
	if s == nil {
		return
	}
	indent(b, depth)
	switch s := s.(type) {
	case *StmtList:
		b.WriteString("{\n")
		for _, c := range s.List {
			printStmt(b, c, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *ExprStmt:
		fmt.Fprintf(b, "%s\n", printExpr(s.X))
	case *If:
		fmt.Fprintf(b, "if %s\n", printExpr(s.Cond))
		printStmt(b, s.Body, depth)
		if s.Else != nil {
			indent(b, depth)
			b.WriteString("else\n")
			printStmt(b, s.Else, depth)
		}
	case *Case:
		fmt.Fprintf(b, "case %s\n", printExpr(s.Selector))
		for _, arm := range s.Arms {
			indent(b, depth+1)
			if arm.Values == nil {
				b.WriteString("else:\n")
			} else {
				parts := make([]string, len(arm.Values))
				for i, v := range arm.Values {
					parts[i] = printExpr(v)
				}
				fmt.Fprintf(b, "of %s:\n", strings.Join(parts, ", "))
			}
			printStmt(b, arm.Body, depth+2)
		}
	case *Try:
		b.WriteString("try\n")
		printStmt(b, s.Body, depth)
		for _, ex := range s.Except {
			indent(b, depth)
			if ex.Type.Kind == TVoid {
				b.WriteString("except:\n")
			} else {
				fmt.Fprintf(b, "except %s:\n", ex.Type.Name)
			}
			printStmt(b, ex.Body, depth)
		}
		if s.Finally != nil {
			indent(b, depth)
			b.WriteString("finally:\n")
			printStmt(b, s.Finally, depth)
		}
	case *Raise:
		if s.X == nil {
			b.WriteString("raise\n")
		} else {
			fmt.Fprintf(b, "raise %s\n", printExpr(s.X))
		}
	case *Return:
		if s.X == nil {
			b.WriteString("return\n")
		} else {
			fmt.Fprintf(b, "return %s\n", printExpr(s.X))
		}
	case *While:
		label := ""
		if s.Label != "" {
			label = s.Label + ": "
		}
		fmt.Fprintf(b, "%swhile %s\n", label, printExpr(s.Cond))
		printStmt(b, s.Body, depth)
	case *Block:
		label := ""
		if s.Label != "" {
			label = s.Label + ": "
		}
		fmt.Fprintf(b, "%sblock\n", label)
		printStmt(b, s.Body, depth)
	case *Break:
		if s.Label == "" {
			b.WriteString("break\n")
		} else {
			fmt.Fprintf(b, "break %s\n", s.Label)
		}
	case *Continue:
		if s.Label == "" {
			b.WriteString("continue\n")
		} else {
			fmt.Fprintf(b, "continue %s\n", s.Label)
		}
	case *VarSection:
		if s.Init == nil {
			fmt.Fprintf(b, "var %s\n", s.Name.Name)
		} else {
			fmt.Fprintf(b, "var %s = %s\n", s.Name.Name, printExpr(s.Init))
		}
	case *Assign:
		fmt.Fprintf(b, "%s %s %s\n", printExpr(s.Lhs), assignOpStr(s.Op), printExpr(s.Rhs))
	case *GotoState:
		fmt.Fprintf(b, "goto-state %d\n", s.Target)
	default:
		fmt.Fprintf(b, "<unknown stmt %T>\n", s)
	}
}

func assignOpStr(op AssignOp) string {
	switch op {
	case OpDefine:
		return ":="
	case OpAddAssign:
		return "+="
	case OpSubAssign:
		return "-="
	case OpMulAssign:
		return "*="
	case OpDivAssign:
		return "/="
	default:
		return "="
	}
}

func printExpr(e Expr) string {
	if e == nil {
		return ""
	}
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *Lit:
		return fmt.Sprintf("%v", e.Value)
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", printExpr(e.X), binOpStr(e.Op), printExpr(e.Y))
	case *UnaryExpr:
		if e.Op == OpNot {
			return fmt.Sprintf("!%s", printExpr(e.X))
		}
		return fmt.Sprintf("-%s", printExpr(e.X))
	case *Call:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", printExpr(e.Fun), strings.Join(parts, ", "))
	case *Cast:
		return fmt.Sprintf("%s(%s)", e.Type.Name, printExpr(e.X))
	case *TupleConstr:
		parts := make([]string, len(e.Elts))
		for i, v := range e.Elts {
			parts[i] = printExpr(v)
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	case *ArrayConstr:
		parts := make([]string, len(e.Elts))
		for i, v := range e.Elts {
			parts[i] = printExpr(v)
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case *ObjConstr:
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, printExpr(f.Value))
		}
		return fmt.Sprintf("%s{%s}", e.Type.Name, strings.Join(parts, ", "))
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", printExpr(e.X), printExpr(e.Index))
	case *SelectorExpr:
		return fmt.Sprintf("%s.%s", printExpr(e.X), e.Sel)
	case *Yield:
		if e.Value == nil {
			return "yield"
		}
		return fmt.Sprintf("yield %s", printExpr(e.Value))
	case *StmtListExpr:
		return "(stmt-list-expr)"
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func binOpStr(op BinOp) string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLAnd:
		return "and"
	case OpLOr:
		return "or"
	default:
		return "?"
	}
}
