package lower

import (
	"testing"

	"github.com/genstate/closureiter/ir"
)

// TestSplitTryExceptTableEncoding covers the Open Question resolution
// recorded in SPEC_FULL.md and DESIGN.md: a try with an except arm gets a
// negative ET entry naming the except state; a try/finally with no except
// still gets a nonzero, positive ET entry naming the finally state
// directly, never zero.
func TestSplitTryExceptTableEncoding(t *testing.T) {
	t.Run("with except", func(t *testing.T) {
		c := NewContext(ir.Void, nil)
		try := &ir.Try{
			Body: ir.NewStmtList(&ir.Raise{X: ir.NewLit("boom")}),
			Except: []ir.ExceptArm{
				{Type: ir.Custom("ValueError"), Body: ir.NewStmtList()},
			},
		}
		result := splitStmt(c, try, ir.NewGoto(-1))

		g, ok := ir.EndsInGoto(result)
		if !ok {
			t.Fatalf("splitTry should return a goto to its own dedicated entry state, got %s", ir.Sprint(result))
		}
		if got := c.exceptTable[g.Target]; got >= 0 {
			t.Errorf("try with an except arm should get a negative ET entry, got %d", got)
		}
	})

	t.Run("finally only", func(t *testing.T) {
		c := NewContext(ir.Void, nil)
		try := &ir.Try{
			Body:    ir.NewStmtList(&ir.ExprStmt{X: ir.NewCall(ir.NewIdent("f"))}),
			Finally: ir.NewStmtList(&ir.ExprStmt{X: ir.NewCall(ir.NewIdent("cleanup"))}),
		}
		result := splitStmt(c, try, ir.NewGoto(-1))

		g, ok := ir.EndsInGoto(result)
		if !ok {
			t.Fatalf("splitTry should return a goto to its own dedicated entry state, got %s", ir.Sprint(result))
		}
		got := c.exceptTable[g.Target]
		if got <= 0 {
			t.Errorf("try/finally with no except should get a positive, nonzero ET entry, got %d", got)
		}
	})
}

// TestSplitWhileRelocatesBreak checks that splitWhile actually invokes
// relocation before splitting: an unlabelled break inside the loop must
// become the loop's out-edge, not survive into the lowered body.
func TestSplitWhileRelocatesBreak(t *testing.T) {
	c := NewContext(ir.Void, nil)
	entry := c.newState()
	out := ir.NewGoto(-1)

	loop := &ir.While{
		Cond: ir.NewLit(true),
		Body: ir.NewStmtList(
			ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}),
			&ir.Break{},
		),
	}
	entry.Body = ir.NewStmtList(splitStmt(c, loop, out))

	ir.Inspect(entry.Body, func(n ir.Node) bool {
		if _, ok := n.(*ir.Break); ok {
			t.Fatalf("break should have been relocated away, found one still in the tree")
		}
		return true
	})
}
