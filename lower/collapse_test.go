package lower

import (
	"testing"

	"github.com/genstate/closureiter/ir"
)

// TestCollapseStatesElidesGotoOnlyState covers spec.md §4.7: a state whose
// entire body is a single goto-state contributes nothing but an extra hop
// and is dropped, with every edge that targeted it redirected straight to
// its own target.
func TestCollapseStatesElidesGotoOnlyState(t *testing.T) {
	c := NewContext(ir.Void, nil)

	s0 := c.newState() // entry: yields, then jumps to the dead hop
	s1 := c.newState() // dead: nothing but a goto to s2
	s2 := c.newState() // real work

	s0.Body = ir.NewStmtList(ir.NewExprStmt(&ir.Yield{Value: ir.NewLit(int64(1))}), ir.NewGoto(s1.Index))
	s1.Body = ir.NewStmtList(ir.NewGoto(s2.Index))
	s2.Body = ir.NewStmtList(&ir.Return{})

	entry := collapseStates(c, s0.Index)

	if len(c.states) != 2 {
		t.Fatalf("expected 2 surviving states, got %d: %v", len(c.states), c.states)
	}
	if entry != 0 {
		t.Errorf("entry should renumber to 0, got %d", entry)
	}
	g, ok := ir.LastStmt(c.states[0].Body).(*ir.GotoState)
	if !ok {
		t.Fatalf("expected state 0's body to end in a goto, got %s", ir.Sprint(c.states[0].Body))
	}
	if g.Target != 1 {
		t.Errorf("state 0's goto should redirect straight to the renumbered s2 (1), got %d", g.Target)
	}
}

// TestCollapseStatesPreservesExitSentinel checks that a goto-state target of
// -1 (the exit sentinel) is never treated as a real state index during
// remapping.
func TestCollapseStatesPreservesExitSentinel(t *testing.T) {
	c := NewContext(ir.Void, nil)
	s0 := c.newState()
	s1 := c.newState()
	s0.Body = ir.NewStmtList(ir.NewGoto(s1.Index))
	s1.Body = ir.NewStmtList(ir.NewGoto(-1))

	entry := collapseStates(c, s0.Index)

	if len(c.states) != 1 {
		t.Fatalf("expected 1 surviving state, got %d", len(c.states))
	}
	if entry != 0 {
		t.Errorf("entry should renumber to 0, got %d", entry)
	}
	g, ok := ir.EndsInGoto(c.states[0].Body)
	if !ok || g.Target != -1 {
		t.Errorf("exit sentinel must survive remapping unchanged, got %#v ok=%v", g, ok)
	}
}

// TestCollapseStatesSharedGotoPointer covers the aliasing hazard: split.go
// deliberately reuses one *ir.GotoState across sibling branches (an if/else
// common out-edge). Collapsing must remap it exactly once and have both
// aliases observe the new value.
func TestCollapseStatesSharedGotoPointer(t *testing.T) {
	c := NewContext(ir.Void, nil)
	s0 := c.newState()
	s1 := c.newState() // dead: goto-only
	s2 := c.newState()

	shared := ir.NewGoto(s1.Index)
	s0.Body = ir.NewStmtList(&ir.If{
		Cond: ir.NewIdent("x"),
		Body: ir.NewStmtList(shared),
		Else: ir.NewStmtList(shared),
	})
	s1.Body = ir.NewStmtList(ir.NewGoto(s2.Index))
	s2.Body = ir.NewStmtList(&ir.Return{})

	collapseStates(c, s0.Index)

	ifStmt := c.states[0].Body.List[0].(*ir.If)
	got := ifStmt.Body.List[0].(*ir.GotoState)
	if got.Target != 1 {
		t.Errorf("shared goto pointer should remap once to 1, got %d", got.Target)
	}
	if ifStmt.Else.(*ir.StmtList).List[0].(*ir.GotoState) != got {
		t.Errorf("both branches must still share the same pointer after remapping")
	}
}
