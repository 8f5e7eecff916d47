package ir

import "testing"

func TestContainsYield(t *testing.T) {
	tests := []struct {
		name string
		n    Node
		want bool
	}{
		{"bare literal", NewLit(int64(1)), false},
		{"nested yield in binary", NewBinary(NewIdent("x"), OpAdd, &Yield{Value: NewLit(int64(1))}), true},
		{"yield in call arg", NewCall(NewIdent("f"), &Yield{}), true},
		{"no yield in call", NewCall(NewIdent("f"), NewIdent("x")), false},
		{"yield inside if body", &If{Cond: NewLit(true), Body: NewStmtList(NewExprStmt(&Yield{}))}, true},
		{"yield inside try finally", &Try{Body: NewStmtList(), Finally: NewStmtList(NewExprStmt(&Yield{}))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsYield(tt.n); got != tt.want {
				t.Errorf("ContainsYield() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsYieldInExprContext(t *testing.T) {
	tests := []struct {
		name string
		s    Stmt
		want bool
	}{
		// A bare `yield v;` ExprStmt, and a hoisted `tmp := yield v`
		// Assign, are already the canonical statement-position forms
		// lower/normalize.go's hoistTop leaves alone: they must not be
		// flagged as still needing a normalize pass, or splitStmtList
		// loops forever substituting the same statement back in place.
		{"bare yield ExprStmt is already canonical", NewExprStmt(&Yield{}), false},
		{"assign rhs bare yield is already canonical", NewAssign(NewIdent("x"), OpDefine, &Yield{}), false},
		{"yield nested in its own operand still needs hoisting", NewExprStmt(&Yield{Value: &Yield{}}), true},
		{"assign rhs yield nested in its own operand", NewAssign(NewIdent("x"), OpDefine, &Yield{Value: &Yield{}}), true},
		{"yield buried in a call argument", NewExprStmt(NewCall(NewIdent("f"), &Yield{})), true},
		{"assign rhs yield buried in a call argument", NewAssign(NewIdent("x"), OpDefine, NewCall(NewIdent("f"), &Yield{})), true},
		{"if cond with yield", &If{Cond: &Yield{}, Body: NewStmtList()}, true},
		{"if cond without yield", &If{Cond: NewLit(true), Body: NewStmtList(NewExprStmt(&Yield{}))}, false},
		{"return value yield", &Return{X: &Yield{}}, true},
		{"return no value", &Return{}, false},
		{"break never contains yield", &Break{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsYieldInExprContext(tt.s); got != tt.want {
				t.Errorf("ContainsYieldInExprContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEndsInGoto(t *testing.T) {
	g := NewGoto(3)
	tests := []struct {
		name       string
		s          Stmt
		wantTarget int
		wantOK     bool
	}{
		{"bare goto", g, 3, true},
		{"wrapped goto", NewStmtList(g), 3, true},
		{"doubly wrapped goto", NewStmtList(NewStmtList(g)), 3, true},
		{"goto followed by other stmt", NewStmtList(g, NewExprStmt(NewLit(int64(1)))), 0, false},
		{"non-goto leaf", NewExprStmt(NewLit(int64(1))), 0, false},
		{"empty list", NewStmtList(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EndsInGoto(tt.s)
			if ok != tt.wantOK {
				t.Fatalf("EndsInGoto() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Target != tt.wantTarget {
				t.Errorf("EndsInGoto() target = %d, want %d", got.Target, tt.wantTarget)
			}
		})
	}
}
