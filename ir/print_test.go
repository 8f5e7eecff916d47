package ir

import (
	"strings"
	"testing"
)

func TestSprintIf(t *testing.T) {
	tree := NewStmtList(
		&If{
			Cond: NewBinary(NewIdent("x"), OpLt, NewLit(int64(10))),
			Body: NewStmtList(NewExprStmt(&Yield{Value: NewIdent("x")})),
			Else: NewStmtList(&Return{}),
		},
	)
	got := Sprint(tree)
	for _, want := range []string{"if (x < 10)", "yield x", "else", "return"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sprint output missing %q, got:\n%s", want, got)
		}
	}
}

func TestSprintTryExceptFinally(t *testing.T) {
	tree := NewStmtList(&Try{
		Body: NewStmtList(&Raise{X: NewIdent("e")}),
		Except: []ExceptArm{
			{Type: Custom("ValueError"), Var: NewIdent("e"), Body: NewStmtList()},
		},
		Finally: NewStmtList(&ExprStmt{X: NewCall(NewIdent("cleanup"))}),
	})
	got := Sprint(tree)
	for _, want := range []string{"try", "except ValueError:", "finally:", "raise e", "cleanup()"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sprint output missing %q, got:\n%s", want, got)
		}
	}
}
