package lower

import "github.com/genstate/closureiter/ir"

// relocateBreakContinue is C4: invoked on the body of a while during its
// lowering in C5, it redirects unlabelled break/continue (and labelled
// break) to freshly supplied targets, respecting nested block/while depth
// (spec.md §4.4).
//
// before replaces an unlabelled continue (jump back to the loop head
// state); after replaces an unlabelled break, and a labelled break whose
// label matches label (the label of the while/block currently being
// lowered, empty if it has none).
func relocateBreakContinue(c *Context, s *ir.StmtList, label string, before, after ir.Stmt) *ir.StmtList {
	return relocateList(c, s, label, before, after)
}

// relocateBlockBreaks is the narrower relocation a Block performs on its
// own body during C5 (spec.md §4.5, "Block"): a block has no loop head, so
// it never touches continue (before is nil), and it only ever redirects
// break — unlabelled ones at its own nesting level plus any labelled break
// naming this block, exactly like relocateBreakContinue's break handling.
func relocateBlockBreaks(c *Context, s *ir.StmtList, label string, after ir.Stmt) *ir.StmtList {
	return relocateList(c, s, label, nil, after)
}

func relocateList(c *Context, s *ir.StmtList, label string, before, after ir.Stmt) *ir.StmtList {
	out := make([]ir.Stmt, len(s.List))
	for i, child := range s.List {
		out[i] = relocateStmt(c, child, label, before, after)
	}
	return &ir.StmtList{List: out}
}

func relocateStmt(c *Context, s ir.Stmt, label string, before, after ir.Stmt) ir.Stmt {
	switch s := s.(type) {
	case *ir.StmtList:
		return relocateList(c, s, label, before, after)

	case *ir.Break:
		if s.Label == "" {
			if c.blockLevel == 0 {
				return after
			}
			return s // targets a deeper, not-yet-lowered while/block
		}
		if s.Label == label {
			return after
		}
		return s

	case *ir.Continue:
		if before == nil {
			// A block has no loop head of its own; this continue
			// belongs to whichever while lexically encloses it and
			// is left for that while's own relocation call.
			return s
		}
		if s.Label == "" {
			if c.blockLevel == 0 {
				return before
			}
			return s
		}
		if s.Label == label {
			return before
		}
		return s

	case *ir.If:
		return &ir.If{
			Cond: s.Cond,
			Body: relocateList(c, s.Body, label, before, after),
			Else: relocateElse(c, s.Else, label, before, after),
		}

	case *ir.Case:
		arms := make([]ir.CaseArm, len(s.Arms))
		for i, a := range s.Arms {
			arms[i] = ir.CaseArm{Values: a.Values, Body: relocateList(c, a.Body, label, before, after)}
		}
		return &ir.Case{Selector: s.Selector, Arms: arms}

	case *ir.Try:
		body := relocateList(c, s.Body, label, before, after)
		except := make([]ir.ExceptArm, len(s.Except))
		for i, ex := range s.Except {
			except[i] = ir.ExceptArm{Type: ex.Type, Var: ex.Var, Body: relocateList(c, ex.Body, label, before, after)}
		}
		var fin *ir.StmtList
		if s.Finally != nil {
			fin = relocateList(c, s.Finally, label, before, after)
		}
		return &ir.Try{Body: body, Except: except, Finally: fin}

	case *ir.Block:
		// Bumps depth; a labelled break targeting *this* block is
		// still relocated here (it's this call's job before its own
		// caller sees it), but breaks/continues meant for a deeper
		// nested block/while are left alone.
		var body *ir.StmtList
		c.withBlockLevel(func() {
			body = relocateList(c, s.Body, label, before, after)
		})
		return &ir.Block{Label: s.Label, Body: body}

	case *ir.While:
		// Depth bumps exactly like Block: an unlabelled break/continue
		// inside a nested while refers to that while itself and is
		// left alone here (it is relocated when C5 lowers the nested
		// while in turn), but a labelled break/continue naming an
		// outer construct must still be found however deep it sits
		// (spec.md §4.4).
		var body *ir.StmtList
		c.withBlockLevel(func() {
			body = relocateList(c, s.Body, label, before, after)
		})
		return &ir.While{Cond: s.Cond, Body: body, Label: s.Label}

	default:
		return s
	}
}

func relocateElse(c *Context, els ir.Stmt, label string, before, after ir.Stmt) ir.Stmt {
	if els == nil {
		return nil
	}
	return relocateStmt(c, els, label, before, after)
}
