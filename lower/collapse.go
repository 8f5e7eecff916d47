package lower

import "github.com/genstate/closureiter/ir"

// collapseStates is C7 (spec.md §4.7): a state whose entire body, after
// skipping statement-list wrappers, is a single goto-state contributes
// nothing but an extra hop — every edge that targets it is redirected
// straight to its own target, the state itself is dropped, and the
// survivors are renumbered to consecutive indices. The entry state is never
// dropped, whatever its body.
//
// It runs after C5 (split) and before C6 (materialize): once materialize
// turns every GotoState into a plain assignment, "body is a single
// goto-state" is no longer a meaningful test. It returns the (possibly
// renumbered) entry state index.
func collapseStates(c *Context, entry int) int {
	forward := map[int]int{}
	for i, st := range c.states {
		if i == entry {
			continue
		}
		if g, ok := ir.EndsInGoto(st.Body); ok {
			forward[i] = g.Target
		}
	}

	resolve := func(target int) int {
		visited := map[int]bool{}
		for {
			next, ok := forward[target]
			if !ok {
				return target
			}
			invariant("C7", !visited[target], "forwarding cycle at state %d", target)
			visited[target] = true
			target = next
		}
	}

	renum := map[int]int{}
	var kept []*State
	var newET []int16
	for i, st := range c.states {
		if _, dead := forward[i]; dead {
			continue
		}
		renum[i] = len(kept)
		kept = append(kept, st)
		newET = append(newET, c.exceptTable[i])
	}

	remap := func(t int) int {
		if t < 0 {
			return t // -1 is the exit sentinel, not a state index
		}
		t = resolve(t)
		if t < 0 {
			return t // forwarded all the way to the exit sentinel
		}
		return renum[t]
	}

	seen := map[*ir.GotoState]bool{}
	for _, st := range kept {
		rewriteGotoTargets(st.Body, seen, remap)
	}
	for i, et := range newET {
		newET[i] = remapET(et, remap)
	}
	for i, st := range kept {
		st.Index = i
	}

	c.states = kept
	c.exceptTable = newET
	return remap(entry)
}

// rewriteGotoTargets remaps every GotoState.Target reachable from n. Nodes
// are mutated by pointer, and split.go freely shares a single *GotoState
// instance across sibling branches (an if/else's common out-edge, for
// instance), so seen guards against remapping the same node twice.
func rewriteGotoTargets(n ir.Node, seen map[*ir.GotoState]bool, remap func(int) int) {
	ir.Inspect(n, func(node ir.Node) bool {
		g, ok := node.(*ir.GotoState)
		if !ok {
			return true
		}
		if !seen[g] {
			seen[g] = true
			g.Target = remap(g.Target)
		}
		return false
	})
}

// remapET rewrites one exception-table entry through remap, preserving its
// sign (except-state vs finally-only-state) and its "0 means no handler"
// zero value (spec.md §3).
func remapET(et int16, remap func(int) int) int16 {
	if et == 0 {
		return 0
	}
	if et < 0 {
		idx := int(-et) - 1
		return int16(-(remap(idx) + 1))
	}
	idx := int(et) - 1
	return int16(remap(idx) + 1)
}
