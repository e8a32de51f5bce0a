package flatten

import "capl-hq/capl/pkg/capl/ast"

// PolicyPath is the condition stack accumulated along one root-to-leaf walk,
// plus the leaf's state and actions. Paths are ephemeral: the emitter turns
// each one into a self-contained generated policy.
type PolicyPath struct {
	Conditions []*ast.Condition // AND-joined, in push order from the root
	State      ast.State
	Actions    []*ast.Action
	Index      int          // 1-based position in traversal order
	Location   ast.Location // Location of the leaf branch
}

// Enumerate walks one top-level decision tree depth-first and returns one
// PolicyPath per reachable leaf, in deterministic traversal order. Indexes
// start at base+1 so a caller can number paths across several trees.
func Enumerate(stmt *ast.IfStmt, base int) []*PolicyPath {
	e := &enumerator{index: base}
	e.walkStmt(stmt, nil)
	return e.paths
}

type enumerator struct {
	paths []*PolicyPath
	index int
}

func (e *enumerator) walkStmt(stmt *ast.IfStmt, stack []*ast.Condition) {
	// IF and ELSE IF arms carry their own conditions.
	for _, branch := range stmt.Branches() {
		e.walkBranch(branch, appendConditions(stack, branch.Conditions))
	}

	// The terminal ELSE inherits the negation of every sibling condition at
	// this branching level. An OR group of k values negates into k separate
	// AND-joined negated conditions.
	if stmt.Else != nil {
		negated := stack
		for _, sibling := range stmt.Branches() {
			for _, cond := range sibling.Conditions {
				negated = appendConditions(negated, cond.Negate())
			}
		}
		e.walkBranch(stmt.Else, negated)
	}
}

func (e *enumerator) walkBranch(branch *ast.Branch, stack []*ast.Condition) {
	if !branch.IsLeaf() {
		e.walkStmt(branch.Nested, stack)
		return
	}

	e.index++
	e.paths = append(e.paths, &PolicyPath{
		Conditions: snapshot(stack),
		State:      branch.State,
		Actions:    branch.Actions,
		Index:      e.index,
		Location:   branch.Location,
	})
}

// appendConditions returns a new slice; the shared prefix is never mutated
// so sibling walks cannot see each other's conditions.
func appendConditions(stack []*ast.Condition, conds []*ast.Condition) []*ast.Condition {
	out := make([]*ast.Condition, 0, len(stack)+len(conds))
	out = append(out, stack...)
	out = append(out, conds...)
	return out
}

func snapshot(stack []*ast.Condition) []*ast.Condition {
	out := make([]*ast.Condition, len(stack))
	copy(out, stack)
	return out
}
