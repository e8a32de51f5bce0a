package ast

// IfStmt represents one IF / ELSE IF / ELSE / END block.
//
// The If branch and every ElseIf branch carry their own conditions. The
// terminal Else branch has no explicit conditions; during path enumeration it
// inherits the negation of all preceding siblings' conditions.
type IfStmt struct {
	If       *Branch
	ElseIfs  []*Branch
	Else     *Branch // nil when no terminal ELSE is present
	Location Location
}

// Branches returns the conditioned branches (IF plus ELSE IFs) in source order.
func (s *IfStmt) Branches() []*Branch {
	out := make([]*Branch, 0, 1+len(s.ElseIfs))
	if s.If != nil {
		out = append(out, s.If)
	}
	out = append(out, s.ElseIfs...)
	return out
}

// LeafCount returns the number of leaf branches reachable from this statement.
func (s *IfStmt) LeafCount() int {
	n := 0
	for _, b := range s.Branches() {
		n += b.LeafCount()
	}
	if s.Else != nil {
		n += s.Else.LeafCount()
	}
	return n
}

// Branch represents one arm of an IF statement: an AND-joined condition list,
// a declared state, and exactly one of a flat action list or a nested IF
// statement as its payload.
type Branch struct {
	Conditions []*Condition
	State      State
	Actions    []*Action
	Nested     *IfStmt
	Location   Location
}

// IsLeaf returns true if the branch's payload is a flat action list rather
// than a nested IF statement.
func (b *Branch) IsLeaf() bool {
	return b.Nested == nil
}

// LeafCount returns the number of leaves reachable through this branch.
func (b *Branch) LeafCount() int {
	if b.IsLeaf() {
		return 1
	}
	return b.Nested.LeafCount()
}
