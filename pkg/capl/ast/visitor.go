package ast

// Visitor provides an interface for traversing the AST. Implement it to
// perform operations on nodes (resolution, validation, analysis).
type Visitor interface {
	VisitVariable(*Variable) error
	VisitBranch(*Branch) error
	VisitCondition(*Condition) error
	VisitAction(*Action) error
}

// Walk traverses the program depth-first in source order and calls the
// visitor for each node. It returns the first error encountered.
func Walk(program *Program, visitor Visitor) error {
	for _, v := range program.Variables {
		if err := visitor.VisitVariable(v); err != nil {
			return err
		}
	}
	for _, stmt := range program.Statements {
		if err := walkStmt(stmt, visitor); err != nil {
			return err
		}
	}
	return nil
}

// WalkStmt traverses a single IF statement depth-first. It lets passes that
// recover per top-level tree visit one tree at a time.
func WalkStmt(stmt *IfStmt, visitor Visitor) error {
	return walkStmt(stmt, visitor)
}

func walkStmt(stmt *IfStmt, visitor Visitor) error {
	for _, b := range stmt.Branches() {
		if err := walkBranch(b, visitor); err != nil {
			return err
		}
	}
	if stmt.Else != nil {
		if err := walkBranch(stmt.Else, visitor); err != nil {
			return err
		}
	}
	return nil
}

func walkBranch(b *Branch, visitor Visitor) error {
	if err := visitor.VisitBranch(b); err != nil {
		return err
	}
	for _, c := range b.Conditions {
		if err := visitor.VisitCondition(c); err != nil {
			return err
		}
	}
	for _, a := range b.Actions {
		if err := visitor.VisitAction(a); err != nil {
			return err
		}
	}
	if b.Nested != nil {
		return walkStmt(b.Nested, visitor)
	}
	return nil
}
