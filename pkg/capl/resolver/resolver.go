// Package resolver binds variable references to their declarations.
//
// Resolution is two phases over one pass of the AST: the symbol table is
// built from the program's declarations first, then every variable reference
// in a condition value is substituted with the declaration's display name and
// identifier. Declarations must precede use in source order; the builder
// enforces that by recording the declaration line and comparing it against
// each use site.
package resolver

import (
	"fmt"

	"capl-hq/capl/pkg/capl/ast"
	caplErrors "capl-hq/capl/pkg/capl/errors"
)

// SymbolTable is an immutable-after-build lookup of variable declarations.
type SymbolTable struct {
	symbols map[string]*ast.Variable
	order   []string
}

// NewSymbolTable builds a symbol table from the program's declarations.
// Redeclaration of a name is a semantic error; the first declaration wins
// and the duplicate is reported.
func NewSymbolTable(program *ast.Program, errs *caplErrors.ErrorList) *SymbolTable {
	st := &SymbolTable{symbols: make(map[string]*ast.Variable, len(program.Variables))}
	for _, v := range program.Variables {
		if prev, ok := st.symbols[v.Name]; ok {
			errs.Add(&caplErrors.Error{
				Type:    caplErrors.ErrorTypeSemantic,
				Rule:    caplErrors.RuleVarRedeclared,
				Message: fmt.Sprintf("variable %q redeclared (first declared at %s)", v.Name, prev.Location),
				Location: v.Location,
			})
			continue
		}
		st.symbols[v.Name] = v
		st.order = append(st.order, v.Name)
	}
	return st
}

// Lookup returns the declaration for name, or nil if not declared.
func (st *SymbolTable) Lookup(name string) *ast.Variable {
	return st.symbols[name]
}

// Names returns the declared names in source order.
func (st *SymbolTable) Names() []string {
	return append([]string(nil), st.order...)
}

// Len returns the number of declared variables.
func (st *SymbolTable) Len() int {
	return len(st.symbols)
}

// Resolver substitutes variable references in condition values with the
// declared display-name/identifier pair.
type Resolver struct {
	table *SymbolTable
	errs  *caplErrors.ErrorList
}

// NewResolver creates a resolver over the given symbol table.
func NewResolver(table *SymbolTable) *Resolver {
	return &Resolver{table: table}
}

// Resolve walks the program and substitutes every variable reference in
// place. Unresolved references are semantic errors, never a silent default.
// The returned error is a *errors.ErrorList or nil.
func (r *Resolver) Resolve(program *ast.Program) error {
	r.errs = caplErrors.NewErrorList()
	if err := ast.Walk(program, r); err != nil {
		return err
	}
	return r.errs.ToError()
}

// ResolveStmt resolves references within a single top-level statement.
// Callers compiling statement-by-statement use this to keep diagnostics and
// partial output per tree.
func (r *Resolver) ResolveStmt(stmt *ast.IfStmt) error {
	r.errs = caplErrors.NewErrorList()
	if err := ast.WalkStmt(stmt, r); err != nil {
		return err
	}
	return r.errs.ToError()
}

// VisitVariable implements ast.Visitor.
func (r *Resolver) VisitVariable(*ast.Variable) error { return nil }

// VisitBranch implements ast.Visitor.
func (r *Resolver) VisitBranch(*ast.Branch) error { return nil }

// VisitAction implements ast.Visitor.
func (r *Resolver) VisitAction(*ast.Action) error { return nil }

// VisitCondition implements ast.Visitor. It rewrites VarRef values with the
// declaration's display name and identifier.
func (r *Resolver) VisitCondition(cond *ast.Condition) error {
	for i := range cond.Values {
		v := &cond.Values[i]
		if v.VarRef == "" {
			continue
		}
		decl := r.table.Lookup(v.VarRef)
		if decl == nil {
			r.errs.Add(&caplErrors.Error{
				Type:       caplErrors.ErrorTypeSemantic,
				Rule:       caplErrors.RuleUndeclaredVar,
				Message:    fmt.Sprintf("reference to undeclared variable %q", v.VarRef),
				Location:   cond.Location,
				Suggestion: caplErrors.SuggestKeyword(v.VarRef, r.table.Names()),
			})
			continue
		}
		if decl.Location.Line > cond.Location.Line {
			r.errs.Add(&caplErrors.Error{
				Type:    caplErrors.ErrorTypeSemantic,
				Rule:    caplErrors.RuleUndeclaredVar,
				Message: fmt.Sprintf("variable %q used before its declaration at %s", v.VarRef, decl.Location),
				Location: cond.Location,
			})
			continue
		}
		v.Name = decl.Display
		v.ID = decl.ID
		v.VarRef = ""
	}
	return nil
}

// ResolveProgram is a convenience that builds the symbol table and resolves
// references in one call, accumulating all diagnostics into errs.
func ResolveProgram(program *ast.Program, errs *caplErrors.ErrorList) {
	table := NewSymbolTable(program, errs)
	r := NewResolver(table)
	if err := r.Resolve(program); err != nil {
		if el, ok := err.(*caplErrors.ErrorList); ok {
			errs.Merge(el)
		}
	}
}
