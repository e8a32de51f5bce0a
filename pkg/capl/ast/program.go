package ast

// State is the declared activation state of a policy branch.
type State string

const (
	StateEnabled    State = "enabled"
	StateDisabled   State = "disabled"
	StateReportOnly State = "report-only"
)

// IsValidState returns true if s is one of the three declared states.
func IsValidState(s string) bool {
	switch State(s) {
	case StateEnabled, StateDisabled, StateReportOnly:
		return true
	}
	return false
}

// Variable represents a VAR declaration binding a name to a display-name and
// identifier pair. Variables are compile-unit scoped, immutable after
// declaration, and must precede any use.
type Variable struct {
	Name     string // Declared name
	Display  string // Quoted display label
	ID       string // Bracketed identifier value (opaque to the compiler)
	Location Location
}

// Program is the root AST node for one CAPL source unit.
type Program struct {
	Variables  []*Variable          // Declarations in source order
	Statements []*IfStmt            // Top-level decision trees in source order
	SourceFile string               // Path the unit was read from
	varIndex   map[string]*Variable // Lazy name lookup
}

// GetVariable returns the variable with the given name, or nil if not declared.
func (p *Program) GetVariable(name string) *Variable {
	if p.varIndex == nil {
		p.varIndex = make(map[string]*Variable, len(p.Variables))
		for _, v := range p.Variables {
			p.varIndex[v.Name] = v
		}
	}
	return p.varIndex[name]
}

// HasVariable returns true if the program declares a variable with the given name.
func (p *Program) HasVariable(name string) bool {
	return p.GetVariable(name) != nil
}

// AddVariable appends a declaration and updates the lookup index.
func (p *Program) AddVariable(v *Variable) {
	p.Variables = append(p.Variables, v)
	if p.varIndex != nil {
		p.varIndex[v.Name] = v
	}
}

// LeafCount returns the total number of leaf branches across all top-level
// trees. Compilation yields exactly this many generated policies.
func (p *Program) LeafCount() int {
	n := 0
	for _, stmt := range p.Statements {
		n += stmt.LeafCount()
	}
	return n
}
