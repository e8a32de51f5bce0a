package errors

import (
	"fmt"
	"strings"

	"capl-hq/capl/pkg/capl/ast"
)

// ErrorType categorizes a diagnostic produced during compilation.
type ErrorType string

const (
	// ErrorTypeLex is an unrecognized character in the source.
	ErrorTypeLex ErrorType = "lex"
	// ErrorTypeSyntax is a grammar violation, tagged with the violated rule.
	ErrorTypeSyntax ErrorType = "syntax"
	// ErrorTypeSemantic is an undeclared variable reference, an empty
	// condition list, a cross-category OR, or a malformed grant-OR chain.
	ErrorTypeSemantic ErrorType = "semantic"
	// ErrorTypeContradiction is a value both included and excluded on one path.
	ErrorTypeContradiction ErrorType = "contradiction"
	// ErrorTypeUnsupportedNegation is a negated condition on a category
	// whose output schema has no exclude slot.
	ErrorTypeUnsupportedNegation ErrorType = "unsupported-negation"
	// ErrorTypeIO is a file access error.
	ErrorTypeIO ErrorType = "io"
)

// Grammar rule tags attached to syntax and semantic diagnostics. Each
// distinct violation carries its own tag so callers can match on the rule
// rather than the message text.
const (
	RuleExpectedState     = "expected-state"
	RuleExpectedEnd       = "expected-end"
	RuleExpectedCondition = "expected-condition"
	RuleExpectedAction    = "expected-action"
	RuleActionBeforeState = "action-before-state"
	RuleInvalidState      = "invalid-state"
	RuleVarDecl           = "var-decl"
	RuleVarRedeclared     = "var-redeclared"
	RuleUndeclaredVar     = "undeclared-var"
	RuleCrossCategoryOR   = "cross-category-or"
	RuleOROperator        = "or-operator-mismatch"
	RuleGrantORChain      = "grant-or-chain"
	RuleSessionKind       = "session-kind"
	RuleCondition         = "condition"
	RuleTopLevel          = "top-level"
)

// Error represents a single diagnostic with location, context, and an
// optional suggestion.
type Error struct {
	Type       ErrorType    // Category of error
	Rule       string       // Violated grammar rule tag (syntax/semantic errors)
	Message    string       // Error message
	Location   ast.Location // Source location
	Context    string       // Surrounding lines of source
	Suggestion string       // Suggested fix (optional)
}

// Error implements the error interface. It returns a formatted message with
// location, context, and suggestion.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Rule != "" {
		sb.WriteString(fmt.Sprintf("[%s:%s] %s\n", e.Type, e.Rule, e.Message))
	} else {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Type, e.Message))
	}

	if e.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("  --> %s\n", e.Location.String()))
	}

	if e.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(e.Context)
		sb.WriteString("  |\n")
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", e.Suggestion))
	}

	return sb.String()
}

// ErrorList accumulates diagnostics across a compilation pass.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends a diagnostic to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a diagnostic with the given parameters.
func (el *ErrorList) AddError(errType ErrorType, message string, location ast.Location) {
	el.Add(&Error{Type: errType, Message: message, Location: location})
}

// AddSyntaxError creates and adds a syntax diagnostic tagged with the
// violated rule.
func (el *ErrorList) AddSyntaxError(rule, message string, location ast.Location) {
	el.Add(&Error{Type: ErrorTypeSyntax, Rule: rule, Message: message, Location: location})
}

// AddErrorWithSuggestion creates and adds a diagnostic with a suggestion.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, message string, location ast.Location, suggestion string) {
	el.Add(&Error{Type: errType, Message: message, Location: location, Suggestion: suggestion})
}

// Merge appends all diagnostics from other.
func (el *ErrorList) Merge(other *ErrorList) {
	if other != nil {
		el.Errors = append(el.Errors, other.Errors...)
	}
}

// HasErrors returns true if the list contains any diagnostics.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of diagnostics in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface, formatting all diagnostics.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n\n", el.Count()))

	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("Error %d:\n", i+1))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns all diagnostics of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

// HasErrorType returns true if the list contains at least one diagnostic of
// the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}
