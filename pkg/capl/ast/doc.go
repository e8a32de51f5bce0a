// Package ast defines the abstract syntax tree for CAPL, the Conditional
// Access Policy Language.
//
// A CAPL source unit is a Program: an ordered list of variable declarations
// followed by one or more top-level IF statements. Each IF statement is an
// independent decision tree whose leaves carry a policy state and a flat
// action list. The compiler flattens every root-to-leaf path of a tree into
// one self-contained access policy.
//
// The tree is an ownership tree built by the parser; the grammar admits no
// cycles, so nodes hold their children directly.
package ast
