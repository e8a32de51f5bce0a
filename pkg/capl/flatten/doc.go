// Package flatten enumerates root-to-leaf paths of CAPL decision trees and
// normalizes the conditions accumulated along each path.
//
// Enumeration is a single depth-first walk: IF and ELSE IF arms push their
// own conditions, the terminal ELSE pushes the negation of every preceding
// sibling condition at that branching level, and every flat action list
// reached snapshots the full condition stack into one PolicyPath. Path count
// equals the number of reachable leaves; nothing is memoized because each
// node is visited exactly once.
//
// Normalization groups a path's conditions by category, merging affirmed
// values into include lists and negated values into exclude lists. A value
// present on both sides of one category is a contradiction; a negated
// condition on a category without an exclude slot in the output schema is an
// unsupported negation. Neither is ever silently resolved.
package flatten
