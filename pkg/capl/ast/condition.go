package ast

// Category represents the condition domain a CAPL condition belongs to.
// The set is closed: category-specific merge and negation rules are matched
// exhaustively so that adding a category is a compile-visible change.
type Category string

const (
	CategoryUser        Category = "user"
	CategoryApplication Category = "app"
	CategoryPlatform    Category = "platform"
	CategoryDevice      Category = "device"
	CategoryLocation    Category = "location"
	CategoryClient      Category = "client"
	CategorySignInRisk  Category = "signin-risk"
	CategoryUserRisk    Category = "user-risk"
)

// Categories lists every condition category in declaration order.
var Categories = []Category{
	CategoryUser,
	CategoryApplication,
	CategoryPlatform,
	CategoryDevice,
	CategoryLocation,
	CategoryClient,
	CategorySignInRisk,
	CategoryUserRisk,
}

// IsCategory returns true if s names a condition category.
func IsCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// HasExcludeSlot returns true if the output schema has an exclusion list for
// this category. Client app types and risk levels are flat lists in the
// canonical record, so a negated condition on them cannot be represented.
func (c Category) HasExcludeSlot() bool {
	switch c {
	case CategoryClient, CategorySignInRisk, CategoryUserRisk:
		return false
	case CategoryUser, CategoryApplication, CategoryPlatform, CategoryDevice, CategoryLocation:
		return true
	}
	return false
}

// MatchOp represents the match operator of a condition.
type MatchOp string

const (
	// OpIs matches a built-in identity value (platform is iOS).
	OpIs MatchOp = "is"
	// OpIn matches membership in a named entity (user in group "..." [guid]).
	OpIn MatchOp = "in"
)

// UserScope narrows a user membership condition to groups or directory roles.
type UserScope string

const (
	ScopeNone  UserScope = ""
	ScopeGroup UserScope = "group"
	ScopeRole  UserScope = "role"
)

// Value is a single condition value: a bare identifier (iOS, Trusted, All),
// a display-name/identifier pair ("Finance Team" [guid]), or an unresolved
// variable reference. The resolver replaces VarRef values with the declared
// display name and identifier before path enumeration.
type Value struct {
	Name   string // Display name or bare identifier
	ID     string // Opaque identifier from a [bracket] token, if any
	VarRef string // Referenced variable name; empty once resolved
}

// Key returns the identity used for contradiction checks. The identifier
// wins when present since display names are not unique.
func (v Value) Key() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// Condition represents one condition in a branch. Multiple values under the
// same category joined by OR form a single Condition with several values,
// not several conditions.
type Condition struct {
	Category Category
	Scope    UserScope // group/role narrowing for user membership
	Negated  bool      // NOT polarity
	Operator MatchOp
	Values   []Value
	Location Location
}

// Negate returns the complementary conditions for taking an else branch past
// this condition. A single-value condition flips polarity. An OR group of k
// values negates into k separate single-value negated conditions that are
// AND-joined by the caller's condition stack.
func (c *Condition) Negate() []*Condition {
	out := make([]*Condition, 0, len(c.Values))
	for _, v := range c.Values {
		out = append(out, &Condition{
			Category: c.Category,
			Scope:    c.Scope,
			Negated:  !c.Negated,
			Operator: c.Operator,
			Values:   []Value{v},
			Location: c.Location,
		})
	}
	return out
}

// Clone returns a deep copy of the condition.
func (c *Condition) Clone() *Condition {
	dup := *c
	dup.Values = make([]Value, len(c.Values))
	copy(dup.Values, c.Values)
	return &dup
}
