package ast

// ActionKind represents the kind of action attached to a leaf branch.
type ActionKind string

const (
	// ActionGrant requires one or two access controls (REQUIRE MFA,
	// REQUIRE AppProtection OR CompliantDevice).
	ActionGrant ActionKind = "grant"
	// ActionBlock denies access outright.
	ActionBlock ActionKind = "block"
	// ActionAllow grants access with no controls.
	ActionAllow ActionKind = "allow"
	// ActionSession attaches a post-authentication session constraint.
	ActionSession ActionKind = "session"
)

// SessionKind identifies the session control expressed by a SESSION action.
type SessionKind string

const (
	SessionSignInFrequency   SessionKind = "signin-frequency"
	SessionPersistentBrowser SessionKind = "persistent-browser"
	SessionCloudAppMonitor   SessionKind = "monitor"
	SessionBlockDownloads    SessionKind = "block-downloads"
)

// SessionControl carries the parsed parameters of a SESSION action.
// Only the fields relevant to the kind are populated.
type SessionControl struct {
	Kind  SessionKind
	Value int    // signin-frequency interval count
	Unit  string // signin-frequency unit: "hours" or "days"
	Mode  string // persistent-browser mode: "always" or "never"
}

// Action represents one action line of a leaf branch.
//
// A Grant with two controls denotes "either is acceptable" (OR); repeated
// Grant actions in sequence denote "all required" (AND).
type Action struct {
	Kind     ActionKind
	Controls []string        // Grant controls; one, or two for a REQUIRE ... OR ... pair
	Session  *SessionControl // Session parameters when Kind is ActionSession
	Location Location
}

// IsGrantOR returns true if this grant offers an alternate control.
func (a *Action) IsGrantOR() bool {
	return a.Kind == ActionGrant && len(a.Controls) == 2
}
