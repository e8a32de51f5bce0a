// Package coverage evaluates compiled policies against a scenario grid to
// show what the policy set actually enforces. Each scenario is a concrete
// sign-in (user, app, platform, location, device state, client, risk) and
// the report records which policies match it and the effective outcome.
package coverage

import (
	"sort"

	"capl-hq/capl/pkg/capl/emit"
)

// Placeholder values for dimensions no policy constrains. GenericApp and
// GenericUser exercise catch-all policies.
const (
	GenericUser = "GenericUser"
	GenericApp  = "GenericApp"
	NoRisk      = "No Risk"
	HighRisk    = "high"
)

// Dimensions holds the distinct values observed per condition axis across
// a policy set.
type Dimensions struct {
	Users        []string
	Applications []string
	Platforms    []string
	Locations    []string
	DeviceStates []string
	ClientTypes  []string
	UserRisks    []string
	SignInRisks  []string
}

// ExtractDimensions scans the policies and collects the concrete values
// the scenario grid should cover. Axes the policies never constrain fall
// back to semantic defaults so the grid stays meaningful.
func ExtractDimensions(policies []*emit.GeneratedPolicy) *Dimensions {
	users := make(map[string]bool)
	apps := make(map[string]bool)
	platforms := make(map[string]bool)

	for _, policy := range policies {
		c := policy.Conditions
		if c == nil {
			continue
		}
		if c.Users != nil {
			for _, u := range c.Users.IncludeUsers {
				if u != "All" {
					users[u] = true
				}
			}
			for _, g := range c.Users.IncludeGroups {
				users[g] = true
			}
			for _, r := range c.Users.IncludeRoles {
				users[r] = true
			}
		}
		if c.Applications != nil {
			for _, a := range c.Applications.IncludeApplications {
				if a != "All" {
					apps[a] = true
				}
			}
		}
		if c.Platforms != nil {
			for _, p := range c.Platforms.IncludePlatforms {
				if p != "all" {
					platforms[p] = true
				}
			}
		}
	}

	d := &Dimensions{
		Users:        sortedOrDefault(users, GenericUser),
		Applications: sortedOrDefault(apps, GenericApp),
		Platforms:    sortedOrDefault(platforms, "windows", "iOS", "android", "macOS"),
		Locations:    []string{"Trusted", "Untrusted"},
		DeviceStates: []string{"Compliant", "Unmanaged"},
		ClientTypes:  []string{"Browser", "Mobile/Desktop", "Legacy"},
		UserRisks:    []string{NoRisk, HighRisk},
		SignInRisks:  []string{NoRisk, HighRisk},
	}

	// A generic application always rides along so catch-all policies show
	// up even when every policy names specific apps.
	if !contains(d.Applications, GenericApp) {
		d.Applications = append(d.Applications, GenericApp)
	}

	return d
}

func sortedOrDefault(set map[string]bool, defaults ...string) []string {
	if len(set) == 0 {
		return defaults
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(values []string, v string) bool {
	for _, have := range values {
		if have == v {
			return true
		}
	}
	return false
}
