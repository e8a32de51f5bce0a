package coverage

import (
	"fmt"
	"sort"
	"strings"

	"capl-hq/capl/pkg/capl/emit"
)

// Scenario is one concrete sign-in the grid evaluates.
type Scenario struct {
	User        string
	Application string
	Platform    string
	Location    string
	DeviceState string
	ClientType  string
	UserRisk    string
	SignInRisk  string
}

// Label renders a compact human-readable scenario description.
func (s *Scenario) Label() string {
	return fmt.Sprintf("%s / %s [%s] (%s, %s)", s.User, s.Application, s.Platform, s.Location, s.DeviceState)
}

// Outcome is the effective result of evaluating every policy against one
// scenario. Action is "BLOCK", "ALLOW", a control summary such as "MFA",
// or "Uncovered" when no policy matched.
type Outcome struct {
	Scenario        *Scenario
	Action          string
	Policies        []string
	Controls        []string
	SessionControls []string
}

// Covered reports whether at least one policy matched the scenario.
func (o *Outcome) Covered() bool {
	return len(o.Policies) > 0
}

// Report is the full grid evaluation result.
type Report struct {
	Dimensions *Dimensions
	Outcomes   []*Outcome
}

// Gaps returns the scenarios no policy matched, in grid order.
func (r *Report) Gaps() []*Outcome {
	var gaps []*Outcome
	for _, o := range r.Outcomes {
		if !o.Covered() {
			gaps = append(gaps, o)
		}
	}
	return gaps
}

// CoverageRatio returns the fraction of scenarios matched by at least one
// policy.
func (r *Report) CoverageRatio() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}
	covered := 0
	for _, o := range r.Outcomes {
		if o.Covered() {
			covered++
		}
	}
	return float64(covered) / float64(len(r.Outcomes))
}

// Evaluate builds the scenario grid from the policies' own condition
// values and evaluates every scenario. Risk axes only vary when some
// policy actually uses risk levels, keeping the grid from exploding.
func Evaluate(policies []*emit.GeneratedPolicy) *Report {
	dims := ExtractDimensions(policies)
	report := &Report{Dimensions: dims}

	userRisks := []string{NoRisk}
	signInRisks := []string{NoRisk}
	if usesRisk(policies, false) {
		userRisks = dims.UserRisks
	}
	if usesRisk(policies, true) {
		signInRisks = dims.SignInRisks
	}

	for _, user := range dims.Users {
		for _, app := range dims.Applications {
			for _, platform := range dims.Platforms {
				for _, location := range dims.Locations {
					for _, device := range dims.DeviceStates {
						for _, userRisk := range userRisks {
							for _, signInRisk := range signInRisks {
								scenario := &Scenario{
									User:        user,
									Application: app,
									Platform:    platform,
									Location:    location,
									DeviceState: device,
									ClientType:  "Browser",
									UserRisk:    userRisk,
									SignInRisk:  signInRisk,
								}
								report.Outcomes = append(report.Outcomes, evaluateScenario(policies, scenario))
							}
						}
					}
				}
			}
		}
	}

	return report
}

func usesRisk(policies []*emit.GeneratedPolicy, signIn bool) bool {
	for _, policy := range policies {
		if policy.Conditions == nil {
			continue
		}
		if signIn && len(policy.Conditions.SignInRiskLevels) > 0 {
			return true
		}
		if !signIn && len(policy.Conditions.UserRiskLevels) > 0 {
			return true
		}
	}
	return false
}

func evaluateScenario(policies []*emit.GeneratedPolicy, scenario *Scenario) *Outcome {
	outcome := &Outcome{Scenario: scenario}
	blocked := false

	for _, policy := range policies {
		if !matches(policy, scenario) {
			continue
		}
		outcome.Policies = append(outcome.Policies, policy.DisplayName)

		if policy.GrantControls != nil {
			for _, control := range policy.GrantControls.BuiltInControls {
				if control == "block" {
					blocked = true
				} else if !contains(outcome.Controls, control) {
					outcome.Controls = append(outcome.Controls, control)
				}
			}
		}
		outcome.SessionControls = append(outcome.SessionControls, sessionLabels(policy.SessionControls)...)
	}

	outcome.Action = effectiveAction(outcome, blocked)
	return outcome
}

func effectiveAction(outcome *Outcome, blocked bool) string {
	switch {
	case blocked:
		return "BLOCK"
	case !outcome.Covered():
		return "Uncovered"
	case len(outcome.Controls) == 0 && len(outcome.SessionControls) > 0:
		return "Session Controls"
	case len(outcome.Controls) == 0:
		return "ALLOW"
	default:
		sorted := append([]string(nil), outcome.Controls...)
		sort.Strings(sorted)
		return strings.Join(sorted, "+")
	}
}

// matches mirrors the platform's evaluation order: a policy applies only
// when every condition it states is satisfied by the scenario.
func matches(policy *emit.GeneratedPolicy, scenario *Scenario) bool {
	c := policy.Conditions
	if c == nil {
		return true
	}
	return matchesUsers(c.Users, scenario) &&
		matchesApps(c.Applications, scenario) &&
		matchesPlatforms(c.Platforms, scenario) &&
		matchesLocations(c.Locations, scenario) &&
		matchesDevices(c.DeviceStates, scenario) &&
		matchesClients(c.ClientAppTypes, scenario) &&
		matchesRisk(c.UserRiskLevels, scenario.UserRisk) &&
		matchesRisk(c.SignInRiskLevels, scenario.SignInRisk)
}

func matchesUsers(u *emit.UserConditions, scenario *Scenario) bool {
	if u == nil {
		return true
	}
	if contains(u.ExcludeUsers, scenario.User) || contains(u.ExcludeGroups, scenario.User) ||
		contains(u.ExcludeRoles, scenario.User) {
		return false
	}
	if len(u.IncludeUsers) == 0 && len(u.IncludeGroups) == 0 && len(u.IncludeRoles) == 0 &&
		len(u.IncludeGuestOrExternalUserTypes) == 0 {
		return true
	}
	return contains(u.IncludeUsers, "All") ||
		contains(u.IncludeUsers, scenario.User) ||
		contains(u.IncludeGroups, scenario.User) ||
		contains(u.IncludeRoles, scenario.User)
}

func matchesApps(a *emit.AppConditions, scenario *Scenario) bool {
	if a == nil {
		return true
	}
	if contains(a.ExcludeApplications, scenario.Application) {
		return false
	}
	if len(a.IncludeApplications) == 0 {
		return true
	}
	return contains(a.IncludeApplications, "All") || contains(a.IncludeApplications, scenario.Application)
}

func matchesPlatforms(p *emit.PlatformConditions, scenario *Scenario) bool {
	if p == nil || len(p.IncludePlatforms) == 0 {
		return true
	}
	if contains(p.ExcludePlatforms, scenario.Platform) {
		return false
	}
	return contains(p.IncludePlatforms, "all") || contains(p.IncludePlatforms, scenario.Platform)
}

func matchesLocations(l *emit.LocationConditions, scenario *Scenario) bool {
	if l == nil {
		return true
	}
	trusted := scenario.Location == "Trusted"
	if contains(l.ExcludeLocations, emit.TrustedLocationAlias) && trusted {
		return false
	}
	if len(l.IncludeLocations) == 0 {
		return true
	}
	if contains(l.IncludeLocations, "All") {
		return true
	}
	if contains(l.IncludeLocations, emit.TrustedLocationAlias) {
		return trusted
	}
	return contains(l.IncludeLocations, scenario.Location)
}

func matchesDevices(d *emit.DeviceConditions, scenario *Scenario) bool {
	if d == nil || len(d.IncludeStates) == 0 {
		return true
	}
	if scenario.DeviceState != "Compliant" {
		return false
	}
	return contains(d.IncludeStates, "compliantDevice") || contains(d.IncludeStates, "domainJoinedDevice")
}

func matchesClients(types []string, scenario *Scenario) bool {
	if len(types) == 0 {
		return true
	}
	switch scenario.ClientType {
	case "Browser":
		return contains(types, "browser")
	case "Mobile/Desktop":
		return contains(types, "mobileAppsAndDesktopClients")
	case "Legacy":
		return contains(types, "exchangeActiveSync") || contains(types, "other")
	}
	return false
}

// matchesRisk: a policy that names risk levels only fires at those levels,
// so a no-risk scenario never matches it.
func matchesRisk(levels []string, scenarioRisk string) bool {
	if len(levels) == 0 {
		return true
	}
	if scenarioRisk == NoRisk {
		return false
	}
	return contains(levels, strings.ToLower(scenarioRisk))
}

func sessionLabels(s *emit.SessionControls) []string {
	if s == nil {
		return nil
	}
	var labels []string
	if s.SignInFrequency != nil {
		labels = append(labels, fmt.Sprintf("Sign-in Frequency: %d %s", s.SignInFrequency.Value, s.SignInFrequency.Type))
	}
	if s.PersistentBrowser != nil {
		labels = append(labels, "Persistent Browser: "+s.PersistentBrowser.Mode)
	}
	if s.CloudAppSecurity != nil {
		labels = append(labels, "Conditional Access App Control")
	}
	if s.ApplicationEnforcedRestrictions != nil {
		labels = append(labels, "App Restrictions")
	}
	return labels
}
