package emit

import (
	"reflect"
	"testing"

	caplerrors "capl-hq/capl/pkg/capl/errors"
	"capl-hq/capl/pkg/capl/flatten"
	"capl-hq/capl/pkg/capl/parser"
	"capl-hq/capl/pkg/capl/resolver"
)

// compilePaths parses a single-statement source and returns its emitted
// policies in traversal order.
func compilePaths(t *testing.T, src string) []*GeneratedPolicy {
	t.Helper()

	program, err := parser.NewParser().ParseBytes([]byte(src), "test.capl")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	errs := caplerrors.NewErrorList()
	resolver.ResolveProgram(program, errs)
	if errs.HasErrors() {
		t.Fatalf("resolve failed:\n%s", errs.Error())
	}

	var policies []*GeneratedPolicy
	index := 0
	for _, stmt := range program.Statements {
		paths := flatten.Enumerate(stmt, index)
		index += len(paths)
		for _, path := range paths {
			np := flatten.Normalize(path, errs)
			if np == nil {
				t.Fatalf("normalize failed:\n%s", errs.Error())
			}
			name := flatten.Name("Test", np)
			policies = append(policies, Emit(np, name, "test.capl"))
		}
	}
	return policies
}

func TestEmitGrantPolicy(t *testing.T) {
	policies := compilePaths(t, `
IF user is All
platform is iOS OR platform is android
STATE enabled
REQUIRE MFA
END
`)

	if len(policies) != 1 {
		t.Fatalf("policies = %d, want 1", len(policies))
	}
	p := policies[0]

	if p.State != "enabled" {
		t.Errorf("State = %q, want %q", p.State, "enabled")
	}
	if got := p.Conditions.Users.IncludeUsers; !reflect.DeepEqual(got, []string{"All"}) {
		t.Errorf("IncludeUsers = %v", got)
	}
	if got := p.Conditions.Platforms.IncludePlatforms; !reflect.DeepEqual(got, []string{"iOS", "android"}) {
		t.Errorf("IncludePlatforms = %v", got)
	}
	if p.GrantControls == nil {
		t.Fatal("GrantControls = nil")
	}
	if p.GrantControls.Operator != "AND" {
		t.Errorf("Operator = %q, want %q", p.GrantControls.Operator, "AND")
	}
	if !reflect.DeepEqual(p.GrantControls.BuiltInControls, []string{"mfa"}) {
		t.Errorf("BuiltInControls = %v", p.GrantControls.BuiltInControls)
	}
	if p.SessionControls != nil {
		t.Errorf("SessionControls = %+v, want nil", p.SessionControls)
	}
}

func TestEmitBlockPolicy(t *testing.T) {
	policies := compilePaths(t, `
IF location NOT is Trusted
STATE enabled
BLOCK
END
`)

	p := policies[0]
	if got := p.Conditions.Locations.ExcludeLocations; !reflect.DeepEqual(got, []string{"AllTrusted"}) {
		t.Errorf("ExcludeLocations = %v", got)
	}
	if p.GrantControls.Operator != "OR" {
		t.Errorf("Operator = %q, want %q", p.GrantControls.Operator, "OR")
	}
	if !reflect.DeepEqual(p.GrantControls.BuiltInControls, []string{"block"}) {
		t.Errorf("BuiltInControls = %v", p.GrantControls.BuiltInControls)
	}
}

func TestEmitAllowHasNoGrantControls(t *testing.T) {
	policies := compilePaths(t, `
IF location is Trusted
STATE enabled
ALLOW
END
`)

	p := policies[0]
	if p.GrantControls != nil {
		t.Errorf("GrantControls = %+v, want nil for ALLOW", p.GrantControls)
	}
	if got := p.Conditions.Locations.IncludeLocations; !reflect.DeepEqual(got, []string{"AllTrusted"}) {
		t.Errorf("IncludeLocations = %v", got)
	}
}

func TestEmitAllowAfterRequireKeepsControls(t *testing.T) {
	policies := compilePaths(t, `
IF user is All
STATE enabled
REQUIRE MFA
ALLOW
END
`)

	gc := policies[0].GrantControls
	if gc == nil {
		t.Fatal("GrantControls = nil, want REQUIRE controls kept")
	}
	if gc.Operator != "AND" {
		t.Errorf("Operator = %q, want %q", gc.Operator, "AND")
	}
	if !reflect.DeepEqual(gc.BuiltInControls, []string{"mfa"}) {
		t.Errorf("BuiltInControls = %v, want [mfa]", gc.BuiltInControls)
	}
}

func TestEmitGrantORPair(t *testing.T) {
	policies := compilePaths(t, `
IF user is All
STATE enabled
REQUIRE AppProtection OR CompliantDevice
END
`)

	gc := policies[0].GrantControls
	if gc.Operator != "OR" {
		t.Errorf("Operator = %q, want %q", gc.Operator, "OR")
	}
	want := []string{"compliantApplication", "compliantDevice"}
	if !reflect.DeepEqual(gc.BuiltInControls, want) {
		t.Errorf("BuiltInControls = %v, want %v", gc.BuiltInControls, want)
	}
}

func TestEmitGuestShorthand(t *testing.T) {
	policies := compilePaths(t, `
IF user is Guest
STATE enabled
BLOCK
END
`)

	users := policies[0].Conditions.Users
	want := []string{"internalGuest", "b2bCollaborationGuest"}
	if !reflect.DeepEqual(users.IncludeGuestOrExternalUserTypes, want) {
		t.Errorf("IncludeGuestOrExternalUserTypes = %v, want %v",
			users.IncludeGuestOrExternalUserTypes, want)
	}
	if len(users.IncludeUsers) != 0 {
		t.Errorf("IncludeUsers = %v, want empty", users.IncludeUsers)
	}
}

func TestEmitGroupAndRoleScopes(t *testing.T) {
	policies := compilePaths(t, `
VAR Finance = "Finance Team" [11111111-1111-1111-1111-111111111111]

IF user in group Finance
user NOT in role "Global Admin" [22222222-2222-2222-2222-222222222222]
STATE enabled
REQUIRE MFA
END
`)

	users := policies[0].Conditions.Users
	if !reflect.DeepEqual(users.IncludeGroups, []string{"11111111-1111-1111-1111-111111111111"}) {
		t.Errorf("IncludeGroups = %v", users.IncludeGroups)
	}
	if !reflect.DeepEqual(users.ExcludeRoles, []string{"22222222-2222-2222-2222-222222222222"}) {
		t.Errorf("ExcludeRoles = %v", users.ExcludeRoles)
	}
}

func TestEmitAppAliasesAndGUIDs(t *testing.T) {
	policies := compilePaths(t, `
IF app is Office365
STATE enabled
BLOCK
ELSE IF app in "Payroll" [33333333-3333-3333-3333-333333333333]
STATE enabled
REQUIRE MFA
END
`)

	first := policies[0].Conditions.Applications
	if !reflect.DeepEqual(first.IncludeApplications, []string{"Office365"}) {
		t.Errorf("IncludeApplications = %v", first.IncludeApplications)
	}

	second := policies[1].Conditions.Applications
	if !reflect.DeepEqual(second.IncludeApplications, []string{"33333333-3333-3333-3333-333333333333"}) {
		t.Errorf("IncludeApplications = %v", second.IncludeApplications)
	}
}

func TestEmitDeviceAndClientMappings(t *testing.T) {
	policies := compilePaths(t, `
IF device is HybridJoined
client is MobileApp OR client is DesktopApp
STATE enabled
ALLOW
END
`)

	p := policies[0]
	if !reflect.DeepEqual(p.Conditions.DeviceStates.IncludeStates, []string{"domainJoinedDevice"}) {
		t.Errorf("IncludeStates = %v", p.Conditions.DeviceStates.IncludeStates)
	}
	// MobileApp and DesktopApp share one platform value; duplicates collapse.
	if !reflect.DeepEqual(p.Conditions.ClientAppTypes, []string{"mobileAppsAndDesktopClients"}) {
		t.Errorf("ClientAppTypes = %v", p.Conditions.ClientAppTypes)
	}
}

func TestEmitRiskLevelsLowercased(t *testing.T) {
	policies := compilePaths(t, `
IF signin-risk is High OR signin-risk is Medium
user-risk is High
STATE enabled
REQUIRE PasswordChange
END
`)

	p := policies[0]
	if !reflect.DeepEqual(p.Conditions.SignInRiskLevels, []string{"high", "medium"}) {
		t.Errorf("SignInRiskLevels = %v", p.Conditions.SignInRiskLevels)
	}
	if !reflect.DeepEqual(p.Conditions.UserRiskLevels, []string{"high"}) {
		t.Errorf("UserRiskLevels = %v", p.Conditions.UserRiskLevels)
	}
	if !reflect.DeepEqual(p.GrantControls.BuiltInControls, []string{"passwordChange"}) {
		t.Errorf("BuiltInControls = %v", p.GrantControls.BuiltInControls)
	}
}

func TestEmitSessionControls(t *testing.T) {
	policies := compilePaths(t, `
IF app is Office365
STATE report-only
SESSION signin-frequency 12 hours
SESSION persistent-browser never
SESSION monitor with CloudAppSecurity
SESSION block-downloads
END
`)

	p := policies[0]
	if p.State != "report-only" {
		t.Errorf("State = %q, want %q", p.State, "report-only")
	}
	s := p.SessionControls
	if s == nil {
		t.Fatal("SessionControls = nil")
	}
	if s.SignInFrequency.Value != 12 || s.SignInFrequency.Type != "hours" || !s.SignInFrequency.IsEnabled {
		t.Errorf("SignInFrequency = %+v", s.SignInFrequency)
	}
	if s.PersistentBrowser.Mode != "never" || !s.PersistentBrowser.IsEnabled {
		t.Errorf("PersistentBrowser = %+v", s.PersistentBrowser)
	}
	if s.CloudAppSecurity.CloudAppSecurityType != "monitorOnly" || !s.CloudAppSecurity.IsEnabled {
		t.Errorf("CloudAppSecurity = %+v", s.CloudAppSecurity)
	}
	if s.ApplicationEnforcedRestrictions == nil || !s.ApplicationEnforcedRestrictions.IsEnabled {
		t.Errorf("ApplicationEnforcedRestrictions = %+v", s.ApplicationEnforcedRestrictions)
	}
}

func TestEmitUnknownGrantControlLowercased(t *testing.T) {
	if got := MapGrantControl("FutureControl"); got != "futurecontrol" {
		t.Errorf("MapGrantControl = %q, want %q", got, "futurecontrol")
	}
}
