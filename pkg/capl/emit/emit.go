package emit

import (
	"strings"

	"capl-hq/capl/pkg/capl/ast"
	"capl-hq/capl/pkg/capl/flatten"
)

// Emit builds the GeneratedPolicy record for one normalized path.
func Emit(np *flatten.NormalizedPath, displayName, sourceFile string) *GeneratedPolicy {
	policy := &GeneratedPolicy{
		DisplayName: displayName,
		State:       string(np.Path.State),
		SourceFile:  sourceFile,
		PathIndex:   np.Path.Index,
	}

	conditions := buildConditions(np.Buckets)
	if !conditions.IsEmpty() {
		policy.Conditions = conditions
	}

	policy.GrantControls = buildGrantControls(np.Path.Actions)

	session := buildSessionControls(np.Path.Actions)
	if !session.IsEmpty() {
		policy.SessionControls = session
	}

	return policy
}

func buildConditions(buckets []*flatten.Bucket) *Conditions {
	conditions := &Conditions{}

	for _, bucket := range buckets {
		switch bucket.Category {
		case ast.CategoryUser:
			addUsers(conditions, bucket)
		case ast.CategoryApplication:
			apps := ensureApps(conditions)
			apps.IncludeApplications = appendValues(apps.IncludeApplications, bucket.Include, appValue)
			apps.ExcludeApplications = appendValues(apps.ExcludeApplications, bucket.Exclude, appValue)
		case ast.CategoryPlatform:
			platforms := ensurePlatforms(conditions)
			platforms.IncludePlatforms = appendValues(platforms.IncludePlatforms, bucket.Include, nameValue)
			platforms.ExcludePlatforms = appendValues(platforms.ExcludePlatforms, bucket.Exclude, nameValue)
		case ast.CategoryDevice:
			devices := ensureDevices(conditions)
			devices.IncludeStates = appendValues(devices.IncludeStates, bucket.Include, deviceValue)
			devices.ExcludeStates = appendValues(devices.ExcludeStates, bucket.Exclude, deviceValue)
		case ast.CategoryLocation:
			locations := ensureLocations(conditions)
			locations.IncludeLocations = appendValues(locations.IncludeLocations, bucket.Include, locationValue)
			locations.ExcludeLocations = appendValues(locations.ExcludeLocations, bucket.Exclude, locationValue)
		case ast.CategoryClient:
			conditions.ClientAppTypes = appendValues(conditions.ClientAppTypes, bucket.Include, clientValue)
		case ast.CategorySignInRisk:
			conditions.SignInRiskLevels = appendValues(conditions.SignInRiskLevels, bucket.Include, riskValue)
		case ast.CategoryUserRisk:
			conditions.UserRiskLevels = appendValues(conditions.UserRiskLevels, bucket.Include, riskValue)
		}
	}

	return conditions
}

// addUsers routes a user bucket into the right field set. Group and role
// scopes carry GUIDs; unscoped values are the All and Guest shorthands.
func addUsers(conditions *Conditions, bucket *flatten.Bucket) {
	users := ensureUsers(conditions)

	switch bucket.Scope {
	case ast.ScopeGroup:
		users.IncludeGroups = appendValues(users.IncludeGroups, bucket.Include, idValue)
		users.ExcludeGroups = appendValues(users.ExcludeGroups, bucket.Exclude, idValue)
	case ast.ScopeRole:
		users.IncludeRoles = appendValues(users.IncludeRoles, bucket.Include, idValue)
		users.ExcludeRoles = appendValues(users.ExcludeRoles, bucket.Exclude, idValue)
	default:
		for _, v := range bucket.Include {
			if v.Name == "Guest" {
				users.IncludeGuestOrExternalUserTypes = appendUnique(users.IncludeGuestOrExternalUserTypes, GuestUserTypes...)
				continue
			}
			users.IncludeUsers = appendUnique(users.IncludeUsers, nameValue(v))
		}
		for _, v := range bucket.Exclude {
			if v.Name == "Guest" {
				users.ExcludeGuestOrExternalUserTypes = appendUnique(users.ExcludeGuestOrExternalUserTypes, GuestUserTypes...)
				continue
			}
			users.ExcludeUsers = appendUnique(users.ExcludeUsers, nameValue(v))
		}
	}
}

func buildGrantControls(actions []*ast.Action) *GrantControls {
	var controls []string
	operator := "AND"

	for _, action := range actions {
		switch action.Kind {
		case ast.ActionBlock:
			return &GrantControls{Operator: "OR", BuiltInControls: []string{"block"}}
		case ast.ActionAllow:
			// Allow is the absence of grant controls. A REQUIRE in the
			// same list takes precedence, so nothing to do here.
		case ast.ActionGrant:
			if action.IsGrantOR() {
				operator = "OR"
			}
			for _, control := range action.Controls {
				controls = appendUnique(controls, MapGrantControl(control))
			}
		}
	}

	if len(controls) == 0 {
		return nil
	}
	return &GrantControls{Operator: operator, BuiltInControls: controls}
}

func buildSessionControls(actions []*ast.Action) *SessionControls {
	session := &SessionControls{}

	for _, action := range actions {
		if action.Kind != ast.ActionSession || action.Session == nil {
			continue
		}
		switch action.Session.Kind {
		case ast.SessionSignInFrequency:
			session.SignInFrequency = &SignInFrequency{
				Value:     action.Session.Value,
				Type:      action.Session.Unit,
				IsEnabled: true,
			}
		case ast.SessionPersistentBrowser:
			session.PersistentBrowser = &PersistentBrowser{
				Mode:      action.Session.Mode,
				IsEnabled: true,
			}
		case ast.SessionCloudAppMonitor:
			session.CloudAppSecurity = &CloudAppSecurity{
				CloudAppSecurityType: "monitorOnly",
				IsEnabled:            true,
			}
		case ast.SessionBlockDownloads:
			session.ApplicationEnforcedRestrictions = &EnabledFlag{IsEnabled: true}
		}
	}

	return session
}

func ensureUsers(c *Conditions) *UserConditions {
	if c.Users == nil {
		c.Users = &UserConditions{}
	}
	return c.Users
}

func ensureApps(c *Conditions) *AppConditions {
	if c.Applications == nil {
		c.Applications = &AppConditions{}
	}
	return c.Applications
}

func ensurePlatforms(c *Conditions) *PlatformConditions {
	if c.Platforms == nil {
		c.Platforms = &PlatformConditions{}
	}
	return c.Platforms
}

func ensureDevices(c *Conditions) *DeviceConditions {
	if c.DeviceStates == nil {
		c.DeviceStates = &DeviceConditions{}
	}
	return c.DeviceStates
}

func ensureLocations(c *Conditions) *LocationConditions {
	if c.Locations == nil {
		c.Locations = &LocationConditions{}
	}
	return c.Locations
}

func appendValues(dst []string, values []ast.Value, render func(ast.Value) string) []string {
	for _, v := range values {
		dst = appendUnique(dst, render(v))
	}
	return dst
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, have := range dst {
			if have == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// idValue prefers the resolved GUID; a bare name survives only when the
// source supplied no identifier.
func idValue(v ast.Value) string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

func nameValue(v ast.Value) string {
	if v.Name != "" {
		return v.Name
	}
	return v.ID
}

// appValue keeps well-known application aliases by name and falls back to
// the GUID for everything declared with an identifier.
func appValue(v ast.Value) string {
	if v.Name == "All" || v.Name == "Office365" {
		return v.Name
	}
	return idValue(v)
}

func locationValue(v ast.Value) string {
	switch v.Name {
	case "Trusted":
		return TrustedLocationAlias
	case "All":
		return "All"
	}
	return idValue(v)
}

func deviceValue(v ast.Value) string {
	return MapDeviceState(v.Name)
}

func clientValue(v ast.Value) string {
	return MapClientApp(v.Name)
}

func riskValue(v ast.Value) string {
	return strings.ToLower(v.Name)
}
