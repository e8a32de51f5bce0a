// Package emit turns normalized policy paths into self-contained
// GeneratedPolicy records in the canonical schema consumed by downstream
// serializers and the identity platform's import tooling.
package emit

// GeneratedPolicy is the flattened output record for one policy path.
// Empty aggregates are omitted from serialized output.
type GeneratedPolicy struct {
	DisplayName     string           `yaml:"DisplayName" json:"DisplayName"`
	State           string           `yaml:"State" json:"State"`
	Conditions      *Conditions      `yaml:"Conditions,omitempty" json:"Conditions,omitempty"`
	GrantControls   *GrantControls   `yaml:"GrantControls,omitempty" json:"GrantControls,omitempty"`
	SessionControls *SessionControls `yaml:"SessionControls,omitempty" json:"SessionControls,omitempty"`

	// Source metadata, not part of the import schema.
	SourceFile string `yaml:"-" json:"-"`
	PathIndex  int    `yaml:"-" json:"-"`
}

// Conditions aggregates the merged include and exclude value lists per
// category. Client app types and risk levels have no exclusion fields.
type Conditions struct {
	Users            *UserConditions     `yaml:"Users,omitempty" json:"Users,omitempty"`
	Applications     *AppConditions      `yaml:"Applications,omitempty" json:"Applications,omitempty"`
	Platforms        *PlatformConditions `yaml:"Platforms,omitempty" json:"Platforms,omitempty"`
	Locations        *LocationConditions `yaml:"Locations,omitempty" json:"Locations,omitempty"`
	DeviceStates     *DeviceConditions   `yaml:"DeviceStates,omitempty" json:"DeviceStates,omitempty"`
	ClientAppTypes   []string            `yaml:"ClientAppTypes,omitempty" json:"ClientAppTypes,omitempty"`
	SignInRiskLevels []string            `yaml:"SignInRiskLevels,omitempty" json:"SignInRiskLevels,omitempty"`
	UserRiskLevels   []string            `yaml:"UserRiskLevels,omitempty" json:"UserRiskLevels,omitempty"`
}

// IsEmpty reports whether no condition field is populated.
func (c *Conditions) IsEmpty() bool {
	return c.Users == nil && c.Applications == nil && c.Platforms == nil &&
		c.Locations == nil && c.DeviceStates == nil &&
		len(c.ClientAppTypes) == 0 && len(c.SignInRiskLevels) == 0 &&
		len(c.UserRiskLevels) == 0
}

type UserConditions struct {
	IncludeUsers                    []string `yaml:"IncludeUsers,omitempty" json:"IncludeUsers,omitempty"`
	ExcludeUsers                    []string `yaml:"ExcludeUsers,omitempty" json:"ExcludeUsers,omitempty"`
	IncludeGroups                   []string `yaml:"IncludeGroups,omitempty" json:"IncludeGroups,omitempty"`
	ExcludeGroups                   []string `yaml:"ExcludeGroups,omitempty" json:"ExcludeGroups,omitempty"`
	IncludeRoles                    []string `yaml:"IncludeRoles,omitempty" json:"IncludeRoles,omitempty"`
	ExcludeRoles                    []string `yaml:"ExcludeRoles,omitempty" json:"ExcludeRoles,omitempty"`
	IncludeGuestOrExternalUserTypes []string `yaml:"IncludeGuestOrExternalUserTypes,omitempty" json:"IncludeGuestOrExternalUserTypes,omitempty"`
	ExcludeGuestOrExternalUserTypes []string `yaml:"ExcludeGuestOrExternalUserTypes,omitempty" json:"ExcludeGuestOrExternalUserTypes,omitempty"`
}

type AppConditions struct {
	IncludeApplications []string `yaml:"IncludeApplications,omitempty" json:"IncludeApplications,omitempty"`
	ExcludeApplications []string `yaml:"ExcludeApplications,omitempty" json:"ExcludeApplications,omitempty"`
}

type PlatformConditions struct {
	IncludePlatforms []string `yaml:"IncludePlatforms,omitempty" json:"IncludePlatforms,omitempty"`
	ExcludePlatforms []string `yaml:"ExcludePlatforms,omitempty" json:"ExcludePlatforms,omitempty"`
}

type LocationConditions struct {
	IncludeLocations []string `yaml:"IncludeLocations,omitempty" json:"IncludeLocations,omitempty"`
	ExcludeLocations []string `yaml:"ExcludeLocations,omitempty" json:"ExcludeLocations,omitempty"`
}

type DeviceConditions struct {
	IncludeStates []string `yaml:"IncludeStates,omitempty" json:"IncludeStates,omitempty"`
	ExcludeStates []string `yaml:"ExcludeStates,omitempty" json:"ExcludeStates,omitempty"`
}

// GrantControls carries the enforcement outcome. Operator is "OR" when any
// grant offered an alternate control or the outcome is a block, "AND" when
// stacked REQUIRE lines must all be satisfied. An ALLOW leaf emits no
// GrantControls at all.
type GrantControls struct {
	Operator        string   `yaml:"Operator" json:"Operator"`
	BuiltInControls []string `yaml:"BuiltInControls" json:"BuiltInControls"`
}

type SessionControls struct {
	SignInFrequency                 *SignInFrequency   `yaml:"SignInFrequency,omitempty" json:"SignInFrequency,omitempty"`
	PersistentBrowser               *PersistentBrowser `yaml:"PersistentBrowser,omitempty" json:"PersistentBrowser,omitempty"`
	CloudAppSecurity                *CloudAppSecurity  `yaml:"CloudAppSecurity,omitempty" json:"CloudAppSecurity,omitempty"`
	ApplicationEnforcedRestrictions *EnabledFlag       `yaml:"ApplicationEnforcedRestrictions,omitempty" json:"ApplicationEnforcedRestrictions,omitempty"`
}

// IsEmpty reports whether no session control is set.
func (s *SessionControls) IsEmpty() bool {
	return s.SignInFrequency == nil && s.PersistentBrowser == nil &&
		s.CloudAppSecurity == nil && s.ApplicationEnforcedRestrictions == nil
}

type SignInFrequency struct {
	Value     int    `yaml:"Value" json:"Value"`
	Type      string `yaml:"Type" json:"Type"` // hours or days
	IsEnabled bool   `yaml:"IsEnabled" json:"IsEnabled"`
}

type PersistentBrowser struct {
	Mode      string `yaml:"Mode" json:"Mode"` // always or never
	IsEnabled bool   `yaml:"IsEnabled" json:"IsEnabled"`
}

type CloudAppSecurity struct {
	CloudAppSecurityType string `yaml:"CloudAppSecurityType" json:"CloudAppSecurityType"`
	IsEnabled            bool   `yaml:"IsEnabled" json:"IsEnabled"`
}

type EnabledFlag struct {
	IsEnabled bool `yaml:"IsEnabled" json:"IsEnabled"`
}
