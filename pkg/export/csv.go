package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"capl-hq/capl/pkg/capl/emit"
)

// CSVExporter exports policy records to CSV for spreadsheet review. Nested
// condition lists are flattened into semicolon-separated cells.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes one row per policy.
func (e *CSVExporter) Export(ctx context.Context, policies []*emit.GeneratedPolicy, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.headerRow()); err != nil {
			return NewExportError("csv", len(policies), err)
		}
	}

	for i, policy := range policies {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := writer.Write(e.policyToRow(policy)); err != nil {
			return NewExportError("csv", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return NewExportError("csv", len(policies), err)
	}
	return nil
}

func (e *CSVExporter) headerRow() []string {
	return []string{
		"display_name",
		"state",
		"include_users",
		"exclude_users",
		"include_groups",
		"exclude_groups",
		"include_roles",
		"exclude_roles",
		"applications",
		"platforms",
		"locations",
		"exclude_locations",
		"device_states",
		"client_app_types",
		"signin_risk_levels",
		"user_risk_levels",
		"grant_operator",
		"grant_controls",
		"session_controls",
	}
}

func (e *CSVExporter) policyToRow(policy *emit.GeneratedPolicy) []string {
	row := make([]string, 0, 19)
	row = append(row, policy.DisplayName, policy.State)

	c := policy.Conditions
	if c == nil {
		c = &emit.Conditions{}
	}
	u := c.Users
	if u == nil {
		u = &emit.UserConditions{}
	}
	row = append(row,
		joinList(u.IncludeUsers),
		joinList(u.ExcludeUsers),
		joinList(u.IncludeGroups),
		joinList(u.ExcludeGroups),
		joinList(u.IncludeRoles),
		joinList(u.ExcludeRoles),
	)

	var apps, platforms, locIn, locEx, devices []string
	if c.Applications != nil {
		apps = c.Applications.IncludeApplications
	}
	if c.Platforms != nil {
		platforms = c.Platforms.IncludePlatforms
	}
	if c.Locations != nil {
		locIn = c.Locations.IncludeLocations
		locEx = c.Locations.ExcludeLocations
	}
	if c.DeviceStates != nil {
		devices = c.DeviceStates.IncludeStates
	}
	row = append(row,
		joinList(apps),
		joinList(platforms),
		joinList(locIn),
		joinList(locEx),
		joinList(devices),
		joinList(c.ClientAppTypes),
		joinList(c.SignInRiskLevels),
		joinList(c.UserRiskLevels),
	)

	if policy.GrantControls != nil {
		row = append(row, policy.GrantControls.Operator, joinList(policy.GrantControls.BuiltInControls))
	} else {
		row = append(row, "", "")
	}

	row = append(row, sessionSummary(policy.SessionControls))
	return row
}

func joinList(values []string) string {
	return strings.Join(values, ";")
}

// sessionSummary compacts the session aggregate into one readable cell.
func sessionSummary(s *emit.SessionControls) string {
	if s == nil {
		return ""
	}
	var parts []string
	if s.SignInFrequency != nil {
		parts = append(parts, fmt.Sprintf("signin-frequency=%d %s", s.SignInFrequency.Value, s.SignInFrequency.Type))
	}
	if s.PersistentBrowser != nil {
		parts = append(parts, "persistent-browser="+s.PersistentBrowser.Mode)
	}
	if s.CloudAppSecurity != nil {
		parts = append(parts, "cloud-app-security="+s.CloudAppSecurity.CloudAppSecurityType)
	}
	if s.ApplicationEnforcedRestrictions != nil {
		parts = append(parts, "app-enforced-restrictions")
	}
	return strings.Join(parts, ";")
}
