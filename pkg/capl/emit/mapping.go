package emit

import "strings"

// Grant control keywords map to the identity platform's built-in control
// identifiers. Unknown controls pass through lowercased so new platform
// controls work without a compiler release.
var grantControlNames = map[string]string{
	"MFA":             "mfa",
	"CompliantDevice": "compliantDevice",
	"HybridJoined":    "domainJoinedDevice",
	"ApprovedApp":     "approvedApplication",
	"AppProtection":   "compliantApplication",
	"PasswordChange":  "passwordChange",
}

// MapGrantControl translates a REQUIRE keyword into its platform identifier.
func MapGrantControl(control string) string {
	if mapped, ok := grantControlNames[control]; ok {
		return mapped
	}
	return strings.ToLower(control)
}

// Client app keywords map to the platform's clientAppTypes values. MobileApp
// and DesktopApp share one platform value.
var clientAppNames = map[string]string{
	"Browser":            "browser",
	"MobileApp":          "mobileAppsAndDesktopClients",
	"DesktopApp":         "mobileAppsAndDesktopClients",
	"ExchangeActiveSync": "exchangeActiveSync",
	"Other":              "other",
}

// MapClientApp translates a client keyword into its clientAppTypes value.
func MapClientApp(client string) string {
	if mapped, ok := clientAppNames[client]; ok {
		return mapped
	}
	return strings.ToLower(client)
}

var deviceStateNames = map[string]string{
	"Compliant":    "compliantDevice",
	"HybridJoined": "domainJoinedDevice",
}

// MapDeviceState translates a device keyword into its state identifier.
func MapDeviceState(state string) string {
	if mapped, ok := deviceStateNames[state]; ok {
		return mapped
	}
	return strings.ToLower(state)
}

// GuestUserTypes is the expansion of the `user is Guest` shorthand.
var GuestUserTypes = []string{"internalGuest", "b2bCollaborationGuest"}

// TrustedLocationAlias is the named-location alias for `location is Trusted`.
const TrustedLocationAlias = "AllTrusted"
