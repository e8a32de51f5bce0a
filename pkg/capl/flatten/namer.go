package flatten

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// DefaultNamePrefix is used when the source has no usable file stem, e.g.
// compilation from an in-memory buffer.
const DefaultNamePrefix = "Generated"

// NamePrefix derives the display-name prefix from a source path: the base
// name without extension, or DefaultNamePrefix when there is none.
func NamePrefix(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stem = sanitizeToken(stem)
	if stem == "" || stem == "." {
		return DefaultNamePrefix
	}
	return stem
}

// Name builds the deterministic display name for a normalized path:
// the prefix, the 1-based path index, and up to two distinguishing tokens
// drawn from the deepest conditions on the path. Negated values carry a
// "Not" prefix. Same input, same name, on every run.
func Name(prefix string, np *NormalizedPath) string {
	parts := []string{prefix, fmt.Sprintf("%d", np.Path.Index)}
	parts = append(parts, distinguishers(np, 2)...)
	return strings.Join(parts, "-")
}

// distinguishers scans the raw condition stack from deepest to shallowest
// and returns up to max tokens naming the values that set this path apart.
func distinguishers(np *NormalizedPath, max int) []string {
	var tokens []string
	seen := make(map[string]bool)

	conds := np.Path.Conditions
	for i := len(conds) - 1; i >= 0 && len(tokens) < max; i-- {
		cond := conds[i]
		for _, v := range cond.Values {
			token := sanitizeToken(v.Name)
			if token == "" {
				token = sanitizeToken(v.Key())
			}
			if token == "" {
				continue
			}
			if cond.Negated {
				token = "Not" + token
			}
			if seen[token] {
				continue
			}
			seen[token] = true
			tokens = append(tokens, token)
			if len(tokens) == max {
				break
			}
		}
	}

	// Reverse so tokens read shallow-to-deep, matching the order the
	// conditions appear in the source.
	for l, r := 0, len(tokens)-1; l < r; l, r = l+1, r-1 {
		tokens[l], tokens[r] = tokens[r], tokens[l]
	}
	return tokens
}

// sanitizeToken strips everything but letters and digits and upper-cases
// the first letter of each word, so "trusted offices" becomes
// "TrustedOffices".
func sanitizeToken(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if upperNext {
				b.WriteRune(unicode.ToUpper(r))
				upperNext = false
			} else {
				b.WriteRune(r)
			}
		case unicode.IsDigit(r):
			b.WriteRune(r)
			upperNext = false
		default:
			upperNext = true
		}
	}
	return b.String()
}
