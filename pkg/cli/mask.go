package cli

import "strings"

// MaskSecret masks a key or token for display, keeping the first and last
// four characters of long values.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
