package http

import "strings"

// SanitizeString strips null bytes and non-printable control characters from
// externally supplied text before it reaches the dispatcher or the audit log.
// Newlines and tabs are kept; users do send multi-line messages.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
