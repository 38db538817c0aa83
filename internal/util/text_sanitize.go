package util

import "strings"

// SanitizeText strips the characters Postgres text columns reject, NUL
// above all (some PDF extractors emit it freely), plus the remaining
// non-printing controls. Tabs and line breaks survive.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}
