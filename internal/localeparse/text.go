package localeparse

import "strings"

// Truncate cuts s to at most n runes after trimming surrounding space.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// JoinNonEmpty joins the non-blank parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// OptionalText returns nil for blank input, otherwise the truncated text.
func OptionalText(s string, n int) *string {
	s = Truncate(s, n)
	if s == "" {
		return nil
	}
	return &s
}
