package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ContainsFold reports whether `s` is in `list`, ignoring case and surrounding whitespace.
func ContainsFold(list []string, s string) bool {
	s = CleanString(s)
	for _, item := range list {
		if strings.EqualFold(CleanString(item), s) {
			return true
		}
	}
	return false
}
