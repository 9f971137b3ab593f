package models

import "strings"

// Badge and tag sets are persisted as comma-joined text. Values containing
// the delimiter are not escaped; that matches the stored format this
// service inherited and is a documented limitation.

// SplitDelimited parses comma-joined storage text into a slice.
func SplitDelimited(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// JoinDelimited serializes a slice into the comma-joined storage form.
func JoinDelimited(values []string) string {
	return strings.Join(values, ",")
}
