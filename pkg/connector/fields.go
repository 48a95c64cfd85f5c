package connector

import "strings"

// SplitFields turns a comma-separated field list into an ordered selector.
// Blank entries are dropped; an empty or all-whitespace input yields an empty
// selector, which downstream means "no restriction".
func SplitFields(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}
