// Package strings holds small string-slice helpers shared by the
// platform packages.
package strings

import "strings"

// DedupeAndTrim trims every element, drops empties, and removes
// duplicates, keeping first-occurrence order. Comma-split env lists
// (broker addresses) pass through here so " a, b,,a " comes out as
// ["a", "b"].
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
