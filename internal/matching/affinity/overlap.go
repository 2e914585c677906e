// internal/matching/affinity/overlap.go
package affinity

import "strings"

// tokenSet lowercases and trims the inputs into a membership set.
// Empty strings are dropped.
func tokenSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		tok := strings.ToLower(strings.TrimSpace(it))
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}

// overlapRatio is the Jaccard ratio of two token lists as a 0-100
// percentage. Either list empty yields 0.
func overlapRatio(a, b []string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for tok := range sa {
		if sb[tok] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union) * 100
}

// normalizedDifference compares two non-negative quantities as a 0-100
// similarity: equal values score 100, disjoint magnitudes approach 0.
func normalizedDifference(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 100
	}
	max := a
	if b > max {
		max = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return (1 - diff/max) * 100
}

// tokens splits free text on whitespace into normalized tokens.
func tokens(s string) []string {
	return fieldsLower(s)
}

func fieldsLower(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func lower(s string) string {
	return strings.ToLower(s)
}

func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
