package carbon

import (
	"strings"
)

// Match priorities for keyword lookups.
const (
	priorityIngredient = 1 + iota
	priorityCategoryText
	prioritySegment
)

// CategoryFactor resolves free-text category and ingredient text to an
// emission factor in kg CO2e per kg. Categories are comma separated,
// most specific first, and may carry a language namespace ("en:cola").
//
// An exact match of a normalized segment wins outright. Otherwise every
// table keyword is tested for containment: inside a segment ranks above
// anywhere in the category text, which ranks above ingredients only.
// The result is never an error; unmatched input gets the default factor.
func CategoryFactor(categories, ingredients string) float64 {
	lower := strings.ToLower(categories)
	ingredientsLower := strings.ToLower(ingredients)
	segments := Segments(categories)

	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if f, ok := emissionIndex[seg]; ok {
			return f
		}
	}

	best, bestPriority := DefaultEmissionFactor, 0
	for _, f := range emissionFactors {
		if f.Key == defaultKey {
			continue
		}

		priority := 0
		switch {
		case containsAny(segments, f.Key):
			priority = prioritySegment
		case strings.Contains(lower, f.Key):
			priority = priorityCategoryText
		case strings.Contains(ingredientsLower, f.Key):
			priority = priorityIngredient
		}

		// strictly greater keeps the earliest table entry on ties
		if priority > bestPriority {
			best, bestPriority = f.Value, priority
		}
	}

	return best
}

// Segments splits a category hierarchy into normalized segments.
func Segments(categories string) []string {
	parts := strings.Split(categories, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, NormalizeSegment(p))
	}
	return out
}

// NormalizeSegment lowercases a single category tag, strips a namespace
// prefix such as "en:" and joins words with hyphens.
func NormalizeSegment(segment string) string {
	s := strings.ToLower(strings.TrimSpace(segment))
	if i := strings.IndexByte(s, ':'); i >= 0 && i <= 3 {
		s = strings.TrimSpace(s[i+1:])
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ':
			return '-'
		}
		return r
	}, s)
}

// PrimarySegment returns the first segment of a category hierarchy with its
// namespace removed but otherwise as written.
func PrimarySegment(categories string) string {
	first, _, _ := strings.Cut(categories, ",")
	first = strings.TrimSpace(first)
	if i := strings.IndexByte(first, ':'); i >= 0 && i <= 3 {
		first = strings.TrimSpace(first[i+1:])
	}
	return first
}

func containsAny(segments []string, keyword string) bool {
	for _, s := range segments {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
