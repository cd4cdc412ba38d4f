package carbon

import "strings"

// Grade is an eco score letter. E is not used.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// thresholds are exclusive upper bounds in kg CO2e per kg.
var thresholds = []struct {
	below float64
	grade Grade
}{
	{1, GradeA},
	{2, GradeB},
	{4, GradeC},
	{8, GradeD},
}

// Classify maps a footprint per kilogram to a grade. Boundaries belong to
// the worse grade: 1.0 is B, 8.0 is F.
func Classify(perKg float64) Grade {
	for _, t := range thresholds {
		if perKg < t.below {
			return t.grade
		}
	}
	return GradeF
}

// GradeFor classifies a total footprint over the product weight. A
// non-positive weight classifies the total itself.
func GradeFor(totalKg, weightKg float64) Grade {
	perKg := totalKg
	if weightKg > 0 {
		perKg = totalKg / weightKg
	}
	return Classify(perKg)
}

// ParseGrade accepts a single letter A, B, C, D or F in either case.
func ParseGrade(s string) (Grade, bool) {
	switch g := Grade(strings.ToUpper(strings.TrimSpace(s))); g {
	case GradeA, GradeB, GradeC, GradeD, GradeF:
		return g, true
	}
	return "", false
}

// EcoFriendly reports whether the grade counts as an eco-friendly choice.
func (g Grade) EcoFriendly() bool {
	return g == GradeA || g == GradeB
}

// NeedsAlternatives reports whether substitutes should be suggested.
func (g Grade) NeedsAlternatives() bool {
	return g == GradeC || g == GradeD || g == GradeF
}
