package carbon

import "strings"

// PackagingFactor returns the additive packaging term in kg CO2e. Materials
// are tested in table order and the first one contained in the text wins.
// Absent or unknown packaging gets DefaultPackagingTerm.
func PackagingFactor(packaging string) float64 {
	lower := strings.ToLower(packaging)
	if strings.TrimSpace(lower) == "" {
		return DefaultPackagingTerm
	}
	for _, f := range packagingFactors {
		if f.Key == defaultKey {
			continue
		}
		if strings.Contains(lower, f.Key) {
			return f.Value
		}
	}
	return DefaultPackagingTerm
}
