package carbon

import (
	"math"
	"strings"
)

// novaStep is the extra share of base footprint per NOVA level above 1.
const novaStep = 0.15

// Input is the product metadata the estimator reads. Nova is 0 when the
// processing level is unknown.
type Input struct {
	Categories  string
	Quantity    string
	Packaging   string
	Ingredients string
	Nova        int
}

// External carries figures supplied by the product catalog itself.
type External struct {
	// FootprintPer100g is in grams CO2e per 100 g of product; zero means absent.
	FootprintPer100g float64
	Grade            string
}

// Assessment is the footprint and grade attached to a product.
type Assessment struct {
	FootprintKg float64 `json:"footprint_kg"`
	Grade       Grade   `json:"grade"`
	WeightKg    float64 `json:"weight_kg"`
	External    bool    `json:"external"`
}

// Estimate returns the rule-based footprint in kg CO2e rounded to one
// decimal: weight times category factor, scaled by the NOVA level, plus the
// packaging term.
func Estimate(in Input) float64 {
	weight := ExtractWeightKg(in.Quantity)
	base := weight * CategoryFactor(in.Categories, in.Ingredients)
	base *= NovaMultiplier(in.Nova)
	return Round1(base + PackagingFactor(in.Packaging))
}

// NovaMultiplier maps NOVA 1..4 to 1.00, 1.15, 1.30, 1.45. Other values
// leave the footprint unadjusted.
func NovaMultiplier(nova int) float64 {
	if !ValidNova(nova) {
		return 1
	}
	return 1 + float64(nova-1)*novaStep
}

// ValidNova reports whether n is a NOVA processing level.
func ValidNova(n int) bool {
	return n >= 1 && n <= 4
}

// Assess picks footprint and grade for a product. A catalog footprint per
// 100 g is preferred over the estimate, and a catalog grade over a derived
// one. Derived grades always use the footprint per kilogram.
func Assess(in Input, ext External) Assessment {
	weight := ExtractWeightKg(in.Quantity)
	a := Assessment{WeightKg: weight}

	if ext.FootprintPer100g > 0 && !math.IsInf(ext.FootprintPer100g, 0) {
		a.FootprintKg = Round1(ext.FootprintPer100g * weight * 1000 / 100000)
		a.External = true
	} else {
		a.FootprintKg = Estimate(in)
	}

	if g, ok := ParseGrade(ext.Grade); ok {
		a.Grade = g
	} else {
		a.Grade = GradeFor(a.FootprintKg, weight)
	}
	return a
}

// Round1 rounds half up to one decimal place.
func Round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// JoinTags joins catalog tag lists such as packaging_tags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
