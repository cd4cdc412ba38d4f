package carbon

import (
	"fmt"
	"math"
)

// Everyday equivalents per kg CO2e.
const (
	// MilesPerKg is driving an average car, about 0.4 kg CO2e per mile.
	MilesPerKg = 2.5
	// TVHoursPerKg is about 0.1 kg CO2e per viewing hour.
	TVHoursPerKg = 10.0
	// BulbHoursPerKg is an LED bulb at about 0.01 kg CO2e per hour.
	BulbHoursPerKg = 100.0
	// PhoneChargesPerKg is about 0.005 kg CO2e per full charge.
	PhoneChargesPerKg = 200.0
	// ShowersPerKg is a hot shower at about 0.5 kg CO2e.
	ShowersPerKg = 2.0

	maxComparisons = 3
)

// Comparison expresses a footprint as a familiar activity.
type Comparison struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// Comparisons returns up to three equivalents for a footprint. Small
// footprints get small-scale activities, large ones get showers.
func Comparisons(kg float64) []Comparison {
	if !(kg > 0) {
		return nil
	}

	out := []Comparison{
		{Label: "Driving", Value: fmt.Sprintf("%.1f miles", kg*MilesPerKg), Icon: "🚗"},
		{Label: "TV watching", Value: fmt.Sprintf("%.0f hours", kg*TVHoursPerKg), Icon: "📺"},
	}
	if kg < 5 {
		out = append(out, Comparison{Label: "Lightbulb", Value: fmt.Sprintf("%.0f hours", kg*BulbHoursPerKg), Icon: "💡"})
	}
	if kg < 2 {
		out = append(out, Comparison{Label: "Phone charges", Value: fmt.Sprintf("%d charges", int(math.Round(kg*PhoneChargesPerKg))), Icon: "📱"})
	}
	if kg > 0.5 {
		out = append(out, Comparison{Label: "Hot showers", Value: fmt.Sprintf("%.1f showers", kg*ShowersPerKg), Icon: "🚿"})
	}

	if len(out) > maxComparisons {
		out = out[:maxComparisons]
	}
	return out
}
