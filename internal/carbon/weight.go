package carbon

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultWeightKg is used when a quantity cannot be parsed.
const DefaultWeightKg = 0.5

var (
	netGramsPattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*g(?:ram)?s?\s*net`)
	gramsPattern       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*g(?:ram)?s?(?:\s|$|,|x)`)
	kilogramsPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k(?:ilo)?g?(?:\s|$|,)`)
	multiMillisPattern = regexp.MustCompile(`(\d+)\s*x\s*(\d+(?:\.\d+)?)\s*m(?:illi)?l`)
	millisPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*m(?:illi)?l(?:itre)?s?(?:\s|$|,)`)
	multiGramsPattern  = regexp.MustCompile(`(\d+)\s*x\s*(\d+(?:\.\d+)?)\s*g`)
)

// ExtractWeightKg parses a free-text quantity such as "500g", "1 kg",
// "2x250ml" or "500g net / 550g gross". Patterns are tried in a fixed
// order and the first match wins. Millilitres are read at a density of 1.
// Anything unparseable yields DefaultWeightKg.
func ExtractWeightKg(quantity string) float64 {
	q := strings.ToLower(strings.TrimSpace(quantity))
	if q == "" {
		return DefaultWeightKg
	}

	if m := netGramsPattern.FindStringSubmatch(q); m != nil {
		return number(m[1]) / 1000
	}
	if m := gramsPattern.FindStringSubmatch(q); m != nil {
		return number(m[1]) / 1000
	}
	if m := kilogramsPattern.FindStringSubmatch(q); m != nil {
		return number(m[1])
	}
	if m := multiMillisPattern.FindStringSubmatch(q); m != nil {
		return number(m[1]) * number(m[2]) / 1000
	}
	if m := millisPattern.FindStringSubmatch(q); m != nil {
		return number(m[1]) / 1000
	}
	if m := multiGramsPattern.FindStringSubmatch(q); m != nil {
		return number(m[1]) * number(m[2]) / 1000
	}

	return DefaultWeightKg
}

// number parses a regexp capture that is known to be digits with an
// optional fraction.
func number(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
