package carbon

// Emission factors in kg CO2e per kg of product, after Poore & Nemecek (2018)
// and Our World in Data. Table order matters: when several keywords match a
// category with the same priority, the earlier entry wins.

// Factor is one keyed entry of a lookup table.
type Factor struct {
	Key   string
	Value float64
}

const (
	defaultKey = "default"

	// DefaultEmissionFactor applies when no category keyword matches.
	DefaultEmissionFactor = 2.0
	// DefaultPackagingTerm applies when packaging is absent or unknown.
	DefaultPackagingTerm = 0.25
)

var emissionFactors = []Factor{
	// Meat
	{"beef", 60}, {"lamb", 24}, {"mutton", 24}, {"pork", 7}, {"ham", 7.5}, {"bacon", 8},
	{"poultry", 6}, {"chicken", 6}, {"turkey", 6.5}, {"duck", 6.5},

	// Seafood
	{"fish", 5}, {"salmon", 6}, {"tuna", 6}, {"cod", 4}, {"shrimp", 12}, {"prawns", 12}, {"shellfish", 8},

	// Dairy
	{"dairy", 3.5}, {"milk", 3.2}, {"cheese", 21}, {"hard-cheese", 21}, {"soft-cheese", 12},
	{"yogurt", 3.3}, {"greek-yogurt", 3.5}, {"butter", 12}, {"cream", 7}, {"ice-cream", 3.5}, {"eggs", 4.5},

	// Plant proteins
	{"legumes", 0.9}, {"beans", 0.9}, {"lentils", 0.9}, {"chickpeas", 0.9}, {"tofu", 2.0}, {"tempeh", 2.2},
	{"soy-milk", 1.0}, {"almond-milk", 0.7}, {"oat-milk", 0.9},

	// Grains
	{"rice", 4}, {"brown-rice", 3.5}, {"wheat", 1.4}, {"oats", 2.5}, {"quinoa", 2.1}, {"barley", 1.2},
	{"rye", 1.2}, {"grains", 1.2}, {"bread", 0.8}, {"whole-wheat-bread", 0.7}, {"pasta", 1.5},
	{"whole-wheat-pasta", 1.3}, {"noodles", 1.5},

	// Produce. tomatoes are greenhouse grown.
	{"vegetables", 0.8}, {"fresh-vegetables", 0.8}, {"frozen-vegetables", 0.9}, {"fruits", 0.9},
	{"fresh-fruits", 0.9}, {"frozen-fruits", 1.0}, {"tomatoes", 2.2}, {"field-tomatoes", 1.4},
	{"avocados", 2.0}, {"bananas", 0.7}, {"apples", 0.4}, {"oranges", 0.3}, {"berries", 0.5},

	// Nuts and seeds
	{"nuts", 0.3}, {"almonds", 2.3}, {"walnuts", 0.3}, {"peanuts", 2.5}, {"cashews", 3.2}, {"seeds", 0.3},

	// Beverages
	{"soft-drinks", 0.3}, {"carbonated-drinks", 0.3}, {"cola", 0.3}, {"fruit-juice", 0.9},
	{"orange-juice", 0.9}, {"apple-juice", 0.7}, {"coffee", 17}, {"instant-coffee", 19}, {"tea", 0.2},
	{"green-tea", 0.2}, {"black-tea", 0.2}, {"herbal-tea", 0.2}, {"alcoholic", 2.4}, {"beer", 0.6},
	{"wine", 1.4}, {"spirits", 2.4},

	// Processed foods
	{"chocolate", 19}, {"dark-chocolate", 19}, {"milk-chocolate", 19}, {"cookies", 1.8}, {"biscuits", 1.8},
	{"chips", 2.3}, {"potato-chips", 2.3}, {"crackers", 1.5}, {"snacks", 2.0},

	// Oils and fats
	{"oil", 3.3}, {"vegetable-oil", 3.3}, {"olive-oil", 6.0}, {"palm-oil", 7.5}, {"coconut-oil", 3.2},
	{"sunflower-oil", 3.3}, {"rapeseed-oil", 3.2}, {"margarine", 2.0},

	// Sweeteners and condiments
	{"sugar", 0.9}, {"white-sugar", 0.9}, {"brown-sugar", 0.9}, {"honey", 1.0}, {"maple-syrup", 1.0},
	{"salt", 0.1}, {"vinegar", 0.5}, {"ketchup", 1.2}, {"mayonnaise", 2.0},

	// Other
	{"ready-meals", 3.5}, {"frozen-meals", 3.0}, {"canned-food", 1.5}, {"dried-food", 1.0},
	{"plastic", 3}, {"processed-food", 2.5},

	{defaultKey, DefaultEmissionFactor},
}

// Packaging terms in kg CO2e added to the product footprint. First
// substring match wins.
var packagingFactors = []Factor{
	{"plastic", 0.3},
	{"glass", 0.4},
	{"paper", 0.15},
	{"cardboard", 0.15},
	{"metal", 0.5},
	{defaultKey, DefaultPackagingTerm},
}

var emissionIndex = indexFactors(emissionFactors)

func indexFactors(table []Factor) map[string]float64 {
	index := make(map[string]float64, len(table))
	for _, f := range table {
		index[f.Key] = f.Value
	}
	return index
}

// EmissionFactors returns a copy of the category table in match order.
func EmissionFactors() []Factor {
	out := make([]Factor, len(emissionFactors))
	copy(out, emissionFactors)
	return out
}
