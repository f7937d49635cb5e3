package discovery

// categoryByType maps Google place types to campaign categories.
var categoryByType = map[string]string{
	"restaurant":         "restaurant",
	"food":               "restaurant",
	"meal_takeaway":      "restaurant",
	"cafe":               "restaurant",
	"bar":                "restaurant",
	"car_repair":         "automotive",
	"car_dealer":         "automotive",
	"gas_station":        "automotive",
	"beauty_salon":       "beauty",
	"hair_care":          "beauty",
	"spa":                "beauty",
	"doctor":             "healthcare",
	"dentist":            "healthcare",
	"hospital":           "healthcare",
	"pharmacy":           "healthcare",
	"lawyer":             "legal",
	"accounting":         "finance",
	"bank":               "finance",
	"insurance_agency":   "finance",
	"real_estate_agency": "real_estate",
	"clothing_store":     "retail",
	"store":              "retail",
	"shopping_mall":      "retail",
	"gym":                "fitness",
	"school":             "education",
	"university":         "education",
	"lodging":            "hospitality",
	"travel_agency":      "travel",
}

// Categorize picks the campaign category for a place from its types. The
// first recognized type wins; anything else is "other".
func Categorize(types []string) string {
	for _, t := range types {
		if category, ok := categoryByType[t]; ok {
			return category
		}
	}
	return "other"
}
