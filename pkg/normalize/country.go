package normalize

import (
	"log/slog"
	"sort"
	"strings"
)

// countryNames recognizes a country mention inside the city/state
// text when no explicit country field was supplied. An explicit
// country field, however spelled, is trusted verbatim and never
// rewritten against this table.
//
// Keys of three characters or fewer ("us", "uk", "uae") are common
// substrings of unrelated words ("Austin", "Aukland") and are matched
// against whole words in the search text only; longer, multi-word
// keys are matched as plain substrings since false positives there
// are rare.
var countryNames = map[string]string{
	"united states":       "United States",
	"united states of america": "United States",
	"usa":                 "United States",
	"us":                  "United States",
	"canada":              "Canada",
	"mexico":              "Mexico",
	"united kingdom":      "United Kingdom",
	"great britain":       "United Kingdom",
	"wales":               "United Kingdom",
	"scotland":            "United Kingdom",
	"england":             "United Kingdom",
	"uk":                  "United Kingdom",
	"ireland":             "Ireland",
	"france":              "France",
	"germany":             "Germany",
	"spain":               "Spain",
	"italy":               "Italy",
	"netherlands":         "Netherlands",
	"belgium":             "Belgium",
	"switzerland":         "Switzerland",
	"austria":             "Austria",
	"sweden":              "Sweden",
	"norway":              "Norway",
	"denmark":             "Denmark",
	"finland":             "Finland",
	"poland":              "Poland",
	"portugal":            "Portugal",
	"greece":              "Greece",
	"japan":               "Japan",
	"china":               "China",
	"south korea":         "South Korea",
	"korea":               "South Korea",
	"india":               "India",
	"australia":           "Australia",
	"new zealand":         "New Zealand",
	"brazil":              "Brazil",
	"argentina":           "Argentina",
	"chile":               "Chile",
	"colombia":            "Colombia",
	"south africa":        "South Africa",
	"united arab emirates": "United Arab Emirates",
	"uae":                 "United Arab Emirates",
	"saudi arabia":        "Saudi Arabia",
	"singapore":           "Singapore",
	"malaysia":            "Malaysia",
	"philippines":         "Philippines",
	"indonesia":           "Indonesia",
	"thailand":            "Thailand",
	"vietnam":             "Vietnam",
}

// usStateAbbrevs are two-letter codes unambiguous across US states
// (WA is deliberately excluded; it's handled by the disambiguation
// heuristic below since it collides with Western Australia).
var usStateAbbrevs = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WV": true, "WI": true,
	"WY": true, "DC": true,
}

var auStateAbbrevs = map[string]bool{
	"NSW": true, "VIC": true, "QLD": true, "SA": true, "TAS": true, "ACT": true, "NT": true,
}

// cityCountry disambiguates a handful of cities that appear often in
// store-locator data without an accompanying country or recognizable
// state code. This is deliberately small: it exists to break common
// ties, not to serve as a gazetteer.
var cityCountry = map[string]string{
	"london":    "United Kingdom",
	"paris":     "France",
	"berlin":    "Germany",
	"tokyo":     "Japan",
	"toronto":   "Canada",
	"vancouver": "Canada",
	"sydney":    "Australia",
	"melbourne": "Australia",
	"dublin":    "Ireland",
	"auckland":  "New Zealand",
	"singapore": "Singapore",
	"dubai":     "United Arab Emirates",
}

// sortedCountryNames lists countryNames's keys longest-first so a
// multi-word match ("united kingdom") is tried before a short one
// ("uk") that might otherwise win on map iteration order alone.
var sortedCountryNames = func() []string {
	names := make([]string, 0, len(countryNames))
	for name := range countryNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// matchCountryName scans text for a recognizable country mention.
// "new south wales" is excluded from matching "wales" so an
// Australian state doesn't resolve to the United Kingdom.
func matchCountryName(searchText string) (string, bool) {
	words := strings.Fields(searchText)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, name := range sortedCountryNames {
		if name == "wales" && strings.Contains(searchText, "new south wales") {
			continue
		}
		if len(name) <= 3 {
			if wordSet[name] {
				return countryNames[name], true
			}
			continue
		}
		if strings.Contains(searchText, name) {
			return countryNames[name], true
		}
	}
	return "", false
}

// InferCountry decides the canonical Country value from whatever
// combination of country/state/city the field map extracted. An
// explicit country value, however spelled, is returned verbatim — a
// brand-supplied "USA" stays "USA" rather than being rewritten to
// "United States". Only when no country was supplied does the
// cascade run: a country name mentioned in the city/state text ->
// state abbreviation -> city lookup -> empty.
//
// "WA" is genuinely ambiguous between Washington State and Western
// Australia; this defaults it to United States and logs a warning
// rather than trying to disambiguate further, since nothing else in
// a typical store-locator record (other than a region/address hint a
// caller may not have extracted) resolves it reliably.
func InferCountry(rawCountry, state, city string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	if rawCountry != "" {
		return strings.TrimSpace(rawCountry)
	}

	searchText := strings.ToLower(city + " " + state)
	if country, ok := matchCountryName(searchText); ok {
		return country
	}

	upperState := strings.ToUpper(strings.TrimSpace(state))
	if upperState == "WA" {
		logger.Warn("ambiguous state code WA defaulted to United States",
			"state", state, "city", city)
		return "United States"
	}
	if usStateAbbrevs[upperState] {
		return "United States"
	}
	if auStateAbbrevs[upperState] {
		return "Australia"
	}

	lowerCity := strings.ToLower(strings.TrimSpace(city))
	if country, ok := cityCountry[lowerCity]; ok {
		return country
	}

	return ""
}
