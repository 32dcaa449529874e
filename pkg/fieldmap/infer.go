// Package fieldmap implements the field-mapping inferencer (C4): it
// decides, from a handful of raw samples, which source paths feed
// each canonical field.
package fieldmap

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// FieldMap maps a canonical field name to the source path the
// normalizer should pull it from.
type FieldMap map[string]string

// mandatoryFields must be present in every sample to be accepted;
// optional fields only need to appear in >=30% of samples.
var mandatoryFields = map[string]bool{
	"Name": true, "Latitude": true, "Longitude": true,
}

var optionalPresenceThreshold = 0.3

// aliases is the ordered alias list per canonical field used by the
// "other fields" strategy (§4.4 step 3, last bullet). Taken from
// pattern_detector.py's FIELD_PATTERNS table (endpoint_discoverer),
// in the same per-field order the original tries them.
var aliases = map[string][]string{
	"Name": {"name", "nametranslated", "shortname", "establishment_name", "title"},
	"Address Line 1": {
		"streetaddress", "shortaddress", "address", "address1", "address.line1", "address.street",
	},
	"Address Line 2": {"address2", "address.line2", "address.street2"},
	"City":           {"cityname", "city", "address.city"},
	"State/Province/Region": {
		"regionname", "state", "province", "region", "statecode", "address.region", "address.state",
	},
	"Country": {"countryname", "country", "countrycode", "address.countrycode", "address.country"},
	"Postal/ZIP Code": {
		"postalcode", "zipcode", "zip", "postal", "postcode", "address.postalcode",
	},
	"Phone": {"mainphone.display", "mainphone.number", "phone1", "phone", "phonenumber", "mainphone", "telephone"},
	"Email": {"c_baaemail", "emails.0", "emails", "email", "contact_email"},
	"Website": {"urlrolexv7", "website", "url", "permalink"},
}

var coordSuffixes = map[string][]string{
	"Latitude":  {".lat", ".latitude"},
	"Longitude": {".lng", ".long", ".longitude", ".lon"},
}

var coordContextTokens = []string{"coordinate", "geocode", "location", "geo", "position", "point"}
var preferredCoordTokens = []string{"geocodedcoordinate", "yextdisplaycoordinate"}
var deprioritizedCoordTokens = []string{"citycoordinate"}

// Infer produces a FieldMap from up to three raw samples.
func Infer(samples []rawtree.Record) FieldMap {
	if len(samples) > 3 {
		samples = samples[:3]
	}
	paths := rawtree.UnionPaths(samples)
	fm := FieldMap{}

	for _, axis := range []string{"Latitude", "Longitude"} {
		if p, ok := bestCoordPath(samples, paths, axis); ok {
			fm[axis] = p
		}
	}

	if p, ok := bestCityPath(samples, paths); ok {
		fm["City"] = p
	}

	for _, field := range []string{"Phone", "Email"} {
		if p, ok := bestContactPath(samples, paths, field); ok {
			fm[field] = p
		}
	}

	for field, list := range aliases {
		if _, already := fm[field]; already {
			continue
		}
		if p, ok := bestAliasPath(samples, paths, list); ok {
			fm[field] = p
		}
	}

	for _, field := range canonicalFieldsNeedingInference() {
		if _, ok := fm[field]; ok {
			continue
		}
		if p, ok := bestSimilarityPath(field, paths); ok {
			fm[field] = p
		}
	}

	return fm
}

func canonicalFieldsNeedingInference() []string {
	fields := make([]string, 0, len(aliases))
	for f := range aliases {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func presentFraction(samples []rawtree.Record, path string) float64 {
	if len(samples) == 0 {
		return 0
	}
	present := 0
	for _, s := range samples {
		if _, ok := s.At(path); ok {
			present++
		}
	}
	return float64(present) / float64(len(samples))
}

func acceptable(field string, samples []rawtree.Record, path string) bool {
	frac := presentFraction(samples, path)
	if mandatoryFields[field] {
		return frac == 1.0
	}
	return frac >= optionalPresenceThreshold
}

func bestCoordPath(samples []rawtree.Record, paths []string, axis string) (string, bool) {
	type candidate struct {
		path  string
		score int
	}
	var best *candidate

	for _, p := range paths {
		lower := strings.ToLower(p)
		lastSeg := lower
		if i := strings.LastIndex(lower, "."); i >= 0 {
			lastSeg = lower[i+1:]
		}
		score := 0
		matchesSuffix := false
		for _, suf := range coordSuffixes[axis] {
			if lastSeg == strings.TrimPrefix(suf, ".") {
				matchesSuffix = true
				break
			}
		}
		if matchesSuffix {
			score += 4
		}
		for _, tok := range coordContextTokens {
			if strings.Contains(lower, tok) {
				score += 2
				break
			}
		}
		for _, tok := range preferredCoordTokens {
			if strings.Contains(lower, tok) {
				score += 3
			}
		}
		for _, tok := range deprioritizedCoordTokens {
			if strings.Contains(lower, tok) {
				score -= 3
			}
		}

		if score <= 0 {
			continue
		}
		if !acceptable(axis, samples, p) {
			continue
		}
		if !valuesLookLikeCoord(samples, p, axis, matchesSuffix) {
			continue
		}

		if best == nil || score > best.score {
			best = &candidate{p, score}
		}
	}

	if best == nil {
		return "", false
	}
	return best.path, true
}

func valuesLookLikeCoord(samples []rawtree.Record, path, axis string, hasCoordContext bool) bool {
	min, max := -90.0, 90.0
	if axis == "Longitude" {
		min, max = -180.0, 180.0
	}
	for _, s := range samples {
		v, ok := s.Leaf(path)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return false
		}
		if f < min || f > max {
			return false
		}
		if (f == 0 || f == 1) && !hasCoordContext {
			return false
		}
	}
	return true
}

func bestCityPath(samples []rawtree.Record, paths []string) (string, bool) {
	preferred := []string{"address.city", "city", "cityname"}
	for _, want := range preferred {
		for _, p := range paths {
			if !strings.EqualFold(p, want) && !strings.HasSuffix(strings.ToLower(p), "."+want) {
				continue
			}
			if hasCoordSuffix(p) {
				continue
			}
			if !acceptable("City", samples, p) {
				continue
			}
			if isNonNumericString(samples, p) {
				return p, true
			}
		}
	}
	return "", false
}

func hasCoordSuffix(path string) bool {
	lower := strings.ToLower(path)
	for _, sufs := range coordSuffixes {
		for _, s := range sufs {
			if strings.HasSuffix(lower, s) {
				return true
			}
		}
	}
	return false
}

func isNonNumericString(samples []rawtree.Record, path string) bool {
	for _, s := range samples {
		v, ok := s.Leaf(path)
		if !ok {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return false
		}
	}
	return true
}

var phoneLabelExclusions = regexp.MustCompile(`(?i)phone order`)

func bestContactPath(samples []rawtree.Record, paths []string, field string) (string, bool) {
	for _, p := range paths {
		if !strings.Contains(strings.ToLower(p), strings.ToLower(field)) {
			continue
		}
		if !acceptable(field, samples, p) {
			continue
		}
		ok := true
		for _, s := range samples {
			v, present := s.Leaf(p)
			if !present {
				continue
			}
			switch field {
			case "Phone":
				if phoneLabelExclusions.MatchString(v) || digitCount(v) < 5 {
					ok = false
				}
			case "Email":
				if !strings.Contains(v, "@") || strings.Contains(v, "://") {
					ok = false
				}
			}
		}
		if ok {
			return p, true
		}
	}
	return "", false
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func bestAliasPath(samples []rawtree.Record, paths []string, aliasList []string) (string, bool) {
	for _, alias := range aliasList {
		for _, p := range paths {
			if pathMatchesAlias(p, alias) && acceptable("", samples, p) {
				return p, true
			}
		}
	}
	return "", false
}

// pathMatchesAlias implements "flexible matching" — an alias like
// "mainPhone.display" matches any path ending in ".mainPhone.display",
// and a bare alias like "name" matches a path equal to or ending in
// ".name".
func pathMatchesAlias(path, alias string) bool {
	lp, la := strings.ToLower(path), strings.ToLower(alias)
	return lp == la || strings.HasSuffix(lp, "."+la)
}

// bestSimilarityPath is the last-resort fallback (§4.4 step 4): a
// Jaccard token-set similarity score against every flattened path,
// accepting the best match at or above 0.6.
func bestSimilarityPath(field string, paths []string) (string, bool) {
	fieldTokens := tokenize(field)
	best := ""
	bestScore := 0.0
	for _, p := range paths {
		score := jaccard(fieldTokens, tokenize(p))
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	if bestScore >= 0.6 {
		return best, true
	}
	return "", false
}

func tokenize(s string) map[string]struct{} {
	// Split on '.', '_', '-', and camelCase boundaries.
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' && runes[i-1] >= 'a' && runes[i-1] <= 'z' {
			b.WriteByte(' ')
		}
		if r == '.' || r == '_' || r == '-' {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	fields := strings.Fields(strings.ToLower(b.String()))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
