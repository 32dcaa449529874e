package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// CountryReference is the shared ISO2->name table and named regional
// groupings the country executor and the country inferencer both
// draw from, when an operator supplies one instead of the harvester's
// built-in defaults.
type CountryReference struct {
	Countries map[string]string   `json:"countries"`
	Regions   map[string][]string `json:"regions"`
}

// LoadCountryReference reads a {countries, regions} document from
// path.
func LoadCountryReference(path string) (CountryReference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CountryReference{}, fmt.Errorf("reading country reference: %w", err)
	}
	var ref CountryReference
	if err := json.Unmarshal(data, &ref); err != nil {
		return CountryReference{}, fmt.Errorf("parsing country reference: %w", err)
	}
	return ref, nil
}

// CodesForRegion returns ref.Regions[region] if present, else nil so
// the caller falls back to its own default country list.
func (ref CountryReference) CodesForRegion(region string) []string {
	if codes, ok := ref.Regions[region]; ok {
		return codes
	}
	return nil
}
