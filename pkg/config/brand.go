package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// baseURLKey is the reserved top-level key a brand-configuration file
// may carry to resolve partial URLs found in the source data (image
// src, website) against. It is read only at the top level of the file
// and applies to every brand entry; a "_base_url" inside a brand entry
// is ignored.
const baseURLKey = "_base_url"

// BrandEntry is one brand's configuration: how to reach its
// store-locator endpoint and, optionally, everything auto-detection
// would otherwise have to infer.
type BrandEntry struct {
	Type        string               `json:"type"` // executor pattern override, e.g. "radius"; "" -> auto-classify
	URL         string               `json:"url"`
	DataPath    string               `json:"data_path"`
	BaseURL     string               `json:"-"`
	FieldMap    map[string]FieldSpec `json:"field_mapping"`
	Countries   []string             `json:"countries"`
	CountryIDs  map[string]string    `json:"country_id_map"`
	UseWatchSet bool                 `json:"use_watch_store_countries"`
	Headers     map[string]string    `json:"headers"`
}

// brandFile is the on-disk shape: brand_id -> entry, plus the
// reserved "_base_url" sibling key handled separately since it isn't
// itself a brand.
type brandFile map[string]json.RawMessage

// LoadBrands reads a brand-configuration file keyed by brand_id, as
// described by the harvester's external-interface contract: a map
// from brand id to {type, url, data_path, field_mapping, countries,
// country_id_map, use_watch_store_countries, headers}.
func LoadBrands(path string) (map[string]BrandEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading brand config: %w", err)
	}

	var raw brandFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing brand config: %w", err)
	}

	var globalBaseURL string
	if v, ok := raw[baseURLKey]; ok {
		if err := json.Unmarshal(v, &globalBaseURL); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", baseURLKey, err)
		}
		delete(raw, baseURLKey)
	}

	out := make(map[string]BrandEntry, len(raw))
	for brandID, entryRaw := range raw {
		var entry BrandEntry
		if err := json.Unmarshal(entryRaw, &entry); err != nil {
			return nil, fmt.Errorf("parsing brand %q: %w", brandID, err)
		}
		if entry.BaseURL == "" {
			entry.BaseURL = globalBaseURL
		}
		out[brandID] = entry
	}
	return out, nil
}
