// Package config loads the two JSON documents an operator supplies
// around a harvest: the brand configuration (seed URL, explicit field
// mapping, country overrides) and the country reference table shared
// by the country executor and the country inferencer.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/watchdna/storeharvester/pkg/clean"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// FieldSpec is the tagged variant a brand config's field_mapping value
// parses into: a bare string becomes Direct, a list becomes
// FirstNonEmpty, and an object becomes a Rule with an optional
// default and transform. All three resolve the same way once parsed:
// try each path in order, fall back to Default, then apply Transform.
type FieldSpec struct {
	Paths     []string
	Default   string
	Transform string
}

// UnmarshalJSON accepts a bare string, a list of strings, or an
// object {key, default, transform} (key may itself be a string or a
// list, covering the "rule wrapping a first-non-empty" case).
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		f.Paths = []string{asString}
		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		f.Paths = asList
		return nil
	}

	var asRule struct {
		Key       json.RawMessage `json:"key"`
		Default   string          `json:"default"`
		Transform string          `json:"transform"`
	}
	if err := json.Unmarshal(data, &asRule); err != nil {
		return fmt.Errorf("field_mapping entry is neither a string, a list, nor a rule object: %w", err)
	}

	var key string
	if err := json.Unmarshal(asRule.Key, &key); err == nil {
		f.Paths = []string{key}
	} else {
		var keys []string
		if err := json.Unmarshal(asRule.Key, &keys); err != nil {
			return fmt.Errorf("rule field_mapping \"key\" must be a string or list of strings: %w", err)
		}
		f.Paths = keys
	}
	f.Default = asRule.Default
	f.Transform = asRule.Transform
	return nil
}

// transforms is the closed registry of named transforms a brand
// config may select. No arbitrary code evaluation is supported.
var transforms = map[string]func(string) string{
	"upper":   strings.ToUpper,
	"lower":   strings.ToLower,
	"trim":    strings.TrimSpace,
	"boolean": clean.Boolean,
}

// Resolve walks f.Paths against raw in order, taking the first
// non-empty leaf; falls back to Default when none resolve. The
// matched (or default) value is passed through Transform, if set.
func (f FieldSpec) Resolve(raw rawtree.Record) string {
	value := f.Default
	for _, path := range f.Paths {
		if v, ok := raw.Leaf(path); ok && strings.TrimSpace(v) != "" {
			value = v
			break
		}
	}
	if value == "" {
		return ""
	}
	if fn, ok := transforms[f.Transform]; ok {
		return fn(value)
	}
	return value
}
