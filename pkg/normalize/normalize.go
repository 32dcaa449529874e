// Package normalize implements the record normalizer (C6): it turns
// one raw sample, guided by a FieldMap, into either a canonical.Record
// or a canonical.Excluded report.
package normalize

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/watchdna/storeharvester/pkg/canonical"
	"github.com/watchdna/storeharvester/pkg/clean"
	"github.com/watchdna/storeharvester/pkg/config"
	"github.com/watchdna/storeharvester/pkg/fieldmap"
	"github.com/watchdna/storeharvester/pkg/geocode"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// Normalizer turns raw records into canonical ones. One Normalizer is
// shared across a whole harvest so the Handles/Fingerprints sets
// enforce uniqueness across the full output stream, not per-call.
type Normalizer struct {
	Brand    string
	BaseURL  string
	Geocoder geocode.Adapter
	Handles  *canonical.HandleSet
	Fprints  *canonical.FingerprintSet
	Logger   *slog.Logger

	// Explicit holds the brand config's field_mapping, when one was
	// supplied. A field present here wins over auto-inference.
	Explicit map[string]config.FieldSpec
}

// New creates a Normalizer. geocoder may be geocode.None{} when the
// harvest has no geocoding configured.
func New(brand, baseURL string, geocoder geocode.Adapter, logger *slog.Logger) *Normalizer {
	if geocoder == nil {
		geocoder = geocode.None{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		Brand:    brand,
		BaseURL:  baseURL,
		Geocoder: geocoder,
		Handles:  canonical.NewHandleSet(),
		Fprints:  canonical.NewFingerprintSet(),
		Logger:   logger,
	}
}

func (n *Normalizer) lookup(raw rawtree.Record, fm fieldmap.FieldMap, field string) string {
	if spec, ok := n.Explicit[field]; ok {
		return strings.TrimSpace(spec.Resolve(raw))
	}
	path, ok := fm[field]
	if !ok {
		return ""
	}
	v, ok := raw.Leaf(path)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Normalize converts one raw sample into a canonical.Record, or
// reports why it was excluded. name/addr1/city are re-derived from
// the result for the exclusion report regardless of outcome.
func (n *Normalizer) Normalize(ctx context.Context, raw rawtree.Record, fm fieldmap.FieldMap) (canonical.Record, *canonical.Excluded) {
	name := clean.HTMLTags(n.lookup(raw, fm, "Name"))
	city := clean.HTMLTags(n.lookup(raw, fm, "City"))
	addr1Raw := clean.HTMLTags(n.lookup(raw, fm, "Address Line 1"))
	addr1 := clean.Address(addr1Raw)
	addr2 := clean.Address(clean.HTMLTags(n.lookup(raw, fm, "Address Line 2")))
	state := strings.TrimSpace(n.lookup(raw, fm, "State/Province/Region"))
	postal := strings.TrimSpace(n.lookup(raw, fm, "Postal/ZIP Code"))
	rawCountry := strings.TrimSpace(n.lookup(raw, fm, "Country"))

	if name == "" {
		return nil, &canonical.Excluded{Name: name, Address: addr1, Reason: "missing name"}
	}

	country := InferCountry(rawCountry, state, city, n.Logger)
	addr1 = clean.StripRedundantTail(addr1, city, state, country, postal)

	lat := clean.Coord(n.lookup(raw, fm, "Latitude"), clean.Latitude)
	lng := clean.Coord(n.lookup(raw, fm, "Longitude"), clean.Longitude)

	if lat == "" || lng == "" {
		if coord, ok := n.Geocoder.Geocode(ctx, addr1, city, state, country); ok {
			lat = clean.Coord(strconv.FormatFloat(coord.Lat, 'f', -1, 64), clean.Latitude)
			lng = clean.Coord(strconv.FormatFloat(coord.Lng, 'f', -1, 64), clean.Longitude)
		}
	}
	if lat == "" || lng == "" {
		return nil, &canonical.Excluded{Name: name, Address: addr1, Reason: "missing coordinates"}
	}

	fp := canonical.NewFingerprint(name, addr1, city)
	if n.Fprints.SeenOrAdd(fp) {
		return nil, &canonical.Excluded{Name: name, Address: addr1, Reason: "duplicate"}
	}

	phone := n.lookup(raw, fm, "Phone")
	if !clean.Phone(phone) {
		phone = ""
	}
	email := n.lookup(raw, fm, "Email")
	if !clean.Email(email) {
		email = ""
	}
	website, ok := clean.URL(n.lookup(raw, fm, "Website"), "Website", n.BaseURL)
	if !ok {
		website = ""
	}
	imageURL, ok := clean.URL(n.lookup(raw, fm, "Image URL"), "Image URL", n.BaseURL)
	if !ok {
		imageURL = ""
	}

	status := clean.Boolean(n.lookup(raw, fm, "Status"))

	handle := n.Handles.Reserve(canonical.GenerateHandle(name, city))

	rec := canonical.Blank()
	rec["Handle"] = handle
	rec["Name"] = name
	rec["Status"] = status
	rec["Address Line 1"] = addr1
	rec["Address Line 2"] = addr2
	rec["Postal/ZIP Code"] = postal
	rec["City"] = city
	rec["State/Province/Region"] = state
	rec["Country"] = country
	rec["Phone"] = phone
	rec["Email"] = email
	rec["Website"] = website
	rec["Image URL"] = imageURL
	rec["Latitude"] = lat
	rec["Longitude"] = lng
	rec["Priority"] = clean.HTMLTags(n.lookup(raw, fm, "Priority"))

	n.fillPassthroughFields(raw, fm, rec)

	return rec, nil
}

// passthroughHandled lists the canonical.Fields entries normalize
// already assigns above with field-specific cleaning or validation;
// fillPassthroughFields skips these and fills everything else.
var passthroughHandled = map[string]bool{
	"Handle": true, "Name": true, "Status": true,
	"Address Line 1": true, "Address Line 2": true, "Postal/ZIP Code": true,
	"City": true, "State/Province/Region": true, "Country": true,
	"Phone": true, "Email": true, "Website": true, "Image URL": true,
	"Latitude": true, "Longitude": true, "Priority": true,
}

// fillPassthroughFields covers the remainder of the canonical
// schema -- the weekday hours, page/meta text, localized name and
// custom-brand variants, and the two custom buttons with their own
// localized title/URL pairs -- a straight lookup-and-clean for text,
// URL validation for anything named "...URL...". " Tags" accepts
// either the schema's leading-space key or a plain "Tags" alias, the
// same dual lookup data_normalizer.py's normalize_location performs.
func (n *Normalizer) fillPassthroughFields(raw rawtree.Record, fm fieldmap.FieldMap, rec canonical.Record) {
	for _, field := range canonical.Fields {
		if passthroughHandled[field] {
			continue
		}
		value := n.lookup(raw, fm, field)
		if field == " Tags" && value == "" {
			value = n.lookup(raw, fm, "Tags")
		}
		if strings.Contains(field, "URL") {
			if cleaned, ok := clean.URL(value, field, n.BaseURL); ok {
				rec[field] = cleaned
			}
			continue
		}
		rec[field] = clean.HTMLTags(value)
	}
}
