// Package executor implements the expansion executors (C7): one
// strategy per interaction pattern, each driving a back end to
// completeness and yielding raw records in arrival order.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// Stats reports completeness/cost for one executor run.
type Stats struct {
	PagesWalked   int
	CellsVisited  int
	DedupRejected int
}

// Executor drives one back end, of one interaction pattern, to
// completeness.
type Executor interface {
	Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error)
}

// For selects the concrete Executor for profile.Pattern.
func For(profile classify.Profile, logger *slog.Logger) Executor {
	switch profile.Pattern {
	case classify.Paginated:
		return &Paginated{Logger: logger}
	case classify.Viewport:
		return &Viewport{Logger: logger}
	case classify.Radius:
		return &RadiusExecutor{Logger: logger}
	case classify.Country:
		return &CountryExecutor{Logger: logger}
	case classify.HTMLEmbedded:
		return &HTMLEmbedded{Logger: logger}
	default:
		return &Single{}
	}
}

// commonArrayKeys are the top-level keys under which a response's
// record list typically lives when the root isn't a bare array.
var commonArrayKeys = [][]string{
	{"results"}, {"stores"}, {"locations"}, {"data"}, {"items"}, {"records"},
}

// ExtractRecords pulls the record list out of a decoded payload. When
// dataPath is non-empty it's used as an explicit dot-path (brand
// config override); otherwise the payload root is tried as an array,
// then each of commonArrayKeys in turn, then finally the whole
// payload is treated as a single record.
func ExtractRecords(payload httpfetch.Payload, dataPath string) []rawtree.Record {
	if !payload.IsJSON {
		return nil
	}
	root := rawtree.New(payload.JSON)

	if dataPath != "" {
		if v, ok := root.At(dataPath); ok {
			return toRecords(v)
		}
		return nil
	}

	if arr, ok := payload.JSON.([]interface{}); ok {
		return toRecords(arr)
	}
	for _, key := range commonArrayKeys {
		path := key[0]
		for _, k := range key[1:] {
			path += "." + k
		}
		if v, ok := root.At(path); ok {
			if recs := toRecords(v); recs != nil {
				return recs
			}
		}
	}

	if _, ok := payload.JSON.(map[string]interface{}); ok {
		return []rawtree.Record{root}
	}
	return nil
}

func toRecords(v interface{}) []rawtree.Record {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]rawtree.Record, 0, len(arr))
	for _, item := range arr {
		out = append(out, rawtree.New(item))
	}
	return out
}

// identityCandidates, in priority order, are the dot-paths probed for
// a record's source-supplied identity before falling back to a
// composite of name/address/coordinate fields.
var identityCandidates = []string{
	"meta.id", "id", "storeId", "store_id", "locationId", "location_id", "uid",
}

// IdentityKey implements the source-identity dedup cascade: an
// explicit id field if the back end supplies one, else a composite of
// name+address+city, else name+lat+lng.
func IdentityKey(r rawtree.Record) string {
	for _, path := range identityCandidates {
		if v, ok := r.Leaf(path); ok && v != "" {
			return "id:" + v
		}
	}

	name, _ := firstLeaf(r, "name", "title")
	addr1, _ := firstLeaf(r, "address1", "address.line1", "street")
	city, _ := firstLeaf(r, "city", "address.city")
	if name != "" && (addr1 != "" || city != "") {
		return fmt.Sprintf("addr:%s|%s|%s", name, addr1, city)
	}

	lat, _ := firstLeaf(r, "lat", "latitude")
	lng, _ := firstLeaf(r, "lng", "lon", "longitude")
	return fmt.Sprintf("geo:%s|%s|%s", name, lat, lng)
}

func firstLeaf(r rawtree.Record, paths ...string) (string, bool) {
	for _, p := range paths {
		if v, ok := r.Leaf(p); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Dedup tracks identity keys seen within one executor run.
type Dedup struct {
	seen map[string]struct{}
}

// NewDedup creates an empty Dedup.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[string]struct{})}
}

// Accept reports whether r's identity key has not been seen before,
// recording it if so.
func (d *Dedup) Accept(r rawtree.Record) bool {
	key := IdentityKey(r)
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}
