package executor

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// HTMLEmbedded implements C7.6: a page that embeds its location data
// directly in server-rendered HTML rather than exposing an API. Three
// extraction methods are run in order and the one yielding the most
// records is kept; on a tie the earlier method wins.
type HTMLEmbedded struct {
	Logger *slog.Logger
}

var (
	// inlineFieldsBlock matches a bare "name":"X","cityName":"Y",
	// "countryName":"Z","latitude":N,"longitude":N run of key-value
	// pairs wherever it appears in the page, with no requirement that
	// it sit inside a <script> tag or a JSON array at all -- the
	// shape embedded-JS store pages most commonly inline.
	inlineFieldsBlock = regexp.MustCompile(`"name":"([^"]+)"[^}]*?"cityName":"([^"]*)"[^}]*?"countryName":"([^"]+)"[^}]*?"latitude":([^,]+),"longitude":([^,}]+)`)

	// inlineOptionalFields are pulled from a window around an
	// inlineFieldsBlock match, the same way address/contact detail is
	// scattered around the name+coordinate core in these pages.
	inlineOptionalFields = map[string]*regexp.Regexp{
		"adr":           regexp.MustCompile(`"adr":"([^"]*)"`),
		"address":       regexp.MustCompile(`"address":"([^"]*)"`),
		"streetAddress": regexp.MustCompile(`"streetAddress":"([^"]*)"`),
		"zipcode":       regexp.MustCompile(`"zipcode":"([^"]*)"`),
		"postalCode":    regexp.MustCompile(`"postalCode":"([^"]*)"`),
		"stateName":     regexp.MustCompile(`"stateName":"([^"]*)"`),
		"id":            regexp.MustCompile(`"id":"([^"]*)"`),
		"phone":         regexp.MustCompile(`"phone":"([^"]*)"`),
		"email":         regexp.MustCompile(`"email":"([^"]*)"`),
		"websiteUrl":    regexp.MustCompile(`"websiteUrl":"([^"]*)"`),
	}
	inlineContextRadius = 500

	// scriptJSONBlock matches a <script type="application/json">...
	// </script> block: a JSON tree to descend looking for a list of
	// store-shaped objects.
	scriptJSONBlock = regexp.MustCompile(`(?is)<script[^>]*type=["']application/json["'][^>]*>(.*?)</script>`)

	// cardBlock is the last-resort, structure-agnostic method: a
	// repeated HTML chunk that looks like a store card because it
	// contains both a plausible street-address fragment and a 5-digit
	// postal code, captured as a single opaque text blob per card.
	cardBlock  = regexp.MustCompile(`(?is)<(?:div|li|article)[^>]*>((?:[^<]|<[^/dla]|</[^dla])*?\d{1,6}\s+[A-Za-z][^<]{3,60}.{0,200}?\b\d{5}\b.{0,200}?)</(?:div|li|article)>`)
	tagStrip   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Execute implements Executor.
func (h *HTMLEmbedded) Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	payload, err := fetcher.Fetch(ctx, targetURL, nil)
	if err != nil {
		return nil, Stats{}, err
	}
	html := payload.Text
	if html == "" && payload.IsJSON {
		// Already-JSON responses don't need HTML extraction at all.
		return ExtractRecords(payload, dataPath), Stats{PagesWalked: 1}, nil
	}

	dedup := NewDedup()
	var out []rawtree.Record

	best := extractInlineFields(html)
	if recs := extractScriptJSON(html, dataPath); len(recs) > len(best) {
		best = recs
	}
	if recs := extractCards(html); len(recs) > len(best) {
		best = recs
	}
	appendDeduped(&out, dedup, best)

	return out, Stats{PagesWalked: 1}, nil
}

func appendDeduped(out *[]rawtree.Record, dedup *Dedup, recs []rawtree.Record) {
	for _, r := range recs {
		if dedup.Accept(r) {
			*out = append(*out, r)
		}
	}
}

func extractScriptJSON(html, dataPath string) []rawtree.Record {
	var out []rawtree.Record
	for _, m := range scriptJSONBlock.FindAllStringSubmatch(html, -1) {
		var decoded interface{}
		if err := json.Unmarshal([]byte(m[1]), &decoded); err != nil {
			continue
		}
		out = append(out, ExtractRecords(httpfetch.Payload{JSON: decoded, IsJSON: true}, dataPath)...)
	}
	return out
}

// extractInlineFields scans raw HTML text for a bare run of
// "name"/"cityName"/"countryName"/"latitude"/"longitude" key-value
// pairs, the shape a page embeds its store list in when it writes
// fields straight into inline JS rather than wrapping them in a
// <script type="application/json"> block or a JSON array literal.
// Optional fields are recovered from a window around the match.
func extractInlineFields(html string) []rawtree.Record {
	var out []rawtree.Record
	for _, m := range inlineFieldsBlock.FindAllStringSubmatchIndex(html, -1) {
		rec := map[string]interface{}{
			"Name":      html[m[2]:m[3]],
			"City":      html[m[4]:m[5]],
			"Country":   html[m[6]:m[7]],
			"Latitude":  html[m[8]:m[9]],
			"Longitude": html[m[10]:m[11]],
		}

		start := m[0] - inlineContextRadius
		if start < 0 {
			start = 0
		}
		end := m[1] + inlineContextRadius
		if end > len(html) {
			end = len(html)
		}
		window := html[start:end]
		for field, pattern := range inlineOptionalFields {
			if sm := pattern.FindStringSubmatch(window); sm != nil {
				rec[field] = sm[1]
			}
		}

		out = append(out, rawtree.New(rec))
	}
	return out
}

// extractCards is the generic, structure-agnostic fallback: it finds
// repeated blocks that look like an address (a leading house number
// and a 5-digit postal code) and wraps each as a single-field raw
// record under the "text" path, letting the field-mapping inferencer
// and normalizer do what they can with unstructured prose.
func extractCards(html string) []rawtree.Record {
	var out []rawtree.Record
	for _, m := range cardBlock.FindAllStringSubmatch(html, -1) {
		text := tagStrip.ReplaceAllString(m[1], " ")
		text = whitespace.ReplaceAllString(text, " ")
		if text == "" {
			continue
		}
		out = append(out, rawtree.New(map[string]interface{}{"text": text}))
	}
	return out
}
