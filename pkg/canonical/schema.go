// Package canonical defines the fixed output schema every harvest
// normalizes into, and the identity helpers (handles, fingerprints)
// that keep a harvest's output internally consistent.
package canonical

// Fields is the fixed, ordered 57-field canonical header, taken
// verbatim (names and order) from data_normalizer.py's
// CANONICAL_SCHEMA. It is never reordered or truncated per brand;
// every field is always emitted, empty when the source has nothing
// for it. The leading space in " Tags" is part of the source header
// and is preserved rather than trimmed.
var Fields = []string{
	"Handle",
	"Name",
	"Status",
	"Address Line 1",
	"Address Line 2",
	"Postal/ZIP Code",
	"City",
	"State/Province/Region",
	"Country",
	"Phone",
	"Email",
	"Website",
	"Image URL",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
	"Page Title",
	"Page Description",
	"Meta Title",
	"Meta Description",
	"Latitude",
	"Longitude",
	"Priority",
	"Name - FR",
	"Page Title - FR",
	"Page Description - FR",
	"Name - ZH-CN",
	"Page Title - ZH-CN",
	"Page Description - ZH-CN",
	"Name - ES",
	"Page Title - ES",
	"Page Description - ES",
	" Tags",
	"Custom Brands",
	"Custom Brands - FR",
	"Custom Brands - ZH-CN",
	"Custom Brands - ES",
	"Custom Button title 1",
	"Custom Button title 1 - FR",
	"Custom Button title 1 - ZH-CN",
	"Custom Button title 1 - ES",
	"Custom Button URL 1",
	"Custom Button URL 1 - FR",
	"Custom Button URL 1 - ZH-CN",
	"Custom Button URL 1 - ES",
	"Custom Button title 2",
	"Custom Button title 2 - FR",
	"Custom Button title 2 - ZH-CN",
	"Custom Button title 2 - ES",
	"Custom Button URL 2",
	"Custom Button URL 2 - FR",
	"Custom Button URL 2 - ZH-CN",
	"Custom Button URL 2 - ES",
}

// Record is a single row of canonical output: field name to value.
// Every key in Fields is always present, possibly as "".
type Record map[string]string

// Blank returns a Record with every canonical field set to "".
func Blank() Record {
	r := make(Record, len(Fields))
	for _, f := range Fields {
		r[f] = ""
	}
	return r
}

// Excluded is the report emitted for a raw record the normalizer could
// not turn into a CanonicalRecord.
type Excluded struct {
	Name    string
	Address string
	Reason  string
}
