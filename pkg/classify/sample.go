package classify

import (
	"github.com/buger/jsonparser"
)

// commonArrayKeys are the top-level keys under which a list of
// records typically lives when the root of the payload is an object
// rather than a bare array.
var commonArrayKeys = [][]string{
	{"results"}, {"stores"}, {"locations"}, {"data"}, {"items"}, {"response", "docs"},
}

var totalKeys = [][]string{{"total"}, {"totalCount"}, {"count"}, {"total_count"}}
var pageTokenKeys = [][]string{{"nextPageToken"}, {"next_page_token"}, {"pageToken"}, {"cursor"}}
var hasMoreKeys = [][]string{{"hasMore"}, {"has_more"}, {"more"}}
var nextKeys = [][]string{{"next"}, {"nextUrl"}, {"next_url"}}

// SampleFromJSON builds a Sample by probing body for the handful of
// shape markers Classify cares about, without decoding the whole
// document into a generic tree first.
func SampleFromJSON(body []byte) *Sample {
	s := &Sample{}

	arr := body
	if v, dt, _, err := jsonparser.Get(body); err == nil && dt == jsonparser.Array {
		arr = v
	} else {
		for _, path := range commonArrayKeys {
			if v, dt, _, err := jsonparser.Get(body, path...); err == nil && dt == jsonparser.Array {
				arr = v
				break
			}
		}
	}
	count := 0
	_, _ = jsonparser.ArrayEach(arr, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		count++
	})
	s.ReturnedCount = count

	for _, path := range totalKeys {
		if n, err := jsonparser.GetInt(body, path...); err == nil {
			s.DeclaredTotal = int(n)
			break
		}
	}
	for _, path := range pageTokenKeys {
		if v, err := jsonparser.GetString(body, path...); err == nil && v != "" {
			s.HasPageToken = true
			break
		}
	}
	for _, path := range hasMoreKeys {
		if b, err := jsonparser.GetBoolean(body, path...); err == nil {
			s.HasMore = b
			break
		}
	}
	for _, path := range nextKeys {
		if v, err := jsonparser.GetString(body, path...); err == nil && v != "" {
			s.HasNext = true
			break
		}
	}

	return s
}
