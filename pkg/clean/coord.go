// Package clean implements the pure-function coordinate and address
// cleaning pipeline: no I/O, no geocoding, just normalization.
package clean

import (
	"fmt"
	"strconv"
	"strings"
)

// Axis selects which coordinate range to validate against.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) bounds() (min, max float64) {
	if a == Latitude {
		return -90, 90
	}
	return -180, 180
}

// Coord parses value as a float, range-checks it for axis, and formats
// it to 7 decimal places. Returns "" if value doesn't parse or is out
// of range.
func Coord(value string, axis Axis) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ""
	}
	min, max := axis.bounds()
	if f < min || f > max {
		return ""
	}
	return fmt.Sprintf("%.7f", f)
}

// ValidCoordPair reports whether lat and lng are both empty, or both
// parse within their respective ranges.
func ValidCoordPair(lat, lng string) bool {
	if lat == "" && lng == "" {
		return true
	}
	if lat == "" || lng == "" {
		return false
	}
	return Coord(lat, Latitude) != "" && Coord(lng, Longitude) != ""
}
