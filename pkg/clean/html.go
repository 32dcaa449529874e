package clean

import (
	"regexp"
	"strings"
)

var (
	brTag       = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	htmlSpaces  = regexp.MustCompile(`\s+`)
	bidiMarkers = []rune{
		'‎', '‏', // LRM, RLM
		'‪', '‫', '‬', '‭', '‮', // embedding/override
		'⁦', '⁧', '⁨', '⁩', // isolates
		0xFEFF, // BOM / zero-width no-break space
	}
)

// HTMLTags replaces <br> variants with a space, strips every remaining
// tag, drops bidirectional/formatting control code points, and
// collapses whitespace.
func HTMLTags(raw string) string {
	s := brTag.ReplaceAllString(raw, " ")
	s = anyTag.ReplaceAllString(s, "")
	s = stripBidi(s)
	s = htmlSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripBidi(s string) string {
	return strings.Map(func(r rune) rune {
		for _, b := range bidiMarkers {
			if r == b {
				return -1
			}
		}
		return r
	}, s)
}
