package clean

import (
	"regexp"
	"strings"
)

var (
	escapedSlash   = strings.NewReplacer(`\/`, "/")
	backslashRun   = regexp.MustCompile(`\\+`)
	lettersDigits  = regexp.MustCompile(`([A-Za-z]{2,})(\d)`)
	digitsLetters  = regexp.MustCompile(`(\d)([A-Za-z]{2,})`)
	ordinalSuffix  = regexp.MustCompile(`(?i)^(st|nd|rd|th)\b`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	spaceBeforeSep = regexp.MustCompile(`\s+,`)
	doubleComma    = regexp.MustCompile(`,\s*,+`)
)

// Address cleans a raw address string: unescapes literal slashes,
// turns stray backslash runs into a comma-separated join, inserts a
// space between letter/digit boundaries (skipping ordinal suffixes
// like "3rd"), and collapses redundant whitespace and commas.
func Address(raw string) string {
	s := escapedSlash.Replace(raw)
	s = backslashRun.ReplaceAllString(s, ", ")

	s = lettersDigits.ReplaceAllStringFunc(s, func(m string) string {
		groups := lettersDigits.FindStringSubmatch(m)
		letters, digit := groups[1], groups[2]
		return letters + " " + digit
	})
	s = insertDigitLetterSpace(s)

	s = whitespaceRun.ReplaceAllString(s, " ")
	s = spaceBeforeSep.ReplaceAllString(s, ",")
	s = doubleComma.ReplaceAllString(s, ",")

	return strings.TrimSpace(s)
}

// insertDigitLetterSpace inserts a space between a digit run and a
// following letter run of length >= 2, unless the letters are an
// ordinal suffix (st|nd|rd|th) immediately following the digits.
func insertDigitLetterSpace(s string) string {
	return digitsLetters.ReplaceAllStringFunc(s, func(m string) string {
		groups := digitsLetters.FindStringSubmatch(m)
		digit, letters := groups[1], groups[2]
		if ordinalSuffix.MatchString(letters) {
			return m
		}
		return digit + " " + letters
	})
}

// StripRedundantTail right-strips a trailing ", <country>", then
// ", <state>[ <postal>]", then ", <city>" from addr1 — case
// insensitive, each removed at most once, in that order. Many back
// ends return the full address in line1; separate fields would
// otherwise duplicate.
func StripRedundantTail(addr1, city, state, country, postal string) string {
	out := addr1

	if country != "" {
		out = stripSuffixFold(out, ", "+country)
	}
	if state != "" {
		suffix := ", " + state
		if postal != "" {
			suffix += " " + postal
		}
		out = stripSuffixFold(out, suffix)
	}
	if city != "" {
		out = stripSuffixFold(out, ", "+city)
	}

	return strings.TrimSpace(out)
}

func stripSuffixFold(s, suffix string) string {
	if len(suffix) == 0 || len(s) < len(suffix) {
		return s
	}
	tail := s[len(s)-len(suffix):]
	if strings.EqualFold(tail, suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}
