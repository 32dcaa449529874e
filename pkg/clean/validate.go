package clean

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	phoneDigits  = regexp.MustCompile(`\d`)
	emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	localeHost   = regexp.MustCompile(`^[a-z]{2}-[a-z]{2}$`)

	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".bmp": true, ".webp": true, ".svg": true, ".ico": true,
	}

	knownNonPhoneLabels = []string{"phone order", "call center", "n/a", "none"}
)

// Phone reports whether value looks like a phone number: at least 5
// digit characters, and not one of a small set of known non-phone
// labels sometimes found in the phone field.
func Phone(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, label := range knownNonPhoneLabels {
		if v == label {
			return false
		}
	}
	return len(phoneDigits.FindAllString(value, -1)) >= 5
}

// Email reports whether value matches an RFC-lite email pattern and
// is not actually a URL.
func Email(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" || strings.Contains(v, "://") {
		return false
	}
	return emailPattern.MatchString(v)
}

// IsImageURL reports whether the last path segment of rawURL has a
// common image file extension.
func IsImageURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return imageExtensions[strings.ToLower(path.Ext(rawURL))]
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// isPartialURL reports whether rawURL looks like a bare locale
// hostname fragment (e.g. "en-us") rather than an absolute URL.
func isPartialURL(rawURL string) bool {
	return localeHost.MatchString(strings.ToLower(strings.TrimSpace(rawURL)))
}

// URL validates rawURL as an absolute URL with a schemed host
// containing a dot. field identifies the canonical field this value
// is destined for ("Website" rejects image URLs). base, if non-empty,
// resolves partial/relative URLs (including bare locale fragments)
// before validation.
func URL(rawURL, field, base string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", true
	}

	resolved := rawURL
	if base != "" && (isPartialURL(rawURL) || isRelative(rawURL)) {
		if r, ok := resolve(base, rawURL); ok {
			resolved = r
		}
	}

	u, err := url.Parse(resolved)
	if err != nil || u.Scheme == "" || u.Host == "" || !strings.Contains(u.Host, ".") {
		return "", false
	}

	if field == "Website" && IsImageURL(resolved) {
		return "", false
	}

	return resolved, true
}

func isRelative(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	return u.Scheme == "" || u.Host == ""
}

func resolve(base, ref string) (string, bool) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return baseURL.ResolveReference(refURL).String(), true
}

// Boolean parses common truthy/falsy strings into the canonical
// "TRUE"/"FALSE" status representation. Unrecognized values default
// to "TRUE" (active unless proven otherwise).
func Boolean(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "0", "false", "no", "inactive", "disabled", "off":
		return "FALSE"
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && n == 0 {
		return "FALSE"
	}
	return "TRUE"
}
