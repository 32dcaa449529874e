package canonical

import "strings"

// Fingerprint is the lowercased (name, addr1, city) tuple used for
// fuzzy dedup across an entire harvest's output, distinct from the
// per-executor source-identity key.
type Fingerprint struct {
	Name  string
	Addr1 string
	City  string
}

// NewFingerprint builds a Fingerprint from raw field values, lowercasing
// and trimming each.
func NewFingerprint(name, addr1, city string) Fingerprint {
	return Fingerprint{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Addr1: strings.ToLower(strings.TrimSpace(addr1)),
		City:  strings.ToLower(strings.TrimSpace(city)),
	}
}

// FingerprintSet tracks fingerprints already emitted in the current
// harvest so the normalizer can silently drop fuzzy duplicates.
type FingerprintSet struct {
	seen map[Fingerprint]struct{}
}

// NewFingerprintSet creates an empty FingerprintSet.
func NewFingerprintSet() *FingerprintSet {
	return &FingerprintSet{seen: make(map[Fingerprint]struct{})}
}

// SeenOrAdd reports whether fp has already been recorded; if not, it
// records fp and returns false.
func (fs *FingerprintSet) SeenOrAdd(fp Fingerprint) bool {
	if _, ok := fs.seen[fp]; ok {
		return true
	}
	fs.seen[fp] = struct{}{}
	return false
}
