// Package rawtree models a RawRecord: an opaque key/value tree decoded
// from a back end's JSON response, with dot-path lookup and flattening.
package rawtree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Node is any value in a decoded JSON tree: nil, bool, float64, string,
// []interface{}, or map[string]interface{} — exactly what
// encoding/json.Unmarshal produces into an interface{}.
type Node = interface{}

// Record wraps a decoded JSON object as a RawRecord. Only the
// field-mapping inferencer and the normalizer reach inside it.
type Record struct {
	root Node
}

// New wraps a decoded value as a Record.
func New(v Node) Record { return Record{root: v} }

// Root returns the underlying decoded value.
func (r Record) Root() Node { return r.root }

// At looks up a dot-segmented path, where a segment that parses as an
// integer indexes into an array. Returns (nil, false) if any segment
// along the path is absent.
func (r Record) At(path string) (Node, bool) {
	if path == "" {
		return r.root, true
	}
	cur := r.root
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Leaf returns the value at path as a string, converting scalars with
// fmt.Sprint. Returns ("", false) for missing paths, nil, or containers.
func (r Record) Leaf(path string) (string, bool) {
	v, ok := r.At(path)
	if !ok || v == nil {
		return "", false
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return "", false
	}
	return fmt.Sprint(v), true
}

// Flatten walks the tree and returns every leaf path mapped to its
// string value. Object children expand as "parent.key"; array-of-object
// children expand with an integer index, "parent.0.key".
func Flatten(v Node) map[string]string {
	out := map[string]string{}
	flattenInto(v, "", out)
	return out
}

func flattenInto(v Node, prefix string, out map[string]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			flattenInto(child, join(prefix, k), out)
		}
	case []interface{}:
		for i, child := range t {
			flattenInto(child, join(prefix, strconv.Itoa(i)), out)
		}
	case nil:
		// absent leaf, nothing to record
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

func join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

// UnionPaths returns the sorted union of flattened leaf paths across
// several sample records, used by the field-mapping inferencer.
func UnionPaths(samples []Record) []string {
	seen := map[string]struct{}{}
	for _, s := range samples {
		for path := range Flatten(s.root) {
			seen[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
