package config

import (
	"encoding/json"
	"testing"

	"github.com/watchdna/storeharvester/pkg/rawtree"
)

func TestFieldSpecUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		json          string
		wantPaths     []string
		wantDefault   string
		wantTransform string
	}{
		{"bare string", `"name"`, []string{"name"}, "", ""},
		{"list of strings", `["name", "title"]`, []string{"name", "title"}, "", ""},
		{"rule with string key", `{"key": "state", "default": "", "transform": "upper"}`, []string{"state"}, "", "upper"},
		{"rule with list key and default", `{"key": ["state", "province"], "default": "UNKNOWN"}`, []string{"state", "province"}, "UNKNOWN", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fs FieldSpec
			if err := json.Unmarshal([]byte(tt.json), &fs); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.json, err)
			}
			if len(fs.Paths) != len(tt.wantPaths) {
				t.Fatalf("Paths = %v, want %v", fs.Paths, tt.wantPaths)
			}
			for i, p := range tt.wantPaths {
				if fs.Paths[i] != p {
					t.Errorf("Paths[%d] = %q, want %q", i, fs.Paths[i], p)
				}
			}
			if fs.Default != tt.wantDefault {
				t.Errorf("Default = %q, want %q", fs.Default, tt.wantDefault)
			}
			if fs.Transform != tt.wantTransform {
				t.Errorf("Transform = %q, want %q", fs.Transform, tt.wantTransform)
			}
		})
	}
}

func TestFieldSpecUnmarshalJSONRejectsGarbage(t *testing.T) {
	var fs FieldSpec
	if err := json.Unmarshal([]byte(`42`), &fs); err == nil {
		t.Error("expected an error unmarshaling a bare number into FieldSpec")
	}
}

func TestFieldSpecResolve(t *testing.T) {
	raw := rawtree.New(map[string]interface{}{
		"state":    "",
		"province": "ontario",
	})

	tests := []struct {
		name string
		spec FieldSpec
		want string
	}{
		{
			name: "first non-empty path wins",
			spec: FieldSpec{Paths: []string{"state", "province"}},
			want: "ontario",
		},
		{
			name: "falls back to default when no path resolves",
			spec: FieldSpec{Paths: []string{"missing"}, Default: "fallback"},
			want: "fallback",
		},
		{
			name: "applies named transform",
			spec: FieldSpec{Paths: []string{"province"}, Transform: "upper"},
			want: "ONTARIO",
		},
		{
			name: "unknown transform passes through unchanged",
			spec: FieldSpec{Paths: []string{"province"}, Transform: "rot13"},
			want: "ontario",
		},
		{
			name: "empty default resolves to empty string",
			spec: FieldSpec{Paths: []string{"missing"}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Resolve(raw); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}
