package clean

import "testing"

func TestAddress(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"escaped slash", `123 Main St\/Suite 4`, "123 Main St/Suite 4"},
		{"letter digit boundary", "Unit12", "Unit 12"},
		{"digit letter boundary", "12Unit", "12 Unit"},
		{"ordinal suffix preserved", "3rd Street", "3rd Street"},
		{"collapses whitespace", "123   Main   St", "123 Main St"},
		{"collapses double comma", "123 Main St,, Springfield", "123 Main St, Springfield"},
		{"space before comma", "123 Main St , Springfield", "123 Main St, Springfield"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Address(tt.input); got != tt.want {
				t.Errorf("Address(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripRedundantTail(t *testing.T) {
	tests := []struct {
		name                                 string
		addr1, city, state, country, postal string
		want                                 string
	}{
		{
			name: "strips all three in order",
			addr1: "123 Main St, Springfield, IL 62704, USA",
			city: "Springfield", state: "IL", country: "USA", postal: "62704",
			want: "123 Main St",
		},
		{
			name: "case insensitive",
			addr1: "123 Main St, SPRINGFIELD",
			city: "Springfield",
			want: "123 Main St",
		},
		{
			name:  "nothing to strip",
			addr1: "123 Main St",
			city:  "Springfield",
			want:  "123 Main St",
		},
		{
			name: "idempotent on repeated call",
			addr1: "123 Main St, Springfield",
			city: "Springfield",
			want: "123 Main St",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripRedundantTail(tt.addr1, tt.city, tt.state, tt.country, tt.postal)
			if got != tt.want {
				t.Errorf("StripRedundantTail() = %q, want %q", got, tt.want)
			}
			again := StripRedundantTail(got, tt.city, tt.state, tt.country, tt.postal)
			if again != got {
				t.Errorf("StripRedundantTail not idempotent: %q -> %q", got, again)
			}
		})
	}
}
