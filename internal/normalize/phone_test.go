package normalize_test

import (
	"testing"

	"canvass/internal/normalize"
)

func TestPhoneCollapsesEquivalentForms(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"dashed local with area code", "671-555-1234", "5551234"},
		{"plus country code", "+16715551234", "5551234"},
		{"spaces and dots", "1 (671) 555.1234", "5551234"},
		{"bare local", "555-1234", "5551234"},
		{"other area code kept", "808-555-1234", "8085551234"},
		{"blank", "   ", ""},
		{"no digits", "call me", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalize.Phone(tc.raw, "671")
			if got != tc.want {
				t.Fatalf("Phone(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestPhoneIsIdempotent(t *testing.T) {
	inputs := []string{"671-555-1234", "+16715551234", "5551234", "(671) 555 1234"}
	for _, raw := range inputs {
		once := normalize.Phone(raw, "671")
		twice := normalize.Phone(once, "671")
		if once != twice {
			t.Fatalf("Phone not idempotent for %q: %q then %q", raw, once, twice)
		}
		if once != "5551234" {
			t.Fatalf("Phone(%q) = %q, want 5551234", raw, once)
		}
	}
}

func TestPhoneDefaultsAreaCode(t *testing.T) {
	if got := normalize.Phone("6715551234", ""); got != "5551234" {
		t.Fatalf("Phone with blank area code = %q, want 5551234", got)
	}
}
