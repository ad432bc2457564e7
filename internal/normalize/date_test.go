package normalize_test

import (
	"testing"
	"time"

	"canvass/internal/normalize"
)

func TestParseDateFormats(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		want      string
		ambiguous bool
	}{
		{"slash form", "3/15/1985", "1985-03-15", false},
		{"iso form", "1985-03-15", "1985-03-15", false},
		{"transposable slash date", "3/4/1985", "1985-03-04", true},
		{"month equals day", "1950-01-01", "1950-01-01", false},
		{"sheet serial", "31048", "1985-01-01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			date, ambiguous, ok := normalize.ParseDate(tc.raw)
			if !ok {
				t.Fatalf("ParseDate(%q) not ok", tc.raw)
			}
			if got := date.Format("2006-01-02"); got != tc.want {
				t.Fatalf("ParseDate(%q) = %s, want %s", tc.raw, got, tc.want)
			}
			if ambiguous != tc.ambiguous {
				t.Fatalf("ParseDate(%q) ambiguous = %v, want %v", tc.raw, ambiguous, tc.ambiguous)
			}
		})
	}
}

func TestParseDateAmbiguityRule(t *testing.T) {
	// Any date where month and day are both <= 12 and differ could be a
	// transposition; equality removes the doubt.
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 12; day++ {
			date := time.Date(1980, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			_, ambiguous, ok := normalize.ParseDate(date.Format("2006-1-2"))
			if !ok {
				t.Fatalf("ParseDate failed for %s", date)
			}
			want := month != day
			if ambiguous != want {
				t.Fatalf("month=%d day=%d ambiguous=%v, want %v", month, day, ambiguous, want)
			}
		}
	}
}

func TestParseDateUnparseable(t *testing.T) {
	for _, raw := range []string{"", "not a date", "13/45/1990", "-5", "99999999"} {
		if _, ambiguous, ok := normalize.ParseDate(raw); ok || ambiguous {
			t.Fatalf("ParseDate(%q) should be ok=false ambiguous=false", raw)
		}
	}
}
