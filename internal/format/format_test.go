package format

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2023, 1, 26, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"26.01.2023", "2023-01-26", " 26.1.2023 "} {
		if got := ParseDate(in); !got.Equal(want) {
			t.Fatalf("ParseDate(%q): expected %v, got %v", in, want, got)
		}
	}
	if !ParseDate("soon").IsZero() || !ParseDate("").IsZero() {
		t.Fatalf("expected zero time for unparseable input")
	}
}

func TestDisplayDate(t *testing.T) {
	if got := DisplayDate("2023-01-26", "ru"); got != "26.01.2023" {
		t.Fatalf("expected 26.01.2023, got %q", got)
	}
	if got := DisplayDate("26.01.2023", "en"); got != "Jan 26, 2023" {
		t.Fatalf("expected Jan 26, 2023, got %q", got)
	}
	if got := DisplayDate("весна 2023", "ru"); got != "весна 2023" {
		t.Fatalf("expected raw value, got %q", got)
	}
	if got := ISODate(ParseDate("26.01.2023")); got != "2023-01-26" {
		t.Fatalf("expected ISO date, got %q", got)
	}
	if ISODate(time.Time{}) != "" {
		t.Fatalf("expected empty ISO date for zero time")
	}
}
