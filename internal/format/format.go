package format

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	time.RFC3339,
	"2.1.2006",
}

// ParseDate reads an article date in any of the layouts used by the site
// config. It returns the zero time when nothing matches.
func ParseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FmtDate formats time in a locale-friendly short form.
func FmtDate(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "ru":
		return t.Format("02.01.2006")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// ISODate renders t for a datetime attribute, or "" for the zero time.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// DisplayDate normalises a configured date for display. Unparseable values
// are shown as written.
func DisplayDate(v, lang string) string {
	t := ParseDate(v)
	if t.IsZero() {
		return strings.TrimSpace(v)
	}
	return FmtDate(t, lang)
}
