package news

import (
	"regexp"
	"time"
)

// TimeLayout is the canonical publishedAt layout.
const TimeLayout = "2006-01-02T15:04:05Z"

var (
	compactUTC = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})T(\d{2})(\d{2})(\d{2})Z$`)
	isoPrefix  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// FormatDate rewrites the compact UTC form YYYYMMDDThhmmssZ into TimeLayout,
// passes through anything that already starts with YYYY-MM-DD, and returns ""
// for everything else. ok is false only for non-empty input that was dropped.
func FormatDate(raw string) (formatted string, ok bool) {
	if raw == "" {
		return "", true
	}
	if m := compactUTC.FindStringSubmatch(raw); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3] + "T" + m[4] + ":" + m[5] + ":" + m[6] + "Z", true
	}
	if isoPrefix.MatchString(raw) {
		return raw, true
	}
	return "", false
}

var parseLayouts = []string{
	time.RFC3339Nano,
	TimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a publishedAt value. Empty or unparseable input yields
// the zero time, which orders before every real timestamp.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Day returns the YYYY-MM-DD part of a publishedAt value, or "".
func Day(publishedAt string) string {
	if !isoPrefix.MatchString(publishedAt) {
		return ""
	}
	return publishedAt[:10]
}
