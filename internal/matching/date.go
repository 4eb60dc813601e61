package matching

import (
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// isoLayouts are tried in order. The calendar date is taken as written; an
// offset never moves the date.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	dateLayout,
}

var embeddedDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// DateOnly extracts a YYYY-MM-DD date from s. Strict ISO-8601 forms are parsed
// first (a trailing Z is ignored); otherwise the first date-shaped substring is
// used as-is. ok is false when neither yields a date.
func DateOnly(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	candidate := strings.ReplaceAll(s, "Z", "")
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.Format(dateLayout), true
		}
	}
	if m := embeddedDate.FindString(s); m != "" {
		return m, true
	}
	return "", false
}
