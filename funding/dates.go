package funding

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02Z07:00",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseDate parses the date formats seen across sources.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsExpired reports whether the opportunity's deadline falls before the
// start of now's day. Missing or unparseable deadlines are never expired.
func IsExpired(o Opportunity, now time.Time) bool {
	deadline, ok := ParseDate(o.DeadlineDate)
	if !ok {
		return false
	}
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dy, dm, dd := deadline.Date()
	return time.Date(dy, dm, dd, 0, 0, 0, 0, now.Location()).Before(startOfDay)
}

// FilterOpen drops expired opportunities.
func FilterOpen(opps []Opportunity, now time.Time) []Opportunity {
	out := opps[:0:0]
	for _, o := range opps {
		if !IsExpired(o, now) {
			out = append(out, o)
		}
	}
	return out
}

// formatDMY renders t as dd/mm/yyyy, the format national portals expect.
func formatDMY(t time.Time) string {
	return t.Format("02/01/2006")
}
