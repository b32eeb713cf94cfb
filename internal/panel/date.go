package panel

import (
	"strconv"
	"time"

	"NoticeBoard/internal/domain"
)

// InvalidDate is shown when a start timestamp cannot be parsed.
const InvalidDate = "Invalid Date"

// FormatDate renders a start timestamp as day, short month and year in loc,
// e.g. "2 Jan 2006". Timestamps without an offset are taken to be in loc
// already.
func FormatDate(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, ok := domain.ParseTimestamp(raw, loc)
	if !ok {
		return InvalidDate
	}
	t = t.In(loc)
	return strconv.Itoa(t.Day()) + " " + shortMonth(t.Month()) + " " + strconv.Itoa(t.Year())
}

// shortMonth follows the en-IN abbreviations, which spell September "Sept".
func shortMonth(m time.Month) string {
	if m == time.September {
		return "Sept"
	}
	return m.String()[:3]
}
