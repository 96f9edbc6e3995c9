package portal

import (
	"strconv"
	"strings"
	"time"

	"homework-backend/lib/timezone"
)

// DateFormat is the single fixed format portal views render dates in,
// e.g. "Jan 20, 2024".
const DateFormat = "Jan 2, 2006"

func ParseDate(text string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(text), timezone.Location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParsePercent reads a "94%" style cell. Returns nil when the text is
// not numeric; the caller decides whether a null percent keeps the row.
func ParsePercent(text string) *float64 {
	text = strings.TrimSpace(strings.ReplaceAll(text, "%", ""))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Cutoff is the earliest date considered within the requested window.
func Cutoff(now time.Time, sinceDays int) time.Time {
	return now.AddDate(0, 0, -sinceDays)
}
