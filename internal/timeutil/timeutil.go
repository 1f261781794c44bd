package timeutil

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo

	"github.com/araddon/dateparse"
)

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "Asia/Kolkata"

const dateLayout = "2006-01-02"

// ResolveLocation returns the configured location, falling back to DefaultTimezone.
// The bool reports whether the fallback was used.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc, false
		}
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC, true
	}
	return loc, true
}

// ParseDate parses a calendar date. YYYY-MM-DD is expected; anything dateparse
// understands is accepted as well.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date value is required")
	}

	if d, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return d, nil
	}

	d, err := dateparse.ParseIn(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}

// clockLayouts are tried in order against the upper-cased input.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04PM",
	"3:04 PM",
	"3PM",
	"3 PM",
	"15.04",
	"3:04:05PM",
	"3:04:05 PM",
	"3.04PM",
	"3.04 PM",
}

// ParseClock leniently parses a time of day ("14:00", "2:30 pm", "9am").
// The whole value must be a clock reading; "after lunch" or "tbd" is an error.
func ParseClock(value string) (hour, minute int, err error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return 0, 0, fmt.Errorf("time value is required")
	}
	v = strings.ReplaceAll(v, ".M.", "M")
	v = strings.ReplaceAll(v, "A.M", "AM")
	v = strings.ReplaceAll(v, "P.M", "PM")

	for _, layout := range clockLayouts {
		if t, perr := time.Parse(layout, v); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}

	return 0, 0, fmt.Errorf("unable to parse time: %s", value)
}

// CombineDateAndClock returns the instant at date + clock in loc, seconds zeroed.
func CombineDateAndClock(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// FormatDate renders a date in YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
