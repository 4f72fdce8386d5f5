package event

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultCampusTimezone is the zone assumed for datetime text without an offset.
const DefaultCampusTimezone = "America/New_York"

// ErrUnparseableDate is returned when no layout or fallback parser accepts the text.
var ErrUnparseableDate = errors.New("unparseable date")

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[a-z]*\.?,?\s+`)
	atConnector   = regexp.MustCompile(`(?i)\s+at\s+`)
	campusZone    = regexp.MustCompile(`(?i)\s+(EST|EDT|ET)$`)
	meridiem      = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?m\b\.?`)
	rangeTail     = regexp.MustCompile(`\s+(–|—|-|to)\s+.*$`)
	spaces        = regexp.MustCompile(`\s+`)
)

// Layouts that carry a year
var yearLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2 2006 3:04 PM",
	"January 2 2006 3:04 PM",
	"Jan 2, 2006 3 PM",
	"January 2, 2006 3 PM",
	"1/2/2006 3:04 PM",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
}

// Layouts without a year; the year comes from the reference time.
var noYearLayouts = []string{
	"January 2 3:04 PM",
	"Jan 2 3:04 PM",
	"January 2, 3:04 PM",
	"Jan 2, 3:04 PM",
	"January 2 3 PM",
	"Jan 2 3 PM",
}

// CleanDateText strips the decoration the listing wraps around a start time:
// weekday names, "at", the campus zone abbreviation and any end-of-range tail.
//
//	"Wednesday, October 15 at 12:00PM EDT – 2:00PM EDT" → "October 15 12:00 PM"
func CleanDateText(text string) string {
	s := spaces.ReplaceAllString(strings.TrimSpace(text), " ")
	s = rangeTail.ReplaceAllString(s, "")
	s = weekdayPrefix.ReplaceAllString(s, "")
	s = atConnector.ReplaceAllString(s, " ")
	s = campusZone.ReplaceAllString(s, "")
	s = meridiem.ReplaceAllStringFunc(s, func(m string) string {
		sub := meridiem.FindStringSubmatch(m)
		return sub[1] + " " + strings.ToUpper(sub[2]) + "M"
	})
	return strings.TrimSpace(s)
}

// ParseDateTime parses free-text listing datetimes. Text without a zone offset
// is read in loc. When the text has no year, the year of ref is used, rolled
// forward if the result would fall more than a month before ref.
func ParseDateTime(text string, loc *time.Location, ref time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(text) == "" {
		return time.Time{}, fmt.Errorf("%w: empty text", ErrUnparseableDate)
	}

	cleaned := CleanDateText(text)

	for _, layout := range yearLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t, nil
		}
	}

	refLocal := ref.In(loc)
	for _, layout := range noYearLayouts {
		t, err := time.ParseInLocation(layout, cleaned, loc)
		if err != nil {
			continue
		}
		withYear := time.Date(refLocal.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		if withYear.Before(refLocal.AddDate(0, -1, 0)) {
			withYear = withYear.AddDate(1, 0, 0)
		}
		return withYear, nil
	}

	// Fall back to the lenient parser, first on the cleaned text then on the original.
	if t, err := dateparse.ParseIn(cleaned, loc); err == nil {
		return t, nil
	}
	if t, err := dateparse.ParseIn(strings.TrimSpace(text), loc); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, text)
}

// TomorrowWindow returns the UTC bounds [start, end) of the local calendar day
// after now, in loc. The day may be 23 or 25 hours long across DST changes.
func TomorrowWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	end = time.Date(local.Year(), local.Month(), local.Day()+2, 0, 0, 0, 0, loc)
	return start.UTC(), end.UTC()
}

// IsTomorrow reports whether t falls on the local calendar day after now.
func IsTomorrow(t, now time.Time, loc *time.Location) bool {
	start, end := TomorrowWindow(now, loc)
	return !t.Before(start) && t.Before(end)
}

// LoadLocation resolves a campus timezone name, defaulting when name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultCampusTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}
