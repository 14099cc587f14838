package habit

import (
	"fmt"
	"time"
)

// DateLayout is the persisted form of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day in some local time zone.
// The zero value is not a valid day; use IsZero to detect it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a persisted date. It accepts the YYYY-MM-DD layout and, for
// values written by older versions, RFC 3339 timestamps, which are converted to
// a day in loc.
func ParseDate(s string, loc *time.Location) (Date, error) {
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return DateOf(t.In(loc)), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// AddDays returns the day n days after d (before, for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.midnightUTC().Before(o.midnightUTC())
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// DaysUntil returns the number of day boundaries between d and o.
// It is negative when o is earlier than d.
func (d Date) DaysUntil(o Date) int {
	return int(o.midnightUTC().Sub(d.midnightUTC()).Hours() / 24)
}

// At returns the wall-clock time hour:min on day d in loc.
func (d Date) At(hour, min int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, 0, 0, loc)
}

// UTC midnight has no DST transitions, so day arithmetic is exact.
func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
