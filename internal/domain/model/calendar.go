package model

import (
	"fmt"
	"time"
)

// DefaultReferenceYear is the year every CalendarKey is stamped onto. It is a
// leap year so that Feb 29 keeps its own slot on the shared axis.
const DefaultReferenceYear = 2000

// calendarKeyLayout formats a key as an ISO date on the reference year.
const calendarKeyLayout = "2006-01-02"

// CalendarKey is a month and day re-stamped onto a fixed reference year so
// that rows from different years overlay on one January to December axis.
// The zero value means "missing".
type CalendarKey struct {
	t time.Time
}

// NewCalendarKey stamps the month and day of t onto refYear.
func NewCalendarKey(refYear int, t time.Time) CalendarKey {
	if t.IsZero() {
		return CalendarKey{}
	}
	return CalendarKey{t: time.Date(refYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MonthDay builds a key for an explicit month and day on refYear. Days that
// do not exist in that month are rejected.
func MonthDay(refYear int, month time.Month, day int) (CalendarKey, error) {
	t := time.Date(refYear, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return CalendarKey{}, fmt.Errorf("%w: %02d-%02d", ErrInvalidMonthDay, int(month), day)
	}
	return CalendarKey{t: t}, nil
}

// ParseMonthDay parses "MM-DD" onto refYear.
func ParseMonthDay(refYear int, s string) (CalendarKey, error) {
	var month, day int
	if _, err := fmt.Sscanf(s, "%d-%d", &month, &day); err != nil {
		return CalendarKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, s)
	}
	if month < 1 || month > 12 {
		return CalendarKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, s)
	}
	return MonthDay(refYear, time.Month(month), day)
}

// Valid reports whether the key carries a date.
func (k CalendarKey) Valid() bool { return !k.t.IsZero() }

// Time returns the key as a UTC midnight on the reference year.
func (k CalendarKey) Time() time.Time { return k.t }

// Before orders keys on the shared axis. Missing keys sort last.
func (k CalendarKey) Before(o CalendarKey) bool {
	switch {
	case !k.Valid():
		return false
	case !o.Valid():
		return true
	}
	return k.t.Before(o.t)
}

// String returns the ISO date on the reference year, or "" when missing.
func (k CalendarKey) String() string {
	if !k.Valid() {
		return ""
	}
	return k.t.Format(calendarKeyLayout)
}

// IsLeapYear reports whether y has a Feb 29.
func IsLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
