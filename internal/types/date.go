package types

import (
	"time"
)

// DateOnlyFormat is the calendar-day format used for usage-counter resets.
// Usage quotas reset on calendar-day rollover; entitlement expiry is
// compared at full timestamp precision. The two must not be mixed.
const DateOnlyFormat = "2006-01-02"

// CalendarDate truncates a timestamp to its UTC calendar day
func CalendarDate(t time.Time) string {
	return t.UTC().Format(DateOnlyFormat)
}

// SameCalendarDay reports whether two instants fall on the same UTC calendar day
func SameCalendarDay(a, b time.Time) bool {
	return CalendarDate(a) == CalendarDate(b)
}

// DaysUntil returns the number of whole days from now until t, rounding
// partial days up, floored at zero.
func DaysUntil(now, t time.Time) int {
	if !t.After(now) {
		return 0
	}
	d := t.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
