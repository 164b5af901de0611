// Package biztime centralizes time handling. All storage and transport use
// UTC; handlers and schedulers must never reach for time.Now directly so that
// tests can pin the clock.
package biztime

import "time"

// Now is swappable in tests. Production code always goes through NowUTC.
var Now = time.Now

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return Now().UTC()
}

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns how many whole days remain from now until t, negative if
// t is in the past.
func DaysUntil(t time.Time) int {
	return int(time.Until(t).Hours() / 24)
}
