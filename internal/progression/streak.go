// Package progression holds the pure rules of the gamification engine:
// streak transitions, challenge progress and badge thresholds. Storage
// and sequencing live in the services package.
package progression

import "time"

const day = 24 * time.Hour

// CalendarDate returns the calendar day of t as midnight UTC. The year,
// month and day are read in t's own location, so callers choose the time
// zone that defines "today" by converting before calling.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	return int(CalendarDate(b).Sub(CalendarDate(a)) / day)
}

// NextStreak applies one scan made on today to a streak. changed is false
// only for a repeat scan on the same calendar day.
//
//	no prior scan      -> 1
//	prior scan today   -> unchanged
//	prior scan 1 day   -> current + 1
//	anything else      -> 1
func NextStreak(lastScan *time.Time, current int, today time.Time) (streak int, changed bool) {
	if current < 0 {
		current = 0
	}
	if lastScan == nil {
		return 1, true
	}

	switch DaysBetween(*lastScan, today) {
	case 0:
		return current, false
	case 1:
		return current + 1, true
	default:
		return 1, true
	}
}
