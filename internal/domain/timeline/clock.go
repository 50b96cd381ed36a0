package timeline

import "time"

// Clock supplies the reference instant for every classification. Callers
// pass it explicitly so results can be pinned in tests and never go stale
// across midnight.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ZoneClock reads the wall clock in a fixed location, so "today" follows
// the business timezone rather than the host's.
type ZoneClock struct {
	Location *time.Location
}

func (c ZoneClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns midnight of the clock's current day, in the clock's location.
func Today(c Clock) time.Time {
	return startOfDay(c.Now())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
