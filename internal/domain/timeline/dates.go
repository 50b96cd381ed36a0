package timeline

import "time"

// RenderingWindowDays is the administrative period after a project's end date
// in which its accounts must be rendered.
const RenderingWindowDays = 60

// ParseDate reads an ERP date in YYYYMMDD form. Anything that is not exactly
// eight digits is reported as not ok. Out-of-range months or days roll over
// the way calendar arithmetic does (20240230 is March 1st).
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}

	year := atoi(s[0:4])
	month := atoi(s[4:6])
	day := atoi(s[6:8])

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

func atoi(digits string) int {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return n
}

// dayNumber counts calendar days, ignoring DST shifts in the source location.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// DaysRemaining returns the whole days from today until end, negative once
// end has passed, or nil when end is not a valid date.
func DaysRemaining(end string, today time.Time) *int {
	e, ok := ParseDate(end, today.Location())
	if !ok {
		return nil
	}
	days := int(dayNumber(e) - dayNumber(today))
	return &days
}

// DaysSinceEnd returns how many days ago the project ended, 0 while it is
// still running.
//
// An invalid end date also yields 0 rather than an "unknown" value: the
// rendering-window checks rely on it reading as "not ended".
func DaysSinceEnd(end string, today time.Time) int {
	remaining := DaysRemaining(end, today)
	if remaining == nil || *remaining >= 0 {
		return 0
	}
	return -*remaining
}

// RenderingDaysLeft counts down the accounts-rendering window. It is nil until
// the project has ended and never goes below 0.
func RenderingDaysLeft(end string, today time.Time) *int {
	since := DaysSinceEnd(end, today)
	if since == 0 {
		return nil
	}
	left := max(0, RenderingWindowDays-since)
	return &left
}

// IsInRenderingWindow reports whether the project ended within the last
// RenderingWindowDays days.
func IsInRenderingWindow(end string, today time.Time) bool {
	since := DaysSinceEnd(end, today)
	return since > 0 && since <= RenderingWindowDays
}

// IsOverdueForAccounts reports whether the rendering window has closed.
func IsOverdueForAccounts(end string, today time.Time) bool {
	return DaysSinceEnd(end, today) > RenderingWindowDays
}

// IsInExecution reports start <= today <= end. Both dates must be valid.
func IsInExecution(start, end string, today time.Time) bool {
	s, ok := ParseDate(start, today.Location())
	if !ok {
		return false
	}
	e, ok := ParseDate(end, today.Location())
	if !ok {
		return false
	}
	t := dayNumber(today)
	return dayNumber(s) <= t && t <= dayNumber(e)
}

// IsNotStarted reports today < start.
func IsNotStarted(start string, today time.Time) bool {
	s, ok := ParseDate(start, today.Location())
	if !ok {
		return false
	}
	return dayNumber(today) < dayNumber(s)
}

// IsRenderingUrgent reports 15 or fewer days left to render accounts.
func IsRenderingUrgent(end string, today time.Time) bool {
	left := RenderingDaysLeft(end, today)
	return left != nil && *left <= 15
}

// inRange reports lo <= *v <= hi for a non-nil v.
func inRange(v *int, lo, hi int) bool {
	return v != nil && *v >= lo && *v <= hi
}
