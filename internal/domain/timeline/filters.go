package timeline

import "time"

// Range tokens accepted by the dashboard filters.
const (
	RangeToday    = "today"
	RangeWeek     = "week"
	Range15Days   = "15days"
	Range30Days   = "30days"
	Range60Days   = "60days"
	Range90Days   = "90days"
	RangeCustom   = "custom"
	RangeLow      = "low"
	RangeMedium   = "medium"
	RangeHigh     = "high"
	RangeExceeded = "exceeded"
)

// WithinDaysRange reports whether the days remaining until end fall inside
// the optional [minDays, maxDays] bounds.
func WithinDaysRange(end string, minDays, maxDays *int, today time.Time) bool {
	days := DaysRemaining(end, today)
	if days == nil {
		return false
	}
	if minDays != nil && *days < *minDays {
		return false
	}
	if maxDays != nil && *days > *maxDays {
		return false
	}
	return true
}

// MatchesVigenciaRange filters projects still in force (days remaining >= 0)
// by how close their end date is.
func MatchesVigenciaRange(rng, end string, customMin, customMax *int, today time.Time) bool {
	days := DaysRemaining(end, today)
	if days == nil || *days < 0 {
		return false
	}

	if rng == RangeCustom {
		return WithinDaysRange(end, clampNonNegative(customMin), clampNonNegative(customMax), today)
	}
	return matchesDayBucket(rng, *days)
}

// MatchesRenderingRange filters projects in their rendering window by days
// left to render accounts.
func MatchesRenderingRange(rng, end string, customMin, customMax *int, today time.Time) bool {
	left := RenderingDaysLeft(end, today)
	if left == nil {
		return false
	}

	if rng == RangeCustom {
		lo, hi := clampNonNegative(customMin), clampNonNegative(customMax)
		if lo != nil && *left < *lo {
			return false
		}
		if hi != nil && *left > *hi {
			return false
		}
		return true
	}
	return matchesDayBucket(rng, *left)
}

func matchesDayBucket(rng string, days int) bool {
	switch rng {
	case RangeToday:
		return days == 0
	case RangeWeek:
		return days > 0 && days <= 7
	case Range15Days:
		return days > 0 && days <= 15
	case Range30Days:
		return days > 0 && days <= 30
	case Range60Days:
		return days > 0 && days <= 60
	case Range90Days:
		return days > 0 && days <= 90
	default:
		return true
	}
}

// MatchesExecutionRange filters by budget usage percentage.
func MatchesExecutionRange(rng string, usage float64, customMin, customMax *float64) bool {
	switch rng {
	case RangeLow:
		return usage >= 0 && usage < 50
	case RangeMedium:
		return usage >= 50 && usage < 85
	case RangeHigh:
		return usage >= 85 && usage <= 100
	case RangeExceeded:
		return usage > 100
	case RangeCustom:
		if customMin != nil && usage < *customMin {
			return false
		}
		if customMax != nil && usage > *customMax {
			return false
		}
		return true
	default:
		return true
	}
}

func clampNonNegative(v *int) *int {
	if v == nil {
		return nil
	}
	c := max(0, *v)
	return &c
}
