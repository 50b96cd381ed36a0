package timeline

import "time"

// Level ranks how urgently a project needs attention, 0 (OK) to 4 (urgent).
type Level int

const (
	LevelOK Level = iota
	LevelAlert
	LevelAttention
	LevelCritical
	LevelUrgent
)

// Label returns the dashboard label for the level.
func (l Level) Label() string {
	switch l {
	case LevelUrgent:
		return "Urgente"
	case LevelCritical:
		return "Crítico"
	case LevelAttention:
		return "Atenção"
	case LevelAlert:
		return "Alerta"
	default:
		return "OK"
	}
}

// Color is the palette name clients use to tint the level.
func (l Level) Color() string {
	switch l {
	case LevelUrgent:
		return "red"
	case LevelCritical:
		return "orange"
	case LevelAttention:
		return "amber"
	case LevelAlert:
		return "yellow"
	default:
		return "green"
	}
}

// TimeStatus buckets a project by where today falls relative to its dates.
type TimeStatus string

const (
	StatusNotStarted TimeStatus = "not_started"
	StatusOverdue    TimeStatus = "overdue"
	StatusCritical   TimeStatus = "critical"
	StatusWarning    TimeStatus = "warning"
	StatusNormal     TimeStatus = "normal"
	StatusSafe       TimeStatus = "safe"
)

// facts are the inputs every rule looks at, computed once per project.
type facts struct {
	remaining     *int
	renderingLeft *int
	inRendering   bool
	notStarted    bool
	usage         float64
}

func gather(start, end string, usage float64, today time.Time) facts {
	return facts{
		remaining:     DaysRemaining(end, today),
		renderingLeft: RenderingDaysLeft(end, today),
		inRendering:   IsInRenderingWindow(end, today),
		notStarted:    IsNotStarted(start, today),
		usage:         usage,
	}
}

func (f facts) renderingWithin(days int) bool {
	return f.inRendering && f.renderingLeft != nil && *f.renderingLeft <= days
}

type levelRule struct {
	level Level
	match func(facts) bool
}

// levelRules are evaluated top to bottom and the first match wins. The
// conditions overlap on purpose; order decides.
var levelRules = []levelRule{
	{LevelUrgent, func(f facts) bool { return f.usage > 100 }},
	{LevelUrgent, func(f facts) bool { return inRange(f.remaining, 0, 0) }},
	{LevelUrgent, func(f facts) bool { return f.renderingWithin(7) }},

	{LevelCritical, func(f facts) bool { return inRange(f.remaining, 1, 7) }},
	{LevelCritical, func(f facts) bool { return f.renderingWithin(15) }},
	{LevelCritical, func(f facts) bool { return f.usage > 95 }},

	{LevelAttention, func(f facts) bool { return inRange(f.remaining, 1, 30) }},
	{LevelAttention, func(f facts) bool { return f.renderingWithin(30) }},
	{LevelAttention, func(f facts) bool { return f.usage > 85 }},

	{LevelAlert, func(f facts) bool { return inRange(f.remaining, 1, 60) }},
	{LevelAlert, func(f facts) bool { return f.inRendering }},
	{LevelAlert, func(f facts) bool { return f.usage > 70 }},
}

type statusRule struct {
	status TimeStatus
	match  func(facts) bool
}

var statusRules = []statusRule{
	{StatusNotStarted, func(f facts) bool { return f.notStarted }},
	{StatusOverdue, func(f facts) bool { return f.remaining != nil && *f.remaining < 0 }},
	{StatusCritical, func(f facts) bool { return f.remaining != nil && *f.remaining <= 7 }},
	{StatusWarning, func(f facts) bool { return f.remaining != nil && *f.remaining <= 30 }},
	{StatusNormal, func(f facts) bool { return f.remaining != nil && *f.remaining <= 60 }},
}

func (f facts) level() Level {
	for _, r := range levelRules {
		if r.match(f) {
			return r.level
		}
	}
	return LevelOK
}

func (f facts) timeStatus() TimeStatus {
	for _, r := range statusRules {
		if r.match(f) {
			return r.status
		}
	}
	return StatusSafe
}

// UrgencyLevel combines deadline, rendering window and budget usage into a
// single 0-4 rank.
func UrgencyLevel(end string, usage float64, today time.Time) Level {
	return gather("", end, usage, today).level()
}

// TimeStatusOf classifies the project by its dates only.
func TimeStatusOf(start, end string, today time.Time) TimeStatus {
	return gather(start, end, 0, today).timeStatus()
}

// IsCritical reports a deadline within a week, an urgent rendering window or
// spending above budget.
func IsCritical(end string, usage float64, today time.Time) bool {
	return inRange(DaysRemaining(end, today), 0, 7) ||
		IsRenderingUrgent(end, today) ||
		usage > 100
}

// NeedsUrgentAttention reports a deadline within 30 days or usage above 85%.
func NeedsUrgentAttention(end string, usage float64, today time.Time) bool {
	return inRange(DaysRemaining(end, today), 1, 30) || usage > 85
}
