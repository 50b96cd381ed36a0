package timeline

import "time"

// Profile holds every date-derived fact shown for a project. It is computed
// on demand and never stored.
type Profile struct {
	DaysRemaining        *int       `json:"daysRemaining"`
	DaysSinceEnd         int        `json:"daysSinceEnd"`
	RenderingDaysLeft    *int       `json:"renderingDaysLeft"`
	InRenderingWindow    bool       `json:"inRenderingWindow"`
	OverdueForAccounts   bool       `json:"overdueForAccounts"`
	InExecution          bool       `json:"inExecution"`
	NotStarted           bool       `json:"notStarted"`
	RenderingUrgent      bool       `json:"renderingUrgent"`
	Critical             bool       `json:"critical"`
	NeedsUrgentAttention bool       `json:"needsUrgentAttention"`
	UrgencyLevel         Level      `json:"urgencyLevel"`
	UrgencyLabel         string     `json:"urgencyLabel"`
	UrgencyColor         string     `json:"urgencyColor"`
	TimeStatus           TimeStatus `json:"timeStatus"`
}

// Classify derives the full profile for a project's start and end dates and
// its budget usage percentage. today should come from Today.
func Classify(start, end string, usage float64, today time.Time) Profile {
	f := gather(start, end, usage, today)
	level := f.level()

	return Profile{
		DaysRemaining:        f.remaining,
		DaysSinceEnd:         DaysSinceEnd(end, today),
		RenderingDaysLeft:    f.renderingLeft,
		InRenderingWindow:    f.inRendering,
		OverdueForAccounts:   IsOverdueForAccounts(end, today),
		InExecution:          IsInExecution(start, end, today),
		NotStarted:           f.notStarted,
		RenderingUrgent:      IsRenderingUrgent(end, today),
		Critical:             IsCritical(end, usage, today),
		NeedsUrgentAttention: NeedsUrgentAttention(end, usage, today),
		UrgencyLevel:         level,
		UrgencyLabel:         level.Label(),
		UrgencyColor:         level.Color(),
		TimeStatus:           f.timeStatus(),
	}
}
