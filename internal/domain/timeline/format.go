package timeline

import (
	"fmt"
	"time"
)

// FormatDaysRemaining renders a days-remaining value for display.
func FormatDaysRemaining(days *int) string {
	if days == nil {
		return "-"
	}
	d := *days
	switch {
	case d == 0:
		return "Vence hoje"
	case d == 1:
		return "Vence amanhã"
	case d < 0:
		return fmt.Sprintf("Atrasado %d dia%s", -d, plural(-d))
	default:
		return fmt.Sprintf("%d dia%s restantes", d, plural(d))
	}
}

// FormatRenderingDays renders the days left to render accounts.
func FormatRenderingDays(end string, today time.Time) string {
	left := RenderingDaysLeft(end, today)
	if left == nil {
		return "-"
	}
	if *left == 0 {
		return "Prazo esgotado"
	}
	return fmt.Sprintf("%d dia%s para prestar contas", *left, plural(*left))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
