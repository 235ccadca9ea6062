package utils

import (
	"fmt"
)

// FormatMinutes renders a mute duration the way operators read it: whole
// days, then hours, then minutes, mixed where needed.
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}

	days := minutes / (24 * 60)
	hours := minutes % (24 * 60) / 60
	mins := minutes % 60

	switch {
	case days > 0 && hours == 0 && mins == 0:
		return fmt.Sprintf("%dd", days)
	case days > 0 && mins == 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd%dh%dm", days, hours, mins)
	case hours > 0 && mins == 0:
		return fmt.Sprintf("%dh", hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
