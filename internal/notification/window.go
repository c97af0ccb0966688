package notification

import (
	"strconv"
	"strings"
)

// Window widths are aligned to the sweep's own 5-minute cadence, so each
// target time fires each category at most once per day.
const windowWidthMinutes = 5

// Window reports which notification windows a given moment falls in for one
// target time.
type Window struct {
	OneHourBefore     bool
	FiveMinutesBefore bool
}

// Match reports whether either window applies.
func (w Window) Match() bool {
	return w.OneHourBefore || w.FiveMinutesBefore
}

// ParseClock parses an "HH:MM" 24-hour wall-clock string into minutes since
// midnight. Malformed or placeholder values report ok=false and are skipped
// by callers, never treated as errors.
func ParseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// EvaluateWindow decides, for a target time-of-day, whether "now" falls in the
// one-hour-before window [target-60, target-55) or the five-minutes-before
// window [target-5, target). Both are 5 minutes wide and mutually exclusive.
// Both arguments are minutes since midnight in the same civil timezone.
//
// Windows that would cross midnight (targets before 01:00) are not wrapped;
// they simply never fire for the portion falling on the previous day.
func EvaluateWindow(nowMinutes, targetMinutes int) Window {
	return Window{
		OneHourBefore:     inWindow(nowMinutes, targetMinutes-60),
		FiveMinutesBefore: inWindow(nowMinutes, targetMinutes-5),
	}
}

func inWindow(nowMinutes, start int) bool {
	return nowMinutes >= start && nowMinutes < start+windowWidthMinutes
}
