package schedule

import "time"

// FallbackWeekdayHours substitutes fixed default windows when a mentor has
// configured nothing. It is a product policy applied by the caller, never
// inside Generate, so the substitution stays visible and testable.
func FallbackWeekdayHours(windows []AvailabilityWindow) []AvailabilityWindow {
	for _, w := range windows {
		if w.Active {
			return windows
		}
	}

	defaults := make([]AvailabilityWindow, 0, 7)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		defaults = append(defaults, AvailabilityWindow{
			Weekday:     wd,
			StartMinute: 18 * 60,
			EndMinute:   21 * 60,
			Active:      true,
		})
	}
	for _, wd := range []time.Weekday{time.Saturday, time.Sunday} {
		defaults = append(defaults, AvailabilityWindow{
			Weekday:     wd,
			StartMinute: 10 * 60,
			EndMinute:   13 * 60,
			Active:      true,
		})
	}
	return defaults
}
