package schedule

import (
	"sort"
	"time"
)

const (
	// DefaultSlotMinutes is the length of a bookable slot offered to
	// candidates.
	DefaultSlotMinutes = 60

	// CandidateHorizonDays is how far ahead a candidate can book.
	CandidateHorizonDays = 14

	// MentorHorizonDays is the wider look-ahead used on the mentor side,
	// capped to the first CandidateHorizonDays days that yield any slot.
	MentorHorizonDays = 30
)

// GenerateInput carries everything the generator needs. All stored rows and
// the current time are passed in explicitly so the function stays pure.
type GenerateInput struct {
	Windows    []AvailabilityWindow
	Exceptions []UnavailabilityInterval
	Busy       []BusyInterval

	Now      time.Time
	Location *time.Location

	HorizonDays      int
	SlotMinutes      int
	MaxDaysWithSlots int // 0 means uncapped
}

// Generate turns recurring weekly windows, absolute-time exceptions and
// already-booked sessions into an ordered list of bookable days. Days start
// at tomorrow and run through Now+HorizonDays. Output is deterministic for
// identical inputs: days are walked in calendar order and windows are sorted
// by start minute before slots are cut.
func Generate(in GenerateInput) []DaySlots {
	loc := in.Location
	if loc == nil {
		loc = in.Now.Location()
	}
	slotMinutes := in.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	horizon := in.HorizonDays
	if horizon <= 0 {
		horizon = CandidateHorizonDays
	}

	byWeekday := windowsByWeekday(in.Windows)
	slotLen := time.Duration(slotMinutes) * time.Minute

	var days []DaySlots
	today := dateOnly(in.Now.In(loc))

	for offset := 1; offset <= horizon; offset++ {
		day := today.AddDate(0, 0, offset)

		windows := byWeekday[day.Weekday()]
		if len(windows) == 0 {
			continue
		}

		var slots []Slot
		seen := map[int64]struct{}{}

		for _, w := range windows {
			start := day.Add(time.Duration(w.StartMinute) * time.Minute)
			end := day.Add(time.Duration(w.EndMinute) * time.Minute)

			for cur := start; !cur.Add(slotLen).After(end); cur = cur.Add(slotLen) {
				slotEnd := cur.Add(slotLen)

				if !slotEnd.After(in.Now) {
					continue
				}
				if overlapsException(cur, slotEnd, in.Exceptions) {
					continue
				}
				if overlapsBusy(cur, slotEnd, in.Busy) {
					continue
				}
				if _, dup := seen[cur.Unix()]; dup {
					continue
				}
				seen[cur.Unix()] = struct{}{}

				slots = append(slots, Slot{
					StartAt:   cur,
					EndAt:     slotEnd,
					DateKey:   day.Format("2006-01-02"),
					TimeLabel: formatTimeLabel(cur, slotEnd),
				})
			}
		}

		if len(slots) == 0 {
			continue
		}

		sort.Slice(slots, func(i, j int) bool {
			return slots[i].StartAt.Before(slots[j].StartAt)
		})

		days = append(days, DaySlots{
			Date:    day,
			DateKey: day.Format("2006-01-02"),
			Weekday: day.Weekday().String(),
			Slots:   slots,
		})

		if in.MaxDaysWithSlots > 0 && len(days) >= in.MaxDaysWithSlots {
			break
		}
	}

	return days
}

func windowsByWeekday(windows []AvailabilityWindow) map[time.Weekday][]AvailabilityWindow {
	out := make(map[time.Weekday][]AvailabilityWindow, 7)
	for _, w := range windows {
		if !w.Active {
			continue
		}
		out[w.Weekday] = append(out[w.Weekday], w)
	}
	for wd := range out {
		ws := out[wd]
		sort.Slice(ws, func(i, j int) bool {
			if ws[i].StartMinute == ws[j].StartMinute {
				return ws[i].EndMinute < ws[j].EndMinute
			}
			return ws[i].StartMinute < ws[j].StartMinute
		})
		out[wd] = ws
	}
	return out
}

func overlapsException(start, end time.Time, exceptions []UnavailabilityInterval) bool {
	for _, ex := range exceptions {
		if Overlaps(start, end, ex.StartAt, ex.EndAt) {
			return true
		}
	}
	return false
}

func overlapsBusy(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.StartAt, b.EndAt) {
			return true
		}
	}
	return false
}

func formatTimeLabel(start, end time.Time) string {
	return start.Format("3:04 PM") + " - " + end.Format("3:04 PM")
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
