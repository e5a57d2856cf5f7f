package booking

import (
	"errors"
	"time"

	"github.com/prepmatch/mentor-booking/internal/schedule"
	"github.com/prepmatch/mentor-booking/internal/session"
)

var (
	ErrMissingSlot           = errors.New("two slots must be selected")
	ErrDuplicateSlot         = errors.New("the two selected slots must differ")
	ErrOverlappingSlots      = errors.New("the two selected slots overlap")
	ErrSlotNoLongerAvailable = errors.New("selected slot is no longer available")
)

// ValidateSelection enforces the selection invariants before a booking is
// committed: both slots present, distinct in time, not overlapping each
// other, not already over, and free of overlap with the mentor's persisted
// pending/confirmed sessions. Slots are computed ahead of the write, so the
// caller re-runs this with freshly read busy intervals inside the booking
// critical section; the store constraint remains the final arbiter.
func ValidateSelection(slotA, slotB *schedule.Slot, busy []schedule.BusyInterval, now time.Time) error {
	if slotA == nil || slotB == nil {
		return ErrMissingSlot
	}

	if slotA.StartAt.Equal(slotB.StartAt) && slotA.EndAt.Equal(slotB.EndAt) {
		return ErrDuplicateSlot
	}

	// Overlapping windows can legitimately produce two distinct slots that
	// intersect; a selection like that would double-book the mentor in a
	// single request, so it is rejected here rather than left to the store.
	if schedule.Overlaps(slotA.StartAt, slotA.EndAt, slotB.StartAt, slotB.EndAt) {
		return ErrOverlappingSlots
	}

	for _, s := range []*schedule.Slot{slotA, slotB} {
		// Same predicate the generator uses to stop offering a slot.
		if !s.EndAt.After(now) {
			return ErrSlotNoLongerAvailable
		}
		for _, b := range busy {
			if schedule.Overlaps(s.StartAt, s.EndAt, b.StartAt, b.EndAt) {
				return ErrSlotNoLongerAvailable
			}
		}
	}

	return nil
}

// busyIntervals projects persisted sessions onto their occupied intervals,
// dropping rows that do not block the calendar.
func busyIntervals(sessions []session.Session) []schedule.BusyInterval {
	var busy []schedule.BusyInterval
	for _, s := range sessions {
		if !s.Occupies() {
			continue
		}
		busy = append(busy, schedule.BusyInterval{
			SessionID: s.ID,
			StartAt:   *s.ScheduledAt,
			EndAt:     *s.EndAt(),
		})
	}
	return busy
}
