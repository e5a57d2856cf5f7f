package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWindow   = errors.New("availability window start must be before end")
	ErrInvalidInterval = errors.New("unavailability interval start must be before end")
)

// AvailabilityWindow is a recurring weekly block during which a mentor is
// bookable. Start and end are minutes from local midnight.
type AvailabilityWindow struct {
	ID          uuid.UUID
	MentorID    uuid.UUID
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate rejects malformed windows at write time. Generation never sees
// an invalid window.
func (w AvailabilityWindow) Validate() error {
	if w.StartMinute < 0 || w.EndMinute > 24*60 || w.StartMinute >= w.EndMinute {
		return ErrInvalidWindow
	}
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return ErrInvalidWindow
	}
	return nil
}

// UnavailabilityInterval is an absolute-time exception that overrides
// recurring availability. Only future-ending intervals matter to generation.
type UnavailabilityInterval struct {
	ID       uuid.UUID
	MentorID uuid.UUID
	StartAt  time.Time
	EndAt    time.Time
	Reason   string
}

func (u UnavailabilityInterval) Validate() error {
	if !u.StartAt.Before(u.EndAt) {
		return ErrInvalidInterval
	}
	return nil
}

// BusyInterval is the occupied span of an already-booked session,
// [StartAt, StartAt+Duration).
type BusyInterval struct {
	SessionID uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
}

// Slot is a derived bookable interval. Never persisted; built fresh on
// every query.
type Slot struct {
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	DateKey   string    `json:"date_key"`
	TimeLabel string    `json:"time_label"`
}

// DaySlots groups the slots of one calendar day.
type DaySlots struct {
	Date    time.Time `json:"date"`
	DateKey string    `json:"date_key"`
	Weekday string    `json:"weekday"`
	Slots   []Slot    `json:"slots"`
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}
