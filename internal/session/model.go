package session

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

type Round string

const (
	RoundOne Round = "round_1"
	RoundTwo Round = "round_2"
	RoundHR  Round = "hr_round"
)

// DefaultDurationMinutes is the occupied length of a session when the row
// carries none.
const DefaultDurationMinutes = 45

// Session is one mock-interview meeting between a mentor and a candidate.
// It occupies the half-open interval [ScheduledAt, ScheduledAt+Duration).
// ScheduledAt is nil for an HR round that has not been placed yet.
type Session struct {
	ID              uuid.UUID
	MentorID        uuid.UUID
	CandidateID     uuid.UUID
	PackageID       uuid.UUID
	Round           Round
	ScheduledAt     *time.Time
	DurationMinutes int
	Status          Status
	RescheduleCount int
	MeetingLink     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Duration returns the occupied length, defaulting when unset.
func (s Session) Duration() time.Duration {
	mins := s.DurationMinutes
	if mins <= 0 {
		mins = DefaultDurationMinutes
	}
	return time.Duration(mins) * time.Minute
}

// EndAt returns the exclusive end of the occupied interval, or nil when the
// session is unscheduled.
func (s Session) EndAt() *time.Time {
	if s.ScheduledAt == nil {
		return nil
	}
	end := s.ScheduledAt.Add(s.Duration())
	return &end
}

// Occupies reports whether the session blocks the mentor's calendar.
func (s Session) Occupies() bool {
	return s.ScheduledAt != nil && (s.Status == StatusPending || s.Status == StatusConfirmed)
}

// Evaluation is the mentor's written feedback for a finished session.
type Evaluation struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	Rating       int
	Strengths    string
	Improvements string
	Verdict      string
	SubmittedAt  time.Time
}
