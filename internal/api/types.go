package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/prepmatch/mentor-booking/internal/booking"
	"github.com/prepmatch/mentor-booking/internal/session"
)

type SlotPayload struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type CreateBookingRequest struct {
	MentorID      string       `json:"mentor_id"`
	CandidateID   string       `json:"candidate_id"`
	TargetProfile string       `json:"target_profile"`
	SlotA         *SlotPayload `json:"slot_a"`
	SlotB         *SlotPayload `json:"slot_b"`
}

type SessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	MentorID        uuid.UUID  `json:"mentor_id"`
	CandidateID     uuid.UUID  `json:"candidate_id"`
	PackageID       uuid.UUID  `json:"package_id"`
	Round           string     `json:"round"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	RescheduleCount int        `json:"reschedule_count"`
	MeetingLink     string     `json:"meeting_link,omitempty"`
}

type PackageResponse struct {
	ID            uuid.UUID `json:"id"`
	CandidateID   uuid.UUID `json:"candidate_id"`
	MentorID      uuid.UUID `json:"mentor_id"`
	TargetProfile string    `json:"target_profile"`
	TotalAmount   string    `json:"total_amount"`
	PlatformFee   string    `json:"platform_fee"`
	MentorPayout  string    `json:"mentor_payout"`
	PaymentStatus string    `json:"payment_status"`
}

type BookingResponse struct {
	Package  PackageResponse   `json:"package"`
	Sessions []SessionResponse `json:"sessions"`
}

type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type AvailabilityWindowPayload struct {
	Weekday     int  `json:"weekday"`
	StartMinute int  `json:"start_minute"`
	EndMinute   int  `json:"end_minute"`
	Active      bool `json:"active"`
}

type SetAvailabilityRequest struct {
	Windows []AvailabilityWindowPayload `json:"windows"`
}

type AddUnavailabilityRequest struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Reason  string    `json:"reason"`
}

type SubmitEvaluationRequest struct {
	Rating       int    `json:"rating"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Verdict      string `json:"verdict"`
}

type EvaluationResponse struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	Rating       int       `json:"rating"`
	Strengths    string    `json:"strengths"`
	Improvements string    `json:"improvements"`
	Verdict      string    `json:"verdict"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSessionResponse(s session.Session) SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		MentorID:        s.MentorID,
		CandidateID:     s.CandidateID,
		PackageID:       s.PackageID,
		Round:           string(s.Round),
		ScheduledAt:     s.ScheduledAt,
		DurationMinutes: s.DurationMinutes,
		Status:          string(s.Status),
		RescheduleCount: s.RescheduleCount,
		MeetingLink:     s.MeetingLink,
	}
}

func toPackageResponse(p booking.Package) PackageResponse {
	return PackageResponse{
		ID:            p.ID,
		CandidateID:   p.CandidateID,
		MentorID:      p.MentorID,
		TargetProfile: p.TargetProfile,
		TotalAmount:   p.TotalAmount.String(),
		PlatformFee:   p.PlatformFee.String(),
		MentorPayout:  p.MentorPayout.String(),
		PaymentStatus: string(p.PaymentStatus),
	}
}

func toEvaluationResponse(e session.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:           e.ID,
		SessionID:    e.SessionID,
		Rating:       e.Rating,
		Strengths:    e.Strengths,
		Improvements: e.Improvements,
		Verdict:      e.Verdict,
		SubmittedAt:  e.SubmittedAt,
	}
}
