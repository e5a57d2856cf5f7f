package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/prepmatch/mentor-booking/internal/pricing"
	"github.com/prepmatch/mentor-booking/internal/schedule"
	"github.com/prepmatch/mentor-booking/internal/session"
)

var (
	ErrMentorNotFound     = errors.New("mentor not found")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrPackageNotFound    = errors.New("package not found")
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrTierNotFound       = errors.New("tier bounds not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetMentorByID(ctx context.Context, id uuid.UUID) (*Mentor, error)
	GetCandidateByID(ctx context.Context, id uuid.UUID) (*Candidate, error)
	GetTierBounds(ctx context.Context, tier pricing.Tier) (pricing.TierBounds, error)

	// Availability inputs to the slot generator
	ListAvailabilityWindows(ctx context.Context, mentorID uuid.UUID) ([]schedule.AvailabilityWindow, error)
	ReplaceAvailabilityWindows(ctx context.Context, mentorID uuid.UUID, windows []schedule.AvailabilityWindow) error
	ListUnavailability(ctx context.Context, mentorID uuid.UUID, endingAfter time.Time) ([]schedule.UnavailabilityInterval, error)
	AddUnavailability(ctx context.Context, interval schedule.UnavailabilityInterval) (*schedule.UnavailabilityInterval, error)

	// Busy sessions for conflict checks: status in {pending, confirmed},
	// ending after the given time
	ListBusySessions(ctx context.Context, mentorID uuid.UUID, endingAfter time.Time) ([]session.Session, error)

	// Booking commit: package plus its sessions in one transaction. The
	// sessions table carries the mentor/interval exclusion constraint; a
	// violation surfaces as ErrSlotNoLongerAvailable.
	CreatePackage(ctx context.Context, pkg *Package, sessions []session.Session) error

	GetSessionByID(ctx context.Context, id uuid.UUID) (*session.Session, error)
	ListSessionsByCandidate(ctx context.Context, candidateID uuid.UUID, limit, offset int) ([]session.Session, error)
	ListSessionsByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int) ([]session.Session, error)

	// Compare-and-swap updates
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to session.Status) (*session.Session, error)
	ConfirmSession(ctx context.Context, id uuid.UUID, meetingLink string) (*session.Session, error)
	RescheduleSession(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*session.Session, error)

	// Lifecycle worker
	FindOverdueConfirmed(ctx context.Context, now time.Time) ([]session.Session, error)
	FindStalePending(ctx context.Context, createdBefore time.Time) ([]session.Session, error)

	GetEvaluationBySession(ctx context.Context, sessionID uuid.UUID) (*session.Evaluation, error)
	InsertEvaluation(ctx context.Context, eval session.Evaluation) (*session.Evaluation, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
