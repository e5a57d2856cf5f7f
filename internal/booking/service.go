package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prepmatch/mentor-booking/internal/config"
	"github.com/prepmatch/mentor-booking/internal/pricing"
	redisclient "github.com/prepmatch/mentor-booking/internal/redis"
	"github.com/prepmatch/mentor-booking/internal/schedule"
	"github.com/prepmatch/mentor-booking/internal/session"
)

const (
	EventPackageBooked      = "PACKAGE_BOOKED"
	EventSessionAccepted    = "SESSION_ACCEPTED"
	EventSessionRescheduled = "SESSION_RESCHEDULED"
	EventSessionCompleted   = "SESSION_COMPLETED"
	EventSessionCancelled   = "SESSION_CANCELLED"
)

var (
	ErrMentorBusy              = errors.New("mentor calendar is being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid session status transition")
	ErrSessionNotScheduled     = errors.New("session has no scheduled time")
	ErrEvaluationExists        = errors.New("session already has an evaluation")
	ErrSessionNotFinished      = errors.New("session has not finished yet")
)

// SlotView selects the look-ahead horizon for slot generation.
type SlotView string

const (
	ViewCandidate SlotView = "candidate"
	ViewMentor    SlotView = "mentor"
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

// MentorSlots computes the bookable days for a mentor. Pure generation over
// freshly read rows; the fallback default-hours policy applies only when
// enabled and the mentor has configured nothing.
func (s *Service) MentorSlots(ctx context.Context, mentorID uuid.UUID, view SlotView, now time.Time) ([]schedule.DaySlots, error) {
	if _, err := s.repo.GetMentorByID(ctx, mentorID); err != nil {
		return nil, err
	}

	windows, err := s.repo.ListAvailabilityWindows(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("load availability windows: %w", err)
	}
	if s.cfg.FallbackHours {
		windows = schedule.FallbackWeekdayHours(windows)
	}

	exceptions, err := s.repo.ListUnavailability(ctx, mentorID, now)
	if err != nil {
		return nil, fmt.Errorf("load unavailability: %w", err)
	}

	busySessions, err := s.repo.ListBusySessions(ctx, mentorID, now)
	if err != nil {
		return nil, fmt.Errorf("load busy sessions: %w", err)
	}

	in := schedule.GenerateInput{
		Windows:     windows,
		Exceptions:  exceptions,
		Busy:        busyIntervals(busySessions),
		Now:         now,
		SlotMinutes: s.cfg.SlotMinutes,
		HorizonDays: schedule.CandidateHorizonDays,
	}
	if view == ViewMentor {
		in.HorizonDays = schedule.MentorHorizonDays
		in.MaxDaysWithSlots = schedule.CandidateHorizonDays
	}

	return schedule.Generate(in), nil
}

type BookingRequest struct {
	MentorID      uuid.UUID
	CandidateID   uuid.UUID
	TargetProfile string
	SlotA         *schedule.Slot
	SlotB         *schedule.Slot
}

type BookingResult struct {
	Package  *Package
	Sessions []session.Session
}

// BookPackage validates the candidate's two-slot selection and commits one
// package with three pending sessions. The mentor lock serializes
// concurrent bookings so the re-check inside the critical section sees
// fresh rows; the store's exclusion constraint stays the final safety
// mechanism, and a losing racer fails with ErrSlotNoLongerAvailable.
func (s *Service) BookPackage(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	mentor, err := s.repo.GetMentorByID(ctx, req.MentorID)
	if err != nil {
		return nil, err
	}
	candidate, err := s.repo.GetCandidateByID(ctx, req.CandidateID)
	if err != nil {
		return nil, err
	}

	bounds, err := s.repo.GetTierBounds(ctx, mentor.Tier)
	if err != nil {
		return nil, fmt.Errorf("load tier bounds: %w", err)
	}
	if err := pricing.ValidateRate(bounds, mentor.SessionRate); err != nil {
		return nil, err
	}

	var result *BookingResult

	err = s.locker.WithMentorLock(ctx, mentor.ID, func(lockCtx context.Context) error {
		// Slots were computed before the lock; re-check against rows read
		// inside the critical section.
		now := time.Now()
		busySessions, err := s.repo.ListBusySessions(lockCtx, mentor.ID, now)
		if err != nil {
			return fmt.Errorf("re-read busy sessions: %w", err)
		}
		if err := ValidateSelection(req.SlotA, req.SlotB, busyIntervals(busySessions), now); err != nil {
			return err
		}

		quote := pricing.PackageQuote(mentor.SessionRate)

		pkg := &Package{
			ID:            uuid.New(),
			CandidateID:   candidate.ID,
			MentorID:      mentor.ID,
			TargetProfile: req.TargetProfile,
			TotalAmount:   quote.TotalAmount,
			PlatformFee:   quote.PlatformFee,
			MentorPayout:  quote.MentorPayout,
			PaymentStatus: PaymentPending,
		}

		sessions := buildPackageSessions(pkg, req.SlotA, req.SlotB, s.cfg.SessionMinutes)

		if err := s.repo.CreatePackage(lockCtx, pkg, sessions); err != nil {
			return fmt.Errorf("create package: %w", err)
		}

		result = &BookingResult{Package: pkg, Sessions: sessions}

		s.logEvent(lockCtx, EventLog{
			EventType: EventPackageBooked,
			PackageID: &pkg.ID,
		}, map[string]any{
			"mentor_id":    mentor.ID.String(),
			"candidate_id": candidate.ID.String(),
			"total_amount": quote.TotalAmount.String(),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrMentorBusy
		}
		return nil, err
	}

	s.log.Info("package booked",
		zap.String("package_id", result.Package.ID.String()),
		zap.String("mentor_id", mentor.ID.String()),
		zap.String("candidate_id", candidate.ID.String()),
	)

	return result, nil
}

// buildPackageSessions lays the three rounds out over the selected slots.
// The HR round is created without a time; the mentor places it after the
// technical rounds.
func buildPackageSessions(pkg *Package, slotA, slotB *schedule.Slot, durationMinutes int) []session.Session {
	if durationMinutes <= 0 {
		durationMinutes = session.DefaultDurationMinutes
	}

	startA := slotA.StartAt
	startB := slotB.StartAt

	base := session.Session{
		MentorID:        pkg.MentorID,
		CandidateID:     pkg.CandidateID,
		PackageID:       pkg.ID,
		DurationMinutes: durationMinutes,
		Status:          session.StatusPending,
	}

	roundOne := base
	roundOne.ID = uuid.New()
	roundOne.Round = session.RoundOne
	roundOne.ScheduledAt = &startA

	roundTwo := base
	roundTwo.ID = uuid.New()
	roundTwo.Round = session.RoundTwo
	roundTwo.ScheduledAt = &startB

	hrRound := base
	hrRound.ID = uuid.New()
	hrRound.Round = session.RoundHR

	return []session.Session{roundOne, roundTwo, hrRound}
}

// AcceptSession moves a pending session to confirmed and mints its meeting
// link. The link exists from confirmation on; the join window only controls
// when the client surfaces it.
func (s *Service) AcceptSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	sess, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.Status != session.StatusPending {
		return nil, ErrInvalidStatusTransition
	}
	if sess.ScheduledAt == nil {
		return nil, ErrSessionNotScheduled
	}

	updated, err := s.repo.ConfirmSession(ctx, sess.ID, newMeetingLink())
	if err != nil {
		return nil, fmt.Errorf("accept session: %w", err)
	}

	s.logEvent(ctx, EventLog{EventType: EventSessionAccepted, SessionID: &updated.ID}, map[string]any{
		"meeting_link": updated.MeetingLink,
	})

	return updated, nil
}

func newMeetingLink() string {
	return fmt.Sprintf("https://meet.prepmatch.io/%s", uuid.NewString())
}

// RescheduleSession moves a pending or confirmed session to a new time,
// incrementing the reschedule count. The new interval is conflict-checked
// under the mentor lock against every other busy session.
func (s *Service) RescheduleSession(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*session.Session, error) {
	sess, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.Status != session.StatusPending && sess.Status != session.StatusConfirmed {
		return nil, ErrInvalidStatusTransition
	}

	var updated *session.Session

	err = s.locker.WithMentorLock(ctx, sess.MentorID, func(lockCtx context.Context) error {
		busySessions, err := s.repo.ListBusySessions(lockCtx, sess.MentorID, time.Now())
		if err != nil {
			return fmt.Errorf("re-read busy sessions: %w", err)
		}

		newEnd := scheduledAt.Add(sess.Duration())
		for _, b := range busyIntervals(busySessions) {
			if b.SessionID == sess.ID {
				continue
			}
			if schedule.Overlaps(scheduledAt, newEnd, b.StartAt, b.EndAt) {
				return ErrSlotNoLongerAvailable
			}
		}

		updated, err = s.repo.RescheduleSession(lockCtx, sess.ID, scheduledAt)
		if err != nil {
			return fmt.Errorf("reschedule session: %w", err)
		}

		s.logEvent(lockCtx, EventLog{EventType: EventSessionRescheduled, SessionID: &updated.ID}, map[string]any{
			"scheduled_at":     scheduledAt,
			"reschedule_count": updated.RescheduleCount,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrMentorBusy
		}
		return nil, err
	}

	return updated, nil
}

// SessionState recomputes the presented lifecycle state for one session at
// the given time. Never cached; callers poll.
func (s *Service) SessionState(ctx context.Context, id uuid.UUID, viewer session.Viewer, now time.Time) (*session.ViewState, error) {
	sess, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	eval, err := s.repo.GetEvaluationBySession(ctx, sess.ID)
	if err != nil && !errors.Is(err, ErrEvaluationNotFound) {
		return nil, fmt.Errorf("load evaluation: %w", err)
	}

	state := session.ComputeState(*sess, eval, now, viewer)
	return &state, nil
}

// SubmitEvaluation attaches the mentor's feedback to a finished session. A
// confirmed session past its end is completed on the spot; an unfinished
// one is rejected.
func (s *Service) SubmitEvaluation(ctx context.Context, sessionID uuid.UUID, eval session.Evaluation) (*session.Evaluation, error) {
	sess, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetEvaluationBySession(ctx, sessionID); err == nil && existing != nil {
		return nil, ErrEvaluationExists
	} else if err != nil && !errors.Is(err, ErrEvaluationNotFound) {
		return nil, fmt.Errorf("check existing evaluation: %w", err)
	}

	now := time.Now()
	switch sess.Status {
	case session.StatusCompleted:
		// ready for feedback
	case session.StatusConfirmed:
		end := sess.EndAt()
		if end == nil || now.Before(*end) {
			return nil, ErrSessionNotFinished
		}
		if _, err := s.repo.UpdateSessionStatus(ctx, sess.ID, session.StatusConfirmed, session.StatusCompleted); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("complete session: %w", err)
		}
		s.logEvent(ctx, EventLog{EventType: EventSessionCompleted, SessionID: &sess.ID}, map[string]any{
			"reason": "evaluation_submitted",
		})
	default:
		return nil, ErrSessionNotFinished
	}

	eval.ID = uuid.New()
	eval.SessionID = sessionID
	eval.SubmittedAt = now

	return s.repo.InsertEvaluation(ctx, eval)
}

// EvaluationForSession returns the feedback for a session, applying the
// stale-read guard: inconsistent evaluations read as absent.
func (s *Service) EvaluationForSession(ctx context.Context, sessionID uuid.UUID, now time.Time) (*session.Evaluation, error) {
	sess, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	eval, err := s.repo.GetEvaluationBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := session.ComputeState(*sess, eval, now, session.ViewerCandidate)
	if state.Phase != session.PhaseFeedbackReady {
		return nil, ErrEvaluationNotFound
	}

	return eval, nil
}

// SetAvailability replaces a mentor's recurring weekly windows. Malformed
// windows are rejected here, at write time; generation never sees them.
func (s *Service) SetAvailability(ctx context.Context, mentorID uuid.UUID, windows []schedule.AvailabilityWindow) error {
	if _, err := s.repo.GetMentorByID(ctx, mentorID); err != nil {
		return err
	}

	for i := range windows {
		if err := windows[i].Validate(); err != nil {
			return err
		}
		windows[i].MentorID = mentorID
		if windows[i].ID == uuid.Nil {
			windows[i].ID = uuid.New()
		}
	}

	return s.repo.ReplaceAvailabilityWindows(ctx, mentorID, windows)
}

// AddUnavailability records an absolute-time exception for a mentor.
func (s *Service) AddUnavailability(ctx context.Context, mentorID uuid.UUID, startAt, endAt time.Time, reason string) (*schedule.UnavailabilityInterval, error) {
	if _, err := s.repo.GetMentorByID(ctx, mentorID); err != nil {
		return nil, err
	}

	interval := schedule.UnavailabilityInterval{
		ID:       uuid.New(),
		MentorID: mentorID,
		StartAt:  startAt,
		EndAt:    endAt,
		Reason:   reason,
	}
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	return s.repo.AddUnavailability(ctx, interval)
}

// GetSession retrieves a single session row.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	return s.repo.GetSessionByID(ctx, id)
}

// ListSessionsByCandidate retrieves sessions for a candidate.
func (s *Service) ListSessionsByCandidate(ctx context.Context, candidateID uuid.UUID, limit, offset int) ([]session.Session, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListSessionsByCandidate(ctx, candidateID, limit, offset)
}

// ListSessionsByMentor retrieves sessions for a mentor.
func (s *Service) ListSessionsByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int) ([]session.Session, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListSessionsByMentor(ctx, mentorID, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// CompleteOverdueSessions flips confirmed sessions past their end to
// completed. Called periodically by the lifecycle worker.
func (s *Service) CompleteOverdueSessions(ctx context.Context) error {
	now := time.Now()
	overdue, err := s.repo.FindOverdueConfirmed(ctx, now)
	if err != nil {
		return fmt.Errorf("find overdue confirmed sessions: %w", err)
	}

	for _, sess := range overdue {
		_, err := s.repo.UpdateSessionStatus(ctx, sess.ID, session.StatusConfirmed, session.StatusCompleted)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.log.Error("failed to complete session", zap.String("session_id", sess.ID.String()), zap.Error(err))
			continue
		}
		s.logEvent(ctx, EventLog{EventType: EventSessionCompleted, SessionID: &sess.ID}, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// CancelStalePending cancels pending sessions the mentor never accepted
// within the accept TTL.
func (s *Service) CancelStalePending(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.AcceptTTL)
	stale, err := s.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pending sessions: %w", err)
	}

	for _, sess := range stale {
		_, err := s.repo.UpdateSessionStatus(ctx, sess.ID, session.StatusPending, session.StatusCancelled)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.log.Error("failed to cancel stale session", zap.String("session_id", sess.ID.String()), zap.Error(err))
			continue
		}
		s.logEvent(ctx, EventLog{EventType: EventSessionCancelled, SessionID: &sess.ID}, map[string]any{
			"reason": "accept_ttl",
		})
	}

	return nil
}

func (s *Service) logEvent(ctx context.Context, ev EventLog, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("failed to marshal event payload", zap.String("event_type", ev.EventType), zap.Error(err))
		data = nil
	}

	ev.Payload = data
	ev.CreatedAt = time.Now()

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error("failed to insert event log", zap.String("event_type", ev.EventType), zap.Error(err))
	}
}
