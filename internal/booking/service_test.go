package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prepmatch/mentor-booking/internal/config"
	"github.com/prepmatch/mentor-booking/internal/pricing"
	redisclient "github.com/prepmatch/mentor-booking/internal/redis"
	"github.com/prepmatch/mentor-booking/internal/schedule"
	"github.com/prepmatch/mentor-booking/internal/session"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	mentors    map[uuid.UUID]*Mentor
	candidates map[uuid.UUID]*Candidate
	tiers      map[pricing.Tier]pricing.TierBounds
	windows    []schedule.AvailabilityWindow
	exceptions []schedule.UnavailabilityInterval
	sessions   map[uuid.UUID]*session.Session
	packages   map[uuid.UUID]*Package
	evals      map[uuid.UUID]*session.Evaluation // keyed by session ID
	events     []EventLog

	createPackageErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		mentors:    map[uuid.UUID]*Mentor{},
		candidates: map[uuid.UUID]*Candidate{},
		tiers:      map[pricing.Tier]pricing.TierBounds{},
		sessions:   map[uuid.UUID]*session.Session{},
		packages:   map[uuid.UUID]*Package{},
		evals:      map[uuid.UUID]*session.Evaluation{},
	}
}

func (f *fakeRepo) GetMentorByID(_ context.Context, id uuid.UUID) (*Mentor, error) {
	if m, ok := f.mentors[id]; ok {
		return m, nil
	}
	return nil, ErrMentorNotFound
}

func (f *fakeRepo) GetCandidateByID(_ context.Context, id uuid.UUID) (*Candidate, error) {
	if c, ok := f.candidates[id]; ok {
		return c, nil
	}
	return nil, ErrCandidateNotFound
}

func (f *fakeRepo) GetTierBounds(_ context.Context, tier pricing.Tier) (pricing.TierBounds, error) {
	if b, ok := f.tiers[tier]; ok {
		return b, nil
	}
	return pricing.TierBounds{}, ErrTierNotFound
}

func (f *fakeRepo) ListAvailabilityWindows(_ context.Context, mentorID uuid.UUID) ([]schedule.AvailabilityWindow, error) {
	var out []schedule.AvailabilityWindow
	for _, w := range f.windows {
		if w.MentorID == mentorID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceAvailabilityWindows(_ context.Context, mentorID uuid.UUID, windows []schedule.AvailabilityWindow) error {
	var kept []schedule.AvailabilityWindow
	for _, w := range f.windows {
		if w.MentorID != mentorID {
			kept = append(kept, w)
		}
	}
	f.windows = append(kept, windows...)
	return nil
}

func (f *fakeRepo) ListUnavailability(_ context.Context, mentorID uuid.UUID, endingAfter time.Time) ([]schedule.UnavailabilityInterval, error) {
	var out []schedule.UnavailabilityInterval
	for _, u := range f.exceptions {
		if u.MentorID == mentorID && u.EndAt.After(endingAfter) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddUnavailability(_ context.Context, interval schedule.UnavailabilityInterval) (*schedule.UnavailabilityInterval, error) {
	f.exceptions = append(f.exceptions, interval)
	return &interval, nil
}

func (f *fakeRepo) ListBusySessions(_ context.Context, mentorID uuid.UUID, endingAfter time.Time) ([]session.Session, error) {
	var out []session.Session
	for _, s := range f.sessions {
		if s.MentorID != mentorID || !s.Occupies() {
			continue
		}
		if end := s.EndAt(); end != nil && end.After(endingAfter) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreatePackage(_ context.Context, pkg *Package, sessions []session.Session) error {
	if f.createPackageErr != nil {
		return f.createPackageErr
	}
	f.packages[pkg.ID] = pkg
	for i := range sessions {
		s := sessions[i]
		f.sessions[s.ID] = &s
	}
	return nil
}

func (f *fakeRepo) GetSessionByID(_ context.Context, id uuid.UUID) (*session.Session, error) {
	if s, ok := f.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, ErrSessionNotFound
}

func (f *fakeRepo) ListSessionsByCandidate(_ context.Context, candidateID uuid.UUID, _, _ int) ([]session.Session, error) {
	var out []session.Session
	for _, s := range f.sessions {
		if s.CandidateID == candidateID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListSessionsByMentor(_ context.Context, mentorID uuid.UUID, _, _ int) ([]session.Session, error) {
	var out []session.Session
	for _, s := range f.sessions {
		if s.MentorID == mentorID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateSessionStatus(_ context.Context, id uuid.UUID, from, to session.Status) (*session.Session, error) {
	s, ok := f.sessions[id]
	if !ok || s.Status != from {
		return nil, ErrSessionNotFound
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) ConfirmSession(_ context.Context, id uuid.UUID, meetingLink string) (*session.Session, error) {
	s, ok := f.sessions[id]
	if !ok || s.Status != session.StatusPending {
		return nil, ErrSessionNotFound
	}
	s.Status = session.StatusConfirmed
	s.MeetingLink = meetingLink
	s.UpdatedAt = time.Now()
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) RescheduleSession(_ context.Context, id uuid.UUID, scheduledAt time.Time) (*session.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.ScheduledAt = &scheduledAt
	s.RescheduleCount++
	s.UpdatedAt = time.Now()
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) FindOverdueConfirmed(_ context.Context, now time.Time) ([]session.Session, error) {
	var out []session.Session
	for _, s := range f.sessions {
		if end := s.EndAt(); s.Status == session.StatusConfirmed && end != nil && end.Before(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindStalePending(_ context.Context, createdBefore time.Time) ([]session.Session, error) {
	var out []session.Session
	for _, s := range f.sessions {
		if s.Status == session.StatusPending && s.ScheduledAt != nil && s.UpdatedAt.Before(createdBefore) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetEvaluationBySession(_ context.Context, sessionID uuid.UUID) (*session.Evaluation, error) {
	if e, ok := f.evals[sessionID]; ok {
		return e, nil
	}
	return nil, ErrEvaluationNotFound
}

func (f *fakeRepo) InsertEvaluation(_ context.Context, eval session.Evaluation) (*session.Evaluation, error) {
	if _, ok := f.evals[eval.SessionID]; ok {
		return nil, ErrEvaluationExists
	}
	f.evals[eval.SessionID] = &eval
	return &eval, nil
}

func (f *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	f.events = append(f.events, ev)
	return nil
}

// passLocker runs the critical section inline.
type passLocker struct{}

func (passLocker) WithMentorLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// heldLocker simulates a contended mentor lock.
type heldLocker struct{}

func (heldLocker) WithMentorLock(context.Context, uuid.UUID, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func testConfig() config.Config {
	return config.Config{
		AcceptTTL:      24 * time.Hour,
		SlotMinutes:    60,
		SessionMinutes: 45,
	}
}

func newTestService(repo *fakeRepo, locker redisclient.Locker) *Service {
	return NewService(repo, locker, testConfig(), zap.NewNop())
}

func seedMarketplace(repo *fakeRepo) (mentorID, candidateID uuid.UUID) {
	mentorID = uuid.New()
	candidateID = uuid.New()

	repo.mentors[mentorID] = &Mentor{
		ID:          mentorID,
		Name:        "Asha Rao",
		Email:       "asha@example.com",
		Tier:        pricing.TierSilver,
		SessionRate: decimal.NewFromInt(1000),
	}
	repo.candidates[candidateID] = &Candidate{
		ID:    candidateID,
		Name:  "Dev Kumar",
		Email: "dev@example.com",
	}
	repo.tiers[pricing.TierSilver] = pricing.TierBounds{
		Tier:    pricing.TierSilver,
		MinRate: decimal.NewFromInt(500),
		MaxRate: decimal.NewFromInt(1500),
	}
	return mentorID, candidateID
}

func bookingReq(mentorID, candidateID uuid.UUID) BookingRequest {
	return BookingRequest{
		MentorID:      mentorID,
		CandidateID:   candidateID,
		TargetProfile: "Backend SDE-2",
		SlotA:         slotAt(time.Now().Add(48 * time.Hour).Truncate(time.Hour)),
		SlotB:         slotAt(time.Now().Add(72 * time.Hour).Truncate(time.Hour)),
	}
}

func TestBookPackage_CreatesThreePendingSessions(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	result, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Sessions) != pricing.SessionsPerPackage {
		t.Fatalf("expected %d sessions, got %d", pricing.SessionsPerPackage, len(result.Sessions))
	}

	rounds := map[session.Round]session.Session{}
	for _, s := range result.Sessions {
		if s.Status != session.StatusPending {
			t.Fatalf("session %s created with status %s", s.Round, s.Status)
		}
		rounds[s.Round] = s
	}

	if rounds[session.RoundOne].ScheduledAt == nil || rounds[session.RoundTwo].ScheduledAt == nil {
		t.Fatalf("technical rounds must carry the selected slot times")
	}
	if rounds[session.RoundHR].ScheduledAt != nil {
		t.Fatalf("HR round must be created unscheduled")
	}

	pkg := result.Package
	if !pkg.TotalAmount.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("expected total 6000, got %s", pkg.TotalAmount)
	}
	if !pkg.PlatformFee.Equal(pkg.MentorPayout) {
		t.Fatalf("fee %s must equal payout %s", pkg.PlatformFee, pkg.MentorPayout)
	}
	if pkg.PaymentStatus != PaymentPending {
		t.Fatalf("expected pending payment, got %s", pkg.PaymentStatus)
	}

	if len(repo.events) != 1 || repo.events[0].EventType != EventPackageBooked {
		t.Fatalf("expected one PACKAGE_BOOKED event, got %+v", repo.events)
	}
}

func TestBookPackage_DuplicateSlotRejected(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	req := bookingReq(mentorID, candidateID)
	req.SlotB = req.SlotA

	if _, err := svc.BookPackage(context.Background(), req); !errors.Is(err, ErrDuplicateSlot) {
		t.Fatalf("expected ErrDuplicateSlot, got %v", err)
	}
	if len(repo.packages) != 0 {
		t.Fatalf("no package may be written on validation failure")
	}
}

func TestBookPackage_OverlappingSlotsRejected(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	// Overlapping windows can offer 6:00-7:00 and 6:30-7:30 side by side;
	// picking both would double-book the mentor in one request.
	req := bookingReq(mentorID, candidateID)
	req.SlotB = slotAt(req.SlotA.StartAt.Add(30 * time.Minute))

	if _, err := svc.BookPackage(context.Background(), req); !errors.Is(err, ErrOverlappingSlots) {
		t.Fatalf("expected ErrOverlappingSlots, got %v", err)
	}
	if len(repo.packages) != 0 {
		t.Fatalf("no package may be written on validation failure")
	}
}

func TestBookPackage_RecheckCatchesFreshConflict(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	req := bookingReq(mentorID, candidateID)

	// Another candidate's session landed on slot A after the slots were
	// computed.
	taken := *req.SlotA
	id := uuid.New()
	repo.sessions[id] = &session.Session{
		ID:              id,
		MentorID:        mentorID,
		CandidateID:     uuid.New(),
		Status:          session.StatusConfirmed,
		ScheduledAt:     &taken.StartAt,
		DurationMinutes: 45,
	}

	if _, err := svc.BookPackage(context.Background(), req); !errors.Is(err, ErrSlotNoLongerAvailable) {
		t.Fatalf("expected ErrSlotNoLongerAvailable, got %v", err)
	}
}

func TestBookPackage_StoreConstraintMapped(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	repo.createPackageErr = ErrSlotNoLongerAvailable
	svc := newTestService(repo, passLocker{})

	_, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID))
	if !errors.Is(err, ErrSlotNoLongerAvailable) {
		t.Fatalf("expected constraint conflict to surface as ErrSlotNoLongerAvailable, got %v", err)
	}
}

func TestBookPackage_LockContention(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, heldLocker{})

	if _, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID)); !errors.Is(err, ErrMentorBusy) {
		t.Fatalf("expected ErrMentorBusy, got %v", err)
	}
}

func TestBookPackage_RateOutOfTierRange(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	repo.mentors[mentorID].SessionRate = decimal.NewFromInt(9999)
	svc := newTestService(repo, passLocker{})

	_, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID))
	if !errors.Is(err, pricing.ErrRateOutOfTierRange) {
		t.Fatalf("expected ErrRateOutOfTierRange, got %v", err)
	}
}

func TestAcceptSession(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	result, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	first := result.Sessions[0]
	updated, err := svc.AcceptSession(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if updated.Status != session.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}
	if !strings.HasPrefix(updated.MeetingLink, "https://meet.prepmatch.io/") {
		t.Fatalf("expected a minted meeting link, got %q", updated.MeetingLink)
	}

	// Accepting twice is an invalid transition.
	if _, err := svc.AcceptSession(context.Background(), first.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}

	// An unscheduled HR round cannot be accepted.
	for _, s := range result.Sessions {
		if s.Round == session.RoundHR {
			if _, err := svc.AcceptSession(context.Background(), s.ID); !errors.Is(err, ErrSessionNotScheduled) {
				t.Fatalf("expected ErrSessionNotScheduled, got %v", err)
			}
		}
	}
}

func TestRescheduleSession_CountMonotonic(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	result, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	target := result.Sessions[0]

	newTime := time.Now().Add(96 * time.Hour).Truncate(time.Hour)
	updated, err := svc.RescheduleSession(context.Background(), target.ID, newTime)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.RescheduleCount != 1 {
		t.Fatalf("expected reschedule count 1, got %d", updated.RescheduleCount)
	}

	again, err := svc.RescheduleSession(context.Background(), target.ID, newTime.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("second reschedule: %v", err)
	}
	if again.RescheduleCount != 2 {
		t.Fatalf("count must stay monotonic, got %d", again.RescheduleCount)
	}
}

func TestRescheduleSession_ConflictWithSibling(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	result, err := svc.BookPackage(context.Background(), bookingReq(mentorID, candidateID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	var roundOne, roundTwo session.Session
	for _, s := range result.Sessions {
		switch s.Round {
		case session.RoundOne:
			roundOne = s
		case session.RoundTwo:
			roundTwo = s
		}
	}

	// Moving round one onto round two's time must conflict.
	if _, err := svc.RescheduleSession(context.Background(), roundOne.ID, *roundTwo.ScheduledAt); !errors.Is(err, ErrSlotNoLongerAvailable) {
		t.Fatalf("expected ErrSlotNoLongerAvailable, got %v", err)
	}

	// Moving a session onto its own time is not a conflict with itself.
	if _, err := svc.RescheduleSession(context.Background(), roundOne.ID, *roundOne.ScheduledAt); err != nil {
		t.Fatalf("rescheduling onto own interval: %v", err)
	}
}

func TestSubmitEvaluation(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	past := time.Now().Add(-2 * time.Hour)
	id := uuid.New()
	repo.sessions[id] = &session.Session{
		ID:              id,
		MentorID:        mentorID,
		CandidateID:     candidateID,
		Round:           session.RoundOne,
		Status:          session.StatusCompleted,
		ScheduledAt:     &past,
		DurationMinutes: 45,
	}

	eval, err := svc.SubmitEvaluation(context.Background(), id, session.Evaluation{Rating: 4, Verdict: "hire"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if eval.SessionID != id {
		t.Fatalf("evaluation bound to wrong session")
	}

	if _, err := svc.SubmitEvaluation(context.Background(), id, session.Evaluation{Rating: 5}); !errors.Is(err, ErrEvaluationExists) {
		t.Fatalf("expected ErrEvaluationExists, got %v", err)
	}
}

func TestSubmitEvaluation_ConfirmedPastEndCompletes(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	past := time.Now().Add(-2 * time.Hour)
	id := uuid.New()
	repo.sessions[id] = &session.Session{
		ID:              id,
		MentorID:        mentorID,
		CandidateID:     candidateID,
		Status:          session.StatusConfirmed,
		ScheduledAt:     &past,
		DurationMinutes: 45,
	}

	if _, err := svc.SubmitEvaluation(context.Background(), id, session.Evaluation{Rating: 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if repo.sessions[id].Status != session.StatusCompleted {
		t.Fatalf("session must be completed on evaluation, got %s", repo.sessions[id].Status)
	}
}

func TestSubmitEvaluation_UnfinishedRejected(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	future := time.Now().Add(2 * time.Hour)
	id := uuid.New()
	repo.sessions[id] = &session.Session{
		ID:              id,
		MentorID:        mentorID,
		CandidateID:     candidateID,
		Status:          session.StatusConfirmed,
		ScheduledAt:     &future,
		DurationMinutes: 45,
	}

	if _, err := svc.SubmitEvaluation(context.Background(), id, session.Evaluation{Rating: 3}); !errors.Is(err, ErrSessionNotFinished) {
		t.Fatalf("expected ErrSessionNotFinished, got %v", err)
	}
}

func TestEvaluationForSession_StaleReadHidden(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	future := time.Now().Add(2 * time.Hour)
	id := uuid.New()
	repo.sessions[id] = &session.Session{
		ID:              id,
		MentorID:        mentorID,
		CandidateID:     candidateID,
		Status:          session.StatusConfirmed,
		ScheduledAt:     &future,
		DurationMinutes: 45,
	}
	// Inconsistent row: evaluation exists for a session that has not run.
	repo.evals[id] = &session.Evaluation{ID: uuid.New(), SessionID: id}

	_, err := svc.EvaluationForSession(context.Background(), id, time.Now())
	if !errors.Is(err, ErrEvaluationNotFound) {
		t.Fatalf("stale evaluation must read as absent, got %v", err)
	}
}

func TestLifecycleWorkerOps(t *testing.T) {
	repo := newFakeRepo()
	mentorID, candidateID := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	past := time.Now().Add(-3 * time.Hour)
	overdueID := uuid.New()
	repo.sessions[overdueID] = &session.Session{
		ID: overdueID, MentorID: mentorID, CandidateID: candidateID,
		Status: session.StatusConfirmed, ScheduledAt: &past, DurationMinutes: 45,
		UpdatedAt: past,
	}

	staleAt := time.Now().Add(-48 * time.Hour)
	staleID := uuid.New()
	repo.sessions[staleID] = &session.Session{
		ID: staleID, MentorID: mentorID, CandidateID: candidateID,
		Status: session.StatusPending, ScheduledAt: &past, DurationMinutes: 45,
		UpdatedAt: staleAt,
	}

	if err := svc.CompleteOverdueSessions(context.Background()); err != nil {
		t.Fatalf("complete overdue: %v", err)
	}
	if repo.sessions[overdueID].Status != session.StatusCompleted {
		t.Fatalf("overdue confirmed session not completed")
	}

	if err := svc.CancelStalePending(context.Background()); err != nil {
		t.Fatalf("cancel stale: %v", err)
	}
	if repo.sessions[staleID].Status != session.StatusCancelled {
		t.Fatalf("stale pending session not cancelled")
	}
}

func TestSetAvailability_InvalidWindowRejected(t *testing.T) {
	repo := newFakeRepo()
	mentorID, _ := seedMarketplace(repo)
	svc := newTestService(repo, passLocker{})

	bad := []schedule.AvailabilityWindow{{
		Weekday:     time.Tuesday,
		StartMinute: 20 * 60,
		EndMinute:   18 * 60,
		Active:      true,
	}}

	if err := svc.SetAvailability(context.Background(), mentorID, bad); !errors.Is(err, schedule.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if len(repo.windows) != 0 {
		t.Fatalf("invalid windows must not be persisted")
	}
}

func TestMentorSlots_FallbackHoursPolicy(t *testing.T) {
	repo := newFakeRepo()
	mentorID, _ := seedMarketplace(repo)

	cfg := testConfig()
	cfg.FallbackHours = true
	svc := NewService(repo, passLocker{}, cfg, zap.NewNop())

	days, err := svc.MentorSlots(context.Background(), mentorID, ViewCandidate, time.Now())
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(days) == 0 {
		t.Fatalf("fallback hours must yield slots for an unconfigured mentor")
	}

	// With the policy off, an unconfigured mentor yields nothing.
	svc = newTestService(repo, passLocker{})
	days, err = svc.MentorSlots(context.Background(), mentorID, ViewCandidate, time.Now())
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(days) != 0 {
		t.Fatalf("expected no slots without fallback policy, got %d days", len(days))
	}
}
