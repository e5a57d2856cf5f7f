package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepmatch/mentor-booking/internal/pricing"
	"github.com/prepmatch/mentor-booking/internal/schedule"
	"github.com/prepmatch/mentor-booking/internal/session"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// isIntervalConflict reports whether the error is the sessions table's
// mentor/interval exclusion (or uniqueness) constraint firing. That
// constraint is the final arbiter against double-booking; the losing
// request maps to ErrSlotNoLongerAvailable.
func isIntervalConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation
}

func scanMentor(row pgx.Row) (*Mentor, error) {
	var m Mentor
	var headline *string

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&headline,
		&m.Tier,
		&m.SessionRate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}

	m.Headline = headline
	return &m, nil
}

func scanCandidate(row pgx.Row) (*Candidate, error) {
	var c Candidate
	var target *string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&target,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}

	c.TargetProfile = target
	return &c, nil
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var scheduledAt *time.Time

	err := row.Scan(
		&s.ID,
		&s.MentorID,
		&s.CandidateID,
		&s.PackageID,
		&s.Round,
		&scheduledAt,
		&s.DurationMinutes,
		&s.Status,
		&s.RescheduleCount,
		&s.MeetingLink,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s.ScheduledAt = scheduledAt
	return &s, nil
}

const sessionColumns = `id, mentor_id, candidate_id, package_id, round, scheduled_at,
		duration_minutes, status, reschedule_count, meeting_link, created_at, updated_at`

func scanSessions(rows pgx.Rows) ([]session.Session, error) {
	defer rows.Close()

	var result []session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) GetMentorByID(ctx context.Context, id uuid.UUID) (*Mentor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, headline, tier, session_rate, created_at, updated_at
		FROM mentors
		WHERE id = $1
	`, id)
	return scanMentor(row)
}

func (r *PgRepository) GetCandidateByID(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, target_profile, created_at, updated_at
		FROM candidates
		WHERE id = $1
	`, id)
	return scanCandidate(row)
}

func (r *PgRepository) GetTierBounds(ctx context.Context, tier pricing.Tier) (pricing.TierBounds, error) {
	var b pricing.TierBounds

	err := r.pool.QueryRow(ctx, `
		SELECT tier, min_rate, max_rate
		FROM tier_bounds
		WHERE tier = $1
	`, tier).Scan(&b.Tier, &b.MinRate, &b.MaxRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.TierBounds{}, ErrTierNotFound
		}
		return pricing.TierBounds{}, err
	}

	return b, nil
}

func (r *PgRepository) ListAvailabilityWindows(ctx context.Context, mentorID uuid.UUID) ([]schedule.AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, mentor_id, weekday, start_minute, end_minute, active, created_at, updated_at
		FROM availability_windows
		WHERE mentor_id = $1
		ORDER BY weekday, start_minute
	`, mentorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.AvailabilityWindow
	for rows.Next() {
		var w schedule.AvailabilityWindow
		var weekday int
		if err := rows.Scan(&w.ID, &w.MentorID, &weekday, &w.StartMinute, &w.EndMinute, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		result = append(result, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ReplaceAvailabilityWindows(ctx context.Context, mentorID uuid.UUID, windows []schedule.AvailabilityWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace windows: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_windows WHERE mentor_id = $1
	`, mentorID); err != nil {
		return fmt.Errorf("delete old windows: %w", err)
	}

	for _, w := range windows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_windows (id, mentor_id, weekday, start_minute, end_minute, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, w.ID, mentorID, int(w.Weekday), w.StartMinute, w.EndMinute, w.Active); err != nil {
			return fmt.Errorf("insert window: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListUnavailability(ctx context.Context, mentorID uuid.UUID, endingAfter time.Time) ([]schedule.UnavailabilityInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, mentor_id, start_at, end_at, reason
		FROM unavailability_intervals
		WHERE mentor_id = $1
		  AND end_at > $2
		ORDER BY start_at
	`, mentorID, endingAfter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.UnavailabilityInterval
	for rows.Next() {
		var u schedule.UnavailabilityInterval
		if err := rows.Scan(&u.ID, &u.MentorID, &u.StartAt, &u.EndAt, &u.Reason); err != nil {
			return nil, err
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) AddUnavailability(ctx context.Context, interval schedule.UnavailabilityInterval) (*schedule.UnavailabilityInterval, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO unavailability_intervals (id, mentor_id, start_at, end_at, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, interval.ID, interval.MentorID, interval.StartAt, interval.EndAt, interval.Reason)
	if err != nil {
		return nil, fmt.Errorf("insert unavailability: %w", err)
	}

	return &interval, nil
}

func (r *PgRepository) ListBusySessions(ctx context.Context, mentorID uuid.UUID, endingAfter time.Time) ([]session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE mentor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at + make_interval(mins => duration_minutes) > $2
		ORDER BY scheduled_at
	`, mentorID, endingAfter)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (r *PgRepository) CreatePackage(ctx context.Context, pkg *Package, sessions []session.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create package: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO packages (id, candidate_id, mentor_id, target_profile, total_amount, platform_fee, mentor_payout, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`, pkg.ID, pkg.CandidateID, pkg.MentorID, pkg.TargetProfile, pkg.TotalAmount, pkg.PlatformFee, pkg.MentorPayout, pkg.PaymentStatus,
	).Scan(&pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}

	for i := range sessions {
		s := &sessions[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO sessions (id, mentor_id, candidate_id, package_id, round, scheduled_at, duration_minutes, status, reschedule_count, meeting_link, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, '', now(), now())
			RETURNING created_at, updated_at
		`, s.ID, s.MentorID, s.CandidateID, s.PackageID, s.Round, s.ScheduledAt, s.DurationMinutes, s.Status,
		).Scan(&s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			if isIntervalConflict(err) {
				return ErrSlotNoLongerAvailable
			}
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isIntervalConflict(err) {
			return ErrSlotNoLongerAvailable
		}
		return fmt.Errorf("commit create package: %w", err)
	}

	return nil
}

func (r *PgRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, id)
	return scanSession(row)
}

func (r *PgRepository) ListSessionsByCandidate(ctx context.Context, candidateID uuid.UUID, limit, offset int) ([]session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE candidate_id = $1
		ORDER BY scheduled_at NULLS LAST, created_at
		LIMIT $2 OFFSET $3
	`, candidateID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (r *PgRepository) ListSessionsByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int) ([]session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE mentor_id = $1
		ORDER BY scheduled_at NULLS LAST, created_at
		LIMIT $2 OFFSET $3
	`, mentorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (r *PgRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to session.Status) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+sessionColumns+`
	`, id, to, from)

	return scanSession(row)
}

func (r *PgRepository) ConfirmSession(ctx context.Context, id uuid.UUID, meetingLink string) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET status = 'confirmed',
		    meeting_link = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'pending'
		RETURNING `+sessionColumns+`
	`, id, meetingLink)

	return scanSession(row)
}

func (r *PgRepository) RescheduleSession(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET scheduled_at = $2,
		    reschedule_count = reschedule_count + 1,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		RETURNING `+sessionColumns+`
	`, id, scheduledAt)

	s, err := scanSession(row)
	if err != nil && isIntervalConflict(err) {
		return nil, ErrSlotNoLongerAvailable
	}
	return s, err
}

func (r *PgRepository) FindOverdueConfirmed(ctx context.Context, now time.Time) ([]session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE status = 'confirmed'
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at + make_interval(mins => duration_minutes) < $1
	`, now)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (r *PgRepository) FindStalePending(ctx context.Context, createdBefore time.Time) ([]session.Session, error) {
	// Unscheduled HR rounds wait for the mentor indefinitely; only
	// scheduled pending sessions go stale.
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE status = 'pending'
		  AND scheduled_at IS NOT NULL
		  AND updated_at < $1
	`, createdBefore)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (r *PgRepository) GetEvaluationBySession(ctx context.Context, sessionID uuid.UUID) (*session.Evaluation, error) {
	var e session.Evaluation

	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, rating, strengths, improvements, verdict, submitted_at
		FROM evaluations
		WHERE session_id = $1
	`, sessionID).Scan(&e.ID, &e.SessionID, &e.Rating, &e.Strengths, &e.Improvements, &e.Verdict, &e.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}

	return &e, nil
}

func (r *PgRepository) InsertEvaluation(ctx context.Context, eval session.Evaluation) (*session.Evaluation, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO evaluations (id, session_id, rating, strengths, improvements, verdict, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, eval.ID, eval.SessionID, eval.Rating, eval.Strengths, eval.Improvements, eval.Verdict, eval.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrEvaluationExists
		}
		return nil, fmt.Errorf("insert evaluation: %w", err)
	}

	return &eval, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, session_id, package_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.SessionID, ev.PackageID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
