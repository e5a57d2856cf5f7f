package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prepmatch/mentor-booking/internal/booking"
	"github.com/prepmatch/mentor-booking/internal/pricing"
	redisclient "github.com/prepmatch/mentor-booking/internal/redis"
	"github.com/prepmatch/mentor-booking/internal/schedule"
	"github.com/prepmatch/mentor-booking/internal/session"
)

func parseIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func mentorSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mentorID, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_mentor_id", "id must be a valid UUID")
			return
		}

		view := booking.ViewCandidate
		if r.URL.Query().Get("view") == string(booking.ViewMentor) {
			view = booking.ViewMentor
		}

		days, err := svc.MentorSlots(r.Context(), mentorID, view, time.Now())
		if err != nil {
			handleLookupError(w, err)
			return
		}

		if days == nil {
			days = []schedule.DaySlots{}
		}
		writeJSON(w, http.StatusOK, days)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		mentorID, err := uuid.Parse(req.MentorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_mentor_id", "mentor_id must be a valid UUID")
			return
		}
		candidateID, err := uuid.Parse(req.CandidateID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_candidate_id", "candidate_id must be a valid UUID")
			return
		}

		result, err := svc.BookPackage(r.Context(), booking.BookingRequest{
			MentorID:      mentorID,
			CandidateID:   candidateID,
			TargetProfile: req.TargetProfile,
			SlotA:         toSlot(req.SlotA),
			SlotB:         toSlot(req.SlotB),
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := BookingResponse{Package: toPackageResponse(*result.Package)}
		for _, s := range result.Sessions {
			resp.Sessions = append(resp.Sessions, toSessionResponse(s))
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func toSlot(p *SlotPayload) *schedule.Slot {
	if p == nil {
		return nil
	}
	return &schedule.Slot{StartAt: p.StartAt, EndAt: p.EndAt}
}

func getSessionHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
			return
		}

		sess, err := svc.GetSession(r.Context(), id)
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(*sess))
	}
}

func acceptSessionHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
			return
		}

		sess, err := svc.AcceptSession(r.Context(), id)
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(*sess))
	}
}

func rescheduleSessionHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.ScheduledAt.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduled_at is required")
			return
		}

		sess, err := svc.RescheduleSession(r.Context(), id, req.ScheduledAt)
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(*sess))
	}
}

func sessionStateHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
			return
		}

		viewer := session.ViewerCandidate
		if r.URL.Query().Get("viewer") == string(session.ViewerMentor) {
			viewer = session.ViewerMentor
		}

		state, err := svc.SessionState(r.Context(), id, viewer, time.Now())
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, state)
	}
}

func listSessionsHandler(svc *booking.Service, byMentor bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
			return
		}

		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)

		var sessions []session.Session
		var err error
		if byMentor {
			sessions, err = svc.ListSessionsByMentor(r.Context(), id, limit, offset)
		} else {
			sessions, err = svc.ListSessionsByCandidate(r.Context(), id, limit, offset)
		}
		if err != nil {
			handleLookupError(w, err)
			return
		}

		resp := make([]SessionResponse, 0, len(sessions))
		for _, s := range sessions {
			resp = append(resp, toSessionResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func submitEvaluationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
			return
		}

		var req SubmitEvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			writeError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
			return
		}

		eval, err := svc.SubmitEvaluation(r.Context(), id, session.Evaluation{
			Rating:       req.Rating,
			Strengths:    req.Strengths,
			Improvements: req.Improvements,
			Verdict:      req.Verdict,
		})
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEvaluationResponse(*eval))
	}
}

func getEvaluationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
			return
		}

		eval, err := svc.EvaluationForSession(r.Context(), id, time.Now())
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEvaluationResponse(*eval))
	}
}

func setAvailabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mentorID, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_mentor_id", "id must be a valid UUID")
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		windows := make([]schedule.AvailabilityWindow, 0, len(req.Windows))
		for _, p := range req.Windows {
			windows = append(windows, schedule.AvailabilityWindow{
				Weekday:     time.Weekday(p.Weekday),
				StartMinute: p.StartMinute,
				EndMinute:   p.EndMinute,
				Active:      p.Active,
			})
		}

		if err := svc.SetAvailability(r.Context(), mentorID, windows); err != nil {
			handleAvailabilityError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func addUnavailabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mentorID, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_mentor_id", "id must be a valid UUID")
			return
		}

		var req AddUnavailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		interval, err := svc.AddUnavailability(r.Context(), mentorID, req.StartAt, req.EndAt, req.Reason)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, interval)
	}
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	var n int
	for _, c := range v {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrMentorNotFound):
		writeError(w, http.StatusNotFound, "mentor_not_found", err.Error())
	case errors.Is(err, booking.ErrCandidateNotFound):
		writeError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, booking.ErrMissingSlot),
		errors.Is(err, booking.ErrDuplicateSlot),
		errors.Is(err, booking.ErrOverlappingSlots):
		writeError(w, http.StatusUnprocessableEntity, "invalid_selection", err.Error())
	case errors.Is(err, pricing.ErrRateOutOfTierRange):
		writeError(w, http.StatusUnprocessableEntity, "rate_out_of_range", err.Error())
	case errors.Is(err, booking.ErrSlotNoLongerAvailable):
		// Distinct from invalid_selection so the client re-prompts slot
		// selection instead of retrying the same request.
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, booking.ErrMentorBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "mentor_busy", "mentor calendar is being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, booking.ErrEvaluationNotFound):
		writeError(w, http.StatusNotFound, "evaluation_not_found", err.Error())
	case errors.Is(err, booking.ErrEvaluationExists):
		writeError(w, http.StatusConflict, "evaluation_exists", err.Error())
	case errors.Is(err, booking.ErrSessionNotFinished):
		writeError(w, http.StatusConflict, "session_not_finished", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrSessionNotScheduled):
		writeError(w, http.StatusConflict, "session_not_scheduled", err.Error())
	case errors.Is(err, booking.ErrSlotNoLongerAvailable):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, booking.ErrMentorBusy):
		writeError(w, http.StatusConflict, "mentor_busy", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrMentorNotFound):
		writeError(w, http.StatusNotFound, "mentor_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidWindow):
		writeError(w, http.StatusUnprocessableEntity, "invalid_window", err.Error())
	case errors.Is(err, schedule.ErrInvalidInterval):
		writeError(w, http.StatusUnprocessableEntity, "invalid_interval", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrMentorNotFound):
		writeError(w, http.StatusNotFound, "mentor_not_found", err.Error())
	case errors.Is(err, booking.ErrCandidateNotFound):
		writeError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
