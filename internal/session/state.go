package session

import "time"

// JoinWindow is how long before the scheduled start the meeting link opens.
const JoinWindow = 15 * time.Minute

// Viewer selects whose call-to-action set is computed. The same stored row
// presents differently to the two sides of a session.
type Viewer string

const (
	ViewerCandidate Viewer = "candidate"
	ViewerMentor    Viewer = "mentor"
)

// Phase is the presented lifecycle state. It is derived from the stored
// status and the wall clock on every call, never stored.
type Phase string

const (
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseAwaitingScheduling   Phase = "awaiting_scheduling"
	PhaseScheduled            Phase = "scheduled"
	PhaseJoinable             Phase = "joinable"
	PhaseAwaitingFeedback     Phase = "awaiting_feedback"
	PhaseFeedbackReady        Phase = "feedback_ready"
	PhaseTerminal             Phase = "terminal"
)

// Op identifies the operation a rendered button triggers.
type Op string

const (
	OpAccept           Op = "accept"
	OpReschedule       Op = "reschedule"
	OpJoin             Op = "join"
	OpSubmitEvaluation Op = "submit_evaluation"
	OpViewEvaluation   Op = "view_evaluation"
	OpViewDetails      Op = "view_details"
	OpNone             Op = "none"
)

type Action struct {
	Op      Op     `json:"op"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type ViewState struct {
	Phase     Phase  `json:"phase"`
	Primary   Action `json:"primary"`
	Secondary Action `json:"secondary"`
}

func disabled(op Op, label string) Action { return Action{Op: op, Label: label} }
func enabled(op Op, label string) Action  { return Action{Op: op, Label: label, Enabled: true} }

var viewDetails = enabled(OpViewDetails, "View details")

// ComputeState derives the presented state and call-to-action pair for one
// session. Pure: the stored row, the optional evaluation and the current
// time all come in as arguments. Callers re-evaluate on a timer; the
// 15-minute join window means the answer goes stale within a minute.
func ComputeState(s Session, eval *Evaluation, now time.Time, viewer Viewer) ViewState {
	eval = usableEvaluation(s, eval, now)

	switch s.Status {
	case StatusCancelled:
		return ViewState{
			Phase:     PhaseTerminal,
			Primary:   disabled(OpNone, "Cancelled"),
			Secondary: viewDetails,
		}

	case StatusNoShow:
		return ViewState{
			Phase:     PhaseTerminal,
			Primary:   disabled(OpNone, "No show"),
			Secondary: viewDetails,
		}

	case StatusPending:
		return pendingState(s, viewer)

	case StatusConfirmed:
		return confirmedState(s, eval, now, viewer)

	case StatusCompleted:
		return completedState(eval, viewer)
	}

	return ViewState{
		Phase:     PhaseTerminal,
		Primary:   disabled(OpNone, "Unavailable"),
		Secondary: viewDetails,
	}
}

func pendingState(s Session, viewer Viewer) ViewState {
	if s.ScheduledAt == nil {
		// HR round created at booking time without a slot.
		if viewer == ViewerMentor {
			return ViewState{
				Phase:     PhaseAwaitingScheduling,
				Primary:   enabled(OpReschedule, "Schedule session"),
				Secondary: viewDetails,
			}
		}
		return ViewState{
			Phase:     PhaseAwaitingScheduling,
			Primary:   disabled(OpNone, "Awaiting scheduling"),
			Secondary: viewDetails,
		}
	}

	if viewer == ViewerMentor {
		return ViewState{
			Phase:     PhaseAwaitingConfirmation,
			Primary:   enabled(OpAccept, "Accept"),
			Secondary: enabled(OpReschedule, "Reschedule"),
		}
	}
	return ViewState{
		Phase:     PhaseAwaitingConfirmation,
		Primary:   disabled(OpNone, "Awaiting confirmation"),
		Secondary: viewDetails,
	}
}

func confirmedState(s Session, eval *Evaluation, now time.Time, viewer Viewer) ViewState {
	if s.ScheduledAt == nil {
		// A confirmed row should always carry a time; present it inertly
		// rather than guessing.
		return ViewState{
			Phase:     PhaseAwaitingScheduling,
			Primary:   disabled(OpNone, "Awaiting scheduling"),
			Secondary: viewDetails,
		}
	}

	start := *s.ScheduledAt
	end := start.Add(s.Duration())

	if now.Before(end) {
		if start.Sub(now) <= JoinWindow {
			return ViewState{
				Phase:     PhaseJoinable,
				Primary:   enabled(OpJoin, "Join meeting"),
				Secondary: viewDetails,
			}
		}

		secondary := viewDetails
		if viewer == ViewerMentor {
			secondary = enabled(OpReschedule, "Reschedule")
		}
		return ViewState{
			Phase:     PhaseScheduled,
			Primary:   disabled(OpNone, "Scheduled"),
			Secondary: secondary,
		}
	}

	// Past the end of the occupied interval; the completion process has not
	// flipped the status yet.
	if eval != nil {
		return ViewState{
			Phase:     PhaseFeedbackReady,
			Primary:   enabled(OpViewEvaluation, "View feedback"),
			Secondary: viewDetails,
		}
	}
	return ViewState{
		Phase:     PhaseAwaitingFeedback,
		Primary:   disabled(OpNone, "Awaiting feedback"),
		Secondary: viewDetails,
	}
}

func completedState(eval *Evaluation, viewer Viewer) ViewState {
	if eval != nil {
		return ViewState{
			Phase:     PhaseFeedbackReady,
			Primary:   enabled(OpViewEvaluation, "View feedback"),
			Secondary: viewDetails,
		}
	}

	if viewer == ViewerMentor {
		return ViewState{
			Phase:     PhaseAwaitingFeedback,
			Primary:   enabled(OpSubmitEvaluation, "Submit evaluation"),
			Secondary: viewDetails,
		}
	}
	return ViewState{
		Phase:     PhaseAwaitingFeedback,
		Primary:   disabled(OpNone, "Awaiting feedback"),
		Secondary: viewDetails,
	}
}

// usableEvaluation guards against a stale read: an evaluation attached to a
// session that has not finished yet is inconsistent data, treated as absent
// rather than surfaced.
func usableEvaluation(s Session, eval *Evaluation, now time.Time) *Evaluation {
	if eval == nil {
		return nil
	}
	if s.Status == StatusCompleted {
		return eval
	}
	if s.Status == StatusConfirmed {
		if end := s.EndAt(); end != nil && !now.Before(*end) {
			return eval
		}
	}
	return nil
}
