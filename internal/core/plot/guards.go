package plot

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// TransitionContext provides context for event transition guards.
type TransitionContext struct {
	PlotID  int
	Current Status
	Event   EventKind
}

var allowedFrom = map[EventKind][]Status{
	EventSubmit:           {StatusOnGoing},
	EventUndoSubmit:       {StatusFinished},
	EventApprove:          {StatusFinished},
	EventReject:           {StatusFinished},
	EventUndoReview:       {StatusApproved, StatusRejected},
	EventFeedback:         {StatusApproved, StatusRejected},
	EventInactivityNotice: {StatusOnGoing},
}

// CanTransition evaluates whether an event may be applied to a plot.
// Rules:
// - Archived plots accept no events
// - Abandoned plots can only be archived
// - Review events need a submitted plot; feedback and undo need a reviewed one
func CanTransition(ctx TransitionContext) GuardResult {
	if ctx.Current == StatusArchived {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("plot %d is archived; no further events can be applied", ctx.PlotID),
		}
	}
	if ctx.Current == StatusAbandoned && ctx.Event != EventArchive {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("plot %d is abandoned; it can only be archived", ctx.PlotID),
		}
	}

	required, ok := allowedFrom[ctx.Event]
	if !ok {
		return GuardResult{Allowed: true}
	}
	for _, status := range required {
		if status == ctx.Current {
			return GuardResult{Allowed: true}
		}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("cannot apply %s to plot %d (current status: %s, requires: %v)", ctx.Event, ctx.PlotID, ctx.Current, required),
	}
}
