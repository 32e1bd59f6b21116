// Package primary defines the primary ports (driving adapters) of the application.
package primary

import (
	"context"
	"time"
)

// PlotSyncService defines the primary port for keeping plot threads in sync.
type PlotSyncService interface {
	// RegisterPlot creates the thread, layout and status message of a plot
	// and starts tracking it.
	RegisterPlot(ctx context.Context, req RegisterPlotRequest) (*RegisterPlotResponse, error)

	// CreateThread starts a forum thread whose first message is a fresh layout.
	CreateThread(ctx context.Context, req CreateThreadRequest) (*MessageRef, error)

	// UpdatePlot runs the three update phases for an explicit action.
	UpdatePlot(ctx context.Context, action UpdateAction, event Event, status string) (*UpdateResult, error)

	// UpdateByPlotID derives the action from the tracking entry of a plot.
	// An empty status means the event's default target status.
	UpdateByPlotID(ctx context.Context, plotID int, event Event, status string) (*UpdateResult, error)

	// GetThreadLayout fetches and decodes the layout of a tracked thread.
	GetThreadLayout(ctx context.Context, threadID string) (*ThreadLayout, error)

	// SetFeedback stores reviewer feedback and records it on the thread.
	SetFeedback(ctx context.Context, plotID int, feedback string, actor Member) (*UpdateResult, error)

	// Untrack stops tracking the entry anchored by messageID.
	Untrack(ctx context.Context, messageID string) error

	// Showcase posts a showcase thread for a finished plot.
	Showcase(ctx context.Context, req ShowcaseRequest) (*MessageRef, error)

	// ListTracking lists tracking entries.
	ListTracking(ctx context.Context, status string, limit int) ([]*TrackingEntry, error)

	// History lists processed events of a plot, newest first.
	History(ctx context.Context, plotID int, limit int) ([]*EventLogEntry, error)
}

// Member is a builder or reviewer at the port boundary.
type Member struct {
	UUID      string
	Name      string
	DiscordID string
	AvatarURL string
}

// Media is a file attached to an event.
type Media struct {
	Name        string
	ContentType string
	Data        []byte
}

// Event is what happened to a plot.
type Event struct {
	Kind  string // create, submit, approve, ...
	Actor Member
	Note  string
	Media []Media
	At    time.Time
}

// MessageRef identifies a remote message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// RegisterPlotRequest contains parameters for registering a plot.
type RegisterPlotRequest struct {
	PlotID int
	Owner  Member // zero value means the plot's recorded owner
	Media  []Media
}

// RegisterPlotResponse contains the result of registering a plot.
type RegisterPlotResponse struct {
	ThreadID        string
	LayoutMessageID string
	StatusMessageID string
	Status          string
}

// CreateThreadRequest contains parameters for starting a plot thread.
type CreateThreadRequest struct {
	PlotID  int
	Name    string
	Details string
	Owner   Member
	Status  string
	Media   []Media
}

// ShowcaseRequest contains parameters for showcasing a plot.
type ShowcaseRequest struct {
	PlotID int
	Title  string
	Images []string // media urls
}

// UpdateAction is the unit of work of one update: the plot and where its
// remote artifacts live. It is returned unchanged as a correlation handle.
type UpdateAction struct {
	PlotID          int
	ThreadID        string
	StatusMessageID string
	CurrentStatus   string
	OwnerUUID       string
	OwnerDiscordID  string
	CorrelationID   string
}

// PhaseResult is the outcome of one update phase.
type PhaseResult struct {
	Phase   string // layout, thread, status_message
	OK      bool
	Skipped bool // nothing to do
	Err     error
}

// UpdateResult is the outcome of an update.
type UpdateResult struct {
	Action       UpdateAction
	TargetStatus string
	Phases       []PhaseResult
}

// Failed returns the phases that failed.
func (r *UpdateResult) Failed() []PhaseResult {
	var failed []PhaseResult
	for _, p := range r.Phases {
		if !p.OK {
			failed = append(failed, p)
		}
	}
	return failed
}

// ThreadLayout is a decoded layout at the port boundary.
type ThreadLayout struct {
	ChannelID   string
	MessageID   string
	Nodes       []LayoutNode
	Attachments []string
}

// LayoutNode summarizes one top-level component.
type LayoutNode struct {
	Kind    string
	Address string
	Lines   []string
}

// TrackingEntry is a tracked plot at the port boundary.
type TrackingEntry struct {
	MessageID      string
	ThreadID       string
	PlotID         int
	Status         string
	OwnerUUID      string
	OwnerDiscordID string
	Feedback       *string
	UpdatedAt      string
}

// EventLogEntry is one processed event.
type EventLogEntry struct {
	Event         string
	Status        string
	Outcome       string
	ActorID       string
	CorrelationID string
	Detail        string
	CreatedAt     string
}
