// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// TrackingRepository defines the secondary port for tracking entry persistence.
// Entries are keyed by the status message id.
type TrackingRepository interface {
	// Insert persists an entry, replacing any prior entries for the same plot
	// in one transaction.
	Insert(ctx context.Context, entry *TrackingRecord) error

	// UpdateStatus sets the status of the entry anchored by messageID.
	UpdateStatus(ctx context.Context, messageID, status string) error

	// UpdateFeedback sets the feedback text. A nil feedback clears it.
	UpdateFeedback(ctx context.Context, messageID string, feedback *string) error

	// Delete removes the entry anchored by messageID.
	Delete(ctx context.Context, messageID string) error

	// FindByPlotID returns the entries for a plot, newest first.
	FindByPlotID(ctx context.Context, plotID int) ([]*TrackingRecord, error)

	// GetByMessageID retrieves the entry anchored by messageID.
	GetByMessageID(ctx context.Context, messageID string) (*TrackingRecord, error)

	// List retrieves entries matching the given filters.
	List(ctx context.Context, filters TrackingFilters) ([]*TrackingRecord, error)
}

// TrackingRecord represents a tracking entry as stored in persistence.
type TrackingRecord struct {
	MessageID      string
	ThreadID       string
	PlotID         int
	Status         string
	OwnerUUID      string
	OwnerDiscordID string  // Empty string means null
	Feedback       *string // nil means feedback was never set
	CreatedAt      string
	UpdatedAt      string
}

// TrackingFilters contains filter options for querying tracking entries.
type TrackingFilters struct {
	Status string
	Limit  int
}

// PlotRepository defines the secondary port for the external plot database.
// The plot database is read-only to this application.
type PlotRepository interface {
	// GetPlotByID retrieves a plot by its ID.
	GetPlotByID(ctx context.Context, id int) (*PlotRecord, error)

	// List retrieves plots matching the given filters.
	List(ctx context.Context, filters PlotFilters) ([]*PlotRecord, error)
}

// PlotRecord represents a plot as stored in the plot database.
type PlotRecord struct {
	ID             int
	OwnerUUID      string
	OwnerName      string
	OwnerDiscordID string // Empty string means null
	City           string
	Country        string
	X              float64
	Z              float64
	McCoordinates  string // Empty string means null
	Status         string // unclaimed, unfinished, unreviewed, completed
}

// PlotFilters contains filter options for querying plots.
type PlotFilters struct {
	Status string
	Limit  int
}

// EventLogRepository defines the secondary port for the per-plot event log.
type EventLogRepository interface {
	// Create persists a new log entry.
	Create(ctx context.Context, record *EventLogRecord) error

	// ListByPlot retrieves log entries for a plot, newest first.
	ListByPlot(ctx context.Context, plotID int, limit int) ([]*EventLogRecord, error)
}

// EventLogRecord represents one processed plot event as stored in persistence.
type EventLogRecord struct {
	ID            int64
	PlotID        int
	Event         string
	ActorID       string
	CorrelationID string
	Status        string // target status
	Outcome       string // ok, partial, failed
	Detail        string
	CreatedAt     string
}
