package secondary

import "context"

// Notifier defines the interface for operator-facing notifications.
// Every failure path of a plot update ends in exactly one Notify call.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Severity of a notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Notification is a human-readable report: Summary says what failed for which
// plot and event, Detail carries the raw error text.
type Notification struct {
	Severity      Severity
	CorrelationID string
	PlotID        int
	Event         string
	Phase         string
	Summary       string
	Detail        string
}

// EventLogWriter records processed plot events.
// Implementations extract the actor and correlation id from context.
type EventLogWriter interface {
	LogEvent(ctx context.Context, plotID int, event, status, outcome, detail string) error
}
