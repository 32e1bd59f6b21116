package sqlite

import (
	"context"

	"github.com/example/plotsync/internal/ctxutil"
	"github.com/example/plotsync/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.EventLogWriter using EventLogRepository.
type LogWriterAdapter struct {
	logRepo secondary.EventLogRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.EventLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{logRepo: logRepo}
}

var _ secondary.EventLogWriter = (*LogWriterAdapter)(nil)

// LogEvent records one processed plot event. Actor and correlation id come
// from the context.
func (w *LogWriterAdapter) LogEvent(ctx context.Context, plotID int, event, status, outcome, detail string) error {
	record := &secondary.EventLogRecord{
		PlotID:        plotID,
		Event:         event,
		ActorID:       ctxutil.ActorFromContext(ctx),
		CorrelationID: ctxutil.CorrelationFromContext(ctx),
		Status:        status,
		Outcome:       outcome,
		Detail:        detail,
	}
	return w.logRepo.Create(ctx, record)
}
