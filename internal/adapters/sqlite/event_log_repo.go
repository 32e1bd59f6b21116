package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/plotsync/internal/ports/secondary"
)

// EventLogRepository implements secondary.EventLogRepository with SQLite.
type EventLogRepository struct {
	db *sql.DB
}

// NewEventLogRepository creates a new SQLite event log repository.
func NewEventLogRepository(db *sql.DB) *EventLogRepository {
	return &EventLogRepository{db: db}
}

var _ secondary.EventLogRepository = (*EventLogRepository)(nil)

// Create persists a new log entry and sets its ID.
func (r *EventLogRepository) Create(ctx context.Context, record *secondary.EventLogRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO plot_events (plot_id, event, actor_id, correlation_id, status, outcome, detail) VALUES (?, ?, ?, ?, ?, ?, ?)",
		record.PlotID, record.Event, nullString(record.ActorID), nullString(record.CorrelationID),
		record.Status, record.Outcome, nullString(record.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to create plot event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read plot event id: %w", err)
	}
	record.ID = id
	return nil
}

// ListByPlot retrieves log entries for a plot, newest first.
func (r *EventLogRepository) ListByPlot(ctx context.Context, plotID int, limit int) ([]*secondary.EventLogRecord, error) {
	query := "SELECT id, plot_id, event, actor_id, correlation_id, status, outcome, detail, created_at FROM plot_events WHERE plot_id = ? ORDER BY id DESC"
	args := []any{plotID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plot events: %w", err)
	}
	defer rows.Close()

	var records []*secondary.EventLogRecord
	for rows.Next() {
		var (
			actorID, correlationID, detail sql.NullString
			createdAt                      time.Time
		)
		record := &secondary.EventLogRecord{}
		if err := rows.Scan(&record.ID, &record.PlotID, &record.Event, &actorID, &correlationID,
			&record.Status, &record.Outcome, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan plot event: %w", err)
		}
		record.ActorID = actorID.String
		record.CorrelationID = correlationID.String
		record.Detail = detail.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plot events: %w", err)
	}
	return records, nil
}
