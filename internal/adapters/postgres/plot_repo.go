package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/plotsync/internal/ports/secondary"
)

// PlotRepository implements secondary.PlotRepository with Postgres.
type PlotRepository struct {
	db *sql.DB
}

// NewPlotRepository creates a new Postgres plot repository.
func NewPlotRepository(db *sql.DB) *PlotRepository {
	return &PlotRepository{db: db}
}

var _ secondary.PlotRepository = (*PlotRepository)(nil)

const plotColumns = "id, owner_uuid, owner_name, owner_discord_id, city, country, x, z, mc_coordinates, status"

// GetPlotByID retrieves a plot by its ID.
func (r *PlotRepository) GetPlotByID(ctx context.Context, id int) (*secondary.PlotRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+plotColumns+" FROM plots WHERE id = $1", id)
	record, err := scanPlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plot %d %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}
	return record, nil
}

// List retrieves plots matching the given filters.
func (r *PlotRepository) List(ctx context.Context, filters secondary.PlotFilters) ([]*secondary.PlotRecord, error) {
	query := "SELECT " + plotColumns + " FROM plots WHERE 1=1"
	args := []any{}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY id ASC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plots: %w", err)
	}
	defer rows.Close()

	var plots []*secondary.PlotRecord
	for rows.Next() {
		record, err := scanPlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plot: %w", err)
		}
		plots = append(plots, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plots: %w", err)
	}
	return plots, nil
}

func scanPlot(s scanner) (*secondary.PlotRecord, error) {
	var discordID, mcCoords sql.NullString
	record := &secondary.PlotRecord{}
	err := s.Scan(&record.ID, &record.OwnerUUID, &record.OwnerName, &discordID,
		&record.City, &record.Country, &record.X, &record.Z, &mcCoords, &record.Status)
	if err != nil {
		return nil, err
	}
	record.OwnerDiscordID = discordID.String
	record.McCoordinates = mcCoords.String
	return record, nil
}

// EventLogRepository implements secondary.EventLogRepository with Postgres.
type EventLogRepository struct {
	db *sql.DB
}

// NewEventLogRepository creates a new Postgres event log repository.
func NewEventLogRepository(db *sql.DB) *EventLogRepository {
	return &EventLogRepository{db: db}
}

var _ secondary.EventLogRepository = (*EventLogRepository)(nil)

// Create persists a new log entry and sets its ID.
func (r *EventLogRepository) Create(ctx context.Context, record *secondary.EventLogRecord) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO plot_events (plot_id, event, actor_id, correlation_id, status, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		record.PlotID, record.Event, nullString(record.ActorID), nullString(record.CorrelationID),
		record.Status, record.Outcome, nullString(record.Detail),
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to create plot event: %w", err)
	}
	return nil
}

// ListByPlot retrieves log entries for a plot, newest first.
func (r *EventLogRepository) ListByPlot(ctx context.Context, plotID int, limit int) ([]*secondary.EventLogRecord, error) {
	query := "SELECT id, plot_id, event, actor_id, correlation_id, status, outcome, detail, created_at FROM plot_events WHERE plot_id = $1 ORDER BY id DESC"
	args := []any{plotID}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $2"
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
		record.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plot events: %w", err)
	}
	return records, nil
}
