package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plotsync/internal/ports/secondary"
)

// PlotRepository implements secondary.PlotRepository with SQLite.
type PlotRepository struct {
	db *sql.DB
}

// NewPlotRepository creates a new SQLite plot repository.
func NewPlotRepository(db *sql.DB) *PlotRepository {
	return &PlotRepository{db: db}
}

var _ secondary.PlotRepository = (*PlotRepository)(nil)

const plotColumns = "id, owner_uuid, owner_name, owner_discord_id, city, country, x, z, mc_coordinates, status"

// GetPlotByID retrieves a plot by its ID.
func (r *PlotRepository) GetPlotByID(ctx context.Context, id int) (*secondary.PlotRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+plotColumns+" FROM plots WHERE id = ?", id)
	record, err := scanPlot(row)
	if err == sql.ErrNoRows {
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
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
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
	var (
		discordID sql.NullString
		mcCoords  sql.NullString
	)
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
