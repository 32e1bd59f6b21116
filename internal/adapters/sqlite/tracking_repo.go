// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/plotsync/internal/ports/secondary"
)

// TrackingRepository implements secondary.TrackingRepository with SQLite.
type TrackingRepository struct {
	db *sql.DB
}

// NewTrackingRepository creates a new SQLite tracking repository.
func NewTrackingRepository(db *sql.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

var _ secondary.TrackingRepository = (*TrackingRepository)(nil)

const trackingColumns = "message_id, thread_id, plot_id, status, owner_uuid, owner_discord_id, feedback, created_at, updated_at"

// Insert persists an entry, replacing prior entries for the same plot.
func (r *TrackingRepository) Insert(ctx context.Context, entry *secondary.TrackingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tracking_entries WHERE plot_id = ?", entry.PlotID); err != nil {
		return fmt.Errorf("failed to replace tracking entries for plot %d: %w", entry.PlotID, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO tracking_entries (message_id, thread_id, plot_id, status, owner_uuid, owner_discord_id, feedback) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.MessageID, entry.ThreadID, entry.PlotID, entry.Status, entry.OwnerUUID,
		nullString(entry.OwnerDiscordID), nullPtr(entry.Feedback),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracking entry: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of an entry.
func (r *TrackingRepository) UpdateStatus(ctx context.Context, messageID, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tracking_entries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE message_id = ?",
		status, messageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tracking status: %w", err)
	}
	return requireOneRow(result, messageID)
}

// UpdateFeedback sets or clears the feedback text of an entry.
func (r *TrackingRepository) UpdateFeedback(ctx context.Context, messageID string, feedback *string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tracking_entries SET feedback = ?, updated_at = CURRENT_TIMESTAMP WHERE message_id = ?",
		nullPtr(feedback), messageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tracking feedback: %w", err)
	}
	return requireOneRow(result, messageID)
}

// Delete removes an entry.
func (r *TrackingRepository) Delete(ctx context.Context, messageID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tracking_entries WHERE message_id = ?", messageID)
	if err != nil {
		return fmt.Errorf("failed to delete tracking entry: %w", err)
	}
	return requireOneRow(result, messageID)
}

// FindByPlotID returns the entries of a plot, newest first.
func (r *TrackingRepository) FindByPlotID(ctx context.Context, plotID int) ([]*secondary.TrackingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+trackingColumns+" FROM tracking_entries WHERE plot_id = ? ORDER BY created_at DESC, rowid DESC",
		plotID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find tracking entries: %w", err)
	}
	defer rows.Close()
	return scanTrackingRows(rows)
}

// GetByMessageID retrieves an entry by its status message id.
func (r *TrackingRepository) GetByMessageID(ctx context.Context, messageID string) (*secondary.TrackingRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+trackingColumns+" FROM tracking_entries WHERE message_id = ?",
		messageID,
	)
	record, err := scanTracking(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tracking entry %s %w", messageID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking entry: %w", err)
	}
	return record, nil
}

// List retrieves entries matching the given filters.
func (r *TrackingRepository) List(ctx context.Context, filters secondary.TrackingFilters) ([]*secondary.TrackingRecord, error) {
	query := "SELECT " + trackingColumns + " FROM tracking_entries WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY plot_id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking entries: %w", err)
	}
	defer rows.Close()
	return scanTrackingRows(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTracking(s scanner) (*secondary.TrackingRecord, error) {
	var (
		discordID sql.NullString
		feedback  sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	record := &secondary.TrackingRecord{}
	err := s.Scan(&record.MessageID, &record.ThreadID, &record.PlotID, &record.Status,
		&record.OwnerUUID, &discordID, &feedback, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	record.OwnerDiscordID = discordID.String
	if feedback.Valid {
		text := feedback.String
		record.Feedback = &text
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return record, nil
}

func scanTrackingRows(rows *sql.Rows) ([]*secondary.TrackingRecord, error) {
	var entries []*secondary.TrackingRecord
	for rows.Next() {
		record, err := scanTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking entry: %w", err)
		}
		entries = append(entries, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracking entries: %w", err)
	}
	return entries, nil
}

func requireOneRow(result sql.Result, messageID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tracking entry %s %w", messageID, secondary.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
