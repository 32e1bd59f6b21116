package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plotsync/internal/adapters/postgres"
	"github.com/example/plotsync/internal/db"
	"github.com/example/plotsync/internal/ports/secondary"
)

// setupPostgres connects to the database named by PLOTSYNC_TEST_POSTGRES_DSN
// and resets the plotsync tables. Tests are skipped when it is unset.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("PLOTSYNC_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set PLOTSYNC_TEST_POSTGRES_DSN to run Postgres integration tests")
	}

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec("DROP TABLE IF EXISTS tracking_entries, plots, plot_events")
	require.NoError(t, err)
	_, err = conn.Exec(db.GetPostgresSchemaSQL())
	require.NoError(t, err)
	return conn
}

func TestTrackingRepository_Postgres(t *testing.T) {
	conn := setupPostgres(t)
	repo := postgres.NewTrackingRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &secondary.TrackingRecord{MessageID: "old", ThreadID: "t0", PlotID: 42, Status: "on_going", OwnerUUID: "u"}))
	require.NoError(t, repo.Insert(ctx, &secondary.TrackingRecord{MessageID: "1001", ThreadID: "2002", PlotID: 42, Status: "finished", OwnerUUID: "u", OwnerDiscordID: "222"}))

	entries, err := repo.FindByPlotID(ctx, 42)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1001", entries[0].MessageID)
	assert.Nil(t, entries[0].Feedback)

	require.NoError(t, repo.UpdateStatus(ctx, "1001", "approved"))
	feedback := "Looks great"
	require.NoError(t, repo.UpdateFeedback(ctx, "1001", &feedback))

	got, err := repo.GetByMessageID(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, feedback, *got.Feedback)

	listed, err := repo.List(ctx, secondary.TrackingFilters{Status: "approved", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, repo.Delete(ctx, "1001"))
	assert.Error(t, repo.Delete(ctx, "1001"))
}

func TestEventLogRepository_Postgres(t *testing.T) {
	conn := setupPostgres(t)
	repo := postgres.NewEventLogRepository(conn)
	ctx := context.Background()

	record := &secondary.EventLogRecord{PlotID: 42, Event: "approve", Status: "approved", Outcome: "ok"}
	require.NoError(t, repo.Create(ctx, record))
	assert.NotZero(t, record.ID)

	records, err := repo.ListByPlot(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "approve", records[0].Event)
}
