package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/plotsync/internal/adapters/sqlite"
	"github.com/example/plotsync/internal/ports/secondary"
)

func TestTrackingRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)
	ctx := context.Background()

	err := repo.Insert(ctx, &secondary.TrackingRecord{
		MessageID:      "1001",
		ThreadID:       "2002",
		PlotID:         42,
		Status:         "finished",
		OwnerUUID:      "uuid-42",
		OwnerDiscordID: "222",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByMessageID(ctx, "1001")
	if err != nil {
		t.Fatalf("GetByMessageID failed: %v", err)
	}
	if got.ThreadID != "2002" || got.PlotID != 42 || got.Status != "finished" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.OwnerDiscordID != "222" {
		t.Errorf("expected discord id '222', got %q", got.OwnerDiscordID)
	}
	if got.Feedback != nil {
		t.Errorf("expected nil feedback, got %q", *got.Feedback)
	}
	if got.CreatedAt == "" {
		t.Error("expected CreatedAt to be set")
	}
}

func TestTrackingRepository_InsertReplacesPriorEntriesForPlot(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)
	ctx := context.Background()

	seedTracking(t, db, "old-1", 42, "on_going")
	seedTracking(t, db, "old-2", 42, "rejected")
	seedTracking(t, db, "other", 7, "on_going")

	err := repo.Insert(ctx, &secondary.TrackingRecord{MessageID: "new", ThreadID: "t", PlotID: 42, Status: "on_going", OwnerUUID: "u"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	entries, err := repo.FindByPlotID(ctx, 42)
	if err != nil {
		t.Fatalf("FindByPlotID failed: %v", err)
	}
	if len(entries) != 1 || entries[0].MessageID != "new" {
		t.Errorf("expected only the new entry, got %d entries", len(entries))
	}

	others, _ := repo.FindByPlotID(ctx, 7)
	if len(others) != 1 {
		t.Errorf("entries of other plots must survive, got %d", len(others))
	}
}

func TestTrackingRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)
	ctx := context.Background()
	seedTracking(t, db, "1001", 42, "finished")

	if err := repo.UpdateStatus(ctx, "1001", "approved"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ := repo.GetByMessageID(ctx, "1001")
	if got.Status != "approved" {
		t.Errorf("expected status 'approved', got %q", got.Status)
	}

	if err := repo.UpdateStatus(ctx, "missing", "approved"); err == nil {
		t.Error("expected error for missing entry")
	}
	if err := repo.UpdateStatus(ctx, "1001", "bogus"); err == nil {
		t.Error("expected constraint error for invalid status")
	}
}

func TestTrackingRepository_UpdateFeedback(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)
	ctx := context.Background()
	seedTracking(t, db, "1001", 42, "rejected")

	// Text equal to the legacy sentinel is ordinary feedback now
	text := "No Feedback"
	if err := repo.UpdateFeedback(ctx, "1001", &text); err != nil {
		t.Fatalf("UpdateFeedback failed: %v", err)
	}
	got, _ := repo.GetByMessageID(ctx, "1001")
	if got.Feedback == nil || *got.Feedback != text {
		t.Errorf("expected feedback %q, got %v", text, got.Feedback)
	}

	if err := repo.UpdateFeedback(ctx, "1001", nil); err != nil {
		t.Fatalf("clearing feedback failed: %v", err)
	}
	got, _ = repo.GetByMessageID(ctx, "1001")
	if got.Feedback != nil {
		t.Errorf("expected cleared feedback, got %q", *got.Feedback)
	}
}

func TestTrackingRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)
	ctx := context.Background()
	seedTracking(t, db, "1001", 42, "on_going")

	if err := repo.Delete(ctx, "1001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByMessageID(ctx, "1001"); err == nil {
		t.Error("expected error after delete")
	}
	if err := repo.Delete(ctx, "1001"); err == nil {
		t.Error("expected error deleting a missing entry")
	}
}

func TestTrackingRepository_FindByPlotID_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)

	entries, err := repo.FindByPlotID(context.Background(), 404)
	if err != nil {
		t.Fatalf("FindByPlotID failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestTrackingRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewTrackingRepository(db)
	ctx := context.Background()

	seedTracking(t, db, "a", 3, "on_going")
	seedTracking(t, db, "b", 1, "approved")
	seedTracking(t, db, "c", 2, "on_going")

	all, err := repo.List(ctx, secondary.TrackingFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].PlotID != 1 {
		t.Errorf("expected 3 entries ordered by plot, got %d", len(all))
	}

	ongoing, _ := repo.List(ctx, secondary.TrackingFilters{Status: "on_going"})
	if len(ongoing) != 2 {
		t.Errorf("expected 2 on_going entries, got %d", len(ongoing))
	}

	limited, _ := repo.List(ctx, secondary.TrackingFilters{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 entry with limit, got %d", len(limited))
	}
}
