package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/plotsync/internal/adapters/sqlite"
	"github.com/example/plotsync/internal/ports/secondary"
)

func TestPlotRepository_GetPlotByID(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewPlotRepository(db)
	seedPlot(t, db, 42, "unreviewed")

	plot, err := repo.GetPlotByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetPlotByID failed: %v", err)
	}
	if plot.OwnerName != "Robin" || plot.City != "Osaka" || plot.Status != "unreviewed" {
		t.Errorf("unexpected plot: %+v", plot)
	}
	if plot.X != 1.5 || plot.Z != -2.5 {
		t.Errorf("unexpected coordinates %v,%v", plot.X, plot.Z)
	}
	if plot.McCoordinates != "" {
		t.Errorf("expected empty mc coordinates, got %q", plot.McCoordinates)
	}
}

func TestPlotRepository_GetPlotByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewPlotRepository(db)

	if _, err := repo.GetPlotByID(context.Background(), 404); err == nil {
		t.Error("expected error for missing plot")
	}
}

func TestPlotRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewPlotRepository(db)
	seedPlot(t, db, 2, "unfinished")
	seedPlot(t, db, 1, "completed")
	seedPlot(t, db, 3, "unfinished")

	plots, err := repo.List(context.Background(), secondary.PlotFilters{Status: "unfinished"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(plots) != 2 || plots[0].ID != 2 {
		t.Errorf("expected plots 2 and 3, got %d plots", len(plots))
	}
}
