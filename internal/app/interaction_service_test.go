package app

import (
	"context"
	"strings"
	"testing"

	"github.com/example/plotsync/internal/core/address"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
)

func newTestInteractionService(mapURL string) (*InteractionServiceImpl, *mockTrackingRepository) {
	tracking := newMockTrackingRepository(&secondary.TrackingRecord{MessageID: "1001", ThreadID: "2002", PlotID: 42, Status: "approved"})
	plots := newMockPlotRepository(&secondary.PlotRecord{
		ID: 42, City: "Lyon", Country: "France", X: 120, Z: -340, McCoordinates: "120 64 -340",
	})
	return NewInteractionService(tracking, plots, mapURL, "https://help.example"), tracking
}

func TestInteraction_Help(t *testing.T) {
	svc, _ := newTestInteractionService("")

	reply, err := svc.Handle(context.Background(), customIDOf(t, address.SubButtonHelp, 42), primary.Member{DiscordID: "111"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !reply.Handled || !reply.Ephemeral {
		t.Errorf("expected handled ephemeral reply, got %+v", reply)
	}
	if !strings.Contains(reply.Content, "plot #42") || reply.URL != "https://help.example" {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestInteraction_Feedback(t *testing.T) {
	svc, tracking := newTestInteractionService("")
	id := customIDOf(t, address.SubButtonFeedback, 42)

	reply, err := svc.Handle(context.Background(), id, primary.Member{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(reply.Content, "No feedback") {
		t.Errorf("expected no-feedback reply, got %q", reply.Content)
	}

	fb := "Add more trees"
	tracking.get("1001").Feedback = &fb
	reply, err = svc.Handle(context.Background(), id, primary.Member{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(reply.Content, "Add more trees") {
		t.Errorf("expected stored feedback, got %q", reply.Content)
	}
}

func TestInteraction_PlotLink(t *testing.T) {
	svc, _ := newTestInteractionService("https://map.example/plots/%d")

	reply, err := svc.Handle(context.Background(), customIDOf(t, address.SubButtonPlotLink, 42), primary.Member{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.URL != "https://map.example/plots/42" {
		t.Errorf("expected plot url, got %q", reply.URL)
	}
	for _, want := range []string{"X 120, Z -340", "Lyon, France", "/tp 120 64 -340"} {
		if !strings.Contains(reply.Content, want) {
			t.Errorf("expected %q in %q", want, reply.Content)
		}
	}
}

func TestInteraction_Unhandled(t *testing.T) {
	svc, _ := newTestInteractionService("")

	for _, id := range []string{"rules", "", "not-a-number"} {
		reply, err := svc.Handle(context.Background(), id, primary.Member{})
		if err != nil {
			t.Fatalf("Handle(%q) failed: %v", id, err)
		}
		if reply.Handled {
			t.Errorf("expected %q unhandled", id)
		}
	}
}

func TestInteraction_PlotLinkMissingPlot(t *testing.T) {
	svc, _ := newTestInteractionService("")

	if _, err := svc.Handle(context.Background(), customIDOf(t, address.SubButtonPlotLink, 77), primary.Member{}); err == nil {
		t.Error("expected error for an unknown plot")
	}
}
