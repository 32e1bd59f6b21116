package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/example/plotsync/internal/core/address"
	"github.com/example/plotsync/internal/core/layout"
	"github.com/example/plotsync/internal/core/plot"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
)

func reviewer() primary.Member {
	return primary.Member{UUID: "uuid-222", Name: "sam", DiscordID: "222"}
}

func phase(t *testing.T, res *primary.UpdateResult, name string) primary.PhaseResult {
	t.Helper()
	for _, p := range res.Phases {
		if p.Phase == name {
			return p
		}
	}
	t.Fatalf("phase %s missing from result", name)
	return primary.PhaseResult{}
}

func fieldValue(e secondary.Embed, name string) string {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

func TestUpdateByPlotID_ApprovePlot42(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusFinished)

	res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "approve", Actor: reviewer()}, "")
	if err != nil {
		t.Fatalf("UpdateByPlotID failed: %v", err)
	}

	if res.TargetStatus != "approved" {
		t.Errorf("expected target approved, got %s", res.TargetStatus)
	}
	if res.Action.PlotID != 42 || res.Action.StatusMessageID != "1001" || res.Action.ThreadID != "2002" {
		t.Errorf("unexpected action %+v", res.Action)
	}
	if res.Action.CorrelationID != "corr-1" {
		t.Errorf("expected correlation id corr-1, got %q", res.Action.CorrelationID)
	}
	if len(res.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(res.Phases))
	}
	for _, p := range res.Phases {
		if !p.OK || p.Skipped {
			t.Errorf("expected phase %s to succeed, got %+v", p.Phase, p)
		}
	}

	// Layout: one write whose history ends with the approval line.
	if len(h.layouts.edits) != 1 {
		t.Fatalf("expected 1 layout edit, got %d", len(h.layouts.edits))
	}
	edit := h.layouts.edits[0]
	if edit.ThreadID != "2002" || edit.MessageID != "2002" {
		t.Errorf("expected layout write to thread 2002, got %s/%s", edit.ThreadID, edit.MessageID)
	}
	written, err := layout.Parse(edit.Body)
	if err != nil {
		t.Fatalf("written layout does not parse: %v", err)
	}
	history := written.Info().History()
	if last := history[len(history)-1]; !strings.HasSuffix(last, "Approved by <@222>") {
		t.Errorf("unexpected last history line %q", last)
	}
	if written.Status().Message() != "Approved, well done" {
		t.Errorf("expected configured approved message, got %q", written.Status().Message())
	}
	if accent, ok := written.Status().Accent(); !ok || accent != 0x2ECC71 {
		t.Errorf("expected approved accent, got %06X", accent)
	}

	// Thread: tags replaced by the approved tag, name untouched.
	if len(h.forum.threadEdits) != 1 {
		t.Fatalf("expected 1 thread edit, got %d", len(h.forum.threadEdits))
	}
	te := h.forum.threadEdits[0]
	if len(te.AppliedTags) != 1 || te.AppliedTags[0] != "901" {
		t.Errorf("expected applied tags [901], got %v", te.AppliedTags)
	}
	if te.Name != nil {
		t.Errorf("expected name untouched, got %q", *te.Name)
	}

	// Status message: status field updated, foreign field kept, feedback button added.
	if len(h.forum.statusEdits) != 1 {
		t.Fatalf("expected 1 status message edit, got %d", len(h.forum.statusEdits))
	}
	sm := h.forum.statusEdits[0]
	if got := fieldValue(sm.Embed, plot.FieldStatus); got != "approved" {
		t.Errorf("expected status field approved, got %q", got)
	}
	if got := fieldValue(sm.Embed, "Reviewer notes"); got != "keep me" {
		t.Errorf("expected foreign field kept, got %q", got)
	}
	if sm.Embed.Color != 0x2ECC71 {
		t.Errorf("expected approved color, got %06X", sm.Embed.Color)
	}
	if len(sm.Buttons) != 4 {
		t.Fatalf("expected 4 buttons, got %d", len(sm.Buttons))
	}
	if sm.Buttons[2].CustomID != "rules" {
		t.Errorf("expected foreign button kept in place, got %q", sm.Buttons[2].CustomID)
	}
	if sm.Buttons[3].CustomID != customIDOf(t, address.SubButtonFeedback, 42) {
		t.Errorf("expected feedback button appended, got %q", sm.Buttons[3].CustomID)
	}

	if got := h.tracking.get("1001").Status; got != "approved" {
		t.Errorf("expected tracking status approved, got %s", got)
	}
	if len(h.eventLog.events) != 1 || h.eventLog.events[0].outcome != OutcomeOK || h.eventLog.events[0].status != "approved" {
		t.Errorf("unexpected event log %+v", h.eventLog.events)
	}
	if errs := h.notifier.bySeverity(secondary.SeverityError); len(errs) != 0 {
		t.Errorf("expected no error notifications, got %+v", errs)
	}
}

func TestUpdatePlot_ThreadFailureStillWritesStatus(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusFinished)
	h.forum.editThreadErr = &secondary.RemoteError{Op: "edit thread", StatusCode: http.StatusForbidden, Code: 50013, Message: "Missing Permissions"}

	action := ActionFromRecord(h.tracking.get("1001"))
	res, err := h.svc.UpdatePlot(context.Background(), action, primary.Event{Kind: "approve", Actor: reviewer()}, "")
	if err != nil {
		t.Fatalf("UpdatePlot failed: %v", err)
	}

	if res.Action != action {
		t.Errorf("expected action returned unchanged, got %+v", res.Action)
	}
	if p := phase(t, res, PhaseThread); p.OK || p.Err == nil {
		t.Errorf("expected thread phase to fail, got %+v", p)
	}
	if p := phase(t, res, PhaseLayout); !p.OK {
		t.Errorf("expected layout phase to succeed, got %v", p.Err)
	}
	if p := phase(t, res, PhaseStatusMessage); !p.OK {
		t.Errorf("expected status phase to succeed, got %v", p.Err)
	}
	if len(h.forum.threadEdits) != 1 {
		t.Errorf("expected permanent failure not to be retried, got %d edits", len(h.forum.threadEdits))
	}

	if got := h.tracking.get("1001").Status; got != "approved" {
		t.Errorf("expected status written back despite failure, got %s", got)
	}

	errs := h.notifier.bySeverity(secondary.SeverityError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error notification, got %d", len(errs))
	}
	n := errs[0]
	if n.Phase != PhaseThread || n.PlotID != 42 || n.Event != "approve" {
		t.Errorf("unexpected notification %+v", n)
	}
	if !strings.Contains(n.Summary, "Plot 42") || !strings.Contains(n.Detail, "Missing Permissions") {
		t.Errorf("expected readable summary and raw detail, got %q / %q", n.Summary, n.Detail)
	}
	if n.CorrelationID == "" {
		t.Error("expected a correlation id on the notification")
	}

	if len(h.eventLog.events) != 1 || h.eventLog.events[0].outcome != OutcomePartial {
		t.Errorf("expected partial outcome, got %+v", h.eventLog.events)
	}
	if !strings.HasPrefix(h.eventLog.events[0].detail, "thread:") {
		t.Errorf("expected failed phase in detail, got %q", h.eventLog.events[0].detail)
	}
}

func TestUpdateByPlotID_NotTrackedMakesNoRemoteCalls(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusFinished)

	_, err := h.svc.UpdateByPlotID(context.Background(), 7, primary.Event{Kind: "approve", Actor: reviewer()}, "")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if n := h.layouts.calls(); n != 0 {
		t.Errorf("expected no layout calls, got %d", n)
	}
	if n := h.forum.remoteCalls(); n != 0 {
		t.Errorf("expected no forum calls, got %d", n)
	}
	if len(h.notifier.bySeverity(secondary.SeverityWarn)) != 1 {
		t.Error("expected one warning notification")
	}
}

func TestUpdateByPlotID_GuardRejectsArchivedPlot(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusArchived)

	_, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "approve", Actor: reviewer()}, "")
	if err == nil || !strings.Contains(err.Error(), "archived") {
		t.Fatalf("expected archived guard error, got %v", err)
	}
	if h.layouts.calls() != 0 || h.forum.remoteCalls() != 0 {
		t.Error("expected no remote calls for a rejected event")
	}
	if got := h.tracking.get("1001").Status; got != "archived" {
		t.Errorf("expected status untouched, got %s", got)
	}
}

func TestUpdatePlot_LayoutRetry(t *testing.T) {
	tests := []struct {
		name       string
		fetchErrs  []error
		wantOK     bool
		wantCalls  int
		wantEdits  int
		wantLayout bool
	}{
		{name: "transient once then success", fetchErrs: []error{notFound("fetch layout")}, wantOK: true, wantCalls: 2, wantEdits: 1},
		{name: "transient twice fails", fetchErrs: []error{notFound("fetch layout"), notFound("fetch layout")}, wantCalls: 2, wantLayout: true},
		{name: "permanent not retried", fetchErrs: []error{&secondary.RemoteError{Op: "fetch layout", StatusCode: 500}}, wantCalls: 1, wantLayout: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newUpdateHarness(t, plot.StatusOnGoing)
			h.layouts.fetchErrs = tt.fetchErrs

			res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "submit", Actor: primary.Member{UUID: "uuid-111", DiscordID: "111"}}, "")
			if err != nil {
				t.Fatalf("UpdateByPlotID failed: %v", err)
			}
			p := phase(t, res, PhaseLayout)
			if p.OK != tt.wantOK {
				t.Errorf("expected layout OK=%v, got %+v", tt.wantOK, p)
			}
			if tt.wantLayout && !errors.Is(p.Err, ErrLayoutUnavailable) {
				t.Errorf("expected ErrLayoutUnavailable, got %v", p.Err)
			}
			if h.layouts.fetchCalls != tt.wantCalls {
				t.Errorf("expected %d fetches, got %d", tt.wantCalls, h.layouts.fetchCalls)
			}
			if len(h.layouts.edits) != tt.wantEdits {
				t.Errorf("expected %d edits, got %d", tt.wantEdits, len(h.layouts.edits))
			}
			if got := h.tracking.get("1001").Status; got != "finished" {
				t.Errorf("expected status finished, got %s", got)
			}
		})
	}
}

func TestUpdatePlot_NothingToPatchIsSkipped(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusOnGoing)
	h.layouts.layouts["2002"] = []byte(`{"id":"2002","channel_id":"2002","components":[{"type":10,"content":"posted by hand"}]}`)

	res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "submit", Actor: primary.Member{DiscordID: "111"}}, "")
	if err != nil {
		t.Fatalf("UpdateByPlotID failed: %v", err)
	}
	p := phase(t, res, PhaseLayout)
	if !p.OK || !p.Skipped {
		t.Errorf("expected skipped layout phase, got %+v", p)
	}
	if len(h.layouts.edits) != 0 {
		t.Errorf("expected no layout write, got %d", len(h.layouts.edits))
	}
}

func TestUpdatePlot_SubmitKeepsButtonRow(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusOnGoing)

	_, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "submit", Actor: primary.Member{DiscordID: "111"}}, "")
	if err != nil {
		t.Fatalf("UpdateByPlotID failed: %v", err)
	}
	if len(h.forum.statusEdits) != 1 {
		t.Fatalf("expected 1 status edit, got %d", len(h.forum.statusEdits))
	}
	if h.forum.statusEdits[0].Buttons != nil {
		t.Errorf("expected button row untouched, got %+v", h.forum.statusEdits[0].Buttons)
	}
}

func TestUpdatePlot_ArchiveRenamesAndDisablesButtons(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusApproved)

	res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "archive", Actor: reviewer()}, "")
	if err != nil {
		t.Fatalf("UpdateByPlotID failed: %v", err)
	}
	if len(res.Failed()) != 0 {
		t.Fatalf("unexpected failures %+v", res.Failed())
	}

	te := h.forum.threadEdits[0]
	if te.Name == nil || *te.Name != "[Archived] Plot #42 · Lyon, France" {
		t.Errorf("unexpected archive name %v", te.Name)
	}
	if te.AutoArchiveMinutes != 60 {
		t.Errorf("expected auto-archive 60, got %d", te.AutoArchiveMinutes)
	}
	if te.Locked != nil {
		t.Error("expected lock untouched")
	}
	if len(te.AppliedTags) != 1 || te.AppliedTags[0] != "904" {
		t.Errorf("expected archived tag, got %v", te.AppliedTags)
	}

	buttons := h.forum.statusEdits[0].Buttons
	if len(buttons) != 3 {
		t.Fatalf("expected 3 buttons, got %d", len(buttons))
	}
	for _, b := range buttons {
		if !b.Disabled {
			t.Errorf("expected button %q disabled", b.Label)
		}
	}
}

func TestUpdatePlot_StatusWriteFailureIsReturned(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusFinished)
	h.tracking.updateStatusErr = errors.New("database is locked")

	res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "reject", Actor: reviewer()}, "")
	if err == nil || !strings.Contains(err.Error(), "database is locked") {
		t.Fatalf("expected write-back error, got %v", err)
	}
	if res == nil || len(res.Failed()) != 0 {
		t.Fatalf("expected remote phases to succeed, got %+v", res)
	}
	if len(h.eventLog.events) != 1 || h.eventLog.events[0].outcome != OutcomeFailed {
		t.Errorf("expected failed outcome, got %+v", h.eventLog.events)
	}
}

func TestUpdatePlot_ExplicitStatusOverridesEventTarget(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusApproved)

	res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: "feedback", Actor: reviewer(), Note: "nice roof"}, "rejected")
	if err != nil {
		t.Fatalf("UpdateByPlotID failed: %v", err)
	}
	if res.TargetStatus != "rejected" {
		t.Errorf("expected rejected, got %s", res.TargetStatus)
	}
	if got := h.tracking.get("1001").Status; got != "rejected" {
		t.Errorf("expected rejected written back, got %s", got)
	}
}

func TestUpdatePlot_InvalidInput(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusFinished)
	action := ActionFromRecord(h.tracking.get("1001"))

	if _, err := h.svc.UpdatePlot(context.Background(), action, primary.Event{Kind: "explode"}, ""); err == nil {
		t.Error("expected unknown event error")
	}
	if _, err := h.svc.UpdatePlot(context.Background(), action, primary.Event{Kind: "approve"}, "done"); err == nil {
		t.Error("expected unknown status error")
	}
	if h.layouts.calls() != 0 {
		t.Error("expected invalid input to make no remote calls")
	}
}

func TestUpdatePlot_KeepsOwnerNameWithoutDiscordID(t *testing.T) {
	h := newUpdateHarness(t, plot.StatusFinished)
	h.tracking.entries["1001"].OwnerDiscordID = ""
	msg := h.forum.statusMessages["1001"]
	for i := range msg.Embed.Fields {
		if msg.Embed.Fields[i].Name == plot.FieldOwner {
			msg.Embed.Fields[i].Value = "alex"
		}
	}

	for _, kind := range []string{"approve", "undo_review", "archive"} {
		res, err := h.svc.UpdateByPlotID(context.Background(), 42, primary.Event{Kind: kind, Actor: reviewer()}, "")
		if err != nil {
			t.Fatalf("%s failed: %v", kind, err)
		}
		if p := phase(t, res, PhaseStatusMessage); !p.OK {
			t.Fatalf("%s: status message phase failed: %v", kind, p.Err)
		}
		edited := h.forum.statusEdits[len(h.forum.statusEdits)-1]
		if got := fieldValue(edited.Embed, plot.FieldOwner); got != "alex" {
			t.Errorf("%s: expected owner alex, got %q", kind, got)
		}
	}
}
