// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/plotsync/internal/core/address"
	"github.com/example/plotsync/internal/ports/primary"
)

// PlotAdapter is a thin adapter that translates CLI operations to PlotSyncService calls.
// It depends only on the PlotSyncService interface, enabling easy testing with mocks.
type PlotAdapter struct {
	service primary.PlotSyncService
	out     io.Writer
}

// NewPlotAdapter creates a new PlotAdapter with the given service.
func NewPlotAdapter(service primary.PlotSyncService, out io.Writer) *PlotAdapter {
	return &PlotAdapter{
		service: service,
		out:     out,
	}
}

// Register creates the thread of a claimed plot and starts tracking it.
func (a *PlotAdapter) Register(ctx context.Context, plotID int, media []primary.Media) error {
	resp, err := a.service.RegisterPlot(ctx, primary.RegisterPlotRequest{PlotID: plotID, Media: media})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Registered plot %d in thread %s\n", plotID, resp.ThreadID)
	fmt.Fprintf(a.out, "  Status:         %s\n", resp.Status)
	fmt.Fprintf(a.out, "  Status message: %s\n", resp.StatusMessageID)
	return nil
}

// Update applies an event to a tracked plot and prints the outcome of each phase.
// It returns an error when any phase failed so scripts can detect partial updates.
func (a *PlotAdapter) Update(ctx context.Context, plotID int, event primary.Event, status string) error {
	res, err := a.service.UpdateByPlotID(ctx, plotID, event, status)
	if res != nil {
		a.printResult(res)
	}
	if err != nil {
		return err
	}
	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d phases failed for plot %d", len(failed), len(res.Phases), plotID)
	}
	return nil
}

// Feedback stores reviewer feedback for a plot. Empty text clears it.
func (a *PlotAdapter) Feedback(ctx context.Context, plotID int, text string, actor primary.Member) error {
	res, err := a.service.SetFeedback(ctx, plotID, text, actor)
	if res != nil {
		a.printResult(res)
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintf(a.out, "✓ Feedback cleared for plot %d\n", plotID)
	} else {
		fmt.Fprintf(a.out, "✓ Feedback saved for plot %d\n", plotID)
	}
	return nil
}

func (a *PlotAdapter) printResult(res *primary.UpdateResult) {
	fmt.Fprintf(a.out, "Plot %d → %s (correlation %s)\n", res.Action.PlotID, res.TargetStatus, res.Action.CorrelationID)
	for _, p := range res.Phases {
		switch {
		case p.Skipped:
			fmt.Fprintf(a.out, "  - %-15s nothing to update\n", p.Phase)
		case p.OK:
			fmt.Fprintf(a.out, "  ✓ %-15s updated\n", p.Phase)
		default:
			fmt.Fprintf(a.out, "  ✗ %-15s %v\n", p.Phase, p.Err)
		}
	}
}

// Untrack stops tracking a status message.
func (a *PlotAdapter) Untrack(ctx context.Context, messageID string) error {
	if err := a.service.Untrack(ctx, messageID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Stopped tracking %s\n", messageID)
	return nil
}

// List lists tracking entries with optional status filter.
func (a *PlotAdapter) List(ctx context.Context, status string, limit int) error {
	entries, err := a.service.ListTracking(ctx, status, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No tracked plots found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-10s %-20s %-20s %s\n", "PLOT", "STATUS", "THREAD", "STATUS MESSAGE", "UPDATED")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-6d %-10s %-20s %-20s %s\n", e.PlotID, e.Status, e.ThreadID, e.MessageID, e.UpdatedAt)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ShowLayout prints the decoded layout of a thread.
func (a *PlotAdapter) ShowLayout(ctx context.Context, threadID string) error {
	l, err := a.service.GetThreadLayout(ctx, threadID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nLayout: %s (thread %s)\n", l.MessageID, l.ChannelID)
	for _, n := range l.Nodes {
		fmt.Fprintf(a.out, "\n[%s] %s\n", n.Kind, n.Address)
		for _, line := range n.Lines {
			fmt.Fprintf(a.out, "  %s\n", line)
		}
	}
	if len(l.Attachments) > 0 {
		fmt.Fprintf(a.out, "\nAttachments: %s\n", strings.Join(l.Attachments, ", "))
	}
	fmt.Fprintln(a.out)
	return nil
}

// History prints the processed events of a plot.
func (a *PlotAdapter) History(ctx context.Context, plotID, limit int) error {
	entries, err := a.service.History(ctx, plotID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(a.out, "No events recorded for plot %d\n", plotID)
		return nil
	}

	fmt.Fprintf(a.out, "\n%-20s %-14s %-10s %-8s %s\n", "TIME", "EVENT", "STATUS", "OUTCOME", "ACTOR")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-20s %-14s %-10s %-8s %s\n", e.CreatedAt, e.Event, e.Status, e.Outcome, e.ActorID)
		if e.Detail != "" {
			fmt.Fprintf(a.out, "  %s\n", e.Detail)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// Showcase posts a showcase thread for a plot.
func (a *PlotAdapter) Showcase(ctx context.Context, plotID int, title string, images []string) error {
	ref, err := a.service.Showcase(ctx, primary.ShowcaseRequest{PlotID: plotID, Title: title, Images: images})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Showcased plot %d in thread %s\n", plotID, ref.ChannelID)
	return nil
}

// TagAdapter prints the status to forum tag binding.
type TagAdapter struct {
	service primary.TagService
	out     io.Writer
}

// NewTagAdapter creates a new TagAdapter with the given service.
func NewTagAdapter(service primary.TagService, out io.Writer) *TagAdapter {
	return &TagAdapter{service: service, out: out}
}

// Check binds every status and prints the result.
func (a *TagAdapter) Check(ctx context.Context) error {
	if err := a.service.Bind(ctx); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%-10s %-20s %-16s %-8s %s\n", "STATUS", "TAG ID", "TAG", "COLOR", "MESSAGE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────")
	for _, ref := range a.service.References() {
		fmt.Fprintf(a.out, "%-10s %-20s %-16s #%06X  %s\n", ref.Status, ref.TagID, ref.TagName, ref.Color, ref.Message)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "✓ Every status is bound to a forum tag")
	return nil
}

// Decode explains a component id or custom id.
func Decode(out io.Writer, value string) error {
	addr, err := address.ParseCustomID(strings.TrimSpace(value))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Address:  %s\n", addr)
	fmt.Fprintf(out, "Raw:      %s (0x%08X)\n", strconv.FormatUint(uint64(addr), 10), uint32(addr))
	fmt.Fprintf(out, "Position: %d\n", addr.Position())
	fmt.Fprintf(out, "Top:      %s (%d)\n", addr.TopLevel(), addr.RawTopLevel())
	fmt.Fprintf(out, "Sub:      %s\n", addr.SubLevel())
	if !addr.Recognized() {
		fmt.Fprintln(out, "✗ Not an address this engine owns")
	}
	return nil
}
