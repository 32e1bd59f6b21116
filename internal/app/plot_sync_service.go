package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/plotsync/internal/core/layout"
	"github.com/example/plotsync/internal/core/patch"
	"github.com/example/plotsync/internal/core/plot"
	"github.com/example/plotsync/internal/ctxutil"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
)

const maxThreadNameRunes = 100

// eventUntrack labels notifications raised while untracking; it is not a plot event.
const eventUntrack plot.EventKind = "untrack"

// PlotSyncServiceImpl implements the PlotSyncService interface.
type PlotSyncServiceImpl struct {
	*PlotUpdateService
	plots     secondary.PlotRepository
	eventLogs secondary.EventLogRepository
	showcase  secondary.LayoutGateway // nil when no showcase webhook is configured
}

var _ primary.PlotSyncService = (*PlotSyncServiceImpl)(nil)

// NewPlotSyncService creates a new PlotSyncService with injected dependencies.
func NewPlotSyncService(updates *PlotUpdateService, plots secondary.PlotRepository, eventLogs secondary.EventLogRepository, showcase secondary.LayoutGateway) *PlotSyncServiceImpl {
	return &PlotSyncServiceImpl{
		PlotUpdateService: updates,
		plots:             plots,
		eventLogs:         eventLogs,
		showcase:          showcase,
	}
}

// RegisterPlot creates the thread, layout and status message of a claimed
// plot and replaces any earlier tracking entry for it.
func (s *PlotSyncServiceImpl) RegisterPlot(ctx context.Context, req primary.RegisterPlotRequest) (*primary.RegisterPlotResponse, error) {
	rec, err := s.getPlot(ctx, req.PlotID)
	if err != nil {
		return nil, err
	}
	status, claimed := plot.StatusOfRecord(rec.Status)
	if !claimed {
		return nil, fmt.Errorf("%w: plot %d has status %s", ErrNotClaimed, rec.ID, rec.Status)
	}

	owner := req.Owner
	if owner.UUID == "" && owner.DiscordID == "" {
		owner = primary.Member{UUID: rec.OwnerUUID, Name: rec.OwnerName, DiscordID: rec.OwnerDiscordID}
	}
	correlationID := s.newCorrelationID()
	ctx = ctxutil.WithCorrelationID(ctx, correlationID)
	ctx = ctxutil.WithActorID(ctx, toMember(owner).Key())

	thread, err := s.CreateThread(ctx, primary.CreateThreadRequest{
		PlotID:  rec.ID,
		Name:    threadName(rec),
		Details: plotDetails(rec),
		Owner:   owner,
		Status:  string(status),
		Media:   req.Media,
	})
	if err != nil {
		s.notify(ctx, secondary.SeverityError, correlationID, rec.ID, plot.EventCreate, PhaseLayout, "could not create the thread", err)
		return nil, err
	}

	tag, _ := s.tags.Lookup(string(status))
	display := displayFor(status, tag)
	card := plot.RenderStatusCard(plot.StatusCard{Title: fmt.Sprintf("Plot #%d", rec.ID)}, plot.CardInput{
		Status:  status,
		Message: display.message,
		Color:   display.color,
		Owner:   toMember(owner),
	})
	buttons, err := plot.DefaultButtons(rec.ID)
	if err != nil {
		return nil, err
	}

	// The thread was just created; a 404 here is propagation lag.
	sent, err := runCall(ctx, s.retry, remoteCall[*secondary.MessageRef, *secondary.MessageRef]{
		Name: "send status message",
		Request: func(ctx context.Context) (*secondary.MessageRef, error) {
			return s.forum.SendStatusMessage(ctx, thread.ChannelID, secondary.StatusMessage{
				Embed:   toEmbed(card),
				Buttons: toButtons(buttons),
			})
		},
	})
	if err != nil {
		s.notify(ctx, secondary.SeverityError, correlationID, rec.ID, plot.EventCreate, PhaseStatusMessage, "could not post the status message", err)
		return nil, err
	}

	record := &secondary.TrackingRecord{
		MessageID:      sent.MessageID,
		ThreadID:       thread.ChannelID,
		PlotID:         rec.ID,
		Status:         string(status),
		OwnerUUID:      owner.UUID,
		OwnerDiscordID: owner.DiscordID,
	}
	if err := s.tracking.Insert(ctx, record); err != nil {
		err = fmt.Errorf("failed to track plot %d: %w", rec.ID, err)
		s.notify(ctx, secondary.SeverityError, correlationID, rec.ID, plot.EventCreate, "", "could not save the tracking entry", err)
		return nil, err
	}

	if s.eventLog != nil {
		if err := s.eventLog.LogEvent(ctx, rec.ID, string(plot.EventCreate), string(status), OutcomeOK, ""); err != nil {
			s.notify(ctx, secondary.SeverityWarn, correlationID, rec.ID, plot.EventCreate, "", "could not record the event", err)
		}
	}
	s.notify(ctx, secondary.SeverityInfo, correlationID, rec.ID, plot.EventCreate, "", "thread created", nil)

	return &primary.RegisterPlotResponse{
		ThreadID:        thread.ChannelID,
		LayoutMessageID: thread.MessageID,
		StatusMessageID: sent.MessageID,
		Status:          string(status),
	}, nil
}

// CreateThread builds a fresh layout and starts a forum thread with it.
// Thread creation is not idempotent, so it is never retried.
func (s *PlotSyncServiceImpl) CreateThread(ctx context.Context, req primary.CreateThreadRequest) (*primary.MessageRef, error) {
	status, err := plot.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	tag, err := s.tags.Lookup(string(status))
	if err != nil {
		return nil, err
	}
	display := displayFor(status, tag)
	owner := toMember(req.Owner)

	created := plot.Event{Kind: plot.EventCreate, Actor: owner, At: s.now()}
	var uploads []string
	var files []secondary.File
	for _, m := range req.Media {
		uploads = append(uploads, m.Name)
		files = append(files, secondary.File{Name: m.Name, ContentType: m.ContentType, Data: m.Data})
	}

	model, err := layout.NewBuilder(req.PlotID).
		Info(layout.InfoSpec{
			Details:      req.Details,
			ThumbnailURL: owner.AvatarURL,
			Accent:       &display.color,
			History:      []string{plot.HistoryLine(created)},
			Attachments:  uploads,
		}).
		Status(layout.StatusSpec{
			Message: display.message,
			Accent:  &display.color,
			Owner:   layout.Owner{ID: ownerIdentity(owner), AvatarURL: owner.AvatarURL},
			Rows:    []layout.Row{{Key: owner.Key(), Text: patch.ClaimText(created)}},
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build layout: %w", err)
	}
	body, err := encodeLayout(model, uploads)
	if err != nil {
		return nil, err
	}

	ref, err := s.layouts.CreateThread(ctx, secondary.CreateThreadRequest{
		Name:        truncateRunes(req.Name, maxThreadNameRunes),
		AppliedTags: []string{tag.TagID},
		Body:        body,
		Files:       files,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &primary.MessageRef{ChannelID: ref.ChannelID, MessageID: ref.MessageID}, nil
}

// Showcase posts a showcase layout as a new thread through the showcase webhook.
func (s *PlotSyncServiceImpl) Showcase(ctx context.Context, req primary.ShowcaseRequest) (*primary.MessageRef, error) {
	if s.showcase == nil {
		return nil, errors.New("showcase webhook is not configured")
	}
	rec, err := s.getPlot(ctx, req.PlotID)
	if err != nil {
		return nil, err
	}
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = threadName(rec)
	}
	approved, _ := s.tags.Lookup(string(plot.StatusApproved))
	display := displayFor(plot.StatusApproved, approved)

	model, err := layout.NewBuilder(rec.ID).
		Showcase(layout.ShowcaseSpec{Title: title, Accent: &display.color, Images: req.Images}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build showcase: %w", err)
	}
	body, err := encodeLayout(model, nil)
	if err != nil {
		return nil, err
	}
	ref, err := s.showcase.CreateThread(ctx, secondary.CreateThreadRequest{
		Name: truncateRunes(title, maxThreadNameRunes),
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create showcase thread: %w", err)
	}
	return &primary.MessageRef{ChannelID: ref.ChannelID, MessageID: ref.MessageID}, nil
}

// GetThreadLayout fetches and decodes the layout of a thread.
func (s *PlotSyncServiceImpl) GetThreadLayout(ctx context.Context, threadID string) (*primary.ThreadLayout, error) {
	model, err := s.fetchLayout(ctx, threadID)
	if err != nil {
		return nil, err
	}

	out := &primary.ThreadLayout{ChannelID: model.ChannelID, MessageID: model.MessageID}
	err = model.Walk(layout.Funcs{
		Info: func(n *layout.Info) error {
			lines := append([]string{n.Details()}, n.History()...)
			out.Nodes = append(out.Nodes, primary.LayoutNode{Kind: n.Kind().String(), Address: n.Address().String(), Lines: lines})
			return nil
		},
		Status: func(n *layout.Status) error {
			lines := []string{n.Message()}
			if owner := n.Owner(); owner.ID != "" {
				lines = append(lines, "owner: "+owner.ID)
			}
			for _, row := range n.Rows() {
				lines = append(lines, row.Key+" "+row.Text)
			}
			out.Nodes = append(out.Nodes, primary.LayoutNode{Kind: n.Kind().String(), Address: n.Address().String(), Lines: lines})
			return nil
		},
		Showcase: func(n *layout.Showcase) error {
			lines := append([]string{n.Title()}, n.Images()...)
			out.Nodes = append(out.Nodes, primary.LayoutNode{Kind: n.Kind().String(), Address: n.Address().String(), Lines: lines})
			return nil
		},
		Opaque: func(n *layout.Opaque) error {
			out.Nodes = append(out.Nodes, primary.LayoutNode{
				Kind:    n.Kind().String(),
				Address: fmt.Sprintf("id %d", uint32(n.Address())),
				Lines:   []string{fmt.Sprintf("component type %d", n.Type())},
			})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	for _, a := range model.Attachments() {
		out.Attachments = append(out.Attachments, a.Filename)
	}
	return out, nil
}

// SetFeedback stores reviewer feedback and records it on the thread.
// Empty feedback clears it.
func (s *PlotSyncServiceImpl) SetFeedback(ctx context.Context, plotID int, feedback string, actor primary.Member) (*primary.UpdateResult, error) {
	entries, err := s.tracking.FindByPlotID(ctx, plotID)
	if err != nil {
		err = fmt.Errorf("failed to find tracking entry for plot %d: %w", plotID, err)
		s.notify(ctx, secondary.SeverityError, "", plotID, plot.EventFeedback, "", "could not read the tracking entry", err)
		return nil, err
	}
	if len(entries) == 0 {
		err := fmt.Errorf("%w: plot %d", ErrEntryNotFound, plotID)
		s.notify(ctx, secondary.SeverityWarn, "", plotID, plot.EventFeedback, "", "plot is not tracked", err)
		return nil, err
	}
	current, err := plot.ParseStatus(entries[0].Status)
	if err != nil {
		return nil, err
	}
	guard := plot.CanTransition(plot.TransitionContext{PlotID: plotID, Current: current, Event: plot.EventFeedback})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	var value *string
	if text := strings.TrimSpace(feedback); text != "" {
		value = &text
	}
	if err := s.tracking.UpdateFeedback(ctx, entries[0].MessageID, value); err != nil {
		err = fmt.Errorf("failed to save feedback for plot %d: %w", plotID, err)
		s.notify(ctx, secondary.SeverityError, "", plotID, plot.EventFeedback, "", "could not save feedback", err)
		return nil, err
	}

	return s.UpdateByPlotID(ctx, plotID, primary.Event{
		Kind:  string(plot.EventFeedback),
		Actor: actor,
		Note:  feedback,
	}, "")
}

// Untrack stops tracking the entry anchored by messageID.
// Store failures are notified with the plot id of the entry when it is known.
func (s *PlotSyncServiceImpl) Untrack(ctx context.Context, messageID string) error {
	entry, err := s.tracking.GetByMessageID(ctx, messageID)
	if err != nil {
		err = fmt.Errorf("failed to untrack %s: %w", messageID, err)
		if !errors.Is(err, secondary.ErrNotFound) {
			s.notify(ctx, secondary.SeverityError, "", 0, eventUntrack, "", "could not read tracking entry "+messageID, err)
		}
		return err
	}
	if err := s.tracking.Delete(ctx, messageID); err != nil {
		err = fmt.Errorf("failed to untrack %s: %w", messageID, err)
		s.notify(ctx, secondary.SeverityError, "", entry.PlotID, eventUntrack, "", "could not delete tracking entry "+messageID, err)
		return err
	}
	return nil
}

// ListTracking lists tracking entries.
func (s *PlotSyncServiceImpl) ListTracking(ctx context.Context, status string, limit int) ([]*primary.TrackingEntry, error) {
	if status != "" {
		if _, err := plot.ParseStatus(status); err != nil {
			return nil, err
		}
	}
	records, err := s.tracking.List(ctx, secondary.TrackingFilters{Status: status, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking entries: %w", err)
	}
	entries := make([]*primary.TrackingEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.TrackingEntry{
			MessageID:      r.MessageID,
			ThreadID:       r.ThreadID,
			PlotID:         r.PlotID,
			Status:         r.Status,
			OwnerUUID:      r.OwnerUUID,
			OwnerDiscordID: r.OwnerDiscordID,
			Feedback:       r.Feedback,
			UpdatedAt:      r.UpdatedAt,
		}
	}
	return entries, nil
}

// History lists processed events of a plot, newest first.
func (s *PlotSyncServiceImpl) History(ctx context.Context, plotID int, limit int) ([]*primary.EventLogEntry, error) {
	if s.eventLogs == nil {
		return nil, nil
	}
	records, err := s.eventLogs.ListByPlot(ctx, plotID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for plot %d: %w", plotID, err)
	}
	entries := make([]*primary.EventLogEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.EventLogEntry{
			Event:         r.Event,
			Status:        r.Status,
			Outcome:       r.Outcome,
			ActorID:       r.ActorID,
			CorrelationID: r.CorrelationID,
			Detail:        r.Detail,
			CreatedAt:     r.CreatedAt,
		}
	}
	return entries, nil
}

func (s *PlotSyncServiceImpl) getPlot(ctx context.Context, plotID int) (*secondary.PlotRecord, error) {
	rec, err := s.plots.GetPlotByID(ctx, plotID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrPlotNotFound, plotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plot %d: %w", plotID, err)
	}
	return rec, nil
}

func encodeLayout(model *layout.Model, uploads []string) ([]byte, error) {
	payload, err := model.Serialize(uploads...)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize layout: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout: %w", err)
	}
	return body, nil
}

func ownerIdentity(m plot.Member) string {
	if m.DiscordID != "" {
		return m.DiscordID
	}
	return m.UUID
}

func threadName(rec *secondary.PlotRecord) string {
	name := fmt.Sprintf("Plot #%d", rec.ID)
	if label := placeLabel(rec); label != "" {
		name += " · " + label
	}
	return name
}

func placeLabel(rec *secondary.PlotRecord) string {
	var parts []string
	for _, p := range []string{rec.City, rec.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func plotDetails(rec *secondary.PlotRecord) string {
	lines := []string{fmt.Sprintf("## Plot #%d", rec.ID)}
	if label := placeLabel(rec); label != "" {
		lines = append(lines, "📍 "+label)
	}
	lines = append(lines, fmt.Sprintf("🧭 X %.0f, Z %.0f", rec.X, rec.Z))
	if rec.McCoordinates != "" {
		lines = append(lines, "`/tp "+rec.McCoordinates+"`")
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}
