package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/plotsync/internal/core/effects"
	"github.com/example/plotsync/internal/core/layout"
	"github.com/example/plotsync/internal/core/patch"
	"github.com/example/plotsync/internal/core/plot"
	"github.com/example/plotsync/internal/ctxutil"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
)

// Phase names reported in UpdateResult.Phases, in order.
const (
	PhaseLayout        = "layout"
	PhaseThread        = "thread"
	PhaseStatusMessage = "status_message"
)

// Event log outcomes.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// UpdateOptions are the display settings applied by every update.
type UpdateOptions struct {
	HistoryMax         int
	ArchivePrefix      string
	AutoArchiveMinutes int
}

// PlotUpdateService drives the three remote phases of a plot update and
// writes the target status back once they have all finished.
type PlotUpdateService struct {
	tracking secondary.TrackingRepository
	layouts  secondary.LayoutGateway
	forum    secondary.ForumGateway
	tags     primary.TagService
	executor EffectExecutor
	notifier secondary.Notifier
	eventLog secondary.EventLogWriter
	retry    RetryPolicy
	opts     UpdateOptions

	now              func() time.Time
	newCorrelationID func() string
}

// PlotUpdateDeps holds the collaborators of a PlotUpdateService.
type PlotUpdateDeps struct {
	Tracking secondary.TrackingRepository
	Layouts  secondary.LayoutGateway
	Forum    secondary.ForumGateway
	Tags     primary.TagService
	Executor EffectExecutor
	Notifier secondary.Notifier
	EventLog secondary.EventLogWriter // optional
	Retry    RetryPolicy
	Options  UpdateOptions
}

// NewPlotUpdateService creates a new PlotUpdateService with injected dependencies.
func NewPlotUpdateService(deps PlotUpdateDeps) *PlotUpdateService {
	return &PlotUpdateService{
		tracking:         deps.Tracking,
		layouts:          deps.Layouts,
		forum:            deps.Forum,
		tags:             deps.Tags,
		executor:         deps.Executor,
		notifier:         deps.Notifier,
		eventLog:         deps.EventLog,
		retry:            deps.Retry,
		opts:             deps.Options,
		now:              time.Now,
		newCorrelationID: uuid.NewString,
	}
}

// UpdateByPlotID derives the action from the plot's tracking entry, checks the
// transition and runs the update. A plot without an entry fails with
// ErrEntryNotFound before any remote call.
func (s *PlotUpdateService) UpdateByPlotID(ctx context.Context, plotID int, event primary.Event, status string) (*primary.UpdateResult, error) {
	kind, err := plot.ParseEvent(event.Kind)
	if err != nil {
		return nil, err
	}

	entries, err := s.tracking.FindByPlotID(ctx, plotID)
	if err != nil {
		err = fmt.Errorf("failed to find tracking entry for plot %d: %w", plotID, err)
		s.notify(ctx, secondary.SeverityError, "", plotID, kind, "", "could not read the tracking entry", err)
		return nil, err
	}
	if len(entries) == 0 {
		err := fmt.Errorf("%w: plot %d", ErrEntryNotFound, plotID)
		s.notify(ctx, secondary.SeverityWarn, "", plotID, kind, "", "plot is not tracked", err)
		return nil, err
	}

	action := ActionFromRecord(entries[0])
	action.CorrelationID = s.newCorrelationID()

	current, err := plot.ParseStatus(action.CurrentStatus)
	if err != nil {
		return nil, fmt.Errorf("tracking entry %s: %w", action.StatusMessageID, err)
	}
	guard := plot.CanTransition(plot.TransitionContext{PlotID: plotID, Current: current, Event: kind})
	if err := guard.Error(); err != nil {
		s.notify(ctx, secondary.SeverityWarn, action.CorrelationID, plotID, kind, "", "event rejected", err)
		return nil, err
	}

	return s.UpdatePlot(ctx, action, event, status)
}

// ActionFromRecord builds the update action for a tracking entry.
func ActionFromRecord(r *secondary.TrackingRecord) primary.UpdateAction {
	return primary.UpdateAction{
		PlotID:          r.PlotID,
		ThreadID:        r.ThreadID,
		StatusMessageID: r.MessageID,
		CurrentStatus:   r.Status,
		OwnerUUID:       r.OwnerUUID,
		OwnerDiscordID:  r.OwnerDiscordID,
	}
}

// UpdatePlot runs the layout, thread and status message phases concurrently,
// waits for all of them, and then writes the target status back whatever
// their outcome. Phase failures are reported in the result and notified;
// the returned error is reserved for invalid input and the write-back.
func (s *PlotUpdateService) UpdatePlot(ctx context.Context, action primary.UpdateAction, event primary.Event, status string) (*primary.UpdateResult, error) {
	ev, err := s.toEvent(event)
	if err != nil {
		return nil, err
	}
	current, err := plot.ParseStatus(action.CurrentStatus)
	if err != nil {
		current = plot.StatusOnGoing
	}
	target := ev.Kind.TargetStatus(current)
	if status != "" {
		if target, err = plot.ParseStatus(status); err != nil {
			return nil, err
		}
	}

	correlationID := action.CorrelationID
	if correlationID == "" {
		correlationID = s.newCorrelationID()
	}
	ctx = ctxutil.WithCorrelationID(ctx, correlationID)
	ctx = ctxutil.WithActorID(ctx, ev.Actor.Key())

	tag, tagErr := s.tags.Lookup(string(target))
	display := displayFor(target, tag)

	phases := []func(context.Context) primary.PhaseResult{
		func(ctx context.Context) primary.PhaseResult {
			return s.layoutPhase(ctx, action, ev, target, display)
		},
		func(ctx context.Context) primary.PhaseResult {
			return s.threadPhase(ctx, action, ev.Kind, tag, tagErr)
		},
		func(ctx context.Context) primary.PhaseResult {
			return s.statusMessagePhase(ctx, action, ev, target, display)
		},
	}

	result := &primary.UpdateResult{
		Action:       action,
		TargetStatus: string(target),
		Phases:       make([]primary.PhaseResult, len(phases)),
	}
	var wg sync.WaitGroup
	for i, run := range phases {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Phases[i] = run(ctx)
		}()
	}
	wg.Wait()

	for _, p := range result.Failed() {
		s.notify(ctx, secondary.SeverityError, correlationID, action.PlotID, ev.Kind, p.Phase,
			fmt.Sprintf("%s update failed", strings.ReplaceAll(p.Phase, "_", " ")), p.Err)
	}

	var writeErr error
	if err := s.tracking.UpdateStatus(ctx, action.StatusMessageID, string(target)); err != nil {
		writeErr = fmt.Errorf("failed to write status %s for plot %d: %w", target, action.PlotID, err)
		s.notify(ctx, secondary.SeverityError, correlationID, action.PlotID, ev.Kind, "", "could not save the new status", writeErr)
	}

	s.logEvent(ctx, action.PlotID, ev.Kind, target, result, writeErr)
	if writeErr == nil && len(result.Failed()) == 0 {
		s.notify(ctx, secondary.SeverityInfo, correlationID, action.PlotID, ev.Kind, "",
			fmt.Sprintf("updated to %s", target), nil)
	}
	return result, writeErr
}

type statusDisplay struct {
	color   int
	message string
}

func displayFor(status plot.Status, tag *primary.TagReference) statusDisplay {
	if tag == nil {
		return statusDisplay{color: plot.DefaultStatusColor(status), message: plot.DefaultStatusMessage(status)}
	}
	return statusDisplay{color: tag.Color, message: tag.Message}
}

func (s *PlotUpdateService) layoutPhase(ctx context.Context, action primary.UpdateAction, ev plot.Event, target plot.Status, display statusDisplay) primary.PhaseResult {
	model, err := s.fetchLayout(ctx, action.ThreadID)
	if err != nil {
		return phaseFailed(PhaseLayout, err)
	}

	res, err := patch.Apply(patch.Input{
		Event:  ev,
		Target: target,
		Layout: model,
		Options: patch.Options{
			HistoryMax: s.opts.HistoryMax,
			Color:      display.color,
			Message:    display.message,
		},
	})
	if errors.Is(err, patch.ErrNothingToUpdate) {
		return phaseSkipped(PhaseLayout)
	}
	if err != nil {
		return phaseFailed(PhaseLayout, err)
	}
	if _, ok := res.Effect.(effects.NoEffect); ok {
		return phaseSkipped(PhaseLayout)
	}
	if err := s.executor.Execute(ctx, []effects.Effect{res.Effect}); err != nil {
		return phaseFailed(PhaseLayout, err)
	}
	return phaseOK(PhaseLayout)
}

// fetchLayout downloads and decodes the layout anchoring a thread. The layout
// is the thread's starter message, so both ids are the thread id.
func (s *PlotUpdateService) fetchLayout(ctx context.Context, threadID string) (*layout.Model, error) {
	model, err := runCall(ctx, s.retry, remoteCall[[]byte, *layout.Model]{
		Name: "fetch layout",
		Request: func(ctx context.Context) ([]byte, error) {
			return s.layouts.FetchLayout(ctx, threadID, threadID)
		},
		Decode: layout.Parse,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayoutUnavailable, err)
	}
	return model, nil
}

func (s *PlotUpdateService) threadPhase(ctx context.Context, action primary.UpdateAction, kind plot.EventKind, tag *primary.TagReference, tagErr error) primary.PhaseResult {
	if tagErr != nil {
		return phaseFailed(PhaseThread, tagErr)
	}

	editCtx := plot.ThreadEditContext{
		Event:              kind,
		TagID:              tag.TagID,
		ArchivePrefix:      s.opts.ArchivePrefix,
		AutoArchiveMinutes: s.opts.AutoArchiveMinutes,
	}
	if kind == plot.EventArchive {
		thread, err := runCall(ctx, s.retry, remoteCall[*secondary.Thread, *secondary.Thread]{
			Name: "get thread",
			Request: func(ctx context.Context) (*secondary.Thread, error) {
				return s.forum.GetThread(ctx, action.ThreadID)
			},
		})
		if err != nil {
			return phaseFailed(PhaseThread, err)
		}
		editCtx.CurrentName = thread.Name
	}

	plan := plot.PlanThreadEdit(editCtx)
	eff := effects.ThreadEditEffect{
		ThreadID:           action.ThreadID,
		Name:               plan.Name,
		AppliedTags:        plan.AppliedTags,
		AutoArchiveMinutes: plan.AutoArchiveMinutes,
	}
	if err := s.executor.Execute(ctx, []effects.Effect{eff}); err != nil {
		return phaseFailed(PhaseThread, err)
	}
	return phaseOK(PhaseThread)
}

func (s *PlotUpdateService) statusMessagePhase(ctx context.Context, action primary.UpdateAction, ev plot.Event, target plot.Status, display statusDisplay) primary.PhaseResult {
	type fetched struct {
		card    plot.StatusCard
		buttons []plot.Button
	}
	prev, err := runCall(ctx, s.retry, remoteCall[*secondary.StatusMessage, fetched]{
		Name: "fetch status message",
		Request: func(ctx context.Context) (*secondary.StatusMessage, error) {
			return s.forum.FetchStatusMessage(ctx, action.ThreadID, action.StatusMessageID)
		},
		Decode: func(m *secondary.StatusMessage) (fetched, error) {
			if m == nil {
				return fetched{}, secondary.ErrDecode
			}
			return fetched{card: fromEmbed(m.Embed), buttons: fromButtons(m.Buttons)}, nil
		},
	})
	if err != nil {
		return phaseFailed(PhaseStatusMessage, err)
	}

	// Only claiming events change the owner; the rendered owner field is kept otherwise.
	var owner plot.Member
	if ev.Kind == plot.EventCreate || ev.Kind == plot.EventReclaim {
		owner = ev.Actor
	}
	card := plot.RenderStatusCard(prev.card, plot.CardInput{
		Status:  target,
		Message: display.message,
		Color:   display.color,
		Owner:   owner,
	})

	var buttons []plot.Button
	if plan := plot.PlanButtonRow(ev.Kind); !plan.Empty() {
		buttons, err = plot.ApplyRowPlan(prev.buttons, plan, action.PlotID)
		if err != nil {
			return phaseFailed(PhaseStatusMessage, err)
		}
		if buttons == nil {
			buttons = []plot.Button{}
		}
	}

	eff := effects.StatusMessageEffect{
		ChannelID: action.ThreadID,
		MessageID: action.StatusMessageID,
		Card:      card,
		Buttons:   buttons,
	}
	if err := s.executor.Execute(ctx, []effects.Effect{eff}); err != nil {
		return phaseFailed(PhaseStatusMessage, err)
	}
	return phaseOK(PhaseStatusMessage)
}

func phaseOK(phase string) primary.PhaseResult {
	return primary.PhaseResult{Phase: phase, OK: true}
}

func phaseSkipped(phase string) primary.PhaseResult {
	return primary.PhaseResult{Phase: phase, OK: true, Skipped: true}
}

func phaseFailed(phase string, err error) primary.PhaseResult {
	return primary.PhaseResult{Phase: phase, Err: err}
}

func (s *PlotUpdateService) toEvent(e primary.Event) (plot.Event, error) {
	kind, err := plot.ParseEvent(e.Kind)
	if err != nil {
		return plot.Event{}, err
	}
	at := e.At
	if at.IsZero() {
		at = s.now()
	}
	ev := plot.Event{
		Kind:  kind,
		Actor: toMember(e.Actor),
		Note:  e.Note,
		At:    at,
	}
	for _, m := range e.Media {
		ev.Media = append(ev.Media, plot.Media{Name: m.Name, ContentType: m.ContentType, Data: m.Data})
	}
	return ev, nil
}

func toMember(m primary.Member) plot.Member {
	return plot.Member{UUID: m.UUID, Name: m.Name, DiscordID: m.DiscordID, AvatarURL: m.AvatarURL}
}

func (s *PlotUpdateService) notify(ctx context.Context, severity secondary.Severity, correlationID string, plotID int, kind plot.EventKind, phase, what string, err error) {
	if s.notifier == nil {
		return
	}
	n := secondary.Notification{
		Severity:      severity,
		CorrelationID: correlationID,
		PlotID:        plotID,
		Event:         string(kind),
		Phase:         phase,
		Summary:       fmt.Sprintf("Plot %d (%s): %s", plotID, kind, what),
	}
	if err != nil {
		n.Detail = err.Error()
	}
	s.notifier.Notify(ctx, n)
}

func (s *PlotUpdateService) logEvent(ctx context.Context, plotID int, kind plot.EventKind, target plot.Status, result *primary.UpdateResult, writeErr error) {
	if s.eventLog == nil {
		return
	}
	failedPhases := result.Failed()
	outcome := OutcomeOK
	switch {
	case len(failedPhases) == len(result.Phases) || writeErr != nil:
		outcome = OutcomeFailed
	case len(failedPhases) > 0:
		outcome = OutcomePartial
	}

	var details []string
	for _, p := range failedPhases {
		details = append(details, fmt.Sprintf("%s: %v", p.Phase, p.Err))
	}
	if writeErr != nil {
		details = append(details, writeErr.Error())
	}

	if err := s.eventLog.LogEvent(ctx, plotID, string(kind), string(target), outcome, strings.Join(details, "; ")); err != nil {
		s.notify(ctx, secondary.SeverityWarn, ctxutil.CorrelationFromContext(ctx), plotID, kind, "", "could not record the event", err)
	}
}
