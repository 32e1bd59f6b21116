package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/plotsync/internal/core/address"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
)

// interactionHandler answers a button press for one plot.
type interactionHandler func(ctx context.Context, plotID int, member primary.Member) (*primary.InteractionReply, error)

// InteractionServiceImpl routes button presses by decoding their custom id.
type InteractionServiceImpl struct {
	handlers map[address.SubLevel]interactionHandler
	tracking secondary.TrackingRepository
	plots    secondary.PlotRepository
	mapURL   string
	helpURL  string
}

var _ primary.InteractionService = (*InteractionServiceImpl)(nil)

// NewInteractionService creates an interaction service with the help,
// feedback and plot link handlers registered. mapURL may contain %d for the
// plot id.
func NewInteractionService(tracking secondary.TrackingRepository, plots secondary.PlotRepository, mapURL, helpURL string) *InteractionServiceImpl {
	s := &InteractionServiceImpl{
		tracking: tracking,
		plots:    plots,
		mapURL:   mapURL,
		helpURL:  helpURL,
	}
	s.handlers = map[address.SubLevel]interactionHandler{
		address.SubButtonHelp:     s.help,
		address.SubButtonFeedback: s.feedback,
		address.SubButtonPlotLink: s.plotLink,
	}
	return s
}

// Handle decodes customID and dispatches to the registered handler.
// Ids that are not engine buttons get an unhandled reply, not an error.
func (s *InteractionServiceImpl) Handle(ctx context.Context, customID string, member primary.Member) (*primary.InteractionReply, error) {
	addr, err := address.ParseCustomID(customID)
	if err != nil || !addr.Recognized() || addr.TopLevel() != address.TopButton {
		return unhandled(), nil
	}
	handler, ok := s.handlers[addr.SubLevel()]
	if !ok {
		return unhandled(), nil
	}
	reply, err := handler(ctx, addr.Position(), member)
	if err != nil {
		return nil, fmt.Errorf("failed to handle %s: %w", addr, err)
	}
	reply.Handled = true
	return reply, nil
}

func unhandled() *primary.InteractionReply {
	return &primary.InteractionReply{Content: "This button is no longer handled.", Ephemeral: true}
}

func (s *InteractionServiceImpl) help(ctx context.Context, plotID int, member primary.Member) (*primary.InteractionReply, error) {
	return &primary.InteractionReply{
		Content:   fmt.Sprintf("Need help with plot #%d? Ask in this thread and a reviewer will answer.", plotID),
		URL:       s.helpURL,
		Ephemeral: true,
	}, nil
}

func (s *InteractionServiceImpl) feedback(ctx context.Context, plotID int, member primary.Member) (*primary.InteractionReply, error) {
	entries, err := s.tracking.FindByPlotID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].Feedback == nil {
		return &primary.InteractionReply{Content: fmt.Sprintf("No feedback has been left for plot #%d yet.", plotID), Ephemeral: true}, nil
	}
	return &primary.InteractionReply{
		Content:   fmt.Sprintf("Feedback for plot #%d:\n>>> %s", plotID, *entries[0].Feedback),
		Ephemeral: true,
	}, nil
}

func (s *InteractionServiceImpl) plotLink(ctx context.Context, plotID int, member primary.Member) (*primary.InteractionReply, error) {
	rec, err := s.plots.GetPlotByID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	content := fmt.Sprintf("Plot #%d is at X %.0f, Z %.0f", rec.ID, rec.X, rec.Z)
	if label := placeLabel(rec); label != "" {
		content += " (" + label + ")"
	}
	if rec.McCoordinates != "" {
		content += "\n`/tp " + rec.McCoordinates + "`"
	}

	reply := &primary.InteractionReply{Content: content, Ephemeral: true}
	if s.mapURL != "" {
		reply.URL = s.mapURL
		if strings.Contains(s.mapURL, "%d") {
			reply.URL = fmt.Sprintf(s.mapURL, plotID)
		}
	}
	return reply, nil
}
