// Package notify implements operator notifications: structured log records for
// long-running processes and colored lines for CLI commands.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"

	"github.com/example/plotsync/internal/ports/secondary"
)

// SlogNotifier writes each notification as one structured log record.
type SlogNotifier struct {
	logger *slog.Logger
}

var _ secondary.Notifier = (*SlogNotifier)(nil)

// NewSlogNotifier creates a notifier logging through logger (slog.Default if nil).
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

// Notify logs n at the level matching its severity.
func (s *SlogNotifier) Notify(ctx context.Context, n secondary.Notification) {
	attrs := []any{
		"plot_id", n.PlotID,
		"event", n.Event,
		"correlation_id", n.CorrelationID,
	}
	if n.Phase != "" {
		attrs = append(attrs, "phase", n.Phase)
	}
	if n.Detail != "" {
		attrs = append(attrs, "detail", n.Detail)
	}
	s.logger.Log(ctx, level(n.Severity), n.Summary, attrs...)
}

func level(s secondary.Severity) slog.Level {
	switch s {
	case secondary.SeverityError:
		return slog.LevelError
	case secondary.SeverityWarn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// ConsoleNotifier prints notifications as colored lines.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ secondary.Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier creates a notifier printing to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Notify prints n. Notifications may arrive from concurrent phases.
func (c *ConsoleNotifier) Notify(ctx context.Context, n secondary.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s %s\n", marker(n.Severity), n.Summary)
	if n.Detail != "" {
		fmt.Fprintf(c.w, "  %s\n", color.New(color.Faint).Sprint(n.Detail))
	}
}

func marker(s secondary.Severity) string {
	switch s {
	case secondary.SeverityError:
		return color.New(color.FgRed).Sprint("✗")
	case secondary.SeverityWarn:
		return color.New(color.FgYellow).Sprint("!")
	default:
		return color.New(color.FgGreen).Sprint("✓")
	}
}

// Fanout delivers every notification to each notifier in order.
type Fanout []secondary.Notifier

var _ secondary.Notifier = Fanout(nil)

// Notify forwards n.
func (f Fanout) Notify(ctx context.Context, n secondary.Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
