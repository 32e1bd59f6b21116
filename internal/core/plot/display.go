package plot

import (
	"fmt"
	"strings"
)

// DefaultColor is used when a status has no valid configured color.
const DefaultColor = 0x5865F2

var defaultColors = map[Status]int{
	StatusOnGoing:   0x3498DB,
	StatusFinished:  0xF1C40F,
	StatusRejected:  0xE74C3C,
	StatusApproved:  0x2ECC71,
	StatusArchived:  0x95A5A6,
	StatusAbandoned: 0x7F8C8D,
}

var defaultMessages = map[Status]string{
	StatusOnGoing:   "🏗️ Under construction",
	StatusFinished:  "📨 Submitted, waiting for review",
	StatusRejected:  "❌ Rejected, changes requested",
	StatusApproved:  "✅ Approved",
	StatusArchived:  "📦 Archived",
	StatusAbandoned: "🏚️ Abandoned",
}

// DefaultStatusColor returns the built-in accent color of a status.
func DefaultStatusColor(s Status) int {
	if c, ok := defaultColors[s]; ok {
		return c
	}
	return DefaultColor
}

// DefaultStatusMessage returns the built-in display string of a status.
func DefaultStatusMessage(s Status) string {
	if m, ok := defaultMessages[s]; ok {
		return m
	}
	return string(s)
}

var historyVerbs = map[EventKind]string{
	EventCreate:           "Plot claimed by %s",
	EventSubmit:           "Submitted for review by %s",
	EventUndoSubmit:       "Submission withdrawn by %s",
	EventApprove:          "Approved by %s",
	EventReject:           "Rejected by %s",
	EventUndoReview:       "Review undone by %s",
	EventFeedback:         "Feedback updated by %s",
	EventAbandon:          "Abandoned (%s)",
	EventArchive:          "Archived by %s",
	EventReclaim:          "Reclaimed by %s",
	EventInactivityNotice: "Inactivity notice sent to %s",
}

// HistoryLine formats the history entry an event appends to the info container.
// Timestamps use the remote service's relative time markup.
func HistoryLine(e Event) string {
	format, ok := historyVerbs[e.Kind]
	if !ok {
		format = string(e.Kind) + " by %s"
	}
	line := fmt.Sprintf(format, e.Actor.DisplayName())
	if !e.At.IsZero() {
		line = fmt.Sprintf("<t:%d:f> • %s", e.At.Unix(), line)
	}
	if note := strings.Join(strings.Fields(e.Note), " "); note != "" && e.Kind != EventFeedback {
		line += ": " + note
	}
	return line
}

// CardField is one name/value pair on the status card.
type CardField struct {
	Name   string
	Value  string
	Inline bool
}

// StatusCard is the display state of the status-tracker message.
type StatusCard struct {
	Title        string
	Description  string
	Color        int
	ThumbnailURL string
	Fields       []CardField
}

// CardInput is what an event contributes to the status card.
type CardInput struct {
	Status  Status
	Message string // display string for Status
	Color   int
	Owner   Member
}

// Field names on the status card.
const (
	FieldStatus = "Status"
	FieldOwner  = "Owner"
)

// RenderStatusCard recomputes a card for a new status and owner while keeping
// every field the engine does not own.
func RenderStatusCard(prev StatusCard, in CardInput) StatusCard {
	next := prev
	next.Fields = append([]CardField(nil), prev.Fields...)
	next.Description = in.Message
	next.Color = in.Color

	next.Fields = upsertField(next.Fields, CardField{Name: FieldStatus, Value: string(in.Status), Inline: true})
	if in.Owner.UUID != "" || in.Owner.DiscordID != "" {
		next.Fields = upsertField(next.Fields, CardField{Name: FieldOwner, Value: in.Owner.DisplayName(), Inline: true})
		if in.Owner.AvatarURL != "" {
			next.ThumbnailURL = in.Owner.AvatarURL
		}
	}
	return next
}

func upsertField(fields []CardField, f CardField) []CardField {
	for i := range fields {
		if fields[i].Name == f.Name {
			fields[i] = f
			return fields
		}
	}
	return append(fields, f)
}
