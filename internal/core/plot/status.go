// Package plot contains the pure business logic for plot tracking: statuses,
// events, transition guards, and the planners that decide what each remote
// artifact should look like after an event.
// This is part of the Functional Core - no I/O, only pure functions.
package plot

import (
	"fmt"
	"strings"
	"time"
)

// Status is the tracking status of a plot thread.
type Status string

const (
	StatusOnGoing   Status = "on_going"
	StatusFinished  Status = "finished"
	StatusRejected  Status = "rejected"
	StatusApproved  Status = "approved"
	StatusArchived  Status = "archived"
	StatusAbandoned Status = "abandoned"
)

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusOnGoing,
		StatusFinished,
		StatusRejected,
		StatusApproved,
		StatusArchived,
		StatusAbandoned,
	}
}

// ParseStatus parses a status key such as "on_going".
func ParseStatus(s string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, status := range AllStatuses() {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown plot status %q", s)
}

// Terminal reports whether no further work is expected on the plot.
func (s Status) Terminal() bool {
	return s == StatusArchived || s == StatusAbandoned
}

// StatusOfRecord maps a plot database status onto a tracking status.
// Unclaimed plots have no tracking status.
func StatusOfRecord(recordStatus string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(recordStatus)) {
	case "unfinished":
		return StatusOnGoing, true
	case "unreviewed":
		return StatusFinished, true
	case "completed":
		return StatusApproved, true
	default:
		return "", false
	}
}

// EventKind identifies what happened to a plot.
type EventKind string

const (
	EventCreate           EventKind = "create"
	EventSubmit           EventKind = "submit"
	EventUndoSubmit       EventKind = "undo_submit"
	EventApprove          EventKind = "approve"
	EventReject           EventKind = "reject"
	EventUndoReview       EventKind = "undo_review"
	EventFeedback         EventKind = "feedback"
	EventAbandon          EventKind = "abandon"
	EventArchive          EventKind = "archive"
	EventReclaim          EventKind = "reclaim"
	EventInactivityNotice EventKind = "inactivity_notice"
)

var eventTargets = map[EventKind]Status{
	EventCreate:     StatusOnGoing,
	EventSubmit:     StatusFinished,
	EventUndoSubmit: StatusOnGoing,
	EventApprove:    StatusApproved,
	EventReject:     StatusRejected,
	EventUndoReview: StatusFinished,
	EventAbandon:    StatusAbandoned,
	EventArchive:    StatusArchived,
	EventReclaim:    StatusOnGoing,
}

// AllEvents returns every event kind.
func AllEvents() []EventKind {
	return []EventKind{
		EventCreate, EventSubmit, EventUndoSubmit, EventApprove, EventReject,
		EventUndoReview, EventFeedback, EventAbandon, EventArchive, EventReclaim,
		EventInactivityNotice,
	}
}

// ParseEvent parses an event key such as "approve".
func ParseEvent(s string) (EventKind, error) {
	normalized := EventKind(strings.ToLower(strings.TrimSpace(s)))
	for _, kind := range AllEvents() {
		if kind == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown plot event %q", s)
}

// TargetStatus returns the status an event moves a plot to.
// Feedback and inactivity notices keep the current status.
func (e EventKind) TargetStatus(current Status) Status {
	if target, ok := eventTargets[e]; ok {
		return target
	}
	return current
}

// Closes reports whether the event ends interaction with the plot thread.
func (e EventKind) Closes() bool {
	return e == EventAbandon || e == EventArchive
}

// Member is the acting or owning builder.
type Member struct {
	UUID      string // game identity
	Name      string
	DiscordID string // optional remote identity
	AvatarURL string
}

// DisplayName returns a mention when the member has a remote identity, else the name.
func (m Member) DisplayName() string {
	if m.DiscordID != "" {
		return "<@" + m.DiscordID + ">"
	}
	if m.Name != "" {
		return m.Name
	}
	return "system"
}

// Key identifies the member in claim rows.
func (m Member) Key() string {
	if m.DiscordID != "" {
		return "<@" + m.DiscordID + ">"
	}
	return m.UUID
}

// Media is a file attached by an event (e.g. a submission screenshot).
type Media struct {
	Name        string
	ContentType string
	Data        []byte
}

// Event is one occurrence of an EventKind with its payload.
type Event struct {
	Kind  EventKind
	Actor Member
	Note  string
	Media []Media
	At    time.Time
}
