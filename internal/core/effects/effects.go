// Package effects defines effect types as data structures representing remote writes.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import (
	"github.com/example/plotsync/internal/core/layout"
	"github.com/example/plotsync/internal/core/plot"
)

// Effect is the base interface for all effects.
// Effects represent remote operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// File is an upload attached to a layout write.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// LayoutWriteEffect replaces the components of the layout message anchoring a thread.
type LayoutWriteEffect struct {
	ThreadID  string
	MessageID string
	Payload   layout.Payload
	Files     []File
}

func (e LayoutWriteEffect) EffectType() string { return "layout_write" }

// ThreadEditEffect changes thread metadata. Nil fields are left untouched.
type ThreadEditEffect struct {
	ThreadID           string
	Name               *string
	AppliedTags        []string
	AutoArchiveMinutes int
	Locked             *bool
	Archived           *bool
}

func (e ThreadEditEffect) EffectType() string { return "thread_edit" }

// StatusMessageEffect re-renders the status-tracker message.
// A nil Buttons slice keeps the existing row untouched.
type StatusMessageEffect struct {
	ChannelID string
	MessageID string
	Card      plot.StatusCard
	Buttons   []plot.Button
}

func (e StatusMessageEffect) EffectType() string { return "status_message" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
