// Package patch applies an event to a fetched layout. It is pure: it clones
// the model, mutates the parts the event owns and describes the write as an
// effect for the shell to execute.
package patch

import (
	"errors"
	"strconv"

	"github.com/example/plotsync/internal/core/effects"
	"github.com/example/plotsync/internal/core/layout"
	"github.com/example/plotsync/internal/core/plot"
)

// ErrNothingToUpdate is returned when there is no layout to patch, or the
// layout holds no container the engine owns.
var ErrNothingToUpdate = errors.New("nothing to update")

// Options are the display settings for the target status.
type Options struct {
	HistoryMax int    // maximum history length in characters; 0 = unbounded
	Color      int    // accent color of the target status
	Message    string // status display message of the target status
}

// Input is one patch request.
type Input struct {
	Event  plot.Event
	Target plot.Status
	Layout *layout.Model // as fetched; never modified
	Options
}

// Result describes the outcome of a patch.
type Result struct {
	Model   *layout.Model  // patched copy
	Effect  effects.Effect // LayoutWriteEffect, or NoEffect when nothing changed
	Dropped int            // history lines dropped to stay under HistoryMax
	Skipped []string       // media names already attached, not uploaded again
}

// Apply patches a copy of in.Layout for the event.
func Apply(in Input) (Result, error) {
	if in.Layout == nil {
		return Result{}, ErrNothingToUpdate
	}
	m := in.Layout.Clone()
	info, status := m.Info(), m.Status()
	if info == nil && status == nil {
		return Result{}, ErrNothingToUpdate
	}

	res := Result{Model: m}
	var files []effects.File

	if info != nil {
		res.Dropped = info.AppendHistory(plot.HistoryLine(in.Event), in.HistoryMax)
		info.SetAccent(in.Color)
		for _, media := range in.Event.Media {
			if !info.AddAttachment(media.Name) {
				res.Skipped = append(res.Skipped, media.Name)
				continue
			}
			files = append(files, effects.File{Name: media.Name, ContentType: media.ContentType, Data: media.Data})
		}
	}

	if status != nil {
		status.SetAccent(in.Color)
		if in.Message != "" {
			status.SetMessage(in.Message)
		}
		if claims(in.Event.Kind) {
			actor := in.Event.Actor
			status.ClaimOwner(layout.Owner{ID: ownerID(actor), AvatarURL: actor.AvatarURL})
			status.UpsertRow(actor.Key(), ClaimText(in.Event))
		}
	}

	if !m.Dirty() {
		res.Effect = effects.NoEffect{}
		return res, nil
	}

	uploads := make([]string, 0, len(files))
	for _, f := range files {
		uploads = append(uploads, f.Name)
	}
	payload, err := m.Serialize(uploads...)
	if err != nil {
		return Result{}, err
	}
	res.Effect = effects.LayoutWriteEffect{
		ThreadID:  m.ChannelID,
		MessageID: m.MessageID,
		Payload:   payload,
		Files:     files,
	}
	return res, nil
}

func claims(kind plot.EventKind) bool {
	return kind == plot.EventCreate || kind == plot.EventReclaim
}

func ownerID(m plot.Member) string {
	if m.DiscordID != "" {
		return m.DiscordID
	}
	return m.UUID
}

// ClaimText is the status row written for a claiming member.
func ClaimText(e plot.Event) string {
	verb := "claimed"
	if e.Kind == plot.EventReclaim {
		verb = "reclaimed"
	}
	if e.At.IsZero() {
		return verb
	}
	return verb + " <t:" + strconv.FormatInt(e.At.Unix(), 10) + ":R>"
}
