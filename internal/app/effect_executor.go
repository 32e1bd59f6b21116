// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/plotsync/internal/core/address"
	"github.com/example/plotsync/internal/core/effects"
	"github.com/example/plotsync/internal/core/plot"
	"github.com/example/plotsync/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place remote writes happen.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor executes effects against the remote gateways.
// Each write gets the retry policy's single retry on transient failure.
type DefaultEffectExecutor struct {
	layouts secondary.LayoutGateway
	forum   secondary.ForumGateway
	retry   RetryPolicy
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(layouts secondary.LayoutGateway, forum secondary.ForumGateway, retry RetryPolicy) *DefaultEffectExecutor {
	return &DefaultEffectExecutor{layouts: layouts, forum: forum, retry: retry}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.LayoutWriteEffect:
		return e.executeLayoutWrite(ctx, typed)
	case effects.ThreadEditEffect:
		return e.executeThreadEdit(ctx, typed)
	case effects.StatusMessageEffect:
		return e.executeStatusMessage(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeLayoutWrite(ctx context.Context, eff effects.LayoutWriteEffect) error {
	body, err := json.Marshal(eff.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	req := secondary.EditLayoutRequest{
		ThreadID:  eff.ThreadID,
		MessageID: eff.MessageID,
		Body:      body,
		Files:     toFiles(eff.Files),
	}
	return runWrite(ctx, e.retry, "edit layout", func(ctx context.Context) error {
		return e.layouts.EditLayout(ctx, req)
	})
}

func (e *DefaultEffectExecutor) executeThreadEdit(ctx context.Context, eff effects.ThreadEditEffect) error {
	edit := secondary.ThreadEdit{
		Name:               eff.Name,
		AppliedTags:        eff.AppliedTags,
		AutoArchiveMinutes: eff.AutoArchiveMinutes,
		Locked:             eff.Locked,
		Archived:           eff.Archived,
	}
	return runWrite(ctx, e.retry, "edit thread", func(ctx context.Context) error {
		_, err := e.forum.EditThread(ctx, eff.ThreadID, edit)
		return err
	})
}

func (e *DefaultEffectExecutor) executeStatusMessage(ctx context.Context, eff effects.StatusMessageEffect) error {
	msg := secondary.StatusMessage{
		ChannelID: eff.ChannelID,
		MessageID: eff.MessageID,
		Embed:     toEmbed(eff.Card),
	}
	if eff.Buttons != nil {
		msg.Buttons = toButtons(eff.Buttons)
	}
	return runWrite(ctx, e.retry, "edit status message", func(ctx context.Context) error {
		return e.forum.EditStatusMessage(ctx, eff.ChannelID, eff.MessageID, msg)
	})
}

func toFiles(files []effects.File) []secondary.File {
	if len(files) == 0 {
		return nil
	}
	out := make([]secondary.File, len(files))
	for i, f := range files {
		out[i] = secondary.File{Name: f.Name, ContentType: f.ContentType, Data: f.Data}
	}
	return out
}

func toEmbed(card plot.StatusCard) secondary.Embed {
	e := secondary.Embed{
		Title:        card.Title,
		Description:  card.Description,
		Color:        card.Color,
		ThumbnailURL: card.ThumbnailURL,
	}
	for _, f := range card.Fields {
		e.Fields = append(e.Fields, secondary.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

func fromEmbed(e secondary.Embed) plot.StatusCard {
	card := plot.StatusCard{
		Title:        e.Title,
		Description:  e.Description,
		Color:        e.Color,
		ThumbnailURL: e.ThumbnailURL,
	}
	for _, f := range e.Fields {
		card.Fields = append(card.Fields, plot.CardField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return card
}

func toButtons(buttons []plot.Button) []secondary.Button {
	out := make([]secondary.Button, len(buttons))
	for i, b := range buttons {
		out[i] = secondary.Button{
			CustomID: b.CustomID,
			Label:    b.Label,
			Style:    int(b.Style),
			URL:      b.URL,
			Disabled: b.Disabled,
		}
	}
	return out
}

// fromButtons decodes a fetched row. Buttons whose custom id is not an
// engine address keep a zero Address and are carried through untouched.
func fromButtons(buttons []secondary.Button) []plot.Button {
	out := make([]plot.Button, len(buttons))
	for i, b := range buttons {
		pb := plot.Button{
			CustomID: b.CustomID,
			Label:    b.Label,
			Style:    plot.ButtonStyle(b.Style),
			URL:      b.URL,
			Disabled: b.Disabled,
		}
		if b.CustomID != "" {
			if addr, err := address.ParseCustomID(b.CustomID); err == nil && addr.Recognized() && addr.TopLevel() == address.TopButton {
				pb.Address = addr
			}
		}
		out[i] = pb
	}
	return out
}
