// Package discord implements the bot side of the remote service with discordgo:
// the forum tag catalog, thread metadata and the status-tracker message.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/example/plotsync/internal/ports/secondary"
)

// session is the subset of *discordgo.Session the gateway calls.
type session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelEditComplex(channelID string, data *discordgo.ChannelEdit, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ session = (*discordgo.Session)(nil)

// ForumGateway implements secondary.ForumGateway over a bot session.
type ForumGateway struct {
	s session
}

var _ secondary.ForumGateway = (*ForumGateway)(nil)

// NewForumGateway creates a gateway backed by a discordgo session.
func NewForumGateway(s *discordgo.Session) *ForumGateway {
	return &ForumGateway{s: s}
}

func newForumGateway(s session) *ForumGateway {
	return &ForumGateway{s: s}
}

// FetchTags returns the tag catalog of a forum channel.
func (g *ForumGateway) FetchTags(ctx context.Context, forumID string) ([]secondary.ForumTag, error) {
	ch, err := g.s.Channel(forumID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, remoteError("fetch forum tags", err)
	}
	tags := make([]secondary.ForumTag, 0, len(ch.AvailableTags))
	for _, t := range ch.AvailableTags {
		tags = append(tags, secondary.ForumTag{ID: t.ID, Name: t.Name})
	}
	return tags, nil
}

// GetThread retrieves thread metadata.
func (g *ForumGateway) GetThread(ctx context.Context, threadID string) (*secondary.Thread, error) {
	ch, err := g.s.Channel(threadID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, remoteError("get thread", err)
	}
	return toThread(ch)
}

// EditThread changes only the supplied thread fields.
func (g *ForumGateway) EditThread(ctx context.Context, threadID string, edit secondary.ThreadEdit) (*secondary.Thread, error) {
	data := &discordgo.ChannelEdit{
		AutoArchiveDuration: edit.AutoArchiveMinutes,
		Locked:              edit.Locked,
		Archived:            edit.Archived,
	}
	if edit.Name != nil {
		data.Name = *edit.Name
	}
	if edit.AppliedTags != nil {
		tags := append([]string(nil), edit.AppliedTags...)
		data.AppliedTags = &tags
	}

	ch, err := g.s.ChannelEditComplex(threadID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, remoteError("edit thread", err)
	}
	return toThread(ch)
}

// SendStatusMessage posts a new status-tracker message.
func (g *ForumGateway) SendStatusMessage(ctx context.Context, channelID string, msg secondary.StatusMessage) (*secondary.MessageRef, error) {
	sent, err := g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{toEmbed(msg.Embed)},
		Components: toComponents(msg.Buttons),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, remoteError("send status message", err)
	}
	if sent == nil || sent.ID == "" || sent.ChannelID == "" {
		return nil, fmt.Errorf("send status message: %w: missing message or channel id", secondary.ErrDecode)
	}
	return &secondary.MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}, nil
}

// FetchStatusMessage retrieves a status-tracker message.
func (g *ForumGateway) FetchStatusMessage(ctx context.Context, channelID, messageID string) (*secondary.StatusMessage, error) {
	m, err := g.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, remoteError("fetch status message", err)
	}
	if m == nil || m.ID == "" {
		return nil, fmt.Errorf("fetch status message: %w: missing message id", secondary.ErrDecode)
	}

	msg := &secondary.StatusMessage{ChannelID: m.ChannelID, MessageID: m.ID}
	if len(m.Embeds) > 0 && m.Embeds[0] != nil {
		msg.Embed = fromEmbed(m.Embeds[0])
	}
	msg.Buttons = fromComponents(m.Components)
	return msg, nil
}

// EditStatusMessage replaces the embed and, when Buttons is non-nil, the button row.
func (g *ForumGateway) EditStatusMessage(ctx context.Context, channelID, messageID string, msg secondary.StatusMessage) error {
	embeds := []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	edit := &discordgo.MessageEdit{
		ID:      messageID,
		Channel: channelID,
		Embeds:  &embeds,
	}
	if msg.Buttons != nil {
		components := toComponents(msg.Buttons)
		if components == nil {
			components = []discordgo.MessageComponent{}
		}
		edit.Components = &components
	}

	if _, err := g.s.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return remoteError("edit status message", err)
	}
	return nil
}

func toThread(ch *discordgo.Channel) (*secondary.Thread, error) {
	if ch == nil || ch.ID == "" {
		return nil, fmt.Errorf("%w: missing channel id", secondary.ErrDecode)
	}
	t := &secondary.Thread{
		ID:          ch.ID,
		ParentID:    ch.ParentID,
		Name:        ch.Name,
		AppliedTags: append([]string(nil), ch.AppliedTags...),
	}
	if md := ch.ThreadMetadata; md != nil {
		t.AutoArchiveMinutes = md.AutoArchiveDuration
		t.Archived = md.Archived
		t.Locked = md.Locked
	}
	return t, nil
}

func toEmbed(e secondary.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func fromEmbed(e *discordgo.MessageEmbed) secondary.Embed {
	out := secondary.Embed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Thumbnail != nil {
		out.ThumbnailURL = e.Thumbnail.URL
	}
	for _, f := range e.Fields {
		if f == nil {
			continue
		}
		out.Fields = append(out.Fields, secondary.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func toComponents(buttons []secondary.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		btn := discordgo.Button{
			Label:    b.Label,
			Style:    discordgo.ButtonStyle(b.Style),
			Disabled: b.Disabled,
		}
		if btn.Style == discordgo.LinkButton {
			btn.URL = b.URL
		} else {
			btn.CustomID = b.CustomID
		}
		row.Components = append(row.Components, btn)
	}
	return []discordgo.MessageComponent{row}
}

// fromComponents flattens the buttons of every action row. Decoded messages
// hold pointer components; values are accepted too.
func fromComponents(components []discordgo.MessageComponent) []secondary.Button {
	var buttons []secondary.Button
	for _, c := range components {
		var children []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			if row != nil {
				children = row.Components
			}
		case discordgo.ActionsRow:
			children = row.Components
		}
		for _, child := range children {
			switch b := child.(type) {
			case *discordgo.Button:
				if b != nil {
					buttons = append(buttons, fromButton(*b))
				}
			case discordgo.Button:
				buttons = append(buttons, fromButton(b))
			}
		}
	}
	return buttons
}

func fromButton(b discordgo.Button) secondary.Button {
	return secondary.Button{
		CustomID: b.CustomID,
		Label:    b.Label,
		Style:    int(b.Style),
		URL:      b.URL,
		Disabled: b.Disabled,
	}
}

// remoteError maps a discordgo failure onto secondary.RemoteError so callers
// can tell a 404 from a permanent failure.
func remoteError(op string, err error) error {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	out := &secondary.RemoteError{Op: op}
	if rest.Response != nil {
		out.StatusCode = rest.Response.StatusCode
	}
	if rest.Message != nil {
		out.Code = rest.Message.Code
		out.Message = rest.Message.Message
	}
	if out.StatusCode == 0 {
		out.StatusCode = http.StatusInternalServerError
	}
	return out
}
