package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/example/plotsync/internal/ports/primary"
)

// InteractionRouter forwards button presses to the interaction service and
// answers each with an ephemeral reply.
type InteractionRouter struct {
	svc    primary.InteractionService
	logger *slog.Logger
}

// NewInteractionRouter creates a router for svc.
func NewInteractionRouter(svc primary.InteractionService, logger *slog.Logger) *InteractionRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionRouter{svc: svc, logger: logger}
}

// Attach registers the router on a session. The returned func removes it.
func (r *InteractionRouter) Attach(s *discordgo.Session) func() {
	return s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		resp := r.Respond(context.Background(), i)
		if resp == nil {
			return
		}
		if err := s.InteractionRespond(i.Interaction, resp); err != nil {
			r.logger.Warn("interaction reply failed", "interaction", i.ID, "error", err)
		}
	})
}

// Respond builds the reply to an interaction, or nil when it is not a
// component interaction.
func (r *InteractionRouter) Respond(ctx context.Context, i *discordgo.InteractionCreate) *discordgo.InteractionResponse {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	customID := i.MessageComponentData().CustomID

	reply, err := r.svc.Handle(ctx, customID, memberOf(i.Interaction))
	if err != nil {
		r.logger.Error("interaction failed", "custom_id", customID, "error", err)
		return ephemeral("Something went wrong while handling this button.")
	}
	if !reply.Handled {
		r.logger.Info("no handler for interaction", "custom_id", customID)
	}

	content := reply.Content
	if reply.URL != "" {
		content += "\n" + reply.URL
	}
	resp := ephemeral(content)
	if !reply.Ephemeral {
		resp.Data.Flags = 0
	}
	return resp
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func memberOf(i *discordgo.Interaction) primary.Member {
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return primary.Member{}
	}
	return primary.Member{
		Name:      user.Username,
		DiscordID: user.ID,
		AvatarURL: user.AvatarURL(""),
	}
}
