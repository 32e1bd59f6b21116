package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/example/plotsync/internal/config"
	"github.com/example/plotsync/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the gateway and answer button presses",
		Long: `Open a gateway connection, route status message button presses to their
handlers and rebind the forum tags whenever the config file changes.
Logs are written as JSON to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.SetDaemon(true)
			logger := wire.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry := wire.TagRegistry()
			if err := registry.Bind(ctx); err != nil {
				return fmt.Errorf("failed to bind forum tags: %w", err)
			}

			config.Watch(wire.ConfigPath(), func(cfg *config.Config, err error) {
				if err != nil {
					logger.Error("config reload failed", "error", err)
					return
				}
				registry.Reconfigure(cfg.Statuses)
				if err := registry.Bind(ctx); err != nil {
					logger.Error("tag rebind failed, keeping previous binding", "error", err)
					return
				}
				logger.Info("config reloaded, forum tags rebound")
			})

			session := wire.Session()
			session.Identify.Intents = discordgo.IntentsGuilds
			remove := wire.InteractionRouter().Attach(session)
			defer remove()

			if err := session.Open(); err != nil {
				return fmt.Errorf("failed to open gateway connection: %w", err)
			}
			defer session.Close()

			logger.Info("listening for interactions", "forum", wire.Config().Discord.ForumChannelID)
			<-ctx.Done()
			logger.Info("shutting down")
			return nil
		},
	}
}
