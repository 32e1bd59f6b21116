package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/wire"
)

func parsePlotID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid plot id %q", arg)
	}
	return id, nil
}

// bindTags resolves the status tags before any command that writes to a thread.
func bindTags(ctx context.Context) error {
	if err := wire.TagRegistry().Bind(ctx); err != nil {
		return fmt.Errorf("failed to bind forum tags: %w", err)
	}
	return nil
}

func addActorFlags(cmd *cobra.Command) {
	cmd.Flags().String("actor-discord", "", "Discord id of the acting member")
	cmd.Flags().String("actor-uuid", "", "Game uuid of the acting member")
	cmd.Flags().String("actor-name", "", "Display name of the acting member")
}

func actorFromFlags(cmd *cobra.Command) primary.Member {
	discordID, _ := cmd.Flags().GetString("actor-discord")
	uuid, _ := cmd.Flags().GetString("actor-uuid")
	name, _ := cmd.Flags().GetString("actor-name")
	return primary.Member{UUID: uuid, Name: name, DiscordID: discordID}
}

func readMedia(paths []string) ([]primary.Media, error) {
	media := make([]primary.Media, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read media: %w", err)
		}
		media = append(media, primary.Media{
			Name:        filepath.Base(p),
			ContentType: http.DetectContentType(data),
			Data:        data,
		})
	}
	return media, nil
}

// RegisterCmd returns the register command
func RegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register [plot-id]",
		Short: "Create the forum thread of a claimed plot and start tracking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plotID, err := parsePlotID(args[0])
			if err != nil {
				return err
			}
			paths, _ := cmd.Flags().GetStringSlice("media")
			media, err := readMedia(paths)
			if err != nil {
				return err
			}
			if err := bindTags(cmd.Context()); err != nil {
				return err
			}
			return wire.PlotAdapter().Register(cmd.Context(), plotID, media)
		},
	}
	cmd.Flags().StringSlice("media", nil, "Image files to attach to the layout")
	return cmd
}

// UpdateCmd returns the update command
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [plot-id] [event]",
		Short: "Apply an event to a tracked plot",
		Long: `Apply an event to a tracked plot: patch the layout, retag the thread and
refresh the status message, then save the new status.

Events: submit, undo_submit, approve, reject, undo_review, feedback, abandon,
archive, reclaim, inactivity_notice.

Examples:
  plotsync update 42 approve --actor-discord 222
  plotsync update 42 submit --media shot.png
  plotsync update 42 reject --note "roof is floating"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plotID, err := parsePlotID(args[0])
			if err != nil {
				return err
			}
			note, _ := cmd.Flags().GetString("note")
			status, _ := cmd.Flags().GetString("status")
			paths, _ := cmd.Flags().GetStringSlice("media")
			media, err := readMedia(paths)
			if err != nil {
				return err
			}
			if err := bindTags(cmd.Context()); err != nil {
				return err
			}

			return wire.PlotAdapter().Update(cmd.Context(), plotID, primary.Event{
				Kind:  args[1],
				Actor: actorFromFlags(cmd),
				Note:  note,
				Media: media,
			}, status)
		},
	}
	addActorFlags(cmd)
	cmd.Flags().String("note", "", "Note appended to the history line")
	cmd.Flags().String("status", "", "Override the target status")
	cmd.Flags().StringSlice("media", nil, "Image files to attach to the layout")
	return cmd
}

// FeedbackCmd returns the feedback command
func FeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback [plot-id] [text]",
		Short: "Store reviewer feedback for a reviewed plot",
		Long: `Store reviewer feedback and record it on the thread. Omit the text to clear it.

Examples:
  plotsync feedback 42 "Great detailing" --actor-discord 222
  plotsync feedback 42`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plotID, err := parsePlotID(args[0])
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			if err := bindTags(cmd.Context()); err != nil {
				return err
			}
			return wire.PlotAdapter().Feedback(cmd.Context(), plotID, text, actorFromFlags(cmd))
		},
	}
	addActorFlags(cmd)
	return cmd
}

// UntrackCmd returns the untrack command
func UntrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrack [status-message-id]",
		Short: "Stop tracking a status message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.PlotAdapter().Untrack(cmd.Context(), args[0])
		},
	}
}

// ShowcaseCmd returns the showcase command
func ShowcaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showcase [plot-id] [image-url...]",
		Short: "Post a showcase thread for a plot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plotID, err := parsePlotID(args[0])
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("title")
			if err := bindTags(cmd.Context()); err != nil {
				return err
			}
			return wire.PlotAdapter().Showcase(cmd.Context(), plotID, title, args[1:])
		},
	}
	cmd.Flags().String("title", "", "Thread title (defaults to the plot name)")
	return cmd
}

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [plot-id]",
		Short: "List processed events of a plot, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plotID, err := parsePlotID(args[0])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return wire.PlotAdapter().History(cmd.Context(), plotID, limit)
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of events")
	return cmd
}
