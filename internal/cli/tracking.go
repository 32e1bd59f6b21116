package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/plotsync/internal/wire"
)

var trackingCmd = &cobra.Command{
	Use:   "tracking",
	Short: "Inspect tracked plots",
}

var trackingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked plots",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		return wire.PlotAdapter().List(cmd.Context(), status, limit)
	},
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Inspect thread layouts",
}

var layoutShowCmd = &cobra.Command{
	Use:   "show [thread-id]",
	Short: "Fetch and decode the layout of a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.PlotAdapter().ShowLayout(cmd.Context(), args[0])
	},
}

func init() {
	// tracking list flags
	trackingListCmd.Flags().StringP("status", "s", "", "Filter by status")
	trackingListCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries (0 = all)")

	// Register subcommands
	trackingCmd.AddCommand(trackingListCmd)
	layoutCmd.AddCommand(layoutShowCmd)
}

// TrackingCmd returns the tracking command
func TrackingCmd() *cobra.Command {
	return trackingCmd
}

// LayoutCmd returns the layout command
func LayoutCmd() *cobra.Command {
	return layoutCmd
}
