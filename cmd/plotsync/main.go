package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/plotsync/internal/cli"
	"github.com/example/plotsync/internal/version"
	"github.com/example/plotsync/internal/wire"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "plotsync",
		Short:   "plotsync - keep plot forum threads in sync with plot progress",
		Version: version.String(),
		Long: `plotsync tracks building plots in a forum channel. Each claimed plot gets a
thread whose layout, tags and status message follow the plot through review.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.SetConfigPath(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.plotsync/config.yml)")

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.TagsCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	// Plot lifecycle
	rootCmd.AddCommand(cli.RegisterCmd())
	rootCmd.AddCommand(cli.UpdateCmd())
	rootCmd.AddCommand(cli.FeedbackCmd())
	rootCmd.AddCommand(cli.UntrackCmd())
	rootCmd.AddCommand(cli.ShowcaseCmd())

	// Inspection
	rootCmd.AddCommand(cli.TrackingCmd())
	rootCmd.AddCommand(cli.LayoutCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.DecodeCmd())
	rootCmd.AddCommand(cli.InteractCmd())

	// Long-running
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
