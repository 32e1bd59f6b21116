package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/plotsync/internal/wire"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Check the status to forum tag binding",
}

var tagsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve every status against the forum tags",
	Long: `Fetch the forum tag catalog and resolve the tag configured for every status.
Fails naming the first status whose tag is missing or unknown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.TagAdapter().Check(cmd.Context())
	},
}

func init() {
	tagsCmd.AddCommand(tagsCheckCmd)
}

// TagsCmd returns the tags command
func TagsCmd() *cobra.Command {
	return tagsCmd
}
