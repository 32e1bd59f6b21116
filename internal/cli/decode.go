package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/plotsync/internal/adapters/cli"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/version"
	"github.com/example/plotsync/internal/wire"
)

// DecodeCmd returns the decode command
func DecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [custom-id]",
		Short: "Decode a button custom id or layout container id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cliadapter.Decode(os.Stdout, args[0])
		},
	}
}

// InteractCmd returns the interact command
func InteractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interact [custom-id]",
		Short: "Simulate a button press and print the reply",
		Long: `Run a button custom id through the interaction handlers as if a member had
pressed it, without a gateway connection.

Examples:
  plotsync interact 151191594 --actor-discord 111`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := wire.InteractionService().Handle(cmd.Context(), args[0], actorFromFlags(cmd))
			if err != nil {
				return err
			}
			printReply(reply)
			return nil
		},
	}
	addActorFlags(cmd)
	return cmd
}

func printReply(reply *primary.InteractionReply) {
	if !reply.Handled {
		fmt.Println("✗ No handler for this id")
	}
	fmt.Println(reply.Content)
	if reply.URL != "" {
		fmt.Println(reply.URL)
	}
}

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}
