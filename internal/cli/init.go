package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/plotsync/internal/config"
	"github.com/example/plotsync/internal/db"
	"github.com/example/plotsync/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var seed, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the plotsync config and database",
		Long: `Write a default config to ~/.plotsync/config.yml (unless one exists) and
create or migrate the tracking database it points at.

Examples:
  plotsync init
  plotsync init --seed      # also load development plots into the plot database`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := wire.ConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Printf("Config already exists at %s\n", path)
			} else {
				if err := config.Save(path, config.Default()); err != nil {
					return err
				}
				fmt.Printf("✓ Config written to %s\n", path)
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			conn, dialect, err := db.Open(cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer conn.Close()
			fmt.Printf("✓ Database initialized (%s)\n", dialect)

			if seed {
				if dialect != db.DialectSQLite {
					return fmt.Errorf("--seed is only supported for sqlite databases")
				}
				if err := db.SeedFixtures(conn); err != nil {
					return err
				}
				fmt.Println("✓ Development plots loaded")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  fill in discord.token, discord.forum_channel_id and webhook.* in the config")
			fmt.Println("  plotsync tags check")
			fmt.Println("  plotsync register <plot-id>")
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Load development plots covering every plot status")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config with the defaults")
	return cmd
}
