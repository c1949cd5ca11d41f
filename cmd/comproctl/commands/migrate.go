package commands

import (
	"github.com/spf13/cobra"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run the embedded goose migrations against the configured database.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back the latest migration
  status  - Show migration status
  reset   - Roll back every migration`,
}

func migrateSubcommand(command, short, example string) *cobra.Command {
	return &cobra.Command{
		Use:     command,
		Short:   short,
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, command)
		},
	}
}

func runMigrate(cmd *cobra.Command, command string) error {
	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return db.Migrate(ctx, pool, command)
}

func init() {
	migrateCmd.AddCommand(
		migrateSubcommand("up", "Apply pending migrations", "  comproctl migrate up"),
		migrateSubcommand("down", "Roll back the latest migration", "  comproctl migrate down --db postgres://localhost/compro"),
		migrateSubcommand("status", "Show migration status", "  comproctl migrate status"),
		migrateSubcommand("reset", "Roll back every migration", "  comproctl migrate reset"),
	)
	rootCmd.AddCommand(migrateCmd)
}
