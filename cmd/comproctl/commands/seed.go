package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/seed"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/users"
)

var (
	// Seed flags
	seedFile      string
	adminPassword string
)

// seedCmd loads menus, roles and the first admin
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load menus, roles and the first administrator",
	Long: `Apply a seed document. Menus are upserted by URL, roles by name, and each
role's menu grants are replaced. An existing admin account is never modified.

The admin password is read from --admin-password, then COMPRO_ADMIN_PASSWORD,
then the seed file.

Examples:
  comproctl seed                                  # Apply the built-in seed
  comproctl seed --file deploy/seed.yaml          # Apply a custom seed
  COMPRO_ADMIN_PASSWORD=secret123 comproctl seed  # First install`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd)
	},
}

func loadSeed() (seed.File, error) {
	var (
		file seed.File
		err  error
	)
	if seedFile == "" {
		file, err = seed.Default()
	} else {
		file, err = seed.LoadFile(seedFile)
	}
	if err != nil {
		return seed.File{}, err
	}
	if file.Admin != nil {
		if env := os.Getenv("COMPRO_ADMIN_PASSWORD"); env != "" {
			file.Admin.Password = env
		}
		if adminPassword != "" {
			file.Admin.Password = adminPassword
		}
	}
	return file, nil
}

func runSeed(cmd *cobra.Command) error {
	file, err := loadSeed()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	gw := db.NewGateway(pool)
	hasher := users.NewService(users.NewRepository(gw, shared.NewAuditLogger()))
	res, err := seed.Apply(ctx, gw, hasher, file)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "menus: %d\nroles: %d\n", res.Menus, res.Roles)
	if res.AdminCreated {
		fmt.Fprintf(out, "admin %s created\n", file.Admin.Username)
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed YAML file (defaults to the built-in seed)")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password for a newly created admin")
	rootCmd.AddCommand(seedCmd)
}
