package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/users"
)

var (
	// Admin flags
	adminUsername string
	adminRoleIDs  []int64
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

// adminCreateCmd creates an admin outside the HTTP surface
var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create a user, its employee record and role assignments in one transaction.
The password is read from --password or COMPRO_ADMIN_PASSWORD.

Examples:
  comproctl admin create --username budi --role 1 --role 2 --password rahasia123`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdminCreate(cmd)
	},
}

func adminInput() (users.CreateAdminInput, error) {
	password := adminPassword
	if password == "" {
		password = os.Getenv("COMPRO_ADMIN_PASSWORD")
	}
	if password == "" {
		return users.CreateAdminInput{}, errors.New("admin create: --password or COMPRO_ADMIN_PASSWORD is required")
	}
	return users.CreateAdminInput{
		Username: adminUsername,
		Password: password,
		RoleIDs:  shared.ToIDList(adminRoleIDs),
	}, nil
}

func runAdminCreate(cmd *cobra.Command) error {
	in, err := adminInput()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := users.NewService(users.NewRepository(db.NewGateway(pool), shared.NewAuditLogger()))
	admin, err := service.CreateAdmin(ctx, in, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %d)\n", admin.Username, admin.ID)
	return nil
}

func init() {
	adminCreateCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "Login name")
	adminCreateCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "Password (min 8 characters)")
	adminCreateCmd.Flags().Int64SliceVarP(&adminRoleIDs, "role", "r", nil, "Role id, repeatable")
	_ = adminCreateCmd.MarkFlagRequired("username")
	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}
