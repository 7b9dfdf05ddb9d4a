package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage stored user roles",
}

var roleSetCmd = &cobra.Command{
	Use:   "set USER_ID ROLE",
	Short: "Store a role (USER, TEAM_ADMIN or ADMIN) for a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := valueobjects.ParseRole(args[1])
		if err != nil {
			return err
		}
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		if err := e.principals.SetRole(cmd.Context(), nil, args[0], role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
		return nil
	},
}

func init() {
	roleCmd.AddCommand(roleSetCmd)
	rootCmd.AddCommand(roleCmd)
}
