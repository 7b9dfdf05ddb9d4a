package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Manage teams",
}

var (
	teamOwner       string
	teamDescription string
	memberAsAdmin   bool
)

var teamsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a team owned by --owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		team, err := e.teams.Create(cmd.Context(), userFor(teamOwner), args[0], teamDescription)
		if err != nil {
			return err
		}
		printTeam(cmd, team)
		return nil
	},
}

var teamsAddMemberCmd = &cobra.Command{
	Use:   "add-member TEAM_ID USER_ID",
	Short: "Add a user to a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		team, err := e.teams.AddMember(cmd.Context(), operator, args[0], args[1], memberAsAdmin)
		if err != nil {
			return err
		}
		printTeam(cmd, team)
		return nil
	},
}

var teamsRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member TEAM_ID USER_ID",
	Short: "Remove a user from a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		team, err := e.teams.RemoveMember(cmd.Context(), operator, args[0], args[1])
		if err != nil {
			return err
		}
		printTeam(cmd, team)
		return nil
	},
}

func init() {
	teamsCreateCmd.Flags().StringVar(&teamOwner, "owner", "", "user id of the team owner")
	teamsCreateCmd.Flags().StringVar(&teamDescription, "description", "", "team description")
	_ = teamsCreateCmd.MarkFlagRequired("owner")
	teamsAddMemberCmd.Flags().BoolVar(&memberAsAdmin, "admin", false, "add the user as a team admin")

	teamsCmd.AddCommand(teamsCreateCmd, teamsAddMemberCmd, teamsRemoveMemberCmd)
	rootCmd.AddCommand(teamsCmd)
}

func printTeam(cmd *cobra.Command, team *entities.Team) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:      %s\n", team.ID())
	fmt.Fprintf(out, "name:    %s\n", team.Name())
	fmt.Fprintf(out, "owner:   %s\n", team.OwnerID())
	fmt.Fprintf(out, "admins:  %s\n", strings.Join(team.AdminIDs(), ", "))
	fmt.Fprintf(out, "members: %s\n", strings.Join(team.MemberIDs(), ", "))
}
