package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage developer keys",
}

var keyUser string

var keysCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Issue a developer key for --user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		key, plaintext, err := e.keys.Create(cmd.Context(), userFor(keyUser), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:  %s\n", key.ID())
		fmt.Fprintf(out, "key: %s\n", plaintext)
		fmt.Fprintln(out, "Store the key now; it cannot be shown again.")
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the developer keys of --user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		keys, err := e.keys.List(cmd.Context(), userFor(keyUser))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tCREATED\tREVOKED")
		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", k.ID(), k.Name(), k.Prefix(), k.CreatedAt().Format(time.RFC3339), k.IsRevoked())
		}
		return tw.Flush()
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke KEY_ID",
	Short: "Revoke a developer key of --user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		if err := e.keys.Revoke(cmd.Context(), operator, keyUser, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
		return nil
	},
}

func init() {
	keysCmd.PersistentFlags().StringVar(&keyUser, "user", "", "owner user id")
	_ = keysCmd.MarkPersistentFlagRequired("user")

	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}
