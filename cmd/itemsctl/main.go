// Command itemsctl is the operator CLI for the items API. It talks to the
// DynamoDB table directly, bypassing HTTP authentication.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "itemsctl",
	Short:         "Operate the items API",
	Long:          "itemsctl manages teams, roles and developer keys, and mints local development tokens.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: CONFIG_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
