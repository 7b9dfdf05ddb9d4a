package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
)

var (
	tokenGroups []string
	tokenEmail  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Mint an HS256 token signed with JWT_SECRET",
	Long:  "token signs a bearer token for local development. Deployed stages verify Cognito tokens instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
			SecretKey:  cfg.JWTSecret,
			Issuer:     cfg.JWTIssuer,
			ExpiryTime: tokenTTL,
		})
		if err != nil {
			return err
		}
		token, err := generator.GenerateToken(args[0], args[0], tokenEmail, tokenGroups)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringSliceVar(&tokenGroups, "groups", nil, "identity provider groups, e.g. admin,team-admin")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
