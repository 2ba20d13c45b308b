package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"creator-ledger/internal/infra/api"
)

// newTokenCmd mints a bearer token for local testing. Refused outside --dev.
func newTokenCmd(f *rootFlags) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(f)
			if err != nil {
				return err
			}
			if !cfg.Runtime.Dev {
				return errors.New("token minting requires --dev")
			}
			if userID == "" {
				return errors.New("--user is required")
			}
			tok, err := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Mint(userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
