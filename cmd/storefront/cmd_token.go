package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/febluxury/storefront/internal/auth"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenRole   string
	tokenTTL    time.Duration
)

// storefront issue-token
var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Sign an access token with JWT_SECRET for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := boot()
		if err != nil {
			return err
		}
		token, err := auth.NewJWTManager(cfg.TokenSecret(), tokenTTL).GenerateToken(tokenUserID, tokenEmail, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	issueTokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id placed in the token (required)")
	issueTokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	issueTokenCmd.Flags().StringVar(&tokenRole, "role", "user", "role claim, e.g. user or admin")
	issueTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "token lifetime")
	_ = issueTokenCmd.MarkFlagRequired("user")
}
