package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskworks/service-desk/internal/auth"
	"github.com/deskworks/service-desk/internal/config"
	"github.com/deskworks/service-desk/internal/domain"
)

func newTokenCommand() *cobra.Command {
	var (
		id   string
		name string
		role string
		ttl  int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token",
		Long:  `Sign a token for the given viewer with AUTH_JWT_SECRET. Intended for local testing; production tokens come from the identity provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.AccessTokenTTLMinutes
			}
			viewer := domain.Viewer{ID: id, DisplayName: name, Role: domain.Role(role)}
			if viewer.DisplayName == "" {
				viewer.DisplayName = viewer.ID
			}
			token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(viewer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Viewer id (token subject)")
	cmd.Flags().StringVar(&name, "name", "", "Display name recorded on notes")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCustomer), "Role: customer or admin")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "Lifetime in minutes (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
