package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventup/api/internal/repository"
	"github.com/eventup/api/pkg/jwt"
)

func tokenCmd() *cobra.Command {
	var (
		email      string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token for an existing user",
		Long: `Sign an access token for the user with the given email using the
configured JWT secret.

Examples:
  eventupctl token --email organizer@example.com
  eventupctl token --email organizer@example.com --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			user, err := repository.NewUserRepository(db).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return err
			}
			if user == nil {
				return errors.New("no user with email " + email)
			}

			jwtService, err := jwt.NewService(jwt.Config{
				AccessSecret:  cfg.JWT.Secret,
				RefreshSecret: cfg.JWT.RefreshSecret,
				Issuer:        cfg.JWT.Issuer,
				AccessTTL:     cfg.JWT.AccessTTL,
				RefreshTTL:    cfg.JWT.RefreshTTL,
			})
			if err != nil {
				return fmt.Errorf("creating JWT service: %w", err)
			}
			token, err := jwtService.GenerateAccess(jwt.Subject{
				UserID: user.ID,
				Email:  user.Email,
				Role:   string(user.Role),
			})
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"access_token": token,
					"token_type":   "Bearer",
					"expires_in":   int(jwtService.AccessTTL().Seconds()),
					"user_id":      user.ID,
					"email":        user.Email,
					"role":         user.Role,
				})
			}

			fmt.Fprintln(out, "Token Generated")
			fmt.Fprintln(out, "===============")
			fmt.Fprintf(out, "User ID:  %s\n", user.ID)
			fmt.Fprintf(out, "Email:    %s\n", user.Email)
			fmt.Fprintf(out, "Role:     %s\n", user.Role)
			fmt.Fprintf(out, "Status:   %s\n", user.Status)
			fmt.Fprintf(out, "Expires:  %s\n", time.Now().Add(jwtService.AccessTTL()).Format(time.RFC3339))
			fmt.Fprintln(out)
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
