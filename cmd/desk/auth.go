package main

import (
	"context"
	"fmt"

	"challenge_desk/internal/models"
	platform "challenge_desk/internal/modules/platform/service"
	"challenge_desk/internal/modules/session"
	store "challenge_desk/internal/modules/session/service"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the token for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := secret(password, "DESK_PASSWORD", "Password: ", cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return authenticate(cmd, func(ctx context.Context, c *platform.Client) (models.AuthResult, error) {
				return c.Login(ctx, email, pw)
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or DESK_PASSWORD, or prompt)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var creds models.Credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := secret(creds.Password, "DESK_PASSWORD", "Password: ", cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			creds.Password = pw
			return authenticate(cmd, func(ctx context.Context, c *platform.Client) (models.AuthResult, error) {
				return c.Register(ctx, creds)
			})
		},
	}
	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "display name")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (or DESK_PASSWORD, or prompt)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// authenticate exchanges credentials through obtain and hands the token to
// the session store. A still valid previous session is replaced.
func authenticate(cmd *cobra.Command, obtain func(ctx context.Context, c *platform.Client) (models.AuthResult, error)) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var (
		client *platform.Client
		s      *store.Store
	)
	opts := append(baseModules(), session.Gate(), fx.Populate(&client, &s))

	return runApp(ctx, opts, func(ctx context.Context) error {
		res, err := obtain(ctx, client)
		if err != nil {
			return err
		}
		if s.State() == store.StateAuthenticated {
			if err := s.Logout(ctx); err != nil {
				return err
			}
		}
		if err := s.Login(ctx, res.User, res.Token); err != nil {
			return err
		}
		msg := res.Message
		if msg == "" {
			msg = "Signed in"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s. Welcome, %s.\n", msg, res.User.DisplayName())
		return nil
	})
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var s *store.Store
			opts := append(baseModules(), fx.Populate(&s))
			return runApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := s.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}
