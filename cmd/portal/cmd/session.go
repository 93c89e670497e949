package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carematch360/portal/internal/portal/app"
	"github.com/carematch360/portal/pkg/careapi"
	"github.com/carematch360/portal/pkg/gateway"
)

func newLoginCmd(root *rootOptions) *cobra.Command {
	var (
		creds  gateway.Credentials
		otpURL string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in against the identity backend. The session is persisted and
reused by later commands until logout or until a refresh fails.

Accounts with two-factor enabled need --code, or --otp-url to derive the
code from the enrolment URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if otpURL != "" {
				code, err := careapi.TOTPCode(otpURL, time.Now())
				if err != nil {
					return err
				}
				creds.TwoFactorCode = code
			}

			return withApp(cmd, root, func(ctx context.Context, a *app.Application) error {
				sess, err := a.Gateway().Login(ctx, creds)
				if errors.Is(err, gateway.ErrTwoFactorRequired) {
					return fmt.Errorf("%w: pass --code or --otp-url", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", sess.Identity.Email, sess.Identity.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	cmd.Flags().StringVar(&creds.TwoFactorCode, "code", "", "six digit two-factor code")
	cmd.Flags().StringVar(&otpURL, "otp-url", "", "otpauth:// URL to derive the two-factor code from")
	cmd.MarkFlagsMutuallyExclusive("code", "otp-url")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(root *rootOptions) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app.Application) error {
				if revoke && a.Gateway().CurrentSession() != nil {
					if _, err := a.API().Auth.Logout(ctx); err != nil {
						a.Logger().Warn("server side logout failed", "error", err)
					}
				}
				a.Gateway().Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "also revoke the refresh token on the identity backend")
	return cmd
}

func newWhoamiCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app.Application) error {
				out := cmd.OutOrStdout()
				sess := a.Gateway().CurrentSession()

				fmt.Fprintf(out, "state:   %s\n", a.Gateway().State())
				if sess == nil {
					return nil
				}
				fmt.Fprintf(out, "user:    %s\n", sess.Identity.ID)
				fmt.Fprintf(out, "email:   %s\n", sess.Identity.Email)
				fmt.Fprintf(out, "role:    %s\n", sess.Identity.Role)
				if sess.ProfileReferenceID != "" {
					fmt.Fprintf(out, "profile: %s\n", sess.ProfileReferenceID)
				}
				return nil
			})
		},
	}
}

func newProfileCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Resolve the caller's profile id",
		Long: `Look up the caller's patient or provider profile and remember its id
in the session. Admin accounts have no profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(ctx context.Context, a *app.Application) error {
				id, err := a.Gateway().ResolveProfile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}
