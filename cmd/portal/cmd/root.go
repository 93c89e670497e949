// Package cmd provides the CLI commands for the CareMatch360 portal client.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/carematch360/portal/internal/portal/app"
)

type rootOptions struct {
	storeDriver string
	metrics     bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "portal",
		Short: "CareMatch360 portal client",
		Long: `portal talks to the CareMatch360 backends through a single session
gateway. It logs in once, keeps the session on disk, attaches credentials
to every call and refreshes them when a backend answers 401.

Configuration:
  Backend URLs and storage are read from the environment, or from a .env
  file in the current directory.
  Example: IDENTITY_API_URL=http://localhost:8001/api/v1

Commands:
  login       Log in and store the session
  logout      Forget the session
  whoami      Show the current session
  profile     Resolve the caller's profile id
  request     Send an authenticated request to a backend
  totp        Print the current code for an otpauth:// URL
  version     Print version information`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.storeDriver, "store", "", "session store driver: memory, sqlite or redis (default: $PORTAL_STORE_DRIVER)")
	root.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "print gateway metrics to stderr on exit")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newProfileCmd(opts),
		newRequestCmd(opts),
		newTOTPCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := app.LoadConfig()
	if opts.storeDriver != "" {
		cfg.StoreDriver = opts.storeDriver
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	runErr := fn(ctx, a)

	if opts.metrics {
		if err := writeMetrics(cmd, a); err != nil {
			a.Logger().Warn("failed to write metrics", "error", err)
		}
	}
	return runErr
}

func writeMetrics(cmd *cobra.Command, a *app.Application) error {
	families, err := a.Registry().Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return err
		}
	}
	return nil
}
