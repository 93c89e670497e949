package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carematch360/portal/pkg/careapi"
)

func newTOTPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totp <otpauth-url>",
		Short: "Print the current code for an otpauth:// URL",
		Long: `Print the TOTP code valid now for the otpauth:// URL returned when
two-factor authentication was set up.

Example:
  portal totp "otpauth://totp/CareMatch360:patient@test.com?secret=...&issuer=CareMatch360"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := careapi.TOTPCode(args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}
