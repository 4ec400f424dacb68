package cmd

import (
	"fmt"

	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/spf13/cobra"
)

func newRPCKeyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc-key",
		Short: "Manage the private ledger RPC endpoint kept in the secret store",
		Long:  "Hosted RPC endpoints usually embed an API key. rpc-key stores the endpoint in pass, or in a 0600 file when pass is unavailable, instead of the config file.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <url>",
			Short: "Store the ledger RPC endpoint",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.endpoints.Store(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", application.Redacted(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the ledger RPC endpoint in use, with credentials redacted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				endpoint, err := app.endpoints.Resolve(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), application.Redacted(endpoint))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Delete the stored ledger RPC endpoint",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := app.endpoints.Remove(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Removed stored ledger endpoint")
				return nil
			},
		},
	)

	return cmd
}
