package cmd

import (
	"fmt"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newAllowanceCmd(app *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "allowance",
		Short: "Show how much the pool contract may spend, with token and fee balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var owner common.Address
			if address != "" {
				parsed, err := parseAddress(address, "--address")
				if err != nil {
					return err
				}
				owner = parsed
			} else {
				conn, err := restoreSession(cmd.Context(), app)
				if err != nil {
					return err
				}
				owner = common.HexToAddress(conn.Address)
			}

			orchestrator, err := app.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			allowance, err := orchestrator.Allowance(cmd.Context(), owner)
			if err != nil {
				return err
			}
			balances, err := orchestrator.Balances(cmd.Context(), owner)
			if err != nil {
				return err
			}

			s := app.settings
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "account: %s\n", owner.Hex())
			_, _ = fmt.Fprintf(out, "allowance: %s %s\n", domain.FormatUnits(allowance, s.tokenDecimals), s.tokenSymbol)
			_, _ = fmt.Fprintf(out, "balance: %s %s\n", domain.FormatUnits(balances.Token, s.tokenDecimals), s.tokenSymbol)
			_, _ = fmt.Fprintf(out, "fees: %s %s\n", domain.FormatUnits(balances.Native, s.network.Currency.Decimals), s.network.Currency.Symbol)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Read this address instead of the connected account")

	return cmd
}
