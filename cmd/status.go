package cmd

import (
	"encoding/json"
	"fmt"

	sessionrender "github.com/bnema/poolwallet-cli/internal/adapters/render/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON, asYAML, withBalances bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the wallet session, restoring it silently when possible",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON && asYAML {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}

			app.session.AutoConnect(cmd.Context())
			status, err := app.session.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("load session status: %w", err)
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			case asYAML:
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(status); err != nil {
					return err
				}
				return enc.Close()
			}

			opts := sessionrender.RenderOptions{
				Now:            app.now(),
				TokenSymbol:    app.settings.tokenSymbol,
				TokenDecimals:  app.settings.tokenDecimals,
				NativeSymbol:   app.settings.network.Currency.Symbol,
				NativeDecimals: app.settings.network.Currency.Decimals,
			}
			if withBalances && status.Connection != nil {
				loadLedgerReads(cmd, app, common.HexToAddress(status.Connection.Address), &opts)
			}

			rendered, err := app.sessionRender(status, opts)
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Render YAML output")
	cmd.Flags().BoolVar(&withBalances, "balances", false, "Include token balance, fee balance and allowance")

	return cmd
}

// loadLedgerReads fills balances and allowance; failures only drop the lines.
func loadLedgerReads(cmd *cobra.Command, app *app, owner common.Address, opts *sessionrender.RenderOptions) {
	orchestrator, err := app.orchestrator(cmd.Context())
	if err != nil {
		app.logger.Warn("ledger reads unavailable", zap.Error(err))
		return
	}

	balances, err := orchestrator.Balances(cmd.Context(), owner)
	if err != nil {
		app.logger.Warn("reading balances failed", zap.Error(err))
	} else {
		opts.Balances = &balances
	}

	allowance, err := orchestrator.Allowance(cmd.Context(), owner)
	if err != nil {
		app.logger.Warn("reading allowance failed", zap.Error(err))
		return
	}
	opts.Allowance = allowance
}
