package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newNetworkCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Inspect and enforce the configured ledger network",
	}

	cmd.AddCommand(newNetworkShowCmd(app), newNetworkEnsureCmd(app))

	return cmd
}

func newNetworkShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configured network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			network := app.settings.network
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "name: %s\n", network.Name)
			_, _ = fmt.Fprintf(out, "chain id: %s (%s)\n", network.ChainID, network.ChainIDHex())
			_, _ = fmt.Fprintf(out, "currency: %s (%s, %d decimals)\n", network.Currency.Symbol, network.Currency.Name, network.Currency.Decimals)
			_, _ = fmt.Fprintf(out, "rpc urls: %s\n", strings.Join(network.RPCURLs, ", "))
			if network.ExplorerURL != "" {
				_, _ = fmt.Fprintf(out, "explorer: %s\n", network.ExplorerURL)
			}
			return nil
		},
	}
}

func newNetworkEnsureCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Switch the agent to the configured network, adding it if needed",
		Long:  "ensure restores the saved session and switches its agent to the configured network. Without a saved session it connects interactively, which switches or adds the network.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := domain.ParseAgentKind(agent)
			if err != nil {
				return err
			}

			conn, err := restoreSession(cmd.Context(), app)
			switch {
			case err == nil:
				kind = conn.AgentKind
				if err := app.session.EnsureNetwork(cmd.Context()); err != nil {
					return connectFailure(app, kind, err)
				}
			case errors.Is(err, errNoSession):
				if _, err := app.session.Connect(cmd.Context(), kind); err != nil {
					return connectFailure(app, kind, err)
				}
			default:
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is on %s (chain %s)\n",
				kind.DisplayName(), app.settings.network.Name, app.settings.network.ChainID)
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", string(domain.AgentMetaMask), "Signing agent to connect when no session is saved")

	return cmd
}
