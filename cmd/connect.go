package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newConnectCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a signing agent and switch it to the configured network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := domain.ParseAgentKind(agent)
			if err != nil {
				return err
			}

			conn, err := app.session.Connect(cmd.Context(), kind)
			if err != nil {
				return connectFailure(app, kind, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Connected %s via %s on %s (chain %s)\n",
				conn.Address, kind.DisplayName(), app.settings.network.Name, conn.ChainID)
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", string(domain.AgentMetaMask), "Signing agent: metamask or coinbase")

	return cmd
}

func newDisconnectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the connected wallet and its saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.Disconnect(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
			return nil
		},
	}
}

// restoreSession silently brings back the saved session for this process
// and moves it to the configured network.
func restoreSession(ctx context.Context, app *app) (domain.Connection, error) {
	conn, err := app.session.Restore(ctx)
	if errors.Is(err, domain.ErrNotConnected) {
		return domain.Connection{}, errNoSession
	}
	if err != nil {
		kind := domain.AgentMetaMask
		if live, ok := app.session.Current(); ok {
			kind = live.AgentKind
		}
		return domain.Connection{}, connectFailure(app, kind, err)
	}
	return conn, nil
}
