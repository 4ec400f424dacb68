package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(app *app) *cobra.Command {
	var agent, metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the session open and print connection changes until interrupted",
		Long:  "watch restores the saved session, or connects the agent given with --agent, then follows account, chain and disconnect events. Switching accounts in the agent reconnects automatically.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()

			if metricsAddr != "" {
				shutdown, err := serveMetrics(app, metricsAddr)
				if err != nil {
					return err
				}
				defer shutdown()
			}

			unsubscribe := app.session.Listeners().Subscribe(func(connected bool, address string) {
				if connected {
					_, _ = fmt.Fprintf(out, "connected %s\n", address)
					return
				}
				_, _ = fmt.Fprintln(out, "disconnected")
			})
			defer unsubscribe()

			resets := make(chan *big.Int, 4)
			removeHook := app.session.Bridge().OnChainReset(func(chainID *big.Int) {
				select {
				case resets <- chainID:
				default:
				}
			})
			defer removeHook()

			if err := startWatchedSession(ctx, app, agent); err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					app.session.Bridge().Wait()
					return nil
				case chainID := <-resets:
					network := app.settings.network
					if network.Matches(chainID) {
						_, _ = fmt.Fprintf(out, "chain changed to %s\n", chainID)
						continue
					}
					_, _ = fmt.Fprintf(out, "warning: agent switched to chain %s, expected %s (%s); run `pw network ensure`\n",
						chainID, network.ChainID, network.Name)
				}
			}
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Connect this agent interactively instead of restoring the saved session")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")

	return cmd
}

func startWatchedSession(ctx context.Context, app *app, agent string) error {
	if agent == "" {
		_, err := restoreSession(ctx, app)
		return err
	}

	kind, err := domain.ParseAgentKind(agent)
	if err != nil {
		return err
	}
	if _, err := app.session.Connect(ctx, kind); err != nil {
		return connectFailure(app, kind, err)
	}
	return nil
}

func serveMetrics(app *app, addr string) (shutdown func(), err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.recorder.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return nil, fmt.Errorf("serve metrics on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
	}
	app.logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}, nil
}
