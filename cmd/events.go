package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newEventsCmd(app *app) *cobra.Command {
	var fromBlock string
	var follow bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List pool contract events, optionally following new ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.settings.requireContracts(); err != nil {
				return err
			}
			from, err := parseInteger(fromBlock, "--from-block")
			if err != nil {
				return err
			}

			client, err := app.ledgerFor(cmd.Context())
			if err != nil {
				return err
			}
			stream := application.NewPoolEventStream(client, app.codec, app.settings.pool, app.logger.Named("events"))

			out := cmd.OutOrStdout()
			history, err := stream.History(cmd.Context(), from)
			if err != nil {
				return err
			}
			for _, event := range history {
				writePoolEvent(out, event)
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return stream.Follow(ctx, func(event domain.PoolEvent) {
				writePoolEvent(out, event)
			})
		},
	}

	cmd.Flags().StringVar(&fromBlock, "from-block", "0", "First block to read history from")
	cmd.Flags().BoolVar(&follow, "follow", false, "Keep following new events over a websocket ledger endpoint")

	return cmd
}

func writePoolEvent(out io.Writer, event domain.PoolEvent) {
	_, _ = fmt.Fprintf(out, "#%d %s", event.BlockNumber, event.Name)
	if event.PoolID != nil {
		_, _ = fmt.Fprintf(out, " pool=%s", event.PoolID)
	}

	keys := make([]string, 0, len(event.Fields))
	for key := range event.Fields {
		if key != "poolId" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		_, _ = fmt.Fprintf(out, " %s=%v", key, event.Fields[key])
	}

	_, _ = fmt.Fprintf(out, " tx=%s\n", event.TxHash.Hex())
}
