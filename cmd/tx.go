package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type txOptions struct {
	asJSON bool
	quiet  bool
}

func newTxCmd(app *app) *cobra.Command {
	opts := &txOptions{}

	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Submit transfers and pool contract transactions",
		Long:  "Pool contract calls run in two phases: the funding token is approved for the fee plus principal, then the call is submitted once the approval is confirmed. A confirmed approval is not revoked when the call fails.",
	}
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Render the result as JSON")
	cmd.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "Do not show progress")

	cmd.AddCommand(
		newTxTransferCmd(app, opts),
		newTxCreatePoolCmd(app, opts),
		newTxBuyCmd(app, opts),
		newTxContributeCmd(app, opts),
		newTxEndCmd(app, opts),
		newTxApproveResultCmd(app, opts),
	)

	return cmd
}

func newTxTransferCmd(app *app, opts *txOptions) *cobra.Command {
	var to, amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer funding tokens to an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recipient, err := parseAddress(to, "--to")
			if err != nil {
				return err
			}
			value, err := domain.ParseUnits(amount, app.settings.tokenDecimals)
			if err != nil {
				return err
			}
			return runTransaction(cmd, app, opts, application.NewTransferRequest(recipient, value))
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in token units, e.g. 12.5")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTxCreatePoolCmd(app *app, opts *txOptions) *cobra.Command {
	var title, unitPrice, maxUnits, deadline, seed string

	cmd := &cobra.Command{
		Use:   "create-pool",
		Short: "Create a pool, optionally seeding it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			price, err := domain.ParseUnits(unitPrice, app.settings.tokenDecimals)
			if err != nil {
				return fmt.Errorf("--unit-price: %w", err)
			}
			units, err := parseInteger(maxUnits, "--max-units")
			if err != nil {
				return err
			}
			closesAt, err := parseDeadline(deadline, app.now())
			if err != nil {
				return err
			}
			seedAmount, err := domain.ParseUnits(seed, app.settings.tokenDecimals)
			if err != nil {
				return fmt.Errorf("--seed: %w", err)
			}

			req, err := application.NewCreatePoolRequest(title, price, units, closesAt, seedAmount)
			if err != nil {
				return err
			}
			return runTransaction(cmd, app, opts, req)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Pool title")
	cmd.Flags().StringVar(&unitPrice, "unit-price", "", "Price of one unit in token units")
	cmd.Flags().StringVar(&maxUnits, "max-units", "", "Maximum number of units")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Closing time: RFC3339, unix seconds, or a duration such as 72h")
	cmd.Flags().StringVar(&seed, "seed", "0", "Initial contribution in token units")
	for _, name := range []string{"title", "unit-price", "max-units", "deadline"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newTxBuyCmd(app *app, opts *txOptions) *cobra.Command {
	var poolID, units, payment string

	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy units in a pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseInteger(poolID, "--pool-id")
			if err != nil {
				return err
			}
			count, err := parseInteger(units, "--units")
			if err != nil {
				return err
			}
			value, err := domain.ParseUnits(payment, app.settings.tokenDecimals)
			if err != nil {
				return fmt.Errorf("--payment: %w", err)
			}

			req, err := application.NewBuyUnitsRequest(id, count, value)
			if err != nil {
				return err
			}
			return runTransaction(cmd, app, opts, req)
		},
	}

	cmd.Flags().StringVar(&poolID, "pool-id", "", "Pool identifier")
	cmd.Flags().StringVar(&units, "units", "", "Number of units")
	cmd.Flags().StringVar(&payment, "payment", "", "Total price of the units in token units")
	for _, name := range []string{"pool-id", "units", "payment"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newTxContributeCmd(app *app, opts *txOptions) *cobra.Command {
	var poolID, amount string

	cmd := &cobra.Command{
		Use:   "contribute",
		Short: "Contribute to a pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseInteger(poolID, "--pool-id")
			if err != nil {
				return err
			}
			value, err := domain.ParseUnits(amount, app.settings.tokenDecimals)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			req, err := application.NewContributeRequest(id, value)
			if err != nil {
				return err
			}
			return runTransaction(cmd, app, opts, req)
		},
	}

	cmd.Flags().StringVar(&poolID, "pool-id", "", "Pool identifier")
	cmd.Flags().StringVar(&amount, "amount", "", "Contribution in token units")
	_ = cmd.MarkFlagRequired("pool-id")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTxEndCmd(app *app, opts *txOptions) *cobra.Command {
	var poolID string

	cmd := &cobra.Command{
		Use:   "end",
		Short: "End a pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseInteger(poolID, "--pool-id")
			if err != nil {
				return err
			}
			req, err := application.NewEndPoolRequest(id)
			if err != nil {
				return err
			}
			return runTransaction(cmd, app, opts, req)
		},
	}

	cmd.Flags().StringVar(&poolID, "pool-id", "", "Pool identifier")
	_ = cmd.MarkFlagRequired("pool-id")

	return cmd
}

func newTxApproveResultCmd(app *app, opts *txOptions) *cobra.Command {
	var poolID string
	var rejected bool

	cmd := &cobra.Command{
		Use:   "approve-result",
		Short: "Approve or reject the result of an ended pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseInteger(poolID, "--pool-id")
			if err != nil {
				return err
			}
			req, err := application.NewApproveResultRequest(id, !rejected)
			if err != nil {
				return err
			}
			return runTransaction(cmd, app, opts, req)
		},
	}

	cmd.Flags().StringVar(&poolID, "pool-id", "", "Pool identifier")
	cmd.Flags().BoolVar(&rejected, "reject", false, "Reject the result instead of approving it")
	_ = cmd.MarkFlagRequired("pool-id")

	return cmd
}

func runTransaction(cmd *cobra.Command, app *app, opts *txOptions, req domain.TransactionRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}
	if _, err := restoreSession(cmd.Context(), app); err != nil {
		return err
	}

	orchestrator, err := app.orchestrator(cmd.Context())
	if err != nil {
		return err
	}

	var result domain.TxResult
	execute := func(ctx context.Context, progress func(string)) error {
		orchestrator.Observe(func(event application.PhaseEvent) {
			progress(phaseLabel(event))
		})
		result = orchestrator.Execute(ctx, req)
		return nil
	}

	if opts.asJSON || opts.quiet {
		err = execute(cmd.Context(), func(string) {})
	} else {
		err = runTxSpinner(cmd.Context(), cmd.ErrOrStderr(), "Confirm the request in your wallet...", execute)
	}
	if err != nil {
		return err
	}

	if opts.asJSON {
		if err := writeTxJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		writeTxText(cmd.OutOrStdout(), app, result)
	}

	if result.Failure != nil {
		return &userError{message: result.Failure.Message, cause: result.Failure}
	}
	return nil
}

func phaseLabel(event application.PhaseEvent) string {
	hash := shortHash(event.TxHash)
	switch {
	case event.Phase == application.PhaseAuthorize && event.Step == application.StepSubmitted:
		return fmt.Sprintf("Waiting for spend authorization %s...", hash)
	case event.Phase == application.PhaseAuthorize:
		return "Authorization confirmed, confirm the transaction in your wallet..."
	case event.Step == application.StepSubmitted:
		return fmt.Sprintf("Waiting for transaction %s...", hash)
	default:
		return "Transaction confirmed"
	}
}

func writeTxText(out io.Writer, app *app, result domain.TxResult) {
	if result.Success {
		_, _ = fmt.Fprintf(out, "Confirmed %s\n", result.TxHash.Hex())
		if explorer := explorerLink(app, result.TxHash); explorer != "" {
			_, _ = fmt.Fprintln(out, explorer)
		}
		if event := result.Event; event != nil {
			_, _ = fmt.Fprintf(out, "event: %s", event.Name)
			if event.PoolID != nil {
				_, _ = fmt.Fprintf(out, " (pool %s)", event.PoolID)
			}
			_, _ = fmt.Fprintln(out)
		}
		return
	}

	if result.AuthorizationConfirmed() {
		_, _ = fmt.Fprintf(out, "Spend authorization %s stayed confirmed; check `pw allowance` before retrying.\n", result.AuthorizationTxHash.Hex())
	}
}

type txResultView struct {
	Success             bool           `json:"success"`
	TxHash              string         `json:"tx_hash,omitempty"`
	AuthorizationTxHash string         `json:"authorization_tx_hash,omitempty"`
	Event               *txEventView   `json:"event,omitempty"`
	Failure             *txFailureView `json:"failure,omitempty"`
}

type txFailureView struct {
	Reason  domain.FailureReason `json:"reason"`
	Message string               `json:"message"`
	Raw     string               `json:"raw,omitempty"`
}

type txEventView struct {
	Name   string         `json:"name"`
	PoolID string         `json:"pool_id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func writeTxJSON(out io.Writer, result domain.TxResult) error {
	view := txResultView{Success: result.Success}
	if f := result.Failure; f != nil {
		view.Failure = &txFailureView{Reason: f.Reason, Message: f.Message, Raw: f.Raw}
	}
	if result.TxHash != (common.Hash{}) {
		view.TxHash = result.TxHash.Hex()
	}
	if result.AuthorizationConfirmed() {
		view.AuthorizationTxHash = result.AuthorizationTxHash.Hex()
	}
	if result.Event != nil {
		view.Event = &txEventView{Name: result.Event.Name, Fields: result.Event.Fields}
		if result.Event.PoolID != nil {
			view.Event.PoolID = result.Event.PoolID.String()
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func explorerLink(app *app, hash common.Hash) string {
	base := strings.TrimRight(app.settings.network.ExplorerURL, "/")
	if base == "" {
		return ""
	}
	return base + "/tx/" + hash.Hex()
}

func shortHash(hash common.Hash) string {
	hex := hash.Hex()
	return hex[:10] + "…" + hex[len(hex)-4:]
}

func parseAddress(raw, flag string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", flag, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseInteger(raw, flag string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid non-negative integer %q", flag, raw)
	}
	return value, nil
}

// parseDeadline accepts RFC3339, unix seconds, or a duration from now.
func parseDeadline(raw string, now time.Time) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if at, err := time.Parse(time.RFC3339, raw); err == nil {
		return big.NewInt(at.Unix()), nil
	}
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil && seconds > 0 {
		return big.NewInt(seconds), nil
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return big.NewInt(now.Add(d).Unix()), nil
	}
	return nil, fmt.Errorf("--deadline: invalid time %q", raw)
}
