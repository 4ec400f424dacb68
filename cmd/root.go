package cmd

import (
	"errors"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var errNoSession = errors.New("no wallet connected: run `pw connect` first")

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "pw",
		Short:         "Pool wallet CLI (pw): connect a signing agent and run pool transactions",
		Long:          "pw connects to a browser or desktop signing agent, keeps it on the configured network, restores the session across runs, and submits authorize-then-act transactions against the pool contract.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.AddCommand(newVersionCmd())

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if verbose {
			app.level.SetLevel(zapcore.DebugLevel)
		}
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.close()
	}

	rootCmd.AddCommand(
		newConnectCmd(app),
		newDisconnectCmd(app),
		newStatusCmd(app),
		newNetworkCmd(app),
		newWatchCmd(app),
		newTxCmd(app),
		newAllowanceCmd(app),
		newEventsCmd(app),
		newSignCmd(app),
		newRPCKeyCmd(app),
	)

	return rootCmd
}

// userError carries a localized message while keeping the cause for errors.Is.
type userError struct {
	message string
	cause   error
}

func (e *userError) Error() string {
	return e.message
}

func (e *userError) Unwrap() error {
	return e.cause
}

func connectFailure(app *app, kind domain.AgentKind, err error) error {
	return &userError{message: domain.ConnectErrorMessage(app.settings.locale, kind, err), cause: err}
}
