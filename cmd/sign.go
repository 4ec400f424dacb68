package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a message with the connected account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := restoreSession(cmd.Context(), app)
			if err != nil {
				return err
			}

			signature, err := app.session.SignMessage(cmd.Context(), []byte(args[0]))
			if err != nil {
				return connectFailure(app, conn.AgentKind, err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), signature)
			return nil
		},
	}
}
