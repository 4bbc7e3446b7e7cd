package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List logged-in players",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			var result SessionList
			if err := client.Get(cmd.Context(), "/api/v1/sessions", &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.AddCommand(newKickCmd())

	return cmd
}

func newKickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kick <username>",
		Short: "End a player's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), "/api/v1/sessions/"+url.PathEscape(args[0])); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).PrintMessage(fmt.Sprintf("Logged out %s", args[0]))
			return nil
		},
	}
}
