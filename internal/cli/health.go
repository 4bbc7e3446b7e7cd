package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			var result HealthResult
			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newAPIClient() (*Client, error) {
	base, err := cfg.APIBaseURL()
	if err != nil {
		return nil, err
	}
	return NewClient(base, cfg.AdminToken, cfg.Timeout), nil
}
