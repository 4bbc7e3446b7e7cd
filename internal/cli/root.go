package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "psctl",
		Short: "CLI tool for the player session server",
		Long: `psctl talks to a player session server.

Game commands (signup, login) use the websocket protocol that game clients
speak. Operator commands (health, sessions) use the JSON API.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Websocket URL (env: PSCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminToken, "admin-token", cfg.AdminToken, "Operator token (env: PSCTL_ADMIN_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Time to wait for each reply")

	// Add subcommands
	rootCmd.AddCommand(newSignUpCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newSessionsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
