package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/playersession/internal/protocol"
)

func newLoginCmd() *cobra.Command {
	var username, password string
	var hold bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the spawn position",
		Long: `Log in over the game protocol and print the initialization message.

The server ends the session when the connection closes. Use --hold to keep
the session open until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := Dial(cmd.Context(), cfg.ServerURL, cfg.Timeout)
			if err != nil {
				return err
			}
			defer func() { _ = gc.Close() }()

			resp, err := gc.Request(protocol.TypeAuthenticate, protocol.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			if !resp.OK() {
				out.Print(LoginResult{Response: resp})
				return errors.New(resp.Message)
			}

			init, err := gc.NextInitialization()
			if err != nil {
				return err
			}
			out.Print(LoginResult{Response: resp, Player: &init})

			if !hold {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out.PrintMessage("Holding session, press Ctrl+C to log out")
			return gc.Wait(ctx)
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "pass", "p", "", "Password")
	cmd.Flags().BoolVar(&hold, "hold", false, "Keep the session open until interrupted")

	return cmd
}
