package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/playersession/internal/protocol"
)

func newSignUpCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := Dial(cmd.Context(), cfg.ServerURL, cfg.Timeout)
			if err != nil {
				return err
			}
			defer func() { _ = gc.Close() }()

			resp, err := gc.Request(protocol.TypeSignUp, protocol.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(SignUpResult{Response: resp})
			if !resp.OK() {
				return errors.New(resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "pass", "p", "", "Password")

	return cmd
}
