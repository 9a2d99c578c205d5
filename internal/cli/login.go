package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0x6d61/sofictl/internal/credentials"
	"github.com/0x6d61/sofictl/internal/gateway"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend and verify the credentials",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.authenticate(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		}),
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget entered credentials and drop session cookies",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			err := a.gateway.ClearCredentials()
			switch {
			case errors.Is(err, gateway.ErrCredentialsReadOnly):
				a.gateway.Reset()
				fmt.Fprintf(cmd.OutOrStdout(), "Credentials come from %s and %s; unset them to log out fully.\n",
					credentials.EnvUsername, credentials.EnvPassword)
			case err != nil:
				return err
			}
			if err := a.client.ResetSession(); err != nil {
				return fmt.Errorf("resetting session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		}),
	}
}
