package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// EnvPassword supplies the login password when --password is not given.
const EnvPassword = "JELU_PASSWORD"

func newLoginCmd(rt *runtime) *cobra.Command {
	var serviceURL, username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Connect to a Jelu server and save the session",
		Long: `Connects with username and password, obtains an API token and saves the
server URL, username and token. The password itself is never stored.`,
		Example: `  JELU_PASSWORD=secret jelu-importer login --url http://localhost:11111 --username admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(EnvPassword)
			}

			app, err := rt.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Coordinator.Login(cmd.Context(), serviceURL, username, password); err != nil {
				return err
			}
			info, _ := app.Coordinator.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s as %s\n", info.ServiceURL, info.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceURL, "url", "", "Jelu server URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Jelu username")
	cmd.Flags().StringVar(&password, "password", "", "Jelu password (or set "+EnvPassword+")")

	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Long:  "Removes the saved token. The server URL and username are kept for the next login.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Coordinator.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected from Jelu.")
			return nil
		},
	}
}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			defer app.Close()

			restored, err := app.Coordinator.RestoreSession(cmd.Context())
			if err != nil {
				return err
			}
			if !restored {
				fmt.Fprintln(cmd.OutOrStdout(), "Not connected.")
				return nil
			}
			info, _ := app.Coordinator.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s as %s\n", info.ServiceURL, info.Username)
			return nil
		},
	}
}
