package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/jelu-importer/internal/coordinator"
)

var errNoBook = errors.New("no book data found on this page")

func newScrapeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <audible-url>",
		Short: "Extract the book record from an Audible page",
		Long: `Prints the record for an Audible product page. With a saved session the
record is also checked against the library.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Coordinator.RestoreSession(cmd.Context()); err != nil {
				rt.log.WithError(err).Warn("Could not restore saved session")
			}

			s, err := app.Coordinator.Scrape(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.Record == nil {
				return errNoBook
			}
			return printState(cmd.OutOrStdout(), s)
		},
	}
}

func newImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <audible-url>",
		Short: "Import the book on an Audible page into Jelu",
		Long: `Extracts the record, checks whether the library already holds it and imports
it if not. Requires a saved session (see "login").`,
		Args: cobra.ExactArgs(1),
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
				return coordinator.ErrNotConnected
			}

			s, err := app.Coordinator.Scrape(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.Record == nil {
				return errNoBook
			}

			out := cmd.OutOrStdout()
			if s.Phase == coordinator.PhaseAlreadyImported {
				target, _ := app.Coordinator.View()
				fmt.Fprintf(out, "Book already in your Jelu library: %s\n", target)
				return nil
			}

			if _, err := app.Coordinator.Import(cmd.Context()); err != nil {
				return err
			}
			target, _ := app.Coordinator.View()
			fmt.Fprintf(out, "Successfully imported %q to Jelu: %s\n", s.Record.Title, target)
			return nil
		},
	}
}
