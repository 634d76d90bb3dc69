// Package cli defines the jelu-importer commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mrlokans/jelu-importer/internal/config"
	"github.com/mrlokans/jelu-importer/internal/coordinator"
	"github.com/mrlokans/jelu-importer/internal/entrypoint"
	"github.com/mrlokans/jelu-importer/internal/logging"
)

// runtime holds what PersistentPreRunE prepared for the subcommands.
type runtime struct {
	cfg *config.Config
	log *logrus.Logger
}

func NewRootCmd(version, commit string) *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:     "jelu-importer",
		Short:   "Import Audible audiobooks into a Jelu library",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Long: `jelu-importer reads an Audible product page, builds a book record from the
Audible catalog (or the page itself) and adds it to your Jelu library.

Run "serve" for the local API, or use the one-shot commands below.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			rt.cfg = config.NewConfig()
			log, err := logging.Setup(rt.cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rt.log = log
			return nil
		},
	}

	cmd.AddCommand(
		newServeCmd(rt, version),
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newScrapeCmd(rt),
		newImportCmd(rt),
	)

	return cmd
}

func (rt *runtime) app() (*entrypoint.App, error) {
	return entrypoint.Build(rt.cfg, rt.log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printState(w io.Writer, s coordinator.State) error {
	return printJSON(w, struct {
		coordinator.State
		Actions []coordinator.Action `json:"actions"`
	}{s, s.Actions()})
}
