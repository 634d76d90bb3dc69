package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/jelu-importer/internal/entrypoint"
)

func newServeCmd(rt *runtime, version string) *cobra.Command {
	var port int32
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local import API",
		Example: `  # Start on the configured address (default 127.0.0.1:8189)
  jelu-importer serve

  # Listen on another port
  jelu-importer serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				rt.cfg.HTTP.Port = port
			}
			if cmd.Flags().Changed("host") {
				rt.cfg.HTTP.Host = host
			}
			return entrypoint.Run(rt.cfg, rt.log, version)
		},
	}

	cmd.Flags().Int32VarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&host, "host", "", "Address to bind (overrides HOST)")

	return cmd
}
