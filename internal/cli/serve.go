package cli

import (
	"github.com/spf13/cobra"

	"github.com/followviz/followviz/internal/server"
	"github.com/followviz/followviz/pkg/config"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		listen     string
		noCache    bool
		src        sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the topology graph over HTTP",
		Long: `Start an HTTP server exposing the topology snapshot and the rendered
graph as JSON, SVG, and DOT. View options (view, label, style, clusters,
width, height) are taken from query parameters on each request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Listen
			}
			if src.url == "" {
				src.url = cfg.SourceURL
			}

			runner, err := c.newRunner(cmd.Context(), src.newSource(), cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, c.Logger)
			c.Logger.Info("starting server", "addr", listen)
			return srv.ListenAndServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	src.register(cmd, config.Default())

	return cmd
}
