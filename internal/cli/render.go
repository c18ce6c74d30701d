package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/followviz/followviz/pkg/config"
	"github.com/followviz/followviz/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		configPath string
		view       string
		label      string
		style      string
		clusters   bool
		tooltips   bool
		formats    []string
		out        string
		width      float64
		height     float64
		refresh    bool
		noCache    bool
		src        sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the topology graph to files",
		Long: `Fetch the topology, build the graph, and write the rendered outputs.
One file per requested format is written next to the output path, named
<out>.<format>.`,
		Example: `  # Render the demo topology as an interactive SVG
  followviz render --demo

  # Requested-follows view of a live endpoint, packed layout, all formats
  followviz render --source https://cloud.example.com/topology \
    --view requested --style packed --formats svg,dot,json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if src.url == "" {
				src.url = cfg.SourceURL
			}

			runner, err := c.newRunner(cmd.Context(), src.newSource(), cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{
				ViewMode: view,
				Label:    label,
				Clusters: clusters,
				Style:    style,
				Width:    width,
				Height:   height,
				Formats:  formats,
				Tooltips: tooltips,
				Refresh:  refresh,
				Logger:   c.Logger,
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "rendering topology graph")
			spinner.Start()
			result, err := runner.Execute(cmd.Context(), opts)
			spinner.Stop()
			if err != nil {
				return err
			}

			printSuccess("rendered %s graph (%s view)", opts.Style, opts.ViewMode)
			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)

			base := out
			if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
				return err
			}
			for _, format := range opts.Formats {
				path := fmt.Sprintf("%s.%s", base, format)
				if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
					return err
				}
				printFile(path)
			}
			printNextStep("watch it live", "followviz watch")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&view, "view", "", "relationships to show: following, requested, or both")
	cmd.Flags().StringVar(&label, "label", "", "node label field (e.g. localUrl, status, pipe.host)")
	cmd.Flags().StringVar(&style, "style", "", "layout style: standard, standard-lr, packed, or packed-lr")
	cmd.Flags().BoolVar(&clusters, "clusters", true, "group nodes by their group attribute")
	cmd.Flags().BoolVar(&tooltips, "tooltips", true, "embed hover tooltips in the SVG")
	cmd.Flags().StringSliceVar(&formats, "formats", []string{pipeline.FormatSVG}, "output formats (svg, dot, json)")
	cmd.Flags().StringVarP(&out, "out", "o", "topology", "output path without extension")
	cmd.Flags().Float64Var(&width, "width", 0, "viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "viewport height in pixels")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the topology cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	src.register(cmd, config.Default())

	return cmd
}
