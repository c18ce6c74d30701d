// Package cli implements the followviz command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/followviz/followviz/pkg/buildinfo"
	"github.com/followviz/followviz/pkg/cache"
	"github.com/followviz/followviz/pkg/config"
	"github.com/followviz/followviz/pkg/pipeline"
	"github.com/followviz/followviz/pkg/source"
)

// appName is the application name used for directories and display.
const appName = "followviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Followviz visualizes follower replication topologies",
		Long:         `Followviz renders the follower/replication topology of a store fleet as an interactive graph: who follows whom, who asked to follow whom, and how far each follower lags behind the cloud root.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.trackCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// sourceFlags are the flags every pipeline command shares to pick its
// topology source.
type sourceFlags struct {
	url  string
	file string
	demo bool
}

func (f *sourceFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.url, "source", cfg.SourceURL, "topology endpoint URL")
	cmd.Flags().StringVar(&f.file, "file", "", "read topology from a JSON file instead of an endpoint")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "use the built-in demo topology")
}

// newSource resolves the flags to a topology source. Precedence: demo, file,
// URL; with nothing set, demo mode is used.
func (f *sourceFlags) newSource() source.TopologySource {
	switch {
	case f.demo:
		return source.NewStaticSource("demo", source.Demo())
	case f.file != "":
		return &source.FileSource{Path: f.file}
	case f.url != "":
		return source.NewHTTPSource(f.url)
	default:
		return source.NewStaticSource("demo", source.Demo())
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, src source.TopologySource, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(src, store, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	backend := config.CacheBackendFile
	if cfg != nil && cfg.Cache.Backend != "" {
		backend = cfg.Cache.Backend
	}
	switch backend {
	case config.CacheBackendNone:
		return cache.NewNullCache(), nil
	case config.CacheBackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	}

	dir := ""
	if cfg != nil {
		dir = cfg.Cache.Dir
	}
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard
// (~/.cache/followviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// loadConfig loads the config file named by the flag, or the defaults.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
