// Package config loads the followviz TOML configuration file. Every setting
// has a sensible default; a missing config file is not an error.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/followviz/followviz/pkg/errors"
)

// Cache backends.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Duration wraps time.Duration with TOML text (un)marshalling, so intervals
// read naturally as "30s" or "2m" in the config file.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full followviz configuration.
type Config struct {
	// Listen is the server bind address.
	Listen string `toml:"listen"`

	// SourceURL is the topology endpoint. Empty means demo mode.
	SourceURL string `toml:"source_url"`

	// POSBaseURL is the message-delivery tracking collaborator, used by the
	// track command. Optional.
	POSBaseURL string `toml:"pos_base_url"`

	// RefreshInterval is the auto-refresh period for watch mode.
	RefreshInterval Duration `toml:"refresh_interval"`

	Cache CacheConfig `toml:"cache"`
	View  ViewConfig  `toml:"view"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty means the default location.
	Dir string `toml:"dir"`

	// Redis settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ViewConfig holds the default view parameters.
type ViewConfig struct {
	Mode     string  `toml:"mode"`
	Style    string  `toml:"style"`
	Label    string  `toml:"label"`
	Clusters bool    `toml:"clusters"`
	Width    float64 `toml:"width"`
	Height   float64 `toml:"height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:          ":8080",
		RefreshInterval: Duration(30 * time.Second),
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			RedisAddr: "localhost:6379",
		},
		View: ViewConfig{
			Mode:     "both",
			Style:    "standard",
			Label:    "localUrl",
			Clusters: true,
			Width:    1280,
			Height:   800,
		},
	}
}

// DefaultPath returns the standard config file location
// ($XDG_CONFIG_HOME/followviz/config.toml or the OS equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "followviz", "config.toml")
}

// Load reads the config file at path, layered over the defaults. When path
// is empty the standard location is tried; a missing file there yields the
// defaults, while an explicitly given path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone, "":
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid cache backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.RefreshInterval != 0 && c.RefreshInterval.Std() < time.Second {
		return errors.New(errors.ErrCodeInvalidConfig,
			"refresh_interval %s is below the 1s minimum", c.RefreshInterval.Std())
	}
	return nil
}
