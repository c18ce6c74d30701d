// Package pipeline provides the core visualization pipeline for followviz.
//
// This package implements the complete fetch → build → layout → render
// pipeline that is shared by the CLI, the server, and the watch TUI. By
// centralizing this logic, all entry points behave identically and derive
// identical cache keys.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Fetch: Retrieve the topology snapshot from a source
//  2. Build: Derive the renderable graph model from the snapshot
//  3. Layout: Compute node and edge positions via Graphviz
//  4. Render: Produce output in various formats (SVG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(src, cache, nil, logger)
//	opts := pipeline.Options{
//	    ViewMode: "both",
//	    Style:    "standard",
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/followviz/followviz/pkg/cache"
	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/graph"
	"github.com/followviz/followviz/pkg/layout"
	"github.com/followviz/followviz/pkg/topology"
)

// Defaults shared by CLI, server, and TUI.
const (
	// DefaultViewWidth is the default viewport width in pixels.
	DefaultViewWidth = 1280.0

	// DefaultViewHeight is the default viewport height in pixels.
	DefaultViewHeight = 800.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	ViewMode string `json:"view_mode,omitempty"`
	Label    string `json:"label,omitempty"`
	Clusters bool   `json:"clusters,omitempty"`

	// Layout options
	Style  string  `json:"style,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Tooltips bool     `json:"tooltips,omitempty"`

	// Refresh bypasses the topology cache and forces a live fetch.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Topology is the fetched snapshot.
	Topology *topology.Topology

	// Model is the derived graph model.
	Model *graph.Model

	// ModelHash is the content hash of the model.
	ModelHash string

	// Layout is the positioned layout.
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FollowerCount int
	NodeCount     int
	EdgeCount     int
	FetchTime     time.Duration
	BuildTime     time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each cached pipeline stage. Build is a pure
// in-memory derivation and is never cached.
type CacheInfo struct {
	FetchHit  bool // Whether the topology came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild validates and sets defaults for model building.
func (o *Options) ValidateForBuild() error {
	if o.ViewMode == "" {
		o.ViewMode = string(graph.DefaultViewMode)
	} else if _, err := graph.ParseViewMode(o.ViewMode); err != nil {
		return err
	}
	if o.Label == "" {
		o.Label = string(graph.DefaultLabel)
	} else if _, err := graph.ParseLabelField(o.Label); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.Style == "" {
		o.Style = string(layout.DefaultStyle)
	} else if _, err := layout.ParseStyle(o.Style); err != nil {
		return err
	}
	if o.Width == 0 {
		o.Width = DefaultViewWidth
	}
	if o.Height == 0 {
		o.Height = DefaultViewHeight
	}
	o.setLogger()
	return nil
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// BuildOptions converts pipeline options to graph builder options.
func (o *Options) BuildOptions() graph.Options {
	return graph.Options{
		ViewMode: graph.ViewMode(o.ViewMode),
		Label:    graph.LabelField(o.Label),
		Clusters: o.Clusters,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Style:  o.Style,
		Width:  o.Width,
		Height: o.Height,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}
