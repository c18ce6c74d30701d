package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/followviz/followviz/pkg/cache"
	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/graph"
	"github.com/followviz/followviz/pkg/layout"
	"github.com/followviz/followviz/pkg/observability"
	"github.com/followviz/followviz/pkg/render"
	"github.com/followviz/followviz/pkg/source"
	"github.com/followviz/followviz/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the source, cache, and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source source.TopologySource
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner for the given source.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(src source.TopologySource, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete fetch → build → layout → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Fetch
	fetchStart := time.Now()
	topo, fetchHit, err := r.FetchWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Topology = topo
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.FollowerCount = len(topo.Followers)
	result.CacheInfo.FetchHit = fetchHit

	r.Logger.Info("fetched topology",
		"source", r.Source.Name(),
		"followers", len(topo.Followers),
		"cached", fetchHit,
		"duration", result.Stats.FetchTime)

	// Stage 2: Build
	buildStart := time.Now()
	model, err := r.BuildModel(ctx, topo, opts)
	if err != nil {
		return nil, err
	}
	result.Model = model
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = len(model.Nodes)
	result.Stats.EdgeCount = len(model.Edges)

	if modelData, err := graph.MarshalModel(model); err == nil {
		result.ModelHash = cache.Hash(modelData)
	}

	r.Logger.Info("built graph model",
		"view", opts.ViewMode,
		"nodes", len(model.Nodes),
		"edges", len(model.Edges),
		"duration", result.Stats.BuildTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, model, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"style", opts.Style,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, model, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// FetchWithCacheInfo retrieves the topology with caching and returns cache
// hit info. Fetched snapshots are cached briefly so rapid view switches do
// not hammer the source.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, opts Options) (*topology.Topology, bool, error) {
	r.applyLogger(&opts)

	cacheKey := r.Keyer.TopologyKey(r.Source.Name())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if topo, err := topology.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "topology")
				return topo, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "topology")
	}

	start := time.Now()
	observability.Fetch().OnFetchStart(ctx, r.Source.Name())
	topo, err := r.Source.Fetch(ctx)
	followers := 0
	if topo != nil {
		followers = len(topo.Followers)
	}
	observability.Fetch().OnFetchComplete(ctx, r.Source.Name(), followers, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := topology.Marshal(topo); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTopology)
		observability.Cache().OnCacheSet(ctx, "topology", len(data))
	}

	return topo, false, nil
}

// Fetch is a convenience wrapper that discards the cache hit info.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*topology.Topology, error) {
	topo, _, err := r.FetchWithCacheInfo(ctx, opts)
	return topo, err
}

// BuildModel derives the graph model from a topology snapshot. Building is a
// pure in-memory derivation and is not cached.
func (r *Runner) BuildModel(ctx context.Context, topo *topology.Topology, opts Options) (*graph.Model, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}

	observability.Pipeline().OnBuildStart(ctx, opts.ViewMode)
	model, err := graph.Build(topo, opts.BuildOptions())
	nodes, edges := 0, 0
	if model != nil {
		nodes, edges = len(model.Nodes), len(model.Edges)
	}
	observability.Pipeline().OnBuildComplete(ctx, opts.ViewMode, nodes, edges, err)
	return model, err
}

// ComputeLayoutWithCacheInfo computes a layout with caching and returns
// cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, model *graph.Model, opts Options) (*layout.Result, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	modelData, err := graph.MarshalModel(model)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize model for cache key")
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(modelData), opts.LayoutKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		if cached, err := layout.UnmarshalResult(data); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return cached, true, nil
		}
		// Fall through to recompute if deserialization fails.
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.Style, len(model.Nodes))
	l, err := layout.Compute(ctx, model, layout.Style(opts.Style))
	observability.Pipeline().OnLayoutComplete(ctx, opts.Style, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := layout.MarshalResult(l); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return l, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, model *graph.Model, opts Options) (*layout.Result, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, model, opts)
	return l, err
}

// RenderWithCacheInfo produces artifacts with caching and returns cache hit
// info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Result, model *graph.Model, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := layout.MarshalResult(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := r.renderFormats(ctx, l, model, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Result, model *graph.Model, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, model, opts)
	return artifacts, err
}

func (r *Runner) renderFormats(ctx context.Context, l *layout.Result, model *graph.Model, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		start := time.Now()
		observability.Pipeline().OnRenderStart(ctx, format)
		data, err := r.renderFormat(l, model, opts, format)
		observability.Pipeline().OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func (r *Runner) renderFormat(l *layout.Result, model *graph.Model, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		renderOpts := []render.Option{render.WithViewport(opts.Width, opts.Height)}
		if opts.Tooltips {
			renderOpts = append(renderOpts, render.WithTooltips())
		}
		return render.NewSVGRenderer(renderOpts...).Draw(l, model)
	case FormatDOT:
		return []byte(l.DOT), nil
	case FormatJSON:
		return graph.MarshalModel(model)
	default:
		return nil, ValidateFormat(format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
