// Package view holds the interactive view state shared by the watch TUI:
// which relationships are shown, how nodes are labeled and laid out, and the
// latest successfully rendered document. Every state change triggers a full
// fetch → build → layout → render pass; there is no partial re-rendering.
package view

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/followviz/followviz/pkg/graph"
	"github.com/followviz/followviz/pkg/layout"
	"github.com/followviz/followviz/pkg/observability"
	"github.com/followviz/followviz/pkg/pipeline"
)

// Executor runs the visualization pipeline. *pipeline.Runner is the
// production implementation.
type Executor interface {
	Execute(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// State is the user-controllable view state.
type State struct {
	ViewMode    graph.ViewMode
	Style       layout.Style
	Label       graph.LabelField
	Clusters    bool
	Search      string
	AutoRefresh bool
}

// DefaultState returns the initial view state.
func DefaultState() State {
	return State{
		ViewMode: graph.DefaultViewMode,
		Style:    layout.DefaultStyle,
		Label:    graph.DefaultLabel,
		Clusters: true,
	}
}

// Snapshot is the latest successful render plus its provenance. After a
// failed refresh the previous snapshot stays current and Err carries the
// failure; the document is never blanked.
type Snapshot struct {
	State     State
	Model     *graph.Model
	SVG       []byte
	Stats     pipeline.Stats
	Matches   []string // node IDs matching the search query
	FetchedAt time.Time
	Seq       uint64
}

// Controller owns the view state and serializes refreshes against it.
// Concurrent refreshes may overlap on the pipeline; only the most recently
// issued one may publish its result.
type Controller struct {
	exec   Executor
	clock  Clock
	logger *log.Logger

	mu       sync.Mutex
	state    State
	snapshot *Snapshot
	lastErr  error
	issued   uint64 // seq of the most recently issued refresh

	// onChange, if set, is called after every published snapshot or error,
	// outside the controller lock.
	onChange func()
}

// NewController creates a controller with the default state.
// If clock is nil, the real clock is used.
func NewController(exec Executor, clock Clock, logger *log.Logger) *Controller {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		exec:   exec,
		clock:  clock,
		logger: logger,
		state:  DefaultState(),
	}
}

// OnChange registers a callback invoked after each published refresh result.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the latest successful render, or nil before the first one.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Err returns the error of the most recent refresh, or nil if it succeeded.
// A non-nil Err with a non-nil Snapshot means the view is showing stale data.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetViewMode changes the relationship filter and re-renders.
func (c *Controller) SetViewMode(ctx context.Context, m graph.ViewMode) error {
	return c.update(ctx, func(s *State) { s.ViewMode = m })
}

// SetStyle changes the layout style and re-renders.
func (c *Controller) SetStyle(ctx context.Context, s layout.Style) error {
	return c.update(ctx, func(st *State) { st.Style = s })
}

// SetLabel changes the node label field and re-renders.
func (c *Controller) SetLabel(ctx context.Context, f graph.LabelField) error {
	return c.update(ctx, func(s *State) { s.Label = f })
}

// ToggleClusters flips cluster containers and re-renders.
func (c *Controller) ToggleClusters(ctx context.Context) error {
	return c.update(ctx, func(s *State) { s.Clusters = !s.Clusters })
}

// SetSearch changes the search query and re-renders.
func (c *Controller) SetSearch(ctx context.Context, query string) error {
	return c.update(ctx, func(s *State) { s.Search = query })
}

// Refresh re-runs the pipeline with the current state.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresh(ctx, false)
}

// ForceRefresh re-runs the pipeline bypassing the topology cache.
func (c *Controller) ForceRefresh(ctx context.Context) error {
	return c.refresh(ctx, true)
}

func (c *Controller) update(ctx context.Context, mutate func(*State)) error {
	c.mu.Lock()
	mutate(&c.state)
	c.mu.Unlock()
	return c.refresh(ctx, false)
}

// refresh runs one pipeline pass. Each call takes a fresh sequence number;
// when passes overlap, a completion whose number is no longer the latest is
// discarded so an older fetch can never overwrite a newer render.
func (c *Controller) refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	state := c.state
	c.mu.Unlock()

	opts := pipeline.Options{
		ViewMode: string(state.ViewMode),
		Label:    string(state.Label),
		Clusters: state.Clusters,
		Style:    string(state.Style),
		Formats:  []string{pipeline.FormatSVG},
		Tooltips: true,
		Refresh:  force,
		Logger:   c.logger,
	}

	result, err := c.exec.Execute(ctx, opts)

	c.mu.Lock()
	if seq != c.issued {
		latest := c.issued
		c.mu.Unlock()
		observability.Fetch().OnStaleDiscard(ctx, seq, latest)
		c.logger.Debug("discarded stale refresh", "seq", seq, "latest", latest)
		return nil
	}

	if err != nil {
		// Keep the last good snapshot; surface the error alongside it.
		c.lastErr = err
		c.notifyLocked()
		return err
	}

	c.lastErr = nil
	c.snapshot = &Snapshot{
		State:     state,
		Model:     result.Model,
		SVG:       result.Artifacts[pipeline.FormatSVG],
		Stats:     result.Stats,
		Matches:   searchMatches(result.Model, state.Search),
		FetchedAt: c.clock.Now(),
		Seq:       seq,
	}
	c.notifyLocked()
	return nil
}

// notifyLocked releases the lock around the callback.
func (c *Controller) notifyLocked() {
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// searchMatches returns the IDs of nodes whose ID or label contains the
// query, case-insensitively. An empty query matches nothing.
func searchMatches(m *graph.Model, query string) []string {
	if query == "" || m == nil {
		return nil
	}
	q := strings.ToLower(query)
	var ids []string
	for i := range m.Nodes {
		n := &m.Nodes[i]
		if strings.Contains(strings.ToLower(n.ID), q) || strings.Contains(strings.ToLower(n.Label), q) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// AutoRefresh runs Refresh on every tick until ctx is done. It marks the
// state while active so the TUI can show an indicator.
func (c *Controller) AutoRefresh(ctx context.Context, interval time.Duration) {
	c.mu.Lock()
	c.state.AutoRefresh = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.state.AutoRefresh = false
		c.mu.Unlock()
	}()

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("auto refresh failed", "err", err)
			}
		}
	}
}
