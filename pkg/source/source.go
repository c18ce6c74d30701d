// Package source provides topology snapshot providers: an HTTP client for
// live endpoints, a static provider for fixtures and demos, and a client for
// the POS tracking collaborator.
package source

import (
	"context"
	"net/http"
	"time"

	"github.com/followviz/followviz/pkg/topology"
)

const httpTimeout = 10 * time.Second

// TopologySource produces topology snapshots. Fetch returns a complete
// snapshot every time; there is no partial or incremental form.
type TopologySource interface {
	// Name identifies the source in logs and cache keys.
	Name() string

	// Fetch retrieves the current topology snapshot.
	Fetch(ctx context.Context) (*topology.Topology, error)
}

// NewHTTPClient creates an HTTP client with the standard fetch timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// StaticSource serves a fixed topology. Used for fixtures and the demo mode.
type StaticSource struct {
	name string
	topo *topology.Topology
}

// NewStaticSource wraps a fixed topology as a source.
func NewStaticSource(name string, t *topology.Topology) *StaticSource {
	return &StaticSource{name: name, topo: t}
}

// Name implements [TopologySource].
func (s *StaticSource) Name() string { return s.name }

// Fetch implements [TopologySource]. The snapshot is returned as-is; callers
// must not mutate it.
func (s *StaticSource) Fetch(ctx context.Context) (*topology.Topology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.topo, nil
}

// FileSource reads the topology from a JSON file on every fetch, so edits to
// the file show up on the next refresh.
type FileSource struct {
	Path string
}

// Name implements [TopologySource].
func (s *FileSource) Name() string { return "file:" + s.Path }

// Fetch implements [TopologySource].
func (s *FileSource) Fetch(ctx context.Context) (*topology.Topology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return topology.ReadFile(s.Path)
}
