package graph

import (
	"fmt"
	"strings"

	"github.com/followviz/followviz/pkg/topology"
)

// Options configures graph construction.
type Options struct {
	// ViewMode selects which relationships become edges.
	ViewMode ViewMode

	// Label is the node attribute used as display label.
	Label LabelField

	// Clusters enables one container per distinct follower group.
	Clusters bool
}

// Defaults used when options are left zero.
const (
	DefaultViewMode = ViewBoth
	DefaultLabel    = LabelLocalURL
)

// Build derives the renderable graph from a topology snapshot.
//
// One node is created for the root and for each follower (ID = localUrl).
// Follow targets are resolved scheme-insensitively against the known nodes.
// A following target that resolves to no known node connects the follower
// directly to the root ("effectively following the cloud"); an unresolvable
// requested target is dropped. In the combined view a requested edge that
// duplicates the follower's following edge is suppressed, so a follower
// whose request was granted shows a single match-styled edge.
func Build(t *topology.Topology, opts Options) (*Model, error) {
	if t == nil {
		return nil, fmt.Errorf("nil topology")
	}
	if opts.ViewMode == "" {
		opts.ViewMode = DefaultViewMode
	} else if _, err := ParseViewMode(string(opts.ViewMode)); err != nil {
		return nil, err
	}
	if opts.Label == "" {
		opts.Label = DefaultLabel
	} else if _, err := ParseLabelField(string(opts.Label)); err != nil {
		return nil, err
	}

	b := &builder{topo: t, opts: opts, resolve: make(map[string]string)}
	return b.build()
}

type builder struct {
	topo    *topology.Topology
	opts    Options
	resolve map[string]string // canonical URL -> node ID
}

func (b *builder) build() (*Model, error) {
	t := b.topo
	rootID := t.Root.LocalURL
	b.resolve[topology.Canonical(rootID)] = rootID
	for i := range t.Followers {
		f := &t.Followers[i]
		b.resolve[topology.Canonical(f.LocalURL)] = f.LocalURL
	}

	m := &Model{RootID: rootID}
	m.Nodes = append(m.Nodes, b.node(&t.Root, true))
	for i := range t.Followers {
		m.Nodes = append(m.Nodes, b.node(&t.Followers[i], false))
	}

	if b.opts.Clusters {
		m.Clusters = b.clusters()
		for i := range m.Nodes {
			if m.Nodes[i].Root {
				continue
			}
			if g := m.Nodes[i].Info.Group; g != "" {
				m.Nodes[i].Cluster = clusterID(g)
			}
		}
	}

	for i := range t.Followers {
		f := &t.Followers[i]
		followFrom := b.followingEdge(m, f)
		b.requestedEdge(m, f, followFrom)
	}

	// Tooltip deltas follow the emitted edges: each follower's delta is the
	// lag against its following upstream.
	for i := range m.Edges {
		e := &m.Edges[i]
		if e.Kind != EdgeFollowing {
			continue
		}
		if n := m.Node(e.To); n != nil {
			n.Info.Delta = e.Label
		}
	}

	return m, nil
}

// followingEdge emits the following edge for f, if the mode shows it, and
// returns the edge source ("" when no edge was emitted).
func (b *builder) followingEdge(m *Model, f *topology.Node) string {
	if !b.opts.ViewMode.ShowsFollowing() {
		return ""
	}
	rawTarget := f.FollowingURL()
	if rawTarget == "" {
		return ""
	}
	from := b.resolveURL(rawTarget)
	if from == "" {
		// Target unknown to this snapshot: the follower is effectively
		// replicating from the cloud, so attach it to the root.
		from = m.RootID
	}

	class := ClassEdgeFollowing
	if b.opts.ViewMode == ViewBoth {
		if requested := b.resolveURL(f.RequestedURL()); requested != "" && requested == from {
			class = ClassEdgeMatch
		} else {
			class = ClassEdgeMismatch
		}
	}

	delta := topology.Difference(b.topo.Find(from), f)
	m.Edges = append(m.Edges, Edge{
		From:  from,
		To:    f.LocalURL,
		Kind:  EdgeFollowing,
		Class: class,
		Delta: delta,
		Label: FormatDelta(delta),
	})
	return from
}

// requestedEdge emits the requested edge for f unless it duplicates the
// already-emitted following edge. The duplicate suppression is bypassed in
// requested-only mode, where every resolvable request is shown.
func (b *builder) requestedEdge(m *Model, f *topology.Node, followFrom string) {
	if !b.opts.ViewMode.ShowsRequested() {
		return
	}
	rawTarget := f.RequestedURL()
	if rawTarget == "" {
		return
	}
	from := b.resolveURL(rawTarget)
	if from == "" {
		return
	}
	if b.opts.ViewMode != ViewRequested && from == followFrom {
		return
	}

	delta := topology.Difference(b.topo.Find(from), f)
	m.Edges = append(m.Edges, Edge{
		From:  from,
		To:    f.LocalURL,
		Kind:  EdgeRequested,
		Class: ClassEdgeRequested,
		Delta: delta,
		Label: FormatDelta(delta),
	})
}

func (b *builder) resolveURL(raw string) string {
	if raw == "" {
		return ""
	}
	return b.resolve[topology.Canonical(raw)]
}

func (b *builder) node(n *topology.Node, isRoot bool) Node {
	info := NodeInfo{
		Status:   n.Status,
		LastSeen: n.LastSeen,
		Offset:   n.Offset,
		Group:    n.Group,
	}
	if n.Offsets != nil {
		info.PipeOffset = n.Offsets.PipeOffset
		info.BehindRoot = n.Offsets.BehindRoot
	}
	if n.Pipe != nil {
		info.PipeHost = n.Pipe.Host
		info.PipeIP = n.Pipe.IP
		info.PipeState = n.Pipe.PipeState
	}
	return Node{
		ID:    n.LocalURL,
		Label: b.opts.Label.Label(n),
		Class: nodeClass(n, isRoot),
		Root:  isRoot,
		Info:  info,
	}
}

// nodeClass derives the status-coloring class from the node's status and
// pipe state: down beats everything, a zero behindRoot or a running pipe
// counts as up to date, anything else is out of sync.
func nodeClass(n *topology.Node, isRoot bool) string {
	if isRoot {
		return ClassNodeRoot
	}
	status := strings.ToLower(n.Status)
	state := ""
	if n.Pipe != nil {
		state = strings.ToUpper(n.Pipe.PipeState)
	}
	switch {
	case status == "down" || state == "DOWN" || state == "STOPPED":
		return ClassNodeDown
	case n.Offsets != nil && n.Offsets.BehindRoot != nil && *n.Offsets.BehindRoot == 0:
		return ClassNodeUpToDate
	case state == "RUNNING":
		return ClassNodeUpToDate
	default:
		return ClassNodeOutOfSync
	}
}

func (b *builder) clusters() []Cluster {
	var clusters []Cluster
	index := make(map[string]int)
	for i := range b.topo.Followers {
		f := &b.topo.Followers[i]
		if f.Group == "" {
			continue
		}
		idx, ok := index[f.Group]
		if !ok {
			idx = len(clusters)
			index[f.Group] = idx
			clusters = append(clusters, Cluster{ID: clusterID(f.Group), Label: f.Group})
		}
		clusters[idx].Members = append(clusters[idx].Members, f.LocalURL)
	}
	return clusters
}

func clusterID(group string) string {
	return "cluster_" + group
}
