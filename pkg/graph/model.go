// Package graph derives a renderable graph model from a follower topology.
//
// The model is the canonical serialization format between the builder, the
// layout engine, and renderers: typed nodes, directed relationship edges with
// lag labels, and optional cluster containers. It is rebuilt from scratch on
// every refresh; there is no incremental diffing.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/followviz/followviz/pkg/errors"
)

// ViewMode selects which follow relationships become edges.
type ViewMode string

// View modes.
const (
	ViewFollowing ViewMode = "following"
	ViewRequested ViewMode = "requested"
	ViewBoth      ViewMode = "both"
)

// ParseViewMode validates a view mode string.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewFollowing, ViewRequested, ViewBoth:
		return ViewMode(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidViewMode,
		"invalid view mode: %q (must be one of: following, requested, both)", s)
}

// ShowsFollowing reports whether the mode emits following edges.
func (m ViewMode) ShowsFollowing() bool { return m == ViewFollowing || m == ViewBoth }

// ShowsRequested reports whether the mode emits requested edges.
func (m ViewMode) ShowsRequested() bool { return m == ViewRequested || m == ViewBoth }

// EdgeKind distinguishes the two follow relationships.
type EdgeKind string

// Edge kinds.
const (
	EdgeFollowing EdgeKind = "following"
	EdgeRequested EdgeKind = "requested"
)

// Style classes attached to nodes and edges. Renderers map these to colors;
// the builder never deals in concrete colors.
const (
	ClassNodeRoot      = "node-root"
	ClassNodeUpToDate  = "node-uptodate"
	ClassNodeOutOfSync = "node-outofsync"
	ClassNodeDown      = "node-down"

	ClassEdgeFollowing = "edge-following"
	ClassEdgeRequested = "edge-requested"
	ClassEdgeMatch     = "edge-match"
	ClassEdgeMismatch  = "edge-mismatch"
)

// NodeInfo carries the per-node details surfaced in tooltips and API
// responses. All values are lifted verbatim from the topology node; Delta is
// pre-formatted ("NaN" when unknown) because IEEE NaN is not representable
// in JSON.
type NodeInfo struct {
	Status     string   `json:"status,omitempty" bson:"status,omitempty"`
	LastSeen   string   `json:"lastSeen,omitempty" bson:"last_seen,omitempty"`
	Offset     *float64 `json:"offset,omitempty" bson:"offset,omitempty"`
	PipeOffset *float64 `json:"pipeOffset,omitempty" bson:"pipe_offset,omitempty"`
	BehindRoot *float64 `json:"behindRoot,omitempty" bson:"behind_root,omitempty"`
	PipeHost   string   `json:"pipeHost,omitempty" bson:"pipe_host,omitempty"`
	PipeIP     string   `json:"pipeIp,omitempty" bson:"pipe_ip,omitempty"`
	PipeState  string   `json:"pipeState,omitempty" bson:"pipe_state,omitempty"`
	Group      string   `json:"group,omitempty" bson:"group,omitempty"`
	Delta      string   `json:"delta,omitempty" bson:"delta,omitempty"`
}

// Node is a renderable graph node.
type Node struct {
	ID      string   `json:"id" bson:"id"`
	Label   string   `json:"label" bson:"label"`
	Class   string   `json:"class" bson:"class"`
	Root    bool     `json:"root,omitempty" bson:"root,omitempty"`
	Cluster string   `json:"cluster,omitempty" bson:"cluster,omitempty"`
	Info    NodeInfo `json:"info" bson:"info"`
}

// Edge is a derived relationship edge. From is the upstream node, To the
// follower. Delta is excluded from JSON (NaN is not valid JSON); Label holds
// its rendered form.
type Edge struct {
	From  string   `json:"from" bson:"from"`
	To    string   `json:"to" bson:"to"`
	Kind  EdgeKind `json:"kind" bson:"kind"`
	Class string   `json:"class" bson:"class"`
	Delta float64  `json:"-" bson:"-"`
	Label string   `json:"delta" bson:"delta"`
}

// Cluster is a visual container for followers sharing a group.
type Cluster struct {
	ID      string   `json:"id" bson:"id"`
	Label   string   `json:"label" bson:"label"`
	Members []string `json:"members" bson:"members"`
}

// Model is the fully derived graph: what the layout engine and renderers
// consume and what /api/graph returns.
type Model struct {
	RootID   string    `json:"rootId" bson:"root_id"`
	Nodes    []Node    `json:"nodes" bson:"nodes"`
	Edges    []Edge    `json:"edges" bson:"edges"`
	Clusters []Cluster `json:"clusters,omitempty" bson:"clusters,omitempty"`
}

// Node returns the node with the given ID, or nil.
func (m *Model) Node(id string) *Node {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}

// MarshalModel serializes a Model to indented JSON bytes.
func MarshalModel(m *Model) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalModel deserializes JSON bytes into a Model.
func UnmarshalModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return &m, nil
}

// FormatDelta renders an offset delta for labels and tooltips. NaN prints
// literally as "NaN".
func FormatDelta(v float64) string {
	return fmt.Sprintf("%g", v)
}
