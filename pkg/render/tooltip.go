package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/followviz/followviz/pkg/graph"
)

// TooltipContent formats the hover detail text for a node. Lines are only
// emitted for fields the node actually carries; the delta line shows "NaN"
// when the lag is unknown rather than being dropped.
func TooltipContent(n *graph.Node) string {
	var lines []string
	add := func(key, val string) {
		if val != "" {
			lines = append(lines, key+": "+val)
		}
	}

	add("url", n.ID)
	add("status", n.Info.Status)
	add("lastSeen", n.Info.LastSeen)
	if n.Info.Offset != nil {
		add("offset", fmt.Sprintf("%g", *n.Info.Offset))
	}
	if n.Info.PipeOffset != nil {
		add("pipeOffset", fmt.Sprintf("%g", *n.Info.PipeOffset))
	}
	if n.Info.BehindRoot != nil {
		add("behindRoot", fmt.Sprintf("%g", *n.Info.BehindRoot))
	}
	add("pipeHost", n.Info.PipeHost)
	add("pipeIp", n.Info.PipeIP)
	add("pipeState", n.Info.PipeState)
	add("group", n.Info.Group)
	if !n.Root {
		add("delta", n.Info.Delta)
	}

	return strings.Join(lines, "\n")
}

// TooltipRegistry tracks the tooltips attached to the current document. Every
// redraw must call [TooltipRegistry.DestroyAll] before attaching new ones;
// attaching is keyed by node ID so a leaked registry shows up as a count
// mismatch in tests rather than as orphaned popups.
type TooltipRegistry struct {
	mu       sync.Mutex
	tooltips map[string]string
}

// NewTooltipRegistry returns an empty registry.
func NewTooltipRegistry() *TooltipRegistry {
	return &TooltipRegistry{tooltips: make(map[string]string)}
}

// Attach registers tooltip content for a node, replacing any previous content
// for the same node.
func (r *TooltipRegistry) Attach(nodeID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tooltips[nodeID] = content
}

// Count returns the number of attached tooltips.
func (r *TooltipRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tooltips)
}

// Content returns the attached content for a node.
func (r *TooltipRegistry) Content(nodeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tooltips[nodeID]
	return c, ok
}

// IDs returns the attached node IDs, sorted.
func (r *TooltipRegistry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tooltips))
	for id := range r.tooltips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DestroyAll drops every attached tooltip. Called unconditionally at the
// start of each draw, including draws of an unchanged model.
func (r *TooltipRegistry) DestroyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tooltips = make(map[string]string)
}
