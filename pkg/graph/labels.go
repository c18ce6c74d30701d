package graph

import (
	"fmt"
	"sort"

	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/topology"
)

// LabelField names a node attribute usable as the display label. The values
// mirror the dot-paths of the wire format, but lookup goes through a fixed
// accessor table: paths outside the enumeration are rejected at parse time
// instead of being resolved dynamically.
type LabelField string

// Label fields.
const (
	LabelLocalURL   LabelField = "localUrl"
	LabelStatus     LabelField = "status"
	LabelGroup      LabelField = "group"
	LabelPipeHost   LabelField = "pipe.host"
	LabelPipeIP     LabelField = "pipe.ip"
	LabelPipeState  LabelField = "pipe.pipeState"
	LabelPipeOffset LabelField = "offsets.PIPE_OFFSET"
	LabelBehindRoot LabelField = "offsets.behindRoot"
)

// labelAccessors maps each allowed field to its accessor. The bool result
// reports whether the node actually carries a value for the field.
var labelAccessors = map[LabelField]func(*topology.Node) (string, bool){
	LabelLocalURL: func(n *topology.Node) (string, bool) {
		return n.LocalURL, n.LocalURL != ""
	},
	LabelStatus: func(n *topology.Node) (string, bool) {
		return n.Status, n.Status != ""
	},
	LabelGroup: func(n *topology.Node) (string, bool) {
		return n.Group, n.Group != ""
	},
	LabelPipeHost: func(n *topology.Node) (string, bool) {
		if n.Pipe == nil {
			return "", false
		}
		return n.Pipe.Host, n.Pipe.Host != ""
	},
	LabelPipeIP: func(n *topology.Node) (string, bool) {
		if n.Pipe == nil {
			return "", false
		}
		return n.Pipe.IP, n.Pipe.IP != ""
	},
	LabelPipeState: func(n *topology.Node) (string, bool) {
		if n.Pipe == nil {
			return "", false
		}
		return n.Pipe.PipeState, n.Pipe.PipeState != ""
	},
	LabelPipeOffset: func(n *topology.Node) (string, bool) {
		if v := n.PipeOffset(); v != nil {
			return fmt.Sprintf("%g", *v), true
		}
		return "", false
	},
	LabelBehindRoot: func(n *topology.Node) (string, bool) {
		if n.Offsets != nil && n.Offsets.BehindRoot != nil {
			return fmt.Sprintf("%g", *n.Offsets.BehindRoot), true
		}
		return "", false
	},
}

// LabelFields returns the allowed label fields, sorted.
func LabelFields() []LabelField {
	fields := make([]LabelField, 0, len(labelAccessors))
	for f := range labelAccessors {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// ParseLabelField validates a label field string against the enumeration.
func ParseLabelField(s string) (LabelField, error) {
	if _, ok := labelAccessors[LabelField(s)]; ok {
		return LabelField(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidLabelField, "invalid label field: %q", s)
}

// Label resolves the field on a node. A missing value degrades to the node's
// display name (localUrl without scheme); it never fails.
func (f LabelField) Label(n *topology.Node) string {
	if accessor, ok := labelAccessors[f]; ok {
		if v, ok := accessor(n); ok {
			return v
		}
	}
	return topology.DisplayName(n.LocalURL)
}
