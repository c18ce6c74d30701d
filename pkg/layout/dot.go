package layout

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/followviz/followviz/pkg/graph"
)

// classStyles maps a model class to its DOT node or edge attributes. Colors
// live here and nowhere else; the builder only hands out class names.
var nodeStyles = map[string]string{
	graph.ClassNodeRoot:      `fillcolor="#bfdbfe", color="#1d4ed8", penwidth=2`,
	graph.ClassNodeUpToDate:  `fillcolor="#bbf7d0", color="#15803d"`,
	graph.ClassNodeOutOfSync: `fillcolor="#fde68a", color="#b45309"`,
	graph.ClassNodeDown:      `fillcolor="#fecaca", color="#b91c1c"`,
}

var edgeStyles = map[string]string{
	graph.ClassEdgeFollowing: `color="#2563eb"`,
	graph.ClassEdgeRequested: `color="#9333ea", style=dashed`,
	graph.ClassEdgeMatch:     `color="#16a34a", penwidth=2`,
	graph.ClassEdgeMismatch:  `color="#dc2626", penwidth=2`,
}

// ToDOT converts a graph model to Graphviz DOT. Clusters become subgraphs
// with bottom labels; every node and edge carries its model class so the
// generated SVG can be addressed by CSS class downstream.
func ToDOT(m *graph.Model, style Style) string {
	p := style.Params()

	var buf bytes.Buffer
	buf.WriteString("digraph followviz {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", p.Rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	fmt.Fprintf(&buf, "  ranksep=%.2f;\n", p.RankSep)
	fmt.Fprintf(&buf, "  nodesep=%.2f;\n", p.NodeSep)
	fmt.Fprintf(&buf, "  esep=%.2f;\n", p.EdgeSep)
	buf.WriteString("\n")

	clustered := make(map[string]bool)
	for _, c := range m.Clusters {
		fmt.Fprintf(&buf, "  subgraph %q {\n", c.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", c.Label)
		buf.WriteString("    labelloc=\"b\";\n")
		buf.WriteString("    style=\"rounded,dashed\";\n")
		buf.WriteString("    color=\"#94a3b8\";\n")
		for _, id := range c.Members {
			if n := m.Node(id); n != nil {
				fmt.Fprintf(&buf, "    %s;\n", nodeStmt(n))
				clustered[id] = true
			}
		}
		buf.WriteString("  }\n")
	}

	for i := range m.Nodes {
		n := &m.Nodes[i]
		if clustered[n.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %s;\n", nodeStmt(n))
	}

	buf.WriteString("\n")
	for _, e := range m.Edges {
		attrs := []string{fmt.Sprintf("class=%q", e.Class)}
		if s, ok := edgeStyles[e.Class]; ok {
			attrs = append(attrs, s)
		}
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label), "fontsize=11")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeStmt(n *graph.Node) string {
	attrs := []string{
		fmt.Sprintf("label=%q", n.Label),
		fmt.Sprintf("class=%q", n.Class),
	}
	if s, ok := nodeStyles[n.Class]; ok {
		attrs = append(attrs, s)
	}
	return fmt.Sprintf("%q [%s]", n.ID, strings.Join(attrs, ", "))
}
