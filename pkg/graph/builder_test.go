package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/followviz/followviz/pkg/topology"
)

func fp(v float64) *float64 { return &v }

// cloudTopology is the canonical fixture: a root plus one fully-granted
// follower (following == requestedToFollow == root).
func cloudTopology() *topology.Topology {
	return &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1", Offset: fp(100)},
		Followers: []topology.Node{
			{
				LocalURL:          "https://n1",
				Status:            "running",
				Offsets:           &topology.Offsets{PipeOffset: fp(90)},
				Following:         []string{"https://cloud/v1"},
				RequestedToFollow: []string{"https://cloud/v1"},
			},
		},
	}
}

func edgesOfKind(m *Model, kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range m.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestBuild_GrantedFollowerInBothMode(t *testing.T) {
	m, err := Build(cloudTopology(), Options{ViewMode: ViewBoth})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(m.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(m.Nodes))
	}
	if len(m.Edges) != 1 {
		t.Fatalf("edges = %d, want exactly 1 (requested duplicate must be suppressed)", len(m.Edges))
	}

	e := m.Edges[0]
	if e.From != "https://cloud/v1" || e.To != "https://n1" {
		t.Errorf("edge = %s→%s, want cloud→n1", e.From, e.To)
	}
	if e.Kind != EdgeFollowing {
		t.Errorf("kind = %s, want following", e.Kind)
	}
	if e.Class != ClassEdgeMatch {
		t.Errorf("class = %s, want %s", e.Class, ClassEdgeMatch)
	}
	if e.Delta != 10 {
		t.Errorf("delta = %v, want 10", e.Delta)
	}
	if e.Label != "10" {
		t.Errorf("label = %q, want %q", e.Label, "10")
	}
}

func TestBuild_SchemeInsensitiveRootMatch(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://x/a"},
		Followers: []topology.Node{
			{LocalURL: "https://n1", Following: []string{"http://x/a"}},
		},
	}
	m, err := Build(topo, Options{ViewMode: ViewFollowing})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// The http:// variant must resolve to the existing root node, not grow
	// a second "x/a" node.
	if len(m.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(m.Nodes))
	}
	if len(m.Edges) != 1 || m.Edges[0].From != "https://x/a" {
		t.Fatalf("edges = %+v, want single edge from https://x/a", m.Edges)
	}
}

func TestBuild_UnresolvableFollowingFallsBackToRoot(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1"},
		Followers: []topology.Node{
			{LocalURL: "https://n1", Following: []string{"https://gone-node"}},
		},
	}
	m, err := Build(topo, Options{ViewMode: ViewFollowing})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(m.Edges))
	}
	if m.Edges[0].From != "https://cloud/v1" {
		t.Errorf("From = %s, want root fallback", m.Edges[0].From)
	}
}

func TestBuild_UnresolvableRequestedIsDropped(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1"},
		Followers: []topology.Node{
			{LocalURL: "https://n1", RequestedToFollow: []string{"https://gone-node"}},
		},
	}
	m, err := Build(topo, Options{ViewMode: ViewRequested})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Edges) != 0 {
		t.Errorf("edges = %+v, want none (unresolved requested targets are dropped)", m.Edges)
	}
}

func TestBuild_RequestedOnlyModeSkipsSuppression(t *testing.T) {
	// following == requested; requested-only mode must still emit the
	// requested edge even though it duplicates the following target.
	m, err := Build(cloudTopology(), Options{ViewMode: ViewRequested})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	requested := edgesOfKind(m, EdgeRequested)
	if len(requested) != 1 {
		t.Fatalf("requested edges = %d, want 1", len(requested))
	}
	if requested[0].Class != ClassEdgeRequested {
		t.Errorf("class = %s, want %s", requested[0].Class, ClassEdgeRequested)
	}
	if following := edgesOfKind(m, EdgeFollowing); len(following) != 0 {
		t.Errorf("following edges = %d, want 0 in requested mode", len(following))
	}
}

func TestBuild_BothModeMismatch(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1"},
		Followers: []topology.Node{
			{LocalURL: "https://n1"},
			{
				LocalURL:          "https://n2",
				Following:         []string{"https://n1"},
				RequestedToFollow: []string{"https://cloud/v1"},
			},
		},
	}
	m, err := Build(topo, Options{ViewMode: ViewBoth})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	following := edgesOfKind(m, EdgeFollowing)
	requested := edgesOfKind(m, EdgeRequested)
	if len(following) != 1 || len(requested) != 1 {
		t.Fatalf("edges following=%d requested=%d, want 1 each", len(following), len(requested))
	}
	if following[0].Class != ClassEdgeMismatch {
		t.Errorf("following class = %s, want %s", following[0].Class, ClassEdgeMismatch)
	}
	if following[0].From != "https://n1" {
		t.Errorf("following From = %s, want n1", following[0].From)
	}
	if requested[0].From != "https://cloud/v1" {
		t.Errorf("requested From = %s, want root", requested[0].From)
	}
}

func TestBuild_FollowingOnlyModeUsesSingleStyle(t *testing.T) {
	m, err := Build(cloudTopology(), Options{ViewMode: ViewFollowing})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(m.Edges))
	}
	if m.Edges[0].Class != ClassEdgeFollowing {
		t.Errorf("class = %s, want %s (no match/mismatch split outside both mode)", m.Edges[0].Class, ClassEdgeFollowing)
	}
}

func TestBuild_MissingOffsetsYieldNaNLabel(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1"},
		Followers: []topology.Node{
			{LocalURL: "https://n1", Following: []string{"https://cloud/v1"}},
		},
	}
	m, err := Build(topo, Options{ViewMode: ViewFollowing})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Edges[0].Label != "NaN" {
		t.Errorf("label = %q, want %q", m.Edges[0].Label, "NaN")
	}
	if n := m.Node("https://n1"); n == nil || n.Info.Delta != "NaN" {
		t.Errorf("node delta = %v, want NaN", n)
	}
}

func TestBuild_Clusters(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1"},
		Followers: []topology.Node{
			{LocalURL: "https://n1", Group: "east"},
			{LocalURL: "https://n2", Group: "west"},
			{LocalURL: "https://n3", Group: "east"},
			{LocalURL: "https://n4"},
		},
	}

	m, err := Build(topo, Options{ViewMode: ViewBoth, Clusters: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(m.Clusters))
	}
	east := m.Clusters[0]
	if east.Label != "east" || len(east.Members) != 2 {
		t.Errorf("east cluster = %+v", east)
	}
	if n := m.Node("https://n1"); n.Cluster != "cluster_east" {
		t.Errorf("n1 cluster = %q", n.Cluster)
	}
	if n := m.Node("https://n4"); n.Cluster != "" {
		t.Errorf("ungrouped follower got cluster %q", n.Cluster)
	}
	if n := m.Node("https://cloud/v1"); n.Cluster != "" {
		t.Errorf("root got cluster %q", n.Cluster)
	}

	// Clustering disabled: same topology, no containers.
	m2, _ := Build(topo, Options{ViewMode: ViewBoth})
	if len(m2.Clusters) != 0 {
		t.Errorf("clusters = %d with clustering disabled", len(m2.Clusters))
	}
}

func TestBuild_NodeClasses(t *testing.T) {
	tests := []struct {
		name string
		node topology.Node
		want string
	}{
		{"DownStatus", topology.Node{LocalURL: "https://n", Status: "down"}, ClassNodeDown},
		{"StoppedPipe", topology.Node{LocalURL: "https://n", Pipe: &topology.PipeInfo{PipeState: "STOPPED"}}, ClassNodeDown},
		{"RunningPipe", topology.Node{LocalURL: "https://n", Pipe: &topology.PipeInfo{PipeState: "RUNNING"}}, ClassNodeUpToDate},
		{"CaughtUp", topology.Node{LocalURL: "https://n", Offsets: &topology.Offsets{BehindRoot: fp(0)}}, ClassNodeUpToDate},
		{"Lagging", topology.Node{LocalURL: "https://n", Offsets: &topology.Offsets{BehindRoot: fp(5)}}, ClassNodeOutOfSync},
		{"NoSignal", topology.Node{LocalURL: "https://n"}, ClassNodeOutOfSync},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := &topology.Topology{
				Root:      topology.Node{LocalURL: "https://cloud/v1"},
				Followers: []topology.Node{tt.node},
			}
			m, err := Build(topo, Options{ViewMode: ViewBoth})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := m.Node("https://n").Class; got != tt.want {
				t.Errorf("class = %s, want %s", got, tt.want)
			}
		})
	}

	m, _ := Build(cloudTopology(), Options{})
	if got := m.Node("https://cloud/v1").Class; got != ClassNodeRoot {
		t.Errorf("root class = %s, want %s", got, ClassNodeRoot)
	}
}

func TestBuild_Labels(t *testing.T) {
	topo := &topology.Topology{
		Root: topology.Node{LocalURL: "https://cloud/v1"},
		Followers: []topology.Node{
			{LocalURL: "https://n1", Pipe: &topology.PipeInfo{Host: "pos-east-1"}},
			{LocalURL: "https://n2"},
		},
	}

	m, err := Build(topo, Options{ViewMode: ViewBoth, Label: LabelPipeHost})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := m.Node("https://n1").Label; got != "pos-east-1" {
		t.Errorf("n1 label = %q, want pipe host", got)
	}
	// Missing pipe info degrades to the display name, never errors.
	if got := m.Node("https://n2").Label; got != "n2" {
		t.Errorf("n2 label = %q, want fallback %q", got, "n2")
	}
	if got := m.Node("https://cloud/v1").Label; got != "cloud/v1" {
		t.Errorf("root label = %q, want fallback %q", got, "cloud/v1")
	}
}

func TestBuild_InvalidOptions(t *testing.T) {
	if _, err := Build(cloudTopology(), Options{ViewMode: "sideways"}); err == nil {
		t.Error("expected error for invalid view mode")
	}
	if _, err := Build(cloudTopology(), Options{Label: "pipe.password"}); err == nil {
		t.Error("expected error for label field outside the enumeration")
	}
}

func TestParseViewMode(t *testing.T) {
	for _, valid := range []string{"following", "requested", "both"} {
		if _, err := ParseViewMode(valid); err != nil {
			t.Errorf("ParseViewMode(%q) = %v", valid, err)
		}
	}
	if _, err := ParseViewMode("all"); err == nil {
		t.Error("ParseViewMode(all) should fail")
	}
}

func TestParseLabelField(t *testing.T) {
	for _, valid := range LabelFields() {
		if _, err := ParseLabelField(string(valid)); err != nil {
			t.Errorf("ParseLabelField(%q) = %v", valid, err)
		}
	}
	if _, err := ParseLabelField("meta.secret"); err == nil {
		t.Error("ParseLabelField should reject paths outside the enumeration")
	}
}

func TestModelJSONRoundTrip(t *testing.T) {
	m, err := Build(cloudTopology(), Options{ViewMode: ViewBoth, Clusters: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	data, err := MarshalModel(m)
	if err != nil {
		t.Fatalf("MarshalModel: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("model JSON is invalid")
	}
	if strings.Contains(string(data), "NaN") {
		// Deltas serialize via the Label string; a bare NaN would make the
		// document unparseable for consumers.
		var check any
		if err := json.Unmarshal(data, &check); err != nil {
			t.Fatalf("model JSON with NaN label does not parse: %v", err)
		}
	}

	got, err := UnmarshalModel(data)
	if err != nil {
		t.Fatalf("UnmarshalModel: %v", err)
	}
	if got.RootID != m.RootID || len(got.Nodes) != len(m.Nodes) || len(got.Edges) != len(m.Edges) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(10); got != "10" {
		t.Errorf("FormatDelta(10) = %q", got)
	}
	if got := FormatDelta(-2.5); got != "-2.5" {
		t.Errorf("FormatDelta(-2.5) = %q", got)
	}
	if got := FormatDelta(nan()); got != "NaN" {
		t.Errorf("FormatDelta(NaN) = %q", got)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
