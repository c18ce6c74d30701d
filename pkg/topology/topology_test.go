package topology

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"HTTPBecomesHTTPS", "http://x/a", "https://x/a"},
		{"HTTPSUnchanged", "https://x/a", "https://x/a"},
		{"HostLowercased", "https://Cloud.Example/v1", "https://cloud.example/v1"},
		{"TrailingSlashDropped", "https://x/a/", "https://x/a"},
		{"PortKept", "https://x:8443/a", "https://x:8443/a"},
		{"Empty", "", ""},
		{"NoScheme", "N1-Host", "n1-host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSameEndpoint(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"SchemeInsensitive", "https://x/a", "http://x/a", true},
		{"Identical", "https://x/a", "https://x/a", true},
		{"DifferentPath", "https://x/a", "https://x/b", false},
		{"DifferentHost", "https://x/a", "https://y/a", false},
		{"DifferentPort", "https://x/a", "https://x:8443/a", false},
		{"EmptyNeverMatches", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameEndpoint(tt.a, tt.b); got != tt.want {
				t.Errorf("SameEndpoint(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("https://cloud/v1/"); got != "cloud/v1" {
		t.Errorf("DisplayName = %q, want %q", got, "cloud/v1")
	}
	if got := DisplayName("n1"); got != "n1" {
		t.Errorf("DisplayName = %q, want %q", got, "n1")
	}
}

func TestUnmarshal(t *testing.T) {
	data := []byte(`{
		"root": {"localUrl": "https://cloud/v1", "offset": 100},
		"followers": [
			{
				"localUrl": "https://n1",
				"status": "running",
				"offsets": {"PIPE_OFFSET": 90, "behindRoot": 10},
				"pipe": {"host": "n1", "ip": "10.0.0.1", "pipeState": "RUNNING"},
				"group": "east",
				"following": ["http://cloud/v1"],
				"requestedToFollow": ["https://cloud/v1"]
			}
		]
	}`)

	topo, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if topo.Root.LocalURL != "https://cloud/v1" {
		t.Errorf("root = %q", topo.Root.LocalURL)
	}
	if topo.Root.Offset == nil || *topo.Root.Offset != 100 {
		t.Errorf("root offset = %v, want 100", topo.Root.Offset)
	}
	if len(topo.Followers) != 1 {
		t.Fatalf("followers = %d, want 1", len(topo.Followers))
	}
	f := topo.Followers[0]
	if got := f.PipeOffset(); got == nil || *got != 90 {
		t.Errorf("PipeOffset = %v, want 90", got)
	}
	if f.FollowingURL() != "http://cloud/v1" {
		t.Errorf("FollowingURL = %q", f.FollowingURL())
	}
	if f.Pipe == nil || f.Pipe.PipeState != "RUNNING" {
		t.Errorf("pipe = %+v", f.Pipe)
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"Malformed", `{"root": `, "decode"},
		{"MissingRootURL", `{"root": {}, "followers": []}`, "missing localUrl"},
		{"FollowerMissingURL", `{"root": {"localUrl": "https://r"}, "followers": [{}]}`, "missing localUrl"},
		{
			"DuplicateSchemeVariant",
			`{"root": {"localUrl": "https://x/a"}, "followers": [{"localUrl": "http://x/a"}]}`,
			"duplicate",
		},
		{
			"TwoFollowingTargets",
			`{"root": {"localUrl": "https://r"}, "followers": [{"localUrl": "https://n1", "following": ["https://a", "https://b"]}]}`,
			"following targets",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadWriteFile(t *testing.T) {
	topo := &Topology{
		Root: Node{LocalURL: "https://cloud/v1", Offset: fp(100)},
		Followers: []Node{
			{LocalURL: "https://n1", Offsets: &Offsets{PipeOffset: fp(90)}, Following: []string{"https://cloud/v1"}},
		},
	}

	path := filepath.Join(t.TempDir(), "topology.json")
	if err := WriteFile(topo, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Root.LocalURL != topo.Root.LocalURL {
		t.Errorf("root = %q, want %q", got.Root.LocalURL, topo.Root.LocalURL)
	}
	if len(got.Followers) != 1 || got.Followers[0].LocalURL != "https://n1" {
		t.Errorf("followers = %+v", got.Followers)
	}
}

func TestFind(t *testing.T) {
	topo := &Topology{
		Root:      Node{LocalURL: "https://cloud/v1"},
		Followers: []Node{{LocalURL: "https://n1"}, {LocalURL: "https://n2"}},
	}

	if n := topo.Find("http://cloud/v1"); n == nil || n.LocalURL != "https://cloud/v1" {
		t.Errorf("Find(root scheme variant) = %v", n)
	}
	if n := topo.Find("https://n2"); n == nil || n.LocalURL != "https://n2" {
		t.Errorf("Find(follower) = %v", n)
	}
	if n := topo.Find("https://unknown"); n != nil {
		t.Errorf("Find(unknown) = %v, want nil", n)
	}
}
