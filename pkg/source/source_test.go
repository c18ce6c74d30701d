package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/topology"
)

const topologyJSON = `{
	"root": {"localUrl": "https://cloud/v1", "offset": 100},
	"followers": [
		{"localUrl": "https://n1", "offsets": {"PIPE_OFFSET": 90}, "following": ["https://cloud/v1"]}
	]
}`

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(topologyJSON))
	}))
	defer srv.Close()

	topo, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if topo.Root.LocalURL != "https://cloud/v1" || len(topo.Followers) != 1 {
		t.Errorf("topology = %+v", topo)
	}
}

func TestHTTPSource_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(topologyJSON))
	}))
	defer srv.Close()

	topo, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if topo == nil || calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPSource_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode errors.Code
	}{
		{
			"NotFound",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			errors.ErrCodeNotFound,
		},
		{
			"ClientError",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			errors.ErrCodeFetchFailed,
		},
		{
			"MalformedBody",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"root": `)) },
			errors.ErrCodeDecodeFailed,
		},
		{
			"InvalidTopology",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"root": {}}`)) },
			errors.ErrCodeInvalidTopology,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPSource(srv.URL).Fetch(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestStaticSource(t *testing.T) {
	s := NewStaticSource("demo", Demo())
	topo, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if topo.Root.LocalURL == "" || len(topo.Followers) == 0 {
		t.Errorf("demo topology = %+v", topo)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx); err == nil {
		t.Error("expected error on canceled context")
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.json")
	if err := topology.WriteFile(Demo(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := &FileSource{Path: path}
	topo, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(topo.Followers) != len(Demo().Followers) {
		t.Errorf("followers = %d", len(topo.Followers))
	}
	if !strings.HasPrefix(s.Name(), "file:") {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestDemo_IsValid(t *testing.T) {
	data, err := topology.Marshal(Demo())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := topology.Unmarshal(data); err != nil {
		t.Fatalf("demo topology does not validate: %v", err)
	}
}

func TestPOSClient_FetchTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pos/tree" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id": "R001", "name": "East Region", "type": "region", "active": true, "children": [
				{"id": "C001", "name": "Cluster-NYC", "type": "cluster", "active": true, "children": [
					{"id": "S001", "name": "Store-001", "type": "store", "active": true}
				]}
			]}
		]`))
	}))
	defer srv.Close()

	tree, err := NewPOSClient(srv.URL).FetchTree(context.Background())
	if err != nil {
		t.Fatalf("FetchTree: %v", err)
	}
	if len(tree) != 1 || tree[0].ID != "R001" {
		t.Fatalf("tree = %+v", tree)
	}

	var ids []string
	WalkTree(tree, func(n *POSNode, depth int) { ids = append(ids, n.ID) })
	if len(ids) != 3 || ids[2] != "S001" {
		t.Errorf("walked ids = %v", ids)
	}

	summary := TreeSummary(tree)
	if !strings.Contains(summary, "C001 Cluster-NYC (cluster, active)") {
		t.Errorf("summary = %q", summary)
	}
}

func TestPOSClient_TrackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("messageKey") != "MSG-42" || q.Get("clusterId") != "C001" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"messageKey": "MSG-42",
			"overallStats": {"delivered": 3, "failed": 1},
			"stores": [
				{"storeId": "S001", "storeName": "Store-001",
				 "statusCounts": {"delivered": 3, "failed": 1},
				 "posStatuses": [
					{"posId": "P001", "posName": "POS-001", "status": "failed", "retryAttempts": 2}
				 ]}
			]
		}`))
	}))
	defer srv.Close()

	resp, err := NewPOSClient(srv.URL).TrackMessage(context.Background(), "MSG-42", TrackOptions{ClusterID: "C001"})
	if err != nil {
		t.Fatalf("TrackMessage: %v", err)
	}
	if resp.MessageKey != "MSG-42" || resp.OverallStats["delivered"] != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Stores[0].POSStatuses[0].RetryAttempts != 2 {
		t.Errorf("retryAttempts = %d", resp.Stores[0].POSStatuses[0].RetryAttempts)
	}

	rates := FailureRate(resp)
	if rates["S001"] != 0.25 {
		t.Errorf("failure rate = %v, want 0.25", rates["S001"])
	}
}

func TestPOSClient_TrackMessage_RequiresKey(t *testing.T) {
	if _, err := NewPOSClient("http://unused").TrackMessage(context.Background(), "", TrackOptions{}); err == nil {
		t.Error("expected error for empty message key")
	}
}

func TestDemoTree(t *testing.T) {
	tree := DemoTree()

	var stores, terminals int
	WalkTree(tree, func(n *POSNode, depth int) {
		switch n.Type {
		case "store":
			stores++
		case "pos":
			terminals++
		}
	})
	if stores != 3 || terminals != 6 {
		t.Errorf("stores = %d, terminals = %d", stores, terminals)
	}
}

func TestDemoTracking(t *testing.T) {
	resp := DemoTracking("MSG-1", TrackOptions{})
	if resp.MessageKey != "MSG-1" || len(resp.Stores) != 3 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.OverallStats["total"] != 6 {
		t.Errorf("total = %d, want 6", resp.OverallStats["total"])
	}

	var counted int
	for _, s := range resp.Stores {
		for _, n := range s.StatusCounts {
			counted += n
		}
	}
	if counted != resp.OverallStats["total"] {
		t.Errorf("per-store counts sum to %d, overall total is %d", counted, resp.OverallStats["total"])
	}

	// Store filter narrows the response the same way the live endpoint does.
	one := DemoTracking("MSG-1", TrackOptions{StoreID: "S002"})
	if len(one.Stores) != 1 || one.Stores[0].StoreName != "Store-002" {
		t.Fatalf("filtered = %+v", one.Stores)
	}
	if one.Stores[0].StatusCounts[POSStatusFailed] != 1 {
		t.Errorf("statusCounts = %v", one.Stores[0].StatusCounts)
	}
}
