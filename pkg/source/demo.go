package source

import (
	"github.com/followviz/followviz/pkg/topology"
)

func fp(v float64) *float64 { return &v }

// Demo returns a built-in topology snapshot: a cloud root with store
// followers spread over two clusters, covering every node status and both
// edge situations (granted request, diverging request). Used by `serve
// --demo` and the examples.
func Demo() *topology.Topology {
	return &topology.Topology{
		Root: topology.Node{
			LocalURL: "https://cloud.example.com/v1",
			Status:   "running",
			Offset:   fp(1200),
		},
		Followers: []topology.Node{
			{
				LocalURL: "https://store-001.nyc.example.com",
				Status:   "running",
				Offsets:  &topology.Offsets{PipeOffset: fp(1200), BehindRoot: fp(0)},
				Pipe: &topology.PipeInfo{
					Host: "store-001", IP: "10.1.0.11", PipeState: "RUNNING",
				},
				Group:             "Cluster-NYC",
				Following:         []string{"https://cloud.example.com/v1"},
				RequestedToFollow: []string{"https://cloud.example.com/v1"},
			},
			{
				LocalURL: "https://store-002.nyc.example.com",
				Status:   "running",
				Offsets:  &topology.Offsets{PipeOffset: fp(1155), BehindRoot: fp(45)},
				Pipe: &topology.PipeInfo{
					Host: "store-002", IP: "10.1.0.12", PipeState: "RUNNING",
				},
				Group: "Cluster-NYC",
				// Replicates via store-001 but has asked to follow the cloud.
				Following:         []string{"https://store-001.nyc.example.com"},
				RequestedToFollow: []string{"https://cloud.example.com/v1"},
			},
			{
				LocalURL: "https://store-003.la.example.com",
				Status:   "running",
				Offsets:  &topology.Offsets{PipeOffset: fp(980), BehindRoot: fp(220)},
				Pipe: &topology.PipeInfo{
					Host: "store-003", IP: "10.2.0.11", PipeState: "CATCHING_UP",
				},
				Group:             "Cluster-LA",
				Following:         []string{"http://cloud.example.com/v1"},
				RequestedToFollow: []string{"https://cloud.example.com/v1"},
			},
			{
				LocalURL: "https://store-004.la.example.com",
				Status:   "down",
				LastSeen: "2026-08-23T19:04:12Z",
				Offsets:  &topology.Offsets{PipeOffset: fp(610)},
				Pipe: &topology.PipeInfo{
					Host: "store-004", IP: "10.2.0.12", PipeState: "STOPPED",
				},
				Group:     "Cluster-LA",
				Following: []string{"https://cloud.example.com/v1"},
			},
			{
				// Fresh install: no offsets reported yet, follow target not in
				// this snapshot.
				LocalURL:  "https://store-005.chi.example.com",
				Status:    "running",
				Group:     "Cluster-Chicago",
				Following: []string{"https://decommissioned.example.com"},
			},
		},
	}
}
