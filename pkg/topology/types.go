// Package topology defines the wire format for follower/replication
// topologies and small helpers operating on it.
//
// A topology is a snapshot of a replication tree: one root plus the set of
// followers replicating from it, directly or transitively. Each follower
// carries at most one "following" pointer (the upstream it replicates from
// right now) and at most one "requestedToFollow" pointer (the upstream it was
// asked to replicate from). Nodes are identified by their local URL.
//
// The JSON shape matches the external topology endpoint:
//
//	{
//	  "root": {"localUrl": "https://cloud/v1", "offset": 100},
//	  "followers": [
//	    {
//	      "localUrl": "https://n1",
//	      "status": "running",
//	      "offsets": {"PIPE_OFFSET": 90, "behindRoot": 10},
//	      "pipe": {"host": "n1", "ip": "10.0.0.1", "pipeState": "RUNNING"},
//	      "group": "store-east",
//	      "following": ["https://cloud/v1"],
//	      "requestedToFollow": ["https://cloud/v1"]
//	    }
//	  ]
//	}
package topology

// Offsets holds the replication cursors a node reports. Fields are pointers
// so that "absent" and "zero" stay distinguishable; delta computation depends
// on that distinction.
type Offsets struct {
	PipeOffset *float64 `json:"PIPE_OFFSET,omitempty" bson:"pipe_offset,omitempty"`
	BehindRoot *float64 `json:"behindRoot,omitempty" bson:"behind_root,omitempty"`
}

// PipeInfo describes the replication pipe a follower reads from.
type PipeInfo struct {
	Host      string `json:"host,omitempty" bson:"host,omitempty"`
	IP        string `json:"ip,omitempty" bson:"ip,omitempty"`
	PipeState string `json:"pipeState,omitempty" bson:"pipe_state,omitempty"`
}

// Node is a single member of the topology. LocalURL uniquely identifies the
// node; Following and RequestedToFollow each hold zero or one upstream URL.
type Node struct {
	LocalURL          string    `json:"localUrl" bson:"local_url"`
	Status            string    `json:"status,omitempty" bson:"status,omitempty"`
	LastSeen          string    `json:"lastSeen,omitempty" bson:"last_seen,omitempty"`
	Offset            *float64  `json:"offset,omitempty" bson:"offset,omitempty"`
	Offsets           *Offsets  `json:"offsets,omitempty" bson:"offsets,omitempty"`
	Pipe              *PipeInfo `json:"pipe,omitempty" bson:"pipe,omitempty"`
	Group             string    `json:"group,omitempty" bson:"group,omitempty"`
	Following         []string  `json:"following,omitempty" bson:"following,omitempty"`
	RequestedToFollow []string  `json:"requestedToFollow,omitempty" bson:"requested_to_follow,omitempty"`
}

// PipeOffset returns the node's PIPE_OFFSET cursor, or nil if the node does
// not report structured offsets.
func (n *Node) PipeOffset() *float64 {
	if n == nil || n.Offsets == nil {
		return nil
	}
	return n.Offsets.PipeOffset
}

// FollowingURL returns the node's following target, or "" if none is set.
func (n *Node) FollowingURL() string {
	if len(n.Following) == 0 {
		return ""
	}
	return n.Following[0]
}

// RequestedURL returns the node's requested-to-follow target, or "" if none
// is set.
func (n *Node) RequestedURL() string {
	if len(n.RequestedToFollow) == 0 {
		return ""
	}
	return n.RequestedToFollow[0]
}

// Topology is a snapshot of the replication tree.
type Topology struct {
	Root      Node   `json:"root" bson:"root"`
	Followers []Node `json:"followers" bson:"followers"`
}

// Find returns the node whose localUrl matches url scheme-insensitively,
// searching the root first and then the followers. Returns nil if no node
// matches.
func (t *Topology) Find(url string) *Node {
	if SameEndpoint(t.Root.LocalURL, url) {
		return &t.Root
	}
	for i := range t.Followers {
		if SameEndpoint(t.Followers[i].LocalURL, url) {
			return &t.Followers[i]
		}
	}
	return nil
}
