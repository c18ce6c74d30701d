package source

// DemoTree returns a fixed region/cluster/store/terminal hierarchy for demo
// mode, shaped like a small two-region fleet.
func DemoTree() []POSNode {
	return []POSNode{
		{
			ID: "R001", Name: "East Region", Type: "region", Active: true,
			Children: []POSNode{
				{
					ID: "C001", Name: "Cluster-NYC", Type: "cluster", Active: true,
					Children: []POSNode{
						{
							ID: "S001", Name: "Store-001", Type: "store", Active: true,
							Children: []POSNode{
								{ID: "POS-001-01", Name: "POS-001-01", Type: "pos", Active: true},
								{ID: "POS-001-02", Name: "POS-001-02", Type: "pos", Active: true},
							},
						},
						{
							ID: "S002", Name: "Store-002", Type: "store", Active: true,
							Children: []POSNode{
								{ID: "POS-002-01", Name: "POS-002-01", Type: "pos", Active: true},
								{ID: "POS-002-02", Name: "POS-002-02", Type: "pos", Active: false},
							},
						},
					},
				},
			},
		},
		{
			ID: "R002", Name: "West Region", Type: "region", Active: true,
			Children: []POSNode{
				{
					ID: "C002", Name: "Cluster-LA", Type: "cluster", Active: true,
					Children: []POSNode{
						{
							ID: "S003", Name: "Store-003", Type: "store", Active: true,
							Children: []POSNode{
								{ID: "POS-003-01", Name: "POS-003-01", Type: "pos", Active: true},
								{ID: "POS-003-02", Name: "POS-003-02", Type: "pos", Active: true},
							},
						},
					},
				},
			},
		},
	}
}

// demoStoreStatuses is the fixed per-terminal state backing DemoTracking.
var demoStoreStatuses = map[string][]POSMessageStatus{
	"S001": {
		{POSID: "POS-001-01", POSName: "POS-001-01", Status: POSStatusDelivered, LastUpdate: "2026-08-24 10:02:11"},
		{POSID: "POS-001-02", POSName: "POS-001-02", Status: POSStatusDelivered, LastUpdate: "2026-08-24 10:02:40"},
	},
	"S002": {
		{POSID: "POS-002-01", POSName: "POS-002-01", Status: POSStatusProcessing, LastUpdate: "2026-08-24 10:03:05"},
		{POSID: "POS-002-02", POSName: "POS-002-02", Status: POSStatusFailed, LastUpdate: "2026-08-24 09:48:19", RetryAttempts: 2},
	},
	"S003": {
		{POSID: "POS-003-01", POSName: "POS-003-01", Status: POSStatusDelivered, LastUpdate: "2026-08-24 10:01:57"},
		{POSID: "POS-003-02", POSName: "POS-003-02", Status: POSStatusPending, LastUpdate: "2026-08-24 10:04:30"},
	},
}

// DemoTracking returns a fixed tracking response for demo mode, honoring the
// same store filters as the live endpoint.
func DemoTracking(messageKey string, opts TrackOptions) *TrackingResponse {
	var targets []string
	switch {
	case opts.StoreID != "":
		targets = []string{opts.StoreID}
	case len(opts.StoreIDs) > 0:
		targets = opts.StoreIDs
	default:
		targets = []string{"S001", "S002", "S003"}
	}

	resp := &TrackingResponse{
		MessageKey:   messageKey,
		OverallStats: map[string]int{"total": 0},
	}
	for _, id := range targets {
		statuses, ok := demoStoreStatuses[id]
		if !ok {
			continue
		}
		store := StoreMessageStatus{
			StoreID:      id,
			StoreName:    "Store-" + id[1:],
			StatusCounts: map[string]int{},
			POSStatuses:  statuses,
		}
		for _, s := range statuses {
			store.StatusCounts[s.Status]++
			resp.OverallStats[s.Status]++
			resp.OverallStats["total"]++
		}
		resp.Stores = append(resp.Stores, store)
	}
	return resp
}
