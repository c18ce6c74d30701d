package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/followviz/followviz/pkg/cache"
	"github.com/followviz/followviz/pkg/errors"
)

// POS message statuses, as reported by the tracking collaborator.
const (
	POSStatusDelivered  = "delivered"
	POSStatusProcessing = "processing"
	POSStatusPending    = "pending"
	POSStatusFailed     = "failed"
)

// POSNode is one node of the region/cluster/store/pos hierarchy served by
// the tracking collaborator.
type POSNode struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Active   bool      `json:"active"`
	Children []POSNode `json:"children,omitempty"`
}

// POSMessageStatus is the delivery state of one message at one terminal.
type POSMessageStatus struct {
	POSID         string `json:"posId"`
	POSName       string `json:"posName"`
	Status        string `json:"status"`
	LastUpdate    string `json:"lastUpdate"`
	RetryAttempts int    `json:"retryAttempts"`
}

// StoreMessageStatus aggregates per-terminal statuses for one store.
type StoreMessageStatus struct {
	StoreID      string             `json:"storeId"`
	StoreName    string             `json:"storeName"`
	StatusCounts map[string]int     `json:"statusCounts"`
	POSStatuses  []POSMessageStatus `json:"posStatuses"`
}

// TrackingResponse is the collaborator's answer to a message-tracking query.
type TrackingResponse struct {
	MessageKey   string               `json:"messageKey"`
	OverallStats map[string]int       `json:"overallStats"`
	Stores       []StoreMessageStatus `json:"stores"`
}

// TrackOptions narrows a tracking query. Zero value tracks across all stores.
type TrackOptions struct {
	StoreID   string
	ClusterID string
	StoreIDs  []string
}

// POSClient talks to the message-delivery tracking collaborator. It is a thin
// read-only client; followviz only consumes the tree and tracking views.
type POSClient struct {
	BaseURL string
	Client  *http.Client
}

// NewPOSClient creates a client for the collaborator at baseURL.
func NewPOSClient(baseURL string) *POSClient {
	return &POSClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  NewHTTPClient(),
	}
}

// FetchTree retrieves the full region/cluster/store/pos hierarchy.
func (c *POSClient) FetchTree(ctx context.Context) ([]POSNode, error) {
	var tree []POSNode
	if err := c.get(ctx, "/api/pos/tree", &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// FetchClusters retrieves the known cluster names.
func (c *POSClient) FetchClusters(ctx context.Context) ([]string, error) {
	var clusters []string
	if err := c.get(ctx, "/api/pos/clusters", &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// FetchStores retrieves the store names belonging to a cluster.
func (c *POSClient) FetchStores(ctx context.Context, cluster string) ([]string, error) {
	var stores []string
	path := "/api/pos/stores/" + url.PathEscape(cluster)
	if err := c.get(ctx, path, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// TrackMessage queries the delivery state of a message, optionally narrowed
// to a store, a cluster, or an explicit store list.
func (c *POSClient) TrackMessage(ctx context.Context, messageKey string, opts TrackOptions) (*TrackingResponse, error) {
	if messageKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "messageKey is required")
	}

	q := url.Values{}
	q.Set("messageKey", messageKey)
	if opts.StoreID != "" {
		q.Set("storeId", opts.StoreID)
	}
	if opts.ClusterID != "" {
		q.Set("clusterId", opts.ClusterID)
	}
	for _, id := range opts.StoreIDs {
		q.Add("storeIds", id)
	}

	var resp TrackingResponse
	if err := c.get(ctx, "/api/messages/track?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *POSClient) get(ctx context.Context, path string, v any) error {
	endpoint := c.BaseURL + path
	return cache.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFetchFailed, err, "build request for %s", endpoint)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.Client.Do(req)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch %s", endpoint))
		}
		defer resp.Body.Close()

		if err := checkStatus(endpoint, resp.StatusCode); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeFetchFailed, err, "read %s", endpoint))
		}
		if err := json.Unmarshal(body, v); err != nil {
			return errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", endpoint)
		}
		return nil
	})
}

// FailureRate summarizes a tracking response as failed/(total) per store,
// keyed by store ID. Stores with no messages report 0.
func FailureRate(resp *TrackingResponse) map[string]float64 {
	rates := make(map[string]float64, len(resp.Stores))
	for _, s := range resp.Stores {
		total := 0
		for _, n := range s.StatusCounts {
			total += n
		}
		if total == 0 {
			rates[s.StoreID] = 0
			continue
		}
		rates[s.StoreID] = float64(s.StatusCounts[POSStatusFailed]) / float64(total)
	}
	return rates
}

// WalkTree visits every node of a POS hierarchy depth-first.
func WalkTree(nodes []POSNode, visit func(n *POSNode, depth int)) {
	var walk func(ns []POSNode, depth int)
	walk = func(ns []POSNode, depth int) {
		for i := range ns {
			visit(&ns[i], depth)
			walk(ns[i].Children, depth+1)
		}
	}
	walk(nodes, 0)
}

// TreeSummary renders a one-line-per-node text view of a POS hierarchy,
// used by the track command's tree output.
func TreeSummary(nodes []POSNode) string {
	var b strings.Builder
	WalkTree(nodes, func(n *POSNode, depth int) {
		state := "active"
		if !n.Active {
			state = "inactive"
		}
		fmt.Fprintf(&b, "%s%s %s (%s, %s)\n", strings.Repeat("  ", depth), n.ID, n.Name, n.Type, state)
	})
	return b.String()
}
