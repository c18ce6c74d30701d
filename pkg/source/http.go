package source

import (
	"context"
	"io"
	"net/http"

	"github.com/followviz/followviz/pkg/cache"
	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/topology"
)

// HTTPSource fetches the topology from a JSON endpoint. Transient failures
// (network errors, 5xx) are retried with backoff; a malformed or invalid
// body fails immediately.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source for the given endpoint URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: NewHTTPClient()}
}

// Name implements [TopologySource].
func (s *HTTPSource) Name() string { return s.URL }

// Fetch implements [TopologySource].
func (s *HTTPSource) Fetch(ctx context.Context) (*topology.Topology, error) {
	var topo *topology.Topology
	err := cache.RetryWithBackoff(ctx, func() error {
		t, err := s.fetchOnce(ctx)
		if err != nil {
			return err
		}
		topo = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topo, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context) (*topology.Topology, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "build request for %s", s.URL)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch %s", s.URL))
	}
	defer resp.Body.Close()

	if err := checkStatus(s.URL, resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeFetchFailed, err, "read %s", s.URL))
	}

	topo, err := topology.Unmarshal(body)
	if err != nil {
		return nil, err
	}
	return topo, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: not found", url)
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeFetchFailed, "%s: status %d", url, code))
	default:
		return errors.New(errors.ErrCodeFetchFailed, "%s: status %d", url, code)
	}
}
