package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/pipeline"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error     string      `json:"error"`
	Code      errors.Code `json:"code,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTopology returns the raw topology snapshot.
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromQuery(r)
	topo, cached, err := s.runner.FetchWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(cached))
	s.writeJSON(w, r, http.StatusOK, topo)
}

// handleGraph returns the derived graph model as JSON.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromQuery(r)
	opts.Formats = []string{pipeline.FormatJSON}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(result.CacheInfo.FetchHit))
	w.Header().Set("X-Model-Hash", result.ModelHash)
	s.writeRaw(w, "application/json", result.Artifacts[pipeline.FormatJSON])
}

// handleGraphSVG returns the rendered interactive SVG document.
func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromQuery(r)
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Tooltips = true

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(result.CacheInfo.RenderHit))
	s.writeRaw(w, "image/svg+xml", result.Artifacts[pipeline.FormatSVG])
}

// handleGraphDOT returns the generated Graphviz DOT source.
func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromQuery(r)
	opts.Formats = []string{pipeline.FormatDOT}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRaw(w, "text/vnd.graphviz", result.Artifacts[pipeline.FormatDOT])
}

// handleRefresh drops the cached topology and re-fetches it.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	opts := optionsFromQuery(r)
	opts.Refresh = true

	topo, _, err := s.runner.FetchWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"refreshed": true,
		"followers": len(topo.Followers),
	})
}

// optionsFromQuery builds pipeline options from request query parameters.
// Unknown values surface as validation errors from the pipeline itself.
func optionsFromQuery(r *http.Request) pipeline.Options {
	q := r.URL.Query()
	opts := pipeline.Options{
		ViewMode: q.Get("view"),
		Label:    q.Get("label"),
		Style:    q.Get("style"),
	}
	if v := q.Get("clusters"); v != "" {
		opts.Clusters, _ = strconv.ParseBool(v)
	} else {
		opts.Clusters = true
	}
	if v, err := strconv.ParseFloat(q.Get("width"), 64); err == nil && v > 0 {
		opts.Width = v
	}
	if v, err := strconv.ParseFloat(q.Get("height"), 64); err == nil && v > 0 {
		opts.Height = v
	}
	if v, err := strconv.ParseBool(q.Get("refresh")); err == nil {
		opts.Refresh = v
	}
	return opts
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "id", RequestID(r.Context()), "err", err)
	}
}

func (s *Server) writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= 500 {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "code", code, "err", err)
	}
	s.writeJSON(w, r, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      code,
		RequestID: RequestID(r.Context()),
	})
}

// statusForCode maps structured error codes to HTTP statuses. Upstream data
// problems are gateway errors: the server itself is healthy, the topology
// source is not.
func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidViewMode,
		errors.ErrCodeInvalidLayoutStyle,
		errors.ErrCodeInvalidLabelField,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeFetchFailed,
		errors.ErrCodeDecodeFailed,
		errors.ErrCodeInvalidTopology:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
