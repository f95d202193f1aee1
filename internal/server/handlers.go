package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codesift/codesift/internal/search"
	"github.com/codesift/codesift/pkg/types"
)

// searchRequest is the POST /api/v1/search body.
type searchRequest struct {
	Query          string   `json:"query"`
	Path           string   `json:"path"`
	Exact          bool     `json:"exact,omitempty"`
	Strict         bool     `json:"strict,omitempty"`
	AllowTests     bool     `json:"allow_tests,omitempty"`
	NoGitignore    bool     `json:"no_gitignore,omitempty"`
	IgnorePatterns []string `json:"ignore_patterns,omitempty"`
	FilesOnly      bool     `json:"files_only,omitempty"`
	NoMerge        bool     `json:"no_merge,omitempty"`
	MergeThreshold *int     `json:"merge_threshold,omitempty"`
	Algorithm      string   `json:"algorithm,omitempty"`
	Question       string   `json:"question,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	MaxBytes       int      `json:"max_bytes,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Session        string   `json:"session,omitempty"`
	TimeoutMS      int      `json:"timeout_ms,omitempty"`
}

// extractRequest is the POST /api/v1/extract body.
type extractRequest struct {
	Path    string   `json:"path"`
	Targets []string `json:"targets"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Path == "" || !filepath.IsAbs(req.Path) {
		s.respondError(w, http.StatusBadRequest, "path must be absolute")
		return
	}

	sessionID := req.Session
	if sessionID == "new" {
		sessionID = uuid.NewString()
	}
	threshold := -1
	if req.MergeThreshold != nil {
		threshold = *req.MergeThreshold
	}

	opts := search.Options{
		Query:          req.Query,
		Root:           req.Path,
		Exact:          req.Exact,
		Strict:         req.Strict,
		AllowTests:     req.AllowTests,
		NoGitignore:    req.NoGitignore,
		IgnorePatterns: req.IgnorePatterns,
		FilesOnly:      req.FilesOnly,
		NoMerge:        req.NoMerge,
		MergeThreshold: threshold,
		Algorithm:      req.Algorithm,
		Question:       req.Question,
		MaxResults:     req.MaxResults,
		MaxBytes:       req.MaxBytes,
		MaxTokens:      req.MaxTokens,
		SessionID:      sessionID,
		Timeout:        time.Duration(req.TimeoutMS) * time.Millisecond,
	}

	s.logger.Debug("search request", zap.String("query", req.Query), zap.String("path", req.Path))
	response, err := s.engine.Search(r.Context(), opts)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" || !filepath.IsAbs(req.Path) {
		s.respondError(w, http.StatusBadRequest, "path must be absolute")
		return
	}
	if len(req.Targets) == 0 {
		s.respondError(w, http.StatusBadRequest, "targets are required")
		return
	}

	s.logger.Debug("extract request", zap.String("path", req.Path), zap.Int("targets", len(req.Targets)))
	response, err := s.engine.Extract(r.Context(), search.ExtractOptions{Root: req.Path, Targets: req.Targets})
	if err != nil {
		s.respondExtractError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondSearchError maps the error taxonomy onto HTTP statuses.
func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	var syntaxErr *types.QuerySyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrTimeout):
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondExtractError(w http.ResponseWriter, err error) {
	var notFound *types.SymbolNotFoundError
	var outOfRange *types.LineOutOfRangeError
	switch {
	case errors.As(err, &notFound), errors.As(err, &outOfRange):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrTimeout):
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.logger.Error("extract failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
