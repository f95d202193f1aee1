package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codesift/codesift/internal/config"
	"github.com/codesift/codesift/internal/search"
	"github.com/codesift/codesift/pkg/types"
)

func newTestHandler(t *testing.T) (http.Handler, string) {
	t.Helper()
	root := t.TempDir()
	content := "package auth\n\nfunc Login() error {\n\treturn nil\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.go"), []byte(content), 0o644))

	engine := search.NewEngine(search.Config{Workers: 2, Logger: zap.NewNop()})
	srv := NewServer(engine, &config.ServerConfig{Host: "localhost", Port: 0}, zap.NewNop())
	return srv.router(), root
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch(t *testing.T) {
	h, root := newTestHandler(t)

	t.Run("returns results", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/search", searchRequest{Query: "login", Path: root})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "auth.go", resp.Results[0].File)
	})

	t.Run("missing query is 400", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/search", searchRequest{Path: root})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("relative path is 400", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/search", searchRequest{Query: "login", Path: "rel/dir"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed query is 400", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/search", searchRequest{Query: `"unbalanced`, Path: root})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("explicit zero merge threshold is honored", func(t *testing.T) {
		content := "package auth\n\nfunc pairA() {\n}\n\nfunc pairB() {\n}\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, "pair.go"), []byte(content), 0o644))

		zero := 0
		rec := postJSON(t, h, "/api/v1/search", searchRequest{Query: "pair", Path: root, MergeThreshold: &zero})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Results, 2)

		// Omitting the field still merges across the default gap.
		rec = postJSON(t, h, "/api/v1/search", searchRequest{Query: "pair", Path: root})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Results, 1)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleExtract(t *testing.T) {
	h, root := newTestHandler(t)

	t.Run("extracts by symbol", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/extract", extractRequest{
			Path: root, Targets: []string{"auth.go#Login"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 1)
		assert.Contains(t, resp.Results[0].Content, "func Login")
	})

	t.Run("unknown symbol is 404", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/extract", extractRequest{
			Path: root, Targets: []string{"auth.go#Nope"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty targets is 400", func(t *testing.T) {
		rec := postJSON(t, h, "/api/v1/extract", extractRequest{Path: root})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
