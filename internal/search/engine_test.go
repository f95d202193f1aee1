package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codesift/codesift/pkg/types"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func testEngine() *Engine {
	return NewEngine(Config{Workers: 2, Logger: zap.NewNop()})
}

func TestSearch_FilterRejectsWrongExtension(t *testing.T) {
	// "handler AND ext:rs" returns the Rust chunk, not the Python one.
	root := writeTree(t, map[string]string{
		"src/main.rs": "fn handle_request(req: Request) {\n    process(req)\n}\n",
		"util.py":     "def handler():\n    pass\n",
	})

	resp, err := testEngine().Search(context.Background(), Options{
		Query: "handler AND ext:rs",
		Root:  root,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "src/main.rs", resp.Results[0].File)
	assert.Contains(t, resp.Results[0].Content, "handle_request")
}

func TestSearch_AndTermsAllMatched(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc authLogin() {}\n",
		"b.go": "package b\n\nfunc authOnly() {}\n",
	})

	resp, err := testEngine().Search(context.Background(), Options{
		Query: "auth login",
		Root:  root,
	})
	require.NoError(t, err)

	// Every returned chunk's matched-term set covers all query terms.
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Contains(t, r.MatchedTerms, "auth")
		assert.Contains(t, r.MatchedTerms, "login")
	}
}

func TestSearch_OrTermsAnyMatched(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc login() {}\n",
		"b.go": "package b\n\nfunc auth() {}\n",
		"c.go": "package c\n\nfunc unrelated() {}\n",
	})

	resp, err := testEngine().Search(context.Background(), Options{
		Query: "auth OR login",
		Root:  root,
	})
	require.NoError(t, err)

	files := make(map[string]bool)
	for _, r := range resp.Results {
		assert.NotEmpty(t, r.MatchedTerms)
		files[r.File] = true
	}
	assert.True(t, files["a.go"])
	assert.True(t, files["b.go"])
	assert.False(t, files["c.go"])
}

func TestSearch_ExactModeCaseSensitive(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc doAuth() { x := \"auth\" }\n",
		"b.go": "package b\n\nfunc doLogin() { x := \"Login\" }\n",
	})

	resp, err := testEngine().Search(context.Background(), Options{
		Query: "auth OR login",
		Root:  root,
		Exact: true,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.go", resp.Results[0].File)
}

func TestSearch_FilesOnly(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc login() {}\n",
		"b.go": "package b\n\nfunc other() {}\n",
	})

	resp, err := testEngine().Search(context.Background(), Options{
		Query:     "login",
		Root:      root,
		FilesOnly: true,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.go", resp.Results[0].File)
	assert.Empty(t, resp.Results[0].Content)
}

func TestSearch_SessionPagination(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc login1() {}\n\nfunc login2() {}\n",
		"b.go": "package b\n\nfunc login3() {}\n",
		"c.go": "package c\n\nfunc login4() {}\n",
	})

	e := testEngine()
	opts := Options{
		Query:      "login",
		Root:       root,
		NoMerge:    true,
		MaxResults: 2,
		SessionID:  "page-test",
	}

	first, err := e.Search(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, first.Results, 2)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 4, first.TotalMatches)

	second, err := e.Search(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, second.Results, 2)
	assert.True(t, second.CacheHit)

	// Pages are disjoint, contiguous slices of one ranked sequence.
	seen := make(map[string]bool)
	for _, r := range append(first.Results, second.Results...) {
		key := r.File + ":" + r.Content
		assert.False(t, seen[key], "result served twice: %s", key)
		seen[key] = true
	}

	third, err := e.Search(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, third.CacheHit)
	assert.Empty(t, third.Results)
}

func TestSearch_SessionResetOnDifferentQuery(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc login() {}\n\nfunc auth() {}\n",
	})

	e := testEngine()
	_, err := e.Search(context.Background(), Options{
		Query: "login", Root: root, SessionID: "s", MaxResults: 1,
	})
	require.NoError(t, err)

	// Same session id, different query: transparent recompute, cursor reset.
	resp, err := e.Search(context.Background(), Options{
		Query: "auth", Root: root, SessionID: "s", MaxResults: 1,
	})
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	require.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results[0].MatchedTerms, "auth")
}

func TestSearch_TimeoutFailsWithoutPartialState(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc login() {}\n",
	})

	e := testEngine()
	_, err := e.Search(context.Background(), Options{
		Query:     "login",
		Root:      root,
		SessionID: "timed-out",
		Timeout:   time.Nanosecond,
	})
	require.ErrorIs(t, err, types.ErrTimeout)
	assert.Equal(t, 0, e.Sessions().Len())
}

func TestSearch_QuerySyntaxErrorSurfaces(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})

	_, err := testEngine().Search(context.Background(), Options{
		Query: `"unbalanced`, Root: root,
	})
	var syntaxErr *types.QuerySyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestSearch_MergeThresholdBehavior(t *testing.T) {
	// Two matched declarations separated by a 2-line gap merge under the
	// default threshold and stay separate with threshold 0 or no-merge.
	content := "package a\n\nfunc loginA() {\n}\n\nfunc loginB() {\n}\n"
	root := writeTree(t, map[string]string{"a.go": content})

	e := testEngine()

	merged, err := e.Search(context.Background(), Options{Query: "login", Root: root, MergeThreshold: -1})
	require.NoError(t, err)
	require.Len(t, merged.Results, 1)

	// Threshold 0 is an explicit value, not "unset": gapped chunks stay apart.
	overlapOnly, err := e.Search(context.Background(), Options{Query: "login", Root: root, MergeThreshold: 0})
	require.NoError(t, err)
	assert.Len(t, overlapOnly.Results, 2)

	separate, err := e.Search(context.Background(), Options{Query: "login", Root: root, NoMerge: true})
	require.NoError(t, err)
	assert.Len(t, separate.Results, 2)
}

func TestSearch_UnsupportedLanguageFallsBackToWholeFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"script.lua": "function login()\n  return true\nend\n",
	})

	resp, err := testEngine().Search(context.Background(), Options{Query: "login", Root: root})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.ChunkFile, resp.Results[0].Kind)
}

func TestExtract_Targets(t *testing.T) {
	content := "package a\n\n// Login authenticates.\nfunc Login() {\n\treturn\n}\n\nfunc Other() {}\n"
	root := writeTree(t, map[string]string{"auth.go": content})

	e := testEngine()

	bySymbol, err := e.Extract(context.Background(), ExtractOptions{
		Root: root, Targets: []string{"auth.go#Login"},
	})
	require.NoError(t, err)
	require.Len(t, bySymbol.Results, 1)
	assert.Contains(t, bySymbol.Results[0].Content, "func Login")

	byLine, err := e.Extract(context.Background(), ExtractOptions{
		Root: root, Targets: []string{"auth.go:5"},
	})
	require.NoError(t, err)
	require.Len(t, byLine.Results, 1)
	assert.Contains(t, byLine.Results[0].Content, "func Login")

	_, err = e.Extract(context.Background(), ExtractOptions{
		Root: root, Targets: []string{"auth.go#Missing"},
	})
	var notFound *types.SymbolNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
