package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesift/codesift/internal/query"
	"github.com/codesift/codesift/pkg/types"
)

func mustPlan(t *testing.T, q string) *query.Plan {
	t.Helper()
	plan, err := query.Parse(q, false)
	require.NoError(t, err)
	return plan
}

func chunkWith(content string) *types.Chunk {
	return &types.Chunk{
		File:      "src/main.go",
		StartLine: 1,
		EndLine:   10,
		Content:   content,
		Kind:      types.ChunkFunction,
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"handleRequest", []string{"handle", "request"}},
		{"snake_case_name", []string{"snake", "case", "name"}},
		{"HTTPServer", []string{"http", "server"}},
		{"parseJSONBody", []string{"parse", "json", "body"}},
		{"sha256sum", []string{"sha", "256", "sum"}},
		{"foo.bar(baz)", []string{"foo", "bar", "baz"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestStem_CloseWordFormsAgree(t *testing.T) {
	assert.Equal(t, Stem("handle"), Stem("handler"))
	assert.Equal(t, Stem("handle"), Stem("handling"))
	assert.Equal(t, Stem("query"), Stem("queries"))
}

func TestMatchChunk_FuzzyIdentifierSplit(t *testing.T) {
	// "handler" must match handleRequest under default fuzzy tokenization.
	m := NewMatcher(mustPlan(t, "handler"), false)
	c := chunkWith("func handleRequest(w http.ResponseWriter) {}")

	require.True(t, m.MatchChunk(c))
	assert.True(t, c.Matched("handler"))
	assert.Equal(t, 1, c.TermCounts["handler"])
}

func TestMatchChunk_AndRequiresAllTerms(t *testing.T) {
	m := NewMatcher(mustPlan(t, "auth login"), false)

	both := chunkWith("func authLogin() {}")
	require.True(t, m.MatchChunk(both))
	assert.True(t, both.Matched("auth"))
	assert.True(t, both.Matched("login"))

	one := chunkWith("func authOnly() {}")
	assert.False(t, m.MatchChunk(one))
}

func TestMatchChunk_OrRequiresAnyTerm(t *testing.T) {
	m := NewMatcher(mustPlan(t, "auth OR login"), false)

	c := chunkWith("func login() {}")
	require.True(t, m.MatchChunk(c))
	assert.True(t, c.Matched("login"))
	assert.False(t, c.Matched("auth"))
}

func TestMatchChunk_ExactModeIsCaseSensitive(t *testing.T) {
	m := NewMatcher(mustPlan(t, "auth OR login"), true)

	// "Login" does not match "login" in exact mode; "auth" does.
	miss := chunkWith(`func Login() {}`)
	assert.False(t, m.MatchChunk(miss))

	hit := chunkWith(`func auth() {}`)
	require.True(t, m.MatchChunk(hit))
	assert.True(t, hit.Matched("auth"))
}

func TestMatchChunk_ExactModeDisablesTokenization(t *testing.T) {
	// Fuzzy would match "handler" against handleRequest; exact must not.
	m := NewMatcher(mustPlan(t, "handler"), true)
	assert.False(t, m.MatchChunk(chunkWith("func handleRequest() {}")))
}

func TestMatchChunk_PhraseRequiresContiguousTokens(t *testing.T) {
	m := NewMatcher(mustPlan(t, `"read timeout"`), false)

	hit := chunkWith("cfg.ReadTimeout = 5")
	require.True(t, m.MatchChunk(hit))

	miss := chunkWith("read the write timeout")
	assert.False(t, m.MatchChunk(miss))
}

func TestMatchChunk_OccurrenceCounts(t *testing.T) {
	m := NewMatcher(mustPlan(t, "retry"), false)
	c := chunkWith("retry := 0\nfor retry < maxRetries { retry++ }")

	require.True(t, m.MatchChunk(c))
	// "retry" x3 plus "maxRetries" sub-token stems to the same form.
	assert.Equal(t, 4, c.TermCounts["retry"])
}

func TestMatchChunk_FilterOnlyPlanMatchesAll(t *testing.T) {
	m := NewMatcher(mustPlan(t, "ext:go"), false)
	c := chunkWith("anything at all")
	assert.True(t, m.MatchChunk(c))
	assert.Empty(t, c.MatchedTerms)
}

func TestFileMatches(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		query   string
		matches bool
	}{
		{"ext hit", "src/main.rs", "handler ext:rs", true},
		{"ext miss", "util.py", "handler ext:rs", false},
		{"dir hit", "src/auth/login.go", "x dir:auth", true},
		{"dir miss", "lib/login.go", "x dir:auth", false},
		{"file substring", "internal/session/cache.go", "x file:session", true},
		{"file glob", "src/pkg/util.py", "x file:src/**/*.py", true},
		{"file glob miss", "lib/util.py", "x file:src/**/*.py", false},
		{"type hit", "cmd/main.go", "x type:go", true},
		{"lang alias", "scripts/run.py", "x lang:python", true},
		{"lang miss", "scripts/run.py", "x lang:rust", false},
		{"unknown type never matches", "a.xyz", "x type:nosuch", false},
		{"all filters must pass", "src/main.rs", "x ext:rs dir:test", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := mustPlan(t, tt.query)
			assert.Equal(t, tt.matches, FileMatches(tt.path, plan.Filters))
		})
	}
}
