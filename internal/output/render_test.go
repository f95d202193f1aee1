package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesift/codesift/pkg/types"
)

func sampleResponse() *types.Response {
	return &types.Response{
		Results: []types.ScoredResult{
			{
				File:         "src/auth.go",
				StartLine:    10,
				EndLine:      14,
				Kind:         types.ChunkFunction,
				Content:      "func Login() error {\n\treturn nil\n}",
				Score:        2.5,
				MatchedTerms: []string{"login"},
			},
			{
				File:      "src/auth.go",
				StartLine: 20,
				EndLine:   22,
				Kind:      types.ChunkFunction,
				Content:   "func Logout() {}",
				Score:     1.1,
			},
		},
		TotalMatches:  2,
		FilesSearched: 5,
		Elapsed:       12 * time.Millisecond,
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":           FormatTerminal,
		"terminal":   FormatTerminal,
		"plain":      FormatPlain,
		"md":         FormatMarkdown,
		"json":       FormatJSON,
		"xml":        FormatXML,
		"files-only": FormatFilesOnly,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestWrite_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResponse(), FormatPlain))

	out := buf.String()
	assert.Contains(t, out, "src/auth.go:10-14")
	assert.Contains(t, out, "func Login()")
	assert.Contains(t, out, "score 2.5000")
}

func TestWrite_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResponse(), FormatMarkdown))

	out := buf.String()
	assert.Contains(t, out, "### src/auth.go:10-14")
	assert.Contains(t, out, "```go\nfunc Login() error {")
}

func TestWrite_JSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResponse(), FormatJSON))

	var decoded types.Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "src/auth.go", decoded.Results[0].File)
	assert.Equal(t, 2, decoded.TotalMatches)
}

func TestWrite_XML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResponse(), FormatXML))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `total_matches="2"`)
	assert.Contains(t, out, "<file>src/auth.go</file>")
	assert.Contains(t, out, "<term>login</term>")
}

func TestWrite_FilesOnlyDeduplicates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResponse(), FormatFilesOnly))

	assert.Equal(t, "src/auth.go\n", buf.String())
}

func TestWrite_TerminalFooter(t *testing.T) {
	resp := sampleResponse()
	resp.Truncated = true
	resp.SessionID = "abc"
	resp.NeuralFallback = true

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, resp, FormatTerminal))

	out := buf.String()
	assert.Contains(t, out, "session abc continues")
	assert.Contains(t, out, "neural rerank unavailable")
}
