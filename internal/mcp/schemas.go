package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search a code tree with AND/OR/phrase queries; results are syntax-aware chunks ranked by relevance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the root of the tree to search",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query: terms (implicit AND), AND/OR, \"quoted phrases\", and ext:/file:/dir:/type:/lang: filters",
				},
				"exact": map[string]interface{}{
					"type":        "boolean",
					"description": "Literal case-sensitive matching; disables identifier tokenization and stemming",
					"default":     false,
				},
				"strict": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat unknown filter keys as query syntax errors instead of literal terms",
					"default":     false,
				},
				"allow_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "Include test files and test declarations",
					"default":     false,
				},
				"no_gitignore": map[string]interface{}{
					"type":        "boolean",
					"description": "Do not honor .gitignore files under the search root",
					"default":     false,
				},
				"ignore_patterns": map[string]interface{}{
					"type":        "array",
					"description": "Extra glob patterns for files or directories to skip",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"files_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Report matching files without chunk content",
					"default":     false,
				},
				"algorithm": map[string]interface{}{
					"type":        "string",
					"description": "Ranking algorithm",
					"enum":        []string{"tfidf", "bm25", "hybrid", "hybrid2"},
					"default":     "bm25",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question enabling neural reranking when a model is configured",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum results per page",
					"minimum":     1,
				},
				"max_bytes": map[string]interface{}{
					"type":        "integer",
					"description": "Byte budget over returned chunk content",
					"minimum":     1,
				},
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget over returned chunk content (estimated at 4 bytes per token)",
					"minimum":     1,
				},
				"session": map[string]interface{}{
					"type":        "string",
					"description": "Session id for pagination. \"new\" mints a fresh id; repeat an id with the same query to get the next page",
				},
				"no_merge": map[string]interface{}{
					"type":        "boolean",
					"description": "Disable merging of adjacent chunks within a file",
					"default":     false,
				},
				"merge_threshold": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum line gap for merging adjacent chunks; 0 merges overlapping chunks only, -1 selects the default",
					"default":     -1,
					"minimum":     -1,
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"description": "Search timeout in seconds (0 = server default)",
					"minimum":     0,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// extractCodeTool returns the tool definition for extract_code
func extractCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "extract_code",
		Description: "Extract code blocks by file, line, line range, or symbol name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the root of the tree",
				},
				"targets": map[string]interface{}{
					"type":        "array",
					"description": "Targets: 'file', 'file:line', 'file:start-end', or 'file#Symbol'",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"path", "targets"},
		},
	}
}
