package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/codesift/codesift/internal/search"
	"github.com/codesift/codesift/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeQuerySyntax   = -32001 // Query failed to parse
	ErrorCodeTimeout       = -32002 // Search exceeded its time budget
	ErrorCodeTargetError   = -32003 // Extraction target could not be resolved
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	sessionID := getStringDefault(args, "session", "")
	if sessionID == "new" {
		sessionID = uuid.NewString()
	}

	opts := search.Options{
		Query:          query,
		Root:           path,
		Exact:          getBoolDefault(args, "exact", false),
		Strict:         getBoolDefault(args, "strict", false),
		AllowTests:     getBoolDefault(args, "allow_tests", false),
		NoGitignore:    getBoolDefault(args, "no_gitignore", false),
		IgnorePatterns: getStringSlice(args, "ignore_patterns"),
		FilesOnly:      getBoolDefault(args, "files_only", false),
		NoMerge:        getBoolDefault(args, "no_merge", false),
		MergeThreshold: getIntDefault(args, "merge_threshold", -1),
		Algorithm:      getStringDefault(args, "algorithm", ""),
		Question:       getStringDefault(args, "question", ""),
		MaxResults:     getIntDefault(args, "max_results", 0),
		MaxBytes:       getIntDefault(args, "max_bytes", 0),
		MaxTokens:      getIntDefault(args, "max_tokens", 0),
		SessionID:      sessionID,
		Timeout:        time.Duration(getIntDefault(args, "timeout", 0)) * time.Second,
	}

	resp, err := s.engine.Search(ctx, opts)
	if err != nil {
		return nil, searchError(err)
	}

	s.logger.Debug("search_code served",
		zap.String("query", query),
		zap.Int("results", len(resp.Results)),
		zap.Bool("cache_hit", resp.CacheHit),
	)
	return mcp.NewToolResultText(formatResponse(resp)), nil
}

// handleExtractCode handles the extract_code tool invocation
func (s *Server) handleExtractCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	rawTargets, ok := args["targets"].([]interface{})
	if !ok || len(rawTargets) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "targets parameter is required", map[string]interface{}{
			"param":  "targets",
			"reason": "missing or empty",
		})
	}
	targets := make([]string, 0, len(rawTargets))
	for _, t := range rawTargets {
		str, ok := t.(string)
		if !ok || str == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "targets must be non-empty strings", nil)
		}
		targets = append(targets, str)
	}

	resp, err := s.engine.Extract(ctx, search.ExtractOptions{Root: path, Targets: targets})
	if err != nil {
		return nil, extractError(err)
	}

	return mcp.NewToolResultText(formatResponse(resp)), nil
}

// searchError maps engine failures onto MCP error codes.
func searchError(err error) error {
	var syntaxErr *types.QuerySyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return newMCPError(ErrorCodeQuerySyntax, "query syntax error", map[string]interface{}{
			"query":  syntaxErr.Query,
			"reason": syntaxErr.Reason,
		})
	case errors.Is(err, types.ErrTimeout):
		return newMCPError(ErrorCodeTimeout, "search timed out", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// extractError maps target-resolution failures onto MCP error codes.
func extractError(err error) error {
	var notFound *types.SymbolNotFoundError
	var outOfRange *types.LineOutOfRangeError
	switch {
	case errors.As(err, &notFound):
		return newMCPError(ErrorCodeTargetError, "symbol not found", map[string]interface{}{
			"symbol":      notFound.Symbol,
			"file":        notFound.File,
			"suggestions": notFound.Suggestions,
		})
	case errors.As(err, &outOfRange):
		return newMCPError(ErrorCodeTargetError, "line out of range", map[string]interface{}{
			"file":     outOfRange.File,
			"line":     outOfRange.Line,
			"max_line": outOfRange.MaxLine,
		})
	case errors.Is(err, types.ErrTimeout):
		return newMCPError(ErrorCodeTimeout, "extraction timed out", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "extraction failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is an accessible directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// formatResponse formats the response as indented JSON
func formatResponse(resp *types.Response) string {
	bytes, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", resp)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string-array parameter; non-string or empty
// entries are dropped.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
