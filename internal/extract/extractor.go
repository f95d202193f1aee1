// Package extract produces candidate code chunks from source files, cut along
// syntax boundaries supplied by a lang.Provider, with whole-file fallback when
// no finer boundary exists.
package extract

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/codesift/codesift/internal/lang"
	"github.com/codesift/codesift/pkg/types"
)

// acceptableKinds are the declaration kinds that may own a chunk.
var acceptableKinds = map[string]struct{}{
	string(types.ChunkFunction):  {},
	string(types.ChunkMethod):    {},
	string(types.ChunkStruct):    {},
	string(types.ChunkInterface): {},
	string(types.ChunkType):      {},
	string(types.ChunkImpl):      {},
	string(types.ChunkEnum):      {},
	string(types.ChunkClass):     {},
	string(types.ChunkConst):     {},
	string(types.ChunkVar):       {},
}

// Extractor cuts files into chunks along declaration boundaries.
type Extractor struct {
	registry *lang.Registry
	logger   *zap.Logger
}

// New creates an Extractor backed by the given provider registry.
func New(registry *lang.Registry, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{registry: registry, logger: logger}
}

// Options control extraction behavior.
type Options struct {
	// AllowTests keeps chunks whose declaration is a test block.
	AllowTests bool
}

// ChunksForFile returns the deduplicated chunk candidates for one file.
//
// An unsupported language or an unparseable file degrades to a single
// whole-file chunk; neither is an error.
func (e *Extractor) ChunksForFile(path string, src []byte, opts Options) []*types.Chunk {
	lines := splitLines(src)

	root, err := e.parse(path, src)
	if err != nil {
		if !errors.Is(err, types.ErrUnsupportedLanguage) {
			e.logger.Debug("falling back to whole-file chunk",
				zap.String("file", path), zap.Error(err))
		}
		return []*types.Chunk{fileChunk(path, lines)}
	}

	var chunks []*types.Chunk
	seen := make(map[[2]int]struct{})
	for _, decl := range root.Children() {
		if _, ok := acceptableKinds[decl.Kind()]; !ok {
			continue
		}
		if !opts.AllowTests && isTestDecl(decl) {
			continue
		}
		span := [2]int{decl.StartLine(), decl.EndLine()}
		if _, dup := seen[span]; dup {
			continue
		}
		seen[span] = struct{}{}
		chunks = append(chunks, declChunk(path, decl, lines))
	}

	if len(chunks) == 0 {
		return []*types.Chunk{fileChunk(path, lines)}
	}
	return chunks
}

// parse resolves the provider for path and parses src.
func (e *Extractor) parse(path string, src []byte) (lang.Node, error) {
	provider, err := e.registry.ForFile(path)
	if err != nil {
		return nil, err
	}
	return provider.Parse(src)
}

// isTestDecl reports whether a declaration is a test block (Go convention:
// Test/Benchmark/Example functions).
func isTestDecl(n lang.Node) bool {
	if n.Kind() != string(types.ChunkFunction) {
		return false
	}
	name := n.Name()
	return strings.HasPrefix(name, "Test") ||
		strings.HasPrefix(name, "Benchmark") ||
		strings.HasPrefix(name, "Example")
}

// declChunk builds a chunk for one declaration node.
func declChunk(path string, decl lang.Node, lines []string) *types.Chunk {
	start, end := clampSpan(decl.StartLine(), decl.EndLine(), len(lines))
	return &types.Chunk{
		File:      path,
		StartLine: start,
		EndLine:   end,
		Content:   sliceLines(lines, start, end),
		Symbol:    decl.Name(),
		Kind:      types.ChunkKind(decl.Kind()),
	}
}

// fileChunk builds the whole-file fallback chunk.
func fileChunk(path string, lines []string) *types.Chunk {
	end := len(lines)
	if end == 0 {
		end = 1
	}
	return &types.Chunk{
		File:      path,
		StartLine: 1,
		EndLine:   end,
		Content:   strings.Join(lines, "\n"),
		Kind:      types.ChunkFile,
	}
}

// splitLines splits file bytes into lines without the trailing newline
// producing a phantom empty line.
func splitLines(src []byte) []string {
	s := strings.TrimSuffix(string(src), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// sliceLines re-slices the 1-based inclusive range [start, end].
func sliceLines(lines []string, start, end int) string {
	return strings.Join(lines[start-1:end], "\n")
}

func clampSpan(start, end, max int) (int, int) {
	if start < 1 {
		start = 1
	}
	if max > 0 && end > max {
		end = max
	}
	if end < start {
		end = start
	}
	return start, end
}
