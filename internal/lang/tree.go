// Package lang defines the narrow syntax-tree capability the extractor
// consumes, plus the provider registry. The engine depends only on this
// interface; parser backends can be swapped without touching matching or
// ranking logic.
package lang

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/codesift/codesift/pkg/types"
)

// Node is one node of an externally supplied, read-only syntax tree.
type Node interface {
	// Kind returns the normalized node kind. Declaration kinds use the
	// types.ChunkKind vocabulary ("function", "struct", ...).
	Kind() string

	// Name returns the declaration identifier, or "" when the node has none.
	Name() string

	// StartLine and EndLine are the 1-based inclusive line span.
	StartLine() int
	EndLine() int

	// Children iterates the node's children in source order.
	Children() []Node
}

// Provider parses file bytes for one language into a Node tree.
type Provider interface {
	Language() string
	Extensions() []string
	Parse(src []byte) (Node, error)
}

// Registry maps file extensions to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider // keyed by extension without the dot
}

// NewRegistry returns a registry preloaded with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	r.Register(NewGoProvider())
	return r
}

// Register adds a provider for all of its extensions.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		r.providers[strings.TrimPrefix(ext, ".")] = p
	}
}

// ForFile returns the provider for path's extension, or
// types.ErrUnsupportedLanguage when none is registered.
func (r *Registry) ForFile(path string) (Provider, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[ext]; ok {
		return p, nil
	}
	return nil, types.ErrUnsupportedLanguage
}

// ForLanguage returns the provider registered under the given language name.
func (r *Registry) ForLanguage(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Language() == strings.ToLower(name) {
			return p, nil
		}
	}
	return nil, types.ErrUnsupportedLanguage
}

// node is the concrete tree node built by providers.
type node struct {
	kind      string
	name      string
	startLine int
	endLine   int
	children  []Node
}

func (n *node) Kind() string      { return n.kind }
func (n *node) Name() string      { return n.name }
func (n *node) StartLine() int    { return n.startLine }
func (n *node) EndLine() int      { return n.endLine }
func (n *node) Children() []Node  { return n.children }
