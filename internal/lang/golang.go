package lang

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/codesift/codesift/pkg/types"
)

// GoProvider parses Go source into the Node abstraction using go/ast.
type GoProvider struct{}

// NewGoProvider creates a GoProvider.
func NewGoProvider() *GoProvider {
	return &GoProvider{}
}

// Language returns the provider's language tag.
func (p *GoProvider) Language() string { return "go" }

// Extensions returns the file extensions this provider handles.
func (p *GoProvider) Extensions() []string { return []string{"go"} }

// Parse builds a declaration tree for a Go source file. A file with syntax
// errors may still yield a partial tree; parsing fails only when no AST could
// be recovered at all.
func (p *GoProvider) Parse(src []byte) (Node, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if file == nil {
		return nil, fmt.Errorf("parse go source: %w", err)
	}

	root := &node{
		kind:      string(types.ChunkFile),
		startLine: 1,
		endLine:   fset.Position(file.End()).Line,
	}
	if file.Name != nil {
		root.name = file.Name.Name
	}

	for _, decl := range file.Decls {
		if child := p.declNode(fset, decl); child != nil {
			root.children = append(root.children, child)
		}
	}

	return root, nil
}

// declNode converts one top-level declaration into a Node.
func (p *GoProvider) declNode(fset *token.FileSet, decl ast.Decl) Node {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		n := &node{
			name:      d.Name.Name,
			startLine: fset.Position(d.Pos()).Line,
			endLine:   fset.Position(d.End()).Line,
		}
		if d.Recv != nil && len(d.Recv.List) > 0 {
			n.kind = string(types.ChunkMethod)
		} else {
			n.kind = string(types.ChunkFunction)
		}
		// Include the doc comment in the span so extraction keeps it attached.
		if d.Doc != nil {
			n.startLine = fset.Position(d.Doc.Pos()).Line
		}
		return n

	case *ast.GenDecl:
		return p.genDeclNode(fset, d)
	}
	return nil
}

// genDeclNode converts a type/const/var declaration group.
func (p *GoProvider) genDeclNode(fset *token.FileSet, d *ast.GenDecl) Node {
	n := &node{
		startLine: fset.Position(d.Pos()).Line,
		endLine:   fset.Position(d.End()).Line,
	}
	if d.Doc != nil {
		n.startLine = fset.Position(d.Doc.Pos()).Line
	}

	switch d.Tok {
	case token.TYPE:
		// A parenthesized type block may declare several types; expose each
		// spec as a child but keep the group as the enclosing declaration.
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			child := &node{
				name:      ts.Name.Name,
				kind:      typeSpecKind(ts),
				startLine: fset.Position(ts.Pos()).Line,
				endLine:   fset.Position(ts.End()).Line,
			}
			n.children = append(n.children, child)
		}
		if len(n.children) == 1 {
			// Single type declaration: the group and the spec coincide.
			only := n.children[0].(*node)
			only.startLine = n.startLine
			only.endLine = n.endLine
			return only
		}
		n.kind = string(types.ChunkType)
		return n

	case token.CONST:
		n.kind = string(types.ChunkConst)
		n.name = firstSpecName(d)
		return n

	case token.VAR:
		n.kind = string(types.ChunkVar)
		n.name = firstSpecName(d)
		return n
	}
	return nil
}

func typeSpecKind(ts *ast.TypeSpec) string {
	switch ts.Type.(type) {
	case *ast.StructType:
		return string(types.ChunkStruct)
	case *ast.InterfaceType:
		return string(types.ChunkInterface)
	default:
		return string(types.ChunkType)
	}
}

func firstSpecName(d *ast.GenDecl) string {
	for _, spec := range d.Specs {
		if vs, ok := spec.(*ast.ValueSpec); ok && len(vs.Names) > 0 {
			return vs.Names[0].Name
		}
	}
	return ""
}
