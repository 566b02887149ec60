package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// node is a plain-data mirror of a tree-sitter node, convertible once and
// then walked without holding onto cgo-backed tree-sitter state.
type node struct {
	Type      string
	StartByte uint32
	EndByte   uint32
	StartLine int // 1-based
	EndLine   int // 1-based
	Children  []*node
}

// content returns the source slice the node spans.
func (n *node) content(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// walk calls fn for n and every descendant, depth-first, stopping the
// descent under a subtree when fn returns false for it.
func (n *node) walk(fn func(*node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// childOfType returns the first direct child with the given type.
func (n *node) childOfType(t string) *node {
	for _, c := range n.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// childrenOfType returns every direct child with the given type.
func (n *node) childrenOfType(t string) []*node {
	var out []*node
	for _, c := range n.Children {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// parseTree parses source with the given tree-sitter language and returns
// the converted root node.
func parseTree(ctx context.Context, source []byte, lang *sitter.Language) (*node, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse: nil tree")
	}
	return convert(tree.RootNode()), nil
}

func convert(n *sitter.Node) *node {
	if n == nil {
		return nil
	}
	out := &node{
		Type:      n.Type(),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		Children:  make([]*node, 0, n.ChildCount()),
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			out.Children = append(out.Children, convert(c))
		}
	}
	return out
}
