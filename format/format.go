// Package format renders grammars, charts, forests and trees for people and
// encodes trees for other programs.
package format

import (
	"encoding"

	"github.com/dhamidi/earley/parse"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(tree *parse.Tree) error
}

// TreeNode is the exported form of one tree node. Terminal nodes cover the
// single token [Start, Start+1).
type TreeNode struct {
	Symbol   string      `json:"symbol" msgpack:"symbol"`
	Rule     string      `json:"rule,omitempty" msgpack:"rule,omitempty"`
	Terminal bool        `json:"terminal,omitempty" msgpack:"terminal,omitempty"`
	Start    int         `json:"start" msgpack:"start"`
	End      int         `json:"end" msgpack:"end"`
	Children []*TreeNode `json:"children,omitempty" msgpack:"children,omitempty"`
}

// NewTreeNode exports t. The result does not share memory with t.
func NewTreeNode(t *parse.Tree) *TreeNode {
	if t == nil {
		return nil
	}
	root := t.CST()
	if root == nil {
		return nil
	}
	return fromCST(root)
}

func fromCST(root *parse.Node) *TreeNode {
	out := exportNode(root)
	type pending struct {
		from *parse.Node
		to   *TreeNode
	}
	stack := []pending{{root, out}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(p.from.Children) == 0 {
			continue
		}
		p.to.Children = make([]*TreeNode, len(p.from.Children))
		for i, child := range p.from.Children {
			p.to.Children[i] = exportNode(child)
			stack = append(stack, pending{child, p.to.Children[i]})
		}
	}
	return out
}

func exportNode(n *parse.Node) *TreeNode {
	return &TreeNode{
		Symbol:   n.Kind,
		Rule:     n.Rule,
		Terminal: n.Terminal,
		Start:    n.Span.Start,
		End:      n.Span.End,
	}
}

// Terminals returns the leaf symbols left to right.
func (n *TreeNode) Terminals() []string {
	if n == nil {
		return nil
	}
	var out []string
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Terminal {
			out = append(out, top.Symbol)
			continue
		}
		for i := len(top.Children) - 1; i >= 0; i-- {
			stack = append(stack, top.Children[i])
		}
	}
	return out
}
