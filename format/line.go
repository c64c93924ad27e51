package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/earley/parse"
)

// LineEncoder writes one tab-separated line per tree node in pre-order:
//
//	depth	rule|token	start	end	text
//
// text is the production for rule lines and the matched terminal for token
// lines.
type LineEncoder struct {
	w    io.Writer
	tree *parse.Tree
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(tree *parse.Tree) error {
	e.tree = tree
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	root := NewTreeNode(e.tree)
	if root == nil {
		return nil, nil
	}

	type entry struct {
		node  *TreeNode
		depth int
	}
	stack := []entry{{root, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := top.node
		if n.Terminal {
			fmt.Fprintf(&sb, "%d\ttoken\t%d\t%d\t%s\n", top.depth, n.Start, n.End, n.Symbol)
			continue
		}
		fmt.Fprintf(&sb, "%d\trule\t%d\t%d\t%s\n", top.depth, n.Start, n.End, n.Rule)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, entry{n.Children[i], top.depth + 1})
		}
	}

	return []byte(sb.String()), nil
}
