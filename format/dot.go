package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/parse"
)

// WriteForestDOT writes f as a Graphviz digraph. Derivation nodes are boxes
// labelled with their production and span, terminal leaves are circles
// labelled with their token. Each alternative with more than one child fans
// out through a small unlabelled circle.
func WriteForestDOT(w io.Writer, f *parse.Forest) error {
	_, err := w.Write(dot(f.Grammar(), f.Tokens(), f.Nodes()))
	return err
}

// WriteTreeDOT writes t in the form of WriteForestDOT.
func WriteTreeDOT(w io.Writer, t *parse.Tree) error {
	f := t.Forest()
	_, err := w.Write(dot(f.Grammar(), f.Tokens(), t.Nodes()))
	return err
}

func dot(g *grammar.Grammar, tokens []grammar.Symbol, nodes []parse.SPPFNode) []byte {
	var buf bytes.Buffer
	buf.WriteString("digraph g {\n")
	circles := 0
	for i := range nodes {
		n := &nodes[i]
		if n.IsTerminal() {
			fmt.Fprintf(&buf, "  %d[shape=circle, label=%q]\n", i, g.Name(tokens[n.Start]))
			continue
		}
		label := fmt.Sprintf("%s, [%d, %d)", g.ProductionString(n.Prod), n.Start, n.End)
		fmt.Fprintf(&buf, "  %d[shape=rect, label=%q]\n", i, label)
		for _, alt := range n.Alts {
			if len(alt) == 1 {
				fmt.Fprintf(&buf, "  %d -> %d\n", i, alt[0])
				continue
			}
			fmt.Fprintf(&buf, "  %d -> circle%d\n", i, circles)
			fmt.Fprintf(&buf, "  circle%d[shape=circle, label=\"\", width=0.2]\n", circles)
			for _, child := range alt {
				fmt.Fprintf(&buf, "  circle%d -> %d\n", circles, child)
			}
			circles++
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// DOTEncoder writes each tree as a Graphviz digraph.
type DOTEncoder struct {
	w    io.Writer
	tree *parse.Tree
}

func NewDOTEncoder(w io.Writer) *DOTEncoder {
	return &DOTEncoder{w: w}
}

func (e *DOTEncoder) Encode(tree *parse.Tree) error {
	e.tree = tree
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *DOTEncoder) MarshalText() ([]byte, error) {
	if e.tree == nil {
		return nil, nil
	}
	f := e.tree.Forest()
	return dot(f.Grammar(), f.Tokens(), e.tree.Nodes()), nil
}
