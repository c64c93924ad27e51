package format

import (
	"io"
	"strings"

	"github.com/dhamidi/earley/grammar"
	"github.com/mattn/go-runewidth"
)

// WriteGrammar writes g one production per line in grammar order, with the
// arrows aligned.
func WriteGrammar(w io.Writer, g *grammar.Grammar) error {
	prods := g.Productions()
	width := 0
	for i := range prods {
		width = max(width, runewidth.StringWidth(g.Name(prods[i].LHS())))
	}

	var sb strings.Builder
	for i := range prods {
		p := &prods[i]
		sb.WriteString(runewidth.FillRight(g.Name(p.LHS()), width))
		sb.WriteString(" ")
		sb.WriteString(grammar.Arrow)
		for _, s := range p.RHS() {
			sb.WriteByte(' ')
			sb.WriteString(g.Name(s))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
