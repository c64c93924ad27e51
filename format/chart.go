package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/parse"
	"github.com/fatih/color"
)

type chartConfig struct {
	color bool
}

type ChartOption func(*chartConfig)

// WithColor forces colour on or off. Without it colour follows the terminal
// detection of github.com/fatih/color.
func WithColor(on bool) ChartOption {
	return func(c *chartConfig) {
		c.color = on
	}
}

// WriteChart writes every column of c as a header line followed by its items
// in insertion order, e.g.
//
//	=== 1: Number ===
//	(Factor -> Number ·, 0)
func WriteChart(w io.Writer, c *parse.Chart, opts ...ChartOption) error {
	cfg := chartConfig{color: !color.NoColor}
	for _, opt := range opts {
		opt(&cfg)
	}

	header := color.New(color.FgCyan, color.Bold)
	dot := color.New(color.FgYellow, color.Bold)
	done := color.New(color.FgGreen)
	for _, col := range []*color.Color{header, dot, done} {
		if cfg.color {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}

	g := c.Grammar()
	tokens := c.Tokens()
	var sb strings.Builder
	for i, set := range c.Sets() {
		title := fmt.Sprintf("=== %d ===", i)
		if i > 0 {
			title = fmt.Sprintf("=== %d: %s ===", i, g.Name(tokens[i-1]))
		}
		sb.WriteString(header.Sprint(title))
		sb.WriteByte('\n')
		for _, item := range set.Items() {
			line := itemString(g, item, dot.Sprint("·"))
			if item.Dot == g.Production(item.Prod).Len() {
				line = done.Sprint(line)
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// ItemString renders item as "(LHS -> A · B, origin)".
func ItemString(g *grammar.Grammar, item parse.Item) string {
	return itemString(g, item, "·")
}

func itemString(g *grammar.Grammar, item parse.Item, dot string) string {
	p := g.Production(item.Prod)
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(g.Name(p.LHS()))
	sb.WriteString(" ")
	sb.WriteString(grammar.Arrow)
	for i := 1; i <= p.Len(); i++ {
		if i == item.Dot {
			sb.WriteByte(' ')
			sb.WriteString(dot)
		}
		if i < p.Len() {
			sb.WriteByte(' ')
			sb.WriteString(g.Name(p.Symbols[i]))
		}
	}
	fmt.Fprintf(&sb, ", %d)", item.Origin)
	return sb.String()
}
