// Package parse recognizes token sequences with an Earley chart, packs every
// derivation into a shared packed parse forest (SPPF) and enumerates the
// disambiguated trees of that forest on demand.
package parse

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/dhamidi/earley/grammar"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("earley.parse")

// ErrUnknownSymbol is wrapped by every SymbolError.
var ErrUnknownSymbol = errors.New("no such terminal or non-terminal")

// SymbolError names an input token that is not a terminal of the grammar, or
// a start symbol that is not one of its non-terminals.
type SymbolError struct {
	Name string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownSymbol, e.Name)
}

func (e *SymbolError) Unwrap() error {
	return ErrUnknownSymbol
}

// Parser parses inputs against one grammar. It holds no per-input state and
// can be used from several goroutines at once.
type Parser struct {
	grammar *grammar.Grammar
	log     commonlog.Logger
	jobs    int
}

type Option func(*Parser)

// WithLogger replaces the package logger.
func WithLogger(l commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// WithJobs bounds the number of inputs ParseBatch works on at once. Values
// below 1 mean GOMAXPROCS.
func WithJobs(n int) Option {
	return func(p *Parser) {
		p.jobs = n
	}
}

// NewParser creates a parser for g.
func NewParser(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{grammar: g, log: log}
	for _, opt := range opts {
		opt(p)
	}
	if p.jobs < 1 {
		p.jobs = runtime.GOMAXPROCS(0)
	}
	return p
}

func (p *Parser) Grammar() *grammar.Grammar { return p.grammar }

// resolve maps the input to terminal symbols and the start name to a
// non-terminal, in that order.
func (p *Parser) resolve(input []string, start string) ([]grammar.Symbol, grammar.Symbol, error) {
	tokens := make([]grammar.Symbol, len(input))
	for i, t := range input {
		id, ok := p.grammar.Terminal(t)
		if !ok {
			return nil, 0, &SymbolError{Name: t}
		}
		tokens[i] = id
	}
	s, ok := p.grammar.NonTerminal(start)
	if !ok {
		return nil, 0, &SymbolError{Name: start}
	}
	return tokens, s, nil
}

// Recognize builds the Earley chart for input. The only error is a
// SymbolError; an input without a derivation yields a chart that is simply
// not Accepted.
func (p *Parser) Recognize(input []string, start string) (*Chart, error) {
	tokens, s, err := p.resolve(input, start)
	if err != nil {
		return nil, err
	}
	c := newChart(p.grammar, tokens, s)
	if p.log.AllowLevel(commonlog.Debug) {
		items := 0
		for i := range c.sets {
			items += c.sets[i].Len()
		}
		p.log.Debugf("chart: %d tokens, %d items, accepted=%v", len(tokens), items, c.Accepted())
	}
	return c, nil
}

// BuildForest packs every derivation recorded in c into a forest. An input
// without a derivation gives a forest without roots.
func (p *Parser) BuildForest(c *Chart) *Forest {
	f := buildForest(c)
	if p.log.AllowLevel(commonlog.Debug) {
		ambiguous := 0
		for i := range f.nodes {
			if f.nodes[i].IsAmbiguous() {
				ambiguous++
			}
		}
		p.log.Debugf("forest: %d nodes, %d ambiguous, %d roots", len(f.nodes), ambiguous, len(f.Roots()))
	}
	return f
}

// Parse recognizes input and builds its forest.
func (p *Parser) Parse(input []string, start string) (*Chart, *Forest, error) {
	c, err := p.Recognize(input, start)
	if err != nil {
		return nil, nil, err
	}
	return c, p.BuildForest(c), nil
}

// ParseBatch parses every input concurrently and returns the forests in input
// order. The first error cancels the remaining work.
func (p *Parser) ParseBatch(ctx context.Context, inputs [][]string, start string) ([]*Forest, error) {
	forests := make([]*Forest, len(inputs))
	if len(inputs) == 0 {
		return forests, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.jobs, len(inputs)))

	for i, input := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			_, f, err := p.Parse(input, start)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			forests[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Debugf("batch: parsed %d inputs with %d jobs", len(inputs), min(p.jobs, len(inputs)))
	return forests, nil
}

// Recognize is a convenience wrapper around NewParser(g).Recognize.
func Recognize(g *grammar.Grammar, input []string, start string, opts ...Option) (*Chart, error) {
	return NewParser(g, opts...).Recognize(input, start)
}

// BuildForest is a convenience wrapper around NewParser(c.Grammar()).BuildForest.
func BuildForest(c *Chart, opts ...Option) *Forest {
	return NewParser(c.grammar, opts...).BuildForest(c)
}

// Parse is a convenience function to parse input with g from start.
func Parse(g *grammar.Grammar, input []string, start string, opts ...Option) (*Chart, *Forest, error) {
	return NewParser(g, opts...).Parse(input, start)
}

// ParseBatch is a convenience wrapper around NewParser(g).ParseBatch.
func ParseBatch(ctx context.Context, g *grammar.Grammar, inputs [][]string, start string, opts ...Option) ([]*Forest, error) {
	return NewParser(g, opts...).ParseBatch(ctx, inputs, start)
}
