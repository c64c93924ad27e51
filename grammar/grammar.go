// Package grammar holds context-free grammars in the plain "lhs -> rhs..."
// rule notation, with every symbol interned to a dense integer id.
//
// Ids [0, K) are non-terminals and ids [K, T) are terminals, where K is the
// number of distinct left-hand sides. Classifying a symbol is one comparison.
package grammar

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/tliron/commonlog"
	"golang.org/x/text/unicode/norm"
)

var log = commonlog.GetLogger("earley.grammar")

// Arrow separates the left-hand side from the right-hand side of a rule.
const Arrow = "->"

// Symbol is an interned terminal or non-terminal.
type Symbol uint32

// ProdID identifies a production. Two textually identical rules on different
// lines get different ids and are never merged.
type ProdID uint32

// NoProd is the ProdID of "no production", used for terminal leaves.
const NoProd = ^ProdID(0)

// Production is one rule. Symbols[0] is the left-hand side.
type Production struct {
	Symbols []Symbol
	Line    int // 1-based line in the rule text, 0 when synthesized
}

func (p *Production) LHS() Symbol { return p.Symbols[0] }

func (p *Production) RHS() []Symbol { return p.Symbols[1:] }

// Len is the number of symbols including the left-hand side, so it is also
// the dot position of a completed item.
func (p *Production) Len() int { return len(p.Symbols) }

// Grammar is immutable once built and can be shared by concurrent parses.
type Grammar struct {
	prods    []Production
	byLHS    [][]ProdID
	names    []string
	ids      map[string]Symbol
	nullable []bool // indexed by non-terminal only; its length is K
}

// Parse builds a grammar from rule text. Blank lines and lines starting with
// '#' are skipped; every other line must be "lhs -> rhs1 rhs2 ...", where an
// empty right-hand side is an epsilon production.
func Parse(rules string) (*Grammar, error) {
	var rs []rule
	for i, text := range strings.Split(rules, "\n") {
		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 || fields[1] != Arrow {
			return nil, &Error{Line: i + 1, Err: ErrMalformedLine}
		}
		rs = append(rs, rule{line: i + 1, lhs: fields[0], rhs: fields[2:]})
	}
	if len(rs) == 0 {
		return nil, &Error{Err: ErrNoProductions}
	}
	return build(rs), nil
}

// Read builds a grammar from the rule text in r.
func Read(r io.Reader) (*Grammar, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(string(data))
}

type rule struct {
	line int
	lhs  string
	rhs  []string
}

// build interns every left-hand side before any right-hand side, so the
// non-terminals occupy [0, K).
func build(rules []rule) *Grammar {
	b := newBuilder()
	lhs := make([]Symbol, len(rules))
	for i, r := range rules {
		lhs[i] = b.intern(r.lhs)
	}
	b.freeze()

	for i, r := range rules {
		syms := make([]Symbol, 0, len(r.rhs)+1)
		syms = append(syms, lhs[i])
		for _, name := range r.rhs {
			syms = append(syms, b.intern(name))
		}
		b.add(Production{Symbols: syms, Line: r.line})
	}
	return b.finish()
}

type builder struct {
	g *Grammar
	k int
}

func newBuilder() *builder {
	return &builder{g: &Grammar{ids: make(map[string]Symbol)}}
}

func (b *builder) intern(name string) Symbol {
	name = norm.NFC.String(name)
	if id, ok := b.g.ids[name]; ok {
		return id
	}
	v, err := safecast.Conv[uint32](len(b.g.names))
	if err != nil {
		panic(fmt.Errorf("symbol table overflow: %w", err))
	}
	id := Symbol(v)
	b.g.ids[name] = id
	b.g.names = append(b.g.names, name)
	return id
}

func (b *builder) freeze() {
	b.k = len(b.g.names)
	b.g.byLHS = make([][]ProdID, b.k)
}

func (b *builder) add(p Production) ProdID {
	v, err := safecast.Conv[uint32](len(b.g.prods))
	if err != nil {
		panic(fmt.Errorf("production table overflow: %w", err))
	}
	id := ProdID(v)
	b.g.prods = append(b.g.prods, p)
	b.g.byLHS[p.LHS()] = append(b.g.byLHS[p.LHS()], id)
	return id
}

func (b *builder) finish() *Grammar {
	g := b.g
	g.nullable = make([]bool, b.k)
	passes := 0
	for {
		passes++
		changed := false
		for i := range g.prods {
			p := &g.prods[i]
			lhs := p.LHS()
			if g.nullable[lhs] {
				continue
			}
			if g.allNullable(p.RHS()) {
				g.nullable[lhs] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	log.Debugf("grammar: %d productions, %d non-terminals, %d symbols, nullable fixpoint after %d passes",
		len(g.prods), b.k, len(g.names), passes)
	return g
}

func (g *Grammar) allNullable(syms []Symbol) bool {
	for _, s := range syms {
		if !g.IsNonTerminal(s) || !g.nullable[s] {
			return false
		}
	}
	return true
}

// NumNonTerminals returns K, the number of distinct left-hand sides.
func (g *Grammar) NumNonTerminals() int { return len(g.nullable) }

// NumSymbols returns the total number of interned symbols.
func (g *Grammar) NumSymbols() int { return len(g.names) }

func (g *Grammar) IsNonTerminal(s Symbol) bool { return int(s) < len(g.nullable) }

func (g *Grammar) IsTerminal(s Symbol) bool { return !g.IsNonTerminal(s) }

// Nullable reports whether s derives the empty string. Terminals never do.
func (g *Grammar) Nullable(s Symbol) bool {
	return g.IsNonTerminal(s) && g.nullable[s]
}

// Productions returns every production in rule order. The slice must not be
// modified.
func (g *Grammar) Productions() []Production { return g.prods }

func (g *Grammar) Production(id ProdID) *Production { return &g.prods[id] }

// ProductionsFor returns the productions whose left-hand side is lhs, in rule
// order.
func (g *Grammar) ProductionsFor(lhs Symbol) []ProdID {
	if !g.IsNonTerminal(lhs) {
		return nil
	}
	return g.byLHS[lhs]
}

// Name returns the text of a symbol.
func (g *Grammar) Name(s Symbol) string {
	if int(s) >= len(g.names) {
		return fmt.Sprintf("<%d>", s)
	}
	return g.names[s]
}

// Lookup resolves a symbol by name.
func (g *Grammar) Lookup(name string) (Symbol, bool) {
	id, ok := g.ids[norm.NFC.String(name)]
	return id, ok
}

// Terminal resolves name only if it is a terminal.
func (g *Grammar) Terminal(name string) (Symbol, bool) {
	id, ok := g.Lookup(name)
	if !ok || !g.IsTerminal(id) {
		return 0, false
	}
	return id, true
}

// NonTerminal resolves name only if it is a non-terminal.
func (g *Grammar) NonTerminal(name string) (Symbol, bool) {
	id, ok := g.Lookup(name)
	if !ok || !g.IsNonTerminal(id) {
		return 0, false
	}
	return id, true
}

// ProductionString renders one production as "lhs -> rhs...".
func (g *Grammar) ProductionString(id ProdID) string {
	var sb strings.Builder
	p := g.Production(id)
	sb.WriteString(g.Name(p.LHS()))
	sb.WriteString(" ")
	sb.WriteString(Arrow)
	for _, s := range p.RHS() {
		sb.WriteByte(' ')
		sb.WriteString(g.Name(s))
	}
	return sb.String()
}

// String renders the grammar as rule text, one production per line.
func (g *Grammar) String() string {
	var sb strings.Builder
	for i := range g.prods {
		sb.WriteString(g.ProductionString(ProdID(i)))
		sb.WriteByte('\n')
	}
	return sb.String()
}
