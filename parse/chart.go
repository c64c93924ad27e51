package parse

import (
	"fmt"

	"github.com/dhamidi/earley/grammar"
)

// Item is an Earley item: a production with a dot position and the column
// where it started. Dot counts the left-hand side, so Dot == 1 is "nothing
// matched yet" and Dot == Production.Len() is complete.
//
// Items compare by production identity, never by production content.
type Item struct {
	Prod   grammar.ProdID
	Dot    int
	Origin int
}

func (item Item) String() string {
	return fmt.Sprintf("[%d •%d, %d]", item.Prod, item.Dot, item.Origin)
}

// ItemSet is an insertion-ordered set of Earley items at one chart position.
type ItemSet struct {
	items   []Item
	itemSet map[Item]struct{}
}

func newItemSet() ItemSet {
	return ItemSet{itemSet: make(map[Item]struct{})}
}

// Add appends item unless it is already present and reports whether it was
// added.
func (s *ItemSet) Add(item Item) bool {
	if _, ok := s.itemSet[item]; ok {
		return false
	}
	s.itemSet[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Items returns the items in insertion order.
func (s *ItemSet) Items() []Item {
	return s.items
}

func (s *ItemSet) Len() int {
	return len(s.items)
}

// Completion is an entry of the completed-item index: a production that was
// recognized from the column it is filed under up to End.
type Completion struct {
	Prod grammar.ProdID
	End  int
}

// Chart is the result of recognition: one item set per input position and,
// for every column, the productions completed from it.
type Chart struct {
	grammar   *grammar.Grammar
	tokens    []grammar.Symbol
	start     grammar.Symbol
	sets      []ItemSet
	completed [][]Completion
}

func (c *Chart) Grammar() *grammar.Grammar { return c.grammar }

// Tokens returns the input as terminal symbols.
func (c *Chart) Tokens() []grammar.Symbol { return c.tokens }

func (c *Chart) Start() grammar.Symbol { return c.start }

// Len returns the number of columns, one more than the input length.
func (c *Chart) Len() int { return len(c.sets) }

func (c *Chart) Set(i int) *ItemSet { return &c.sets[i] }

func (c *Chart) Sets() []ItemSet { return c.sets }

// Completed returns the productions completed from column col.
func (c *Chart) Completed(col int) []Completion { return c.completed[col] }

// Accepted reports whether a start production was recognized over the whole
// input.
func (c *Chart) Accepted() bool {
	n := len(c.tokens)
	for _, it := range c.completed[0] {
		if it.End == n && c.grammar.Production(it.Prod).LHS() == c.start {
			return true
		}
	}
	return false
}

func newChart(g *grammar.Grammar, tokens []grammar.Symbol, start grammar.Symbol) *Chart {
	c := &Chart{
		grammar: g,
		tokens:  tokens,
		start:   start,
		sets:    make([]ItemSet, len(tokens)+1),
	}
	for i := range c.sets {
		c.sets[i] = newItemSet()
	}

	for _, prod := range g.ProductionsFor(start) {
		c.sets[0].Add(Item{Prod: prod, Dot: 1, Origin: 0})
	}

	for i := range c.sets {
		// Items may be added to set i while it is processed; index against
		// the live slice.
		for j := 0; j < len(c.sets[i].items); j++ {
			item := c.sets[i].items[j]
			prod := g.Production(item.Prod)
			if item.Dot >= prod.Len() {
				c.complete(i, item, prod.LHS())
				continue
			}
			next := prod.Symbols[item.Dot]
			if g.IsNonTerminal(next) {
				c.predict(i, item, next)
			} else {
				c.scan(i, item, next)
			}
		}
	}

	c.completed = make([][]Completion, len(c.sets))
	for col := range c.sets {
		for _, item := range c.sets[col].items {
			if item.Dot == g.Production(item.Prod).Len() {
				c.completed[item.Origin] = append(c.completed[item.Origin], Completion{Prod: item.Prod, End: col})
			}
		}
	}
	return c
}

// predict adds items for every production of next. A nullable next is also
// stepped over directly, so no empty derivation has to be completed first.
func (c *Chart) predict(pos int, item Item, next grammar.Symbol) {
	for _, prod := range c.grammar.ProductionsFor(next) {
		c.sets[pos].Add(Item{Prod: prod, Dot: 1, Origin: pos})
	}
	if c.grammar.Nullable(next) {
		c.sets[pos].Add(Item{Prod: item.Prod, Dot: item.Dot + 1, Origin: item.Origin})
	}
}

func (c *Chart) scan(pos int, item Item, next grammar.Symbol) {
	if pos >= len(c.tokens) || c.tokens[pos] != next {
		return
	}
	c.sets[pos+1].Add(Item{Prod: item.Prod, Dot: item.Dot + 1, Origin: item.Origin})
}

// complete advances the items of the origin column that wait for lhs. Only
// the items present when completion starts are visited; origin may be pos.
func (c *Chart) complete(pos int, completed Item, lhs grammar.Symbol) {
	origin := &c.sets[completed.Origin]
	n := len(origin.items)
	for k := 0; k < n; k++ {
		item := origin.items[k]
		prod := c.grammar.Production(item.Prod)
		if item.Dot < prod.Len() && prod.Symbols[item.Dot] == lhs {
			c.sets[pos].Add(Item{Prod: item.Prod, Dot: item.Dot + 1, Origin: item.Origin})
		}
	}
}
