package parse

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"

	"fortio.org/safecast"
	"github.com/dhamidi/earley/grammar"
)

// NodeID indexes a node in a Forest or Tree arena.
type NodeID uint32

// SPPFNode is a node of the shared packed parse forest.
//
// A terminal leaf has Prod == grammar.NoProd, Start == End == its input
// position and no alternatives. A derivation node has one or more
// alternatives, each holding one child per right-hand-side symbol. A
// derivation node without alternatives derived its span without consuming
// anything (an epsilon production).
type SPPFNode struct {
	Prod  grammar.ProdID
	Start int
	End   int
	Alts  [][]NodeID
}

func (n *SPPFNode) IsTerminal() bool {
	return n.Prod == grammar.NoProd
}

func (n *SPPFNode) IsAmbiguous() bool {
	return len(n.Alts) > 1
}

type nodeKey struct {
	prod       grammar.ProdID
	start, end int
}

// Forest owns every node; child references are indices into the same arena
// and may form cycles.
type Forest struct {
	grammar *grammar.Grammar
	tokens  []grammar.Symbol
	start   grammar.Symbol
	nodes   []SPPFNode
	index   map[nodeKey]NodeID
	height  []int // lowest tree height per node, set by reorder
}

func (f *Forest) Grammar() *grammar.Grammar { return f.grammar }

func (f *Forest) Tokens() []grammar.Symbol { return f.tokens }

func (f *Forest) Start() grammar.Symbol { return f.start }

// Nodes returns the node arena. It must not be modified.
func (f *Forest) Nodes() []SPPFNode { return f.nodes }

func (f *Forest) Node(id NodeID) *SPPFNode { return &f.nodes[id] }

func (f *Forest) Len() int { return len(f.nodes) }

// Roots returns the nodes deriving the start symbol over the whole input,
// lowest tree first and in arena order among equals.
func (f *Forest) Roots() []NodeID {
	var roots []NodeID
	n := len(f.tokens)
	for i := range f.nodes {
		node := &f.nodes[i]
		if node.IsTerminal() || node.Start != 0 || node.End != n {
			continue
		}
		if f.grammar.Production(node.Prod).LHS() == f.start {
			roots = append(roots, NodeID(i))
		}
	}
	if len(f.height) == len(f.nodes) {
		slices.SortStableFunc(roots, func(a, b NodeID) int {
			return cmp.Compare(f.height[a], f.height[b])
		})
	}
	return roots
}

// Empty reports whether the input has no derivation at all.
func (f *Forest) Empty() bool {
	return len(f.Roots()) == 0
}

// Iter returns a fresh enumerator over the trees of the forest.
func (f *Forest) Iter() *Iter {
	return newIter(f)
}

// Trees yields the trees of the forest. Each tree is only valid until the
// loop advances; use Tree.Clone to keep one. The sequence may be infinite.
func (f *Forest) Trees() iter.Seq[*Tree] {
	return func(yield func(*Tree) bool) {
		it := f.Iter()
		for {
			t, ok := it.Next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// find returns the node for (prod, [start, end)), creating it if needed.
func (f *Forest) find(prod grammar.ProdID, start, end int) NodeID {
	key := nodeKey{prod: prod, start: start, end: end}
	if id, ok := f.index[key]; ok {
		return id
	}
	v, err := safecast.Conv[uint32](len(f.nodes))
	if err != nil {
		panic(fmt.Errorf("forest arena overflow: %w", err))
	}
	id := NodeID(v)
	f.nodes = append(f.nodes, SPPFNode{Prod: prod, Start: start, End: end})
	f.index[key] = id
	return id
}

// terminalChoice marks a path step that matched one input token.
const terminalChoice = -1

type choice struct {
	col int // column of the completed-item index, or terminalChoice
	idx int // index into that column
}

// forestBuilder walks the completed-item index to rebuild every derivation
// of one (production, span) target at a time.
type forestBuilder struct {
	forest    *Forest
	completed [][]Completion
	prod      *grammar.Production
	prodID    grammar.ProdID
	start     int
	end       int
	path      []choice
}

func buildForest(c *Chart) *Forest {
	f := &Forest{
		grammar: c.grammar,
		tokens:  c.tokens,
		start:   c.start,
		index:   make(map[nodeKey]NodeID),
	}
	b := &forestBuilder{forest: f, completed: c.completed}
	n := len(c.tokens)

	for _, it := range c.completed[0] {
		if it.End != n || c.grammar.Production(it.Prod).LHS() != c.start {
			continue
		}
		// The root exists even when it derives nothing, e.g. an epsilon
		// start production over empty input.
		f.find(it.Prod, 0, n)
		b.explore(it.Prod, 0, n)
	}

	// Nodes referenced as children are created before they are explored.
	// Walk the growing arena until every derivation node has been visited.
	for i := 0; i < len(f.nodes); i++ {
		node := f.nodes[i]
		if node.IsTerminal() || len(node.Alts) > 0 {
			continue
		}
		b.explore(node.Prod, node.Start, node.End)
	}

	f.reorder()
	return f
}

func (b *forestBuilder) explore(prod grammar.ProdID, start, end int) {
	b.prodID = prod
	b.prod = b.forest.grammar.Production(prod)
	b.start, b.end = start, end
	b.path = b.path[:0]
	b.extend(1, start)
}

// extend matches the right-hand side from symbol cur at input position pos.
func (b *forestBuilder) extend(cur, pos int) {
	g := b.forest.grammar
	if cur < b.prod.Len() {
		sym := b.prod.Symbols[cur]
		if g.IsNonTerminal(sym) {
			for idx, it := range b.completed[pos] {
				if it.End > b.end || g.Production(it.Prod).LHS() != sym {
					continue
				}
				b.path = append(b.path, choice{col: pos, idx: idx})
				b.extend(cur+1, it.End)
				b.path = b.path[:len(b.path)-1]
			}
		} else if pos < len(b.forest.tokens) && b.forest.tokens[pos] == sym {
			b.path = append(b.path, choice{col: terminalChoice, idx: pos})
			b.extend(cur+1, pos+1)
			b.path = b.path[:len(b.path)-1]
		}
		return
	}
	if len(b.path) == 0 || pos != b.end {
		return
	}
	b.record()
}

// record turns the current path into an alternative of the target node.
func (b *forestBuilder) record() {
	f := b.forest
	node := f.find(b.prodID, b.start, b.end)
	alt := make([]NodeID, 0, len(b.path))
	cursor := b.start
	for _, ch := range b.path {
		if ch.col == terminalChoice {
			alt = append(alt, f.find(grammar.NoProd, cursor, cursor))
			cursor++
			continue
		}
		it := b.completed[ch.col][ch.idx]
		alt = append(alt, f.find(it.Prod, cursor, it.End))
		cursor = it.End
	}
	if cursor != b.end {
		return
	}
	f.nodes[node].Alts = append(f.nodes[node].Alts, alt)
}

// unbounded is the height of a node from which every descent cycles.
const unbounded = math.MaxInt

// reorder sorts the alternatives of every node by the height of the shortest
// tree they lead to, keeping the discovery order among equals. Taking the
// first alternative at every node therefore always reaches a finite tree
// when one exists.
func (f *Forest) reorder() {
	f.height = f.heights()
	for i := range f.nodes {
		alts := f.nodes[i].Alts
		if len(alts) < 2 {
			continue
		}
		slices.SortStableFunc(alts, func(a, b []NodeID) int {
			return cmp.Compare(f.altHeight(a), f.altHeight(b))
		})
	}
}

// heights computes, for every node, the height of the lowest tree rooted at
// it: 0 for leaves and nodes without alternatives, otherwise one more than
// the lowest alternative. Nodes that only reach themselves stay unbounded.
func (f *Forest) heights() []int {
	height := make([]int, len(f.nodes))
	for i := range f.nodes {
		if len(f.nodes[i].Alts) > 0 {
			height[i] = unbounded
		}
	}
	for changed := true; changed; {
		changed = false
		for i := range f.nodes {
			best := height[i]
			for _, alt := range f.nodes[i].Alts {
				if h := maxHeight(height, alt); h != unbounded && h+1 < best {
					best = h + 1
				}
			}
			if best < height[i] {
				height[i] = best
				changed = true
			}
		}
	}
	return height
}

func maxHeight(height []int, alt []NodeID) int {
	h := 0
	for _, id := range alt {
		h = max(h, height[id])
	}
	return h
}

func (f *Forest) altHeight(alt []NodeID) int {
	return maxHeight(f.height, alt)
}

// Height returns the height of the lowest tree rooted at id, and false when
// every tree from id is infinite.
func (f *Forest) Height(id NodeID) (int, bool) {
	if int(id) >= len(f.height) {
		return 0, false
	}
	h := f.height[id]
	return h, h != unbounded
}
