package parse

import (
	"strings"

	"github.com/dhamidi/earley/grammar"
)

// Tree is one derivation picked out of a forest: every node has at most one
// alternative. Node 0 is the root.
//
// Trees returned by Iter.Next share their storage with the iterator and are
// overwritten by the next call. Clone returns a copy that stays valid.
type Tree struct {
	forest *Forest
	nodes  []SPPFNode
}

func (t *Tree) Forest() *Forest { return t.forest }

func (t *Tree) Root() NodeID { return 0 }

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Nodes() []SPPFNode { return t.nodes }

func (t *Tree) Node(id NodeID) *SPPFNode { return &t.nodes[id] }

// Children returns the child nodes of id, or nil for a leaf.
func (t *Tree) Children(id NodeID) []NodeID {
	n := &t.nodes[id]
	if len(n.Alts) == 0 {
		return nil
	}
	return n.Alts[0]
}

// push appends a copy of n, reusing the child buffer left behind by an
// earlier node at the same index.
func (t *Tree) push(n *SPPFNode) int {
	cur := len(t.nodes)
	var alts [][]NodeID
	if cur < cap(t.nodes) {
		alts = t.nodes[:cur+1][cur].Alts
	}
	t.nodes = append(t.nodes, SPPFNode{Prod: n.Prod, Start: n.Start, End: n.End})

	if cap(alts) == 0 {
		alts = make([][]NodeID, 0, 1)
	}
	if len(n.Alts) == 0 {
		t.nodes[cur].Alts = alts[:0]
		return cur
	}
	width := len(n.Alts[0])
	alts = alts[:1]
	if cap(alts[0]) < width {
		alts[0] = make([]NodeID, width)
	} else {
		alts[0] = alts[0][:width]
	}
	t.nodes[cur].Alts = alts
	return cur
}

func (t *Tree) pop() {
	t.nodes = t.nodes[:len(t.nodes)-1]
}

// Clone returns a deep copy of t that is independent of the iterator.
func (t *Tree) Clone() *Tree {
	c := &Tree{forest: t.forest, nodes: make([]SPPFNode, len(t.nodes))}
	for i, n := range t.nodes {
		c.nodes[i] = SPPFNode{Prod: n.Prod, Start: n.Start, End: n.End}
		if len(n.Alts) > 0 {
			c.nodes[i].Alts = [][]NodeID{append([]NodeID(nil), n.Alts[0]...)}
		}
	}
	return c
}

// Leaves returns the terminal symbols at the leaves, left to right.
func (t *Tree) Leaves() []grammar.Symbol {
	if len(t.nodes) == 0 {
		return nil
	}
	var leaves []grammar.Symbol
	stack := []NodeID{t.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if n.IsTerminal() {
			leaves = append(leaves, t.forest.tokens[n.Start])
			continue
		}
		children := t.Children(id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return leaves
}

// Terminals returns the names of the leaf terminals, left to right.
func (t *Tree) Terminals() []string {
	leaves := t.Leaves()
	names := make([]string, len(leaves))
	for i, s := range leaves {
		names[i] = t.forest.grammar.Name(s)
	}
	return names
}

// String renders the tree in bracketed form, e.g. "Sum(Product(Factor(Number)))".
func (t *Tree) String() string {
	if len(t.nodes) == 0 {
		return ""
	}
	g := t.forest.grammar
	var sb strings.Builder

	type frame struct {
		id   NodeID
		next int // next child to write
	}
	stack := []frame{{id: t.Root()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := &t.nodes[top.id]
		if n.IsTerminal() {
			sb.WriteString(g.Name(t.forest.tokens[n.Start]))
			stack = stack[:len(stack)-1]
			continue
		}
		children := t.Children(top.id)
		if top.next == 0 {
			sb.WriteString(g.Name(g.Production(n.Prod).LHS()))
			sb.WriteByte('(')
		}
		if top.next == len(children) {
			sb.WriteByte(')')
			stack = stack[:len(stack)-1]
			continue
		}
		if top.next > 0 {
			sb.WriteByte(' ')
		}
		child := children[top.next]
		top.next++
		stack = append(stack, frame{id: child})
	}
	return sb.String()
}
