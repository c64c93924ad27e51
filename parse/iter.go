package parse

// Iter enumerates the disambiguated trees of a forest one at a time.
//
// It is a depth-first walk over the choice of alternative at every node,
// written as a state machine over an explicit stack because trees of a
// cyclic forest have no depth bound. The most recently discovered choice
// varies fastest. An Iter is not safe for concurrent use; independent Iters
// over one forest are.
type Iter struct {
	forest  *Forest
	stack   []step
	pending []pending
	tree    Tree
}

type stepKind uint8

const (
	// stepDescend copies a forest node into the tree under its parent slot.
	stepDescend stepKind = iota
	// stepUnwind pops the newest tree node, restoring a sibling cursor if
	// restore is set.
	stepUnwind
	// stepNextAlt moves a tree node on to its next alternative.
	stepNextAlt
)

type step struct {
	kind    stepKind
	node    NodeID // forest node (descend, next alternative)
	parent  int    // tree index of the parent, -1 for a root (descend)
	slot    int    // child slot in the parent (descend)
	cur     int    // tree index of the node (next alternative)
	alt     int    // alternative being finished (next alternative)
	restore int    // pending entry whose cursor to step back, -1 for none (unwind)
}

// pending holds the siblings of one alternative that are still to be
// descended into.
type pending struct {
	parent int
	alt    []NodeID
	next   int
}

func newIter(f *Forest) *Iter {
	it := &Iter{forest: f, tree: Tree{forest: f}}
	roots := f.Roots()
	for i := len(roots) - 1; i >= 0; i-- {
		it.stack = append(it.stack, step{kind: stepDescend, node: roots[i], parent: -1})
	}
	return it
}

// Next returns the next tree, or false once every tree has been produced.
// The returned tree is reused by the following call to Next; call Clone to
// keep it. A forest with cycles never runs out of trees.
func (it *Iter) Next() (*Tree, bool) {
	f := it.forest
	for len(it.stack) > 0 {
		s := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		switch s.kind {
		case stepDescend:
			n := &f.nodes[s.node]
			cur := it.tree.push(n)
			if s.parent >= 0 {
				it.tree.nodes[s.parent].Alts[0][s.slot] = NodeID(cur)
			}
			if len(n.Alts) > 0 {
				it.enter(s.node, cur, 0)
				continue
			}
			k := it.resumable()
			if k < 0 {
				it.stack = append(it.stack, step{kind: stepUnwind, restore: -1})
				return &it.tree, true
			}
			p := &it.pending[k]
			slot := p.next
			p.next++
			it.stack = append(it.stack,
				step{kind: stepUnwind, restore: k},
				step{kind: stepDescend, node: p.alt[slot], parent: p.parent, slot: slot},
			)

		case stepUnwind:
			it.tree.pop()
			if s.restore >= 0 {
				it.pending[s.restore].next--
			}

		case stepNextAlt:
			it.pending = it.pending[:len(it.pending)-1]
			if alt := s.alt + 1; alt < len(f.nodes[s.node].Alts) {
				it.enter(s.node, s.cur, alt)
			} else {
				it.tree.pop()
			}
		}
	}
	return nil, false
}

// enter starts alternative alt of the forest node copied to tree index cur.
func (it *Iter) enter(node NodeID, cur, alt int) {
	children := it.forest.nodes[node].Alts[alt]
	it.pending = append(it.pending, pending{parent: cur, alt: children, next: 1})
	it.stack = append(it.stack,
		step{kind: stepNextAlt, node: node, cur: cur, alt: alt},
		step{kind: stepDescend, node: children[0], parent: cur, slot: 0},
	)
}

// resumable returns the newest pending entry with siblings left, or -1.
func (it *Iter) resumable() int {
	for k := len(it.pending) - 1; k >= 0; k-- {
		if p := &it.pending[k]; p.next < len(p.alt) {
			return k
		}
	}
	return -1
}

// Take clones up to n trees of f.
func Take(f *Forest, n int) []*Tree {
	var trees []*Tree
	if n <= 0 {
		return trees
	}
	it := f.Iter()
	for len(trees) < n {
		t, ok := it.Next()
		if !ok {
			break
		}
		trees = append(trees, t.Clone())
	}
	return trees
}
