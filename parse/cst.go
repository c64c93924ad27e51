package parse

// Span is a half-open range of input token positions.
type Span struct {
	Start int
	End   int
}

// Node represents a node in the concrete syntax tree.
// Leaf nodes are terminals; interior nodes carry the rule that derived them.
type Node struct {
	Kind     string  // Non-terminal name or terminal name
	Rule     string  // "lhs -> rhs..." for interior nodes
	Children []*Node // Child nodes (nil for terminals and epsilon derivations)
	Terminal bool
	Span     Span // Input tokens covered by this node
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Terminal
}

// Text returns the matched token for terminals and "" otherwise.
func (n *Node) Text() string {
	if n.Terminal {
		return n.Kind
	}
	return ""
}

// AddChild appends a child node.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
}

// NewTerminal creates a terminal node for the token at position pos.
func NewTerminal(kind string, pos int) *Node {
	return &Node{
		Kind:     kind,
		Terminal: true,
		Span:     Span{Start: pos, End: pos + 1},
	}
}

// NewNonTerminal creates a non-terminal node.
func NewNonTerminal(kind, rule string, span Span) *Node {
	return &Node{
		Kind: kind,
		Rule: rule,
		Span: span,
	}
}

// CST converts the tree into linked nodes that stay valid after the
// iterator moves on.
func (t *Tree) CST() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	root := t.cstNode(t.Root())

	type pending struct {
		id   NodeID
		node *Node
	}
	stack := []pending{{id: t.Root(), node: root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range t.Children(p.id) {
			c := t.cstNode(child)
			p.node.AddChild(c)
			stack = append(stack, pending{id: child, node: c})
		}
	}
	return root
}

func (t *Tree) cstNode(id NodeID) *Node {
	g := t.forest.grammar
	n := &t.nodes[id]
	if n.IsTerminal() {
		return NewTerminal(g.Name(t.forest.tokens[n.Start]), n.Start)
	}
	return NewNonTerminal(g.Name(g.Production(n.Prod).LHS()), g.ProductionString(n.Prod), Span{Start: n.Start, End: n.End})
}
