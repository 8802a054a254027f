package arena

// Cursor phases for the restartable, stateful tree-walk iterators described
// in the design notes: the source's generator/coroutine traversals are
// reimplemented here as explicit stack-based cursor structs rather than
// goroutine+channel pipelines, so a walk can be started, paused, and
// resumed from any node without leaking a goroutine.

// preOrderFrame is one entry of the PreOrderCursor's explicit stack.
type preOrderFrame struct {
	node *Node
}

// PreOrderCursor is a restartable pre-order (root, then children
// left-to-right) walk. It tolerates the tree being modified between
// calls to Next but not while a Next call is in progress.
type PreOrderCursor struct {
	stack []preOrderFrame
}

// PreOrder starts a new pre-order cursor rooted at root.
func PreOrder(root *Node) *PreOrderCursor {
	c := &PreOrderCursor{}
	if root != nil {
		c.stack = append(c.stack, preOrderFrame{node: root})
	}

	return c
}

// Next returns the next node in pre-order, or (nil, false) when exhausted.
func (c *PreOrderCursor) Next() (*Node, bool) {
	if len(c.stack) == 0 {
		return nil, false
	}

	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	children := top.node.Children()
	for i := len(children) - 1; i >= 0; i-- {
		c.stack = append(c.stack, preOrderFrame{node: children[i]})
	}

	return top.node, true
}

// Each runs fn for every node in pre-order starting at root.
func Each(root *Node, fn func(*Node)) {
	c := PreOrder(root)
	for n, ok := c.Next(); ok; n, ok = c.Next() {
		fn(n)
	}
}

// postOrderFrame tracks whether a node's children have already been pushed.
type postOrderFrame struct {
	node    *Node
	pushed  bool
	visited []*Node
}

// PostOrderCursor is a restartable post-order (children left-to-right, then
// root) walk.
type PostOrderCursor struct {
	stack []*postOrderFrame
}

// PostOrder starts a new post-order cursor rooted at root.
func PostOrder(root *Node) *PostOrderCursor {
	c := &PostOrderCursor{}
	if root != nil {
		c.stack = append(c.stack, &postOrderFrame{node: root})
	}

	return c
}

// Next returns the next node in post-order, or (nil, false) when exhausted.
func (c *PostOrderCursor) Next() (*Node, bool) {
	for len(c.stack) > 0 {
		top := c.stack[len(c.stack)-1]

		if !top.pushed {
			top.pushed = true
			top.visited = top.node.Children()

			for i := len(top.visited) - 1; i >= 0; i-- {
				c.stack = append(c.stack, &postOrderFrame{node: top.visited[i]})
			}

			continue
		}

		c.stack = c.stack[:len(c.stack)-1]

		return top.node, true
	}

	return nil, false
}

// EachPostOrder runs fn for every node in post-order starting at root.
func EachPostOrder(root *Node, fn func(*Node)) {
	c := PostOrder(root)
	for n, ok := c.Next(); ok; n, ok = c.Next() {
		fn(n)
	}
}
