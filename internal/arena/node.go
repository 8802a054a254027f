// Package arena implements the ranked-tree node store: parent/child/sibling
// navigation with an O(1) append_child, plus the intrusive digram-list
// pointers each node carries for the digram index. Nodes are owned and
// recycled by an Arena through a free list.
package arena

import (
	"github.com/astenc/binjs/internal/symbol"
)

// Node is a node of the ranked tree. Children are reachable via FirstChild
// and NextSibling; PrevSiblingOrLastChild is the compact encoding from
// spec §3: on the first child it points to the parent's last child,
// otherwise to the previous sibling.
//
// PrevDigram and NextDigram thread together, for each child index i, every
// node that currently participates in the same (label, i, child-label)
// digram. Both slices have length Label.Rank and are nil for rank-0 nodes.
type Node struct {
	Label *symbol.Symbol

	Parent                 *Node
	FirstChild             *Node
	NextSibling            *Node
	PrevSiblingOrLastChild *Node

	PrevDigram []*Node
	NextDigram []*Node

	// childCount lets Rank() invariant checks run without a full scan.
	childCount int
}

// Arena owns node storage and recycles released nodes through a free list.
type Arena struct {
	free []*Node
}

// New creates an Arena.
func New() *Arena {
	return &Arena{}
}

// NewNode allocates a Node labelled label with label.Rank empty child
// slots. Rank is enforced by filling children in with AppendChild; until
// label.Rank children have been appended the node is transiently
// under-rank (callers must fully populate before the node is observed by
// check_tree/check_rank).
func (a *Arena) NewNode(label *symbol.Symbol) *Node {
	var n *Node

	if k := len(a.free); k > 0 {
		n = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		n = &Node{}
	}

	n.Label = label
	n.Parent = nil
	n.FirstChild = nil
	n.NextSibling = nil
	n.PrevSiblingOrLastChild = nil
	n.childCount = 0

	if label.Rank > 0 {
		n.PrevDigram = make([]*Node, label.Rank)
		n.NextDigram = make([]*Node, label.Rank)
	} else {
		n.PrevDigram = nil
		n.NextDigram = nil
	}

	return n
}

// Release returns n's storage to the free list. Callers must have already
// detached n and cleared any digram threading referencing it.
func (a *Arena) Release(n *Node) {
	n.Label = nil
	n.Parent = nil
	n.FirstChild = nil
	n.NextSibling = nil
	n.PrevSiblingOrLastChild = nil
	n.PrevDigram = nil
	n.NextDigram = nil
	n.childCount = 0
	a.free = append(a.free, n)
}

// Rank returns n's current number of children.
func (n *Node) Rank() int { return n.childCount }

// IsFirstChild reports whether n is its parent's first child.
func (n *Node) IsFirstChild() bool {
	return n.Parent != nil && n.Parent.FirstChild == n
}

// LastChild returns parent's last child, or nil if parent has none.
func (n *Node) LastChild() *Node {
	if n.FirstChild == nil {
		return nil
	}

	return n.FirstChild.PrevSiblingOrLastChild
}

// AppendChild appends child as n's next child in O(1), using the
// last-child pointer stashed in FirstChild.PrevSiblingOrLastChild.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	child.NextSibling = nil

	if n.FirstChild == nil {
		n.FirstChild = child
		child.PrevSiblingOrLastChild = nil
	} else {
		last := n.FirstChild.PrevSiblingOrLastChild
		if last == nil {
			last = n.FirstChild
		}

		last.NextSibling = child
		child.PrevSiblingOrLastChild = last
	}

	n.FirstChild.PrevSiblingOrLastChild = child
	n.childCount++
}

// Detach removes n from its parent's child list. n.Parent, n.NextSibling
// and n.PrevSiblingOrLastChild are cleared; the caller is responsible for
// re-parenting or releasing n.
func (n *Node) Detach() {
	parent := n.Parent
	if parent == nil {
		return
	}

	prev := n.prevSibling()
	next := n.NextSibling

	if prev == nil {
		parent.FirstChild = next
	} else {
		prev.NextSibling = next
	}

	if next == nil {
		if parent.FirstChild != nil {
			parent.FirstChild.PrevSiblingOrLastChild = prev
		}
	} else if prev == nil {
		// next becomes the first child and inherits the last-child pointer.
		next.PrevSiblingOrLastChild = n.PrevSiblingOrLastChild
	} else {
		next.PrevSiblingOrLastChild = prev
	}

	parent.childCount--

	n.Parent = nil
	n.NextSibling = nil
	n.PrevSiblingOrLastChild = nil
}

// prevSibling returns n's previous sibling, or nil if n is the first child.
func (n *Node) prevSibling() *Node {
	if n.IsFirstChild() {
		return nil
	}

	return n.PrevSiblingOrLastChild
}

// NthChild returns the i-th child of n (0-based), or nil if out of range.
func (n *Node) NthChild(i int) *Node {
	c := n.FirstChild
	for idx := 0; c != nil && idx < i; idx++ {
		c = c.NextSibling
	}

	return c
}

// ChildEntries returns an iterator over (index, child) pairs in order.
func (n *Node) ChildEntries() func(yield func(int, *Node) bool) {
	return func(yield func(int, *Node) bool) {
		idx := 0

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !yield(idx, c) {
				return
			}

			idx++
		}
	}
}

// Children materializes n's children as a slice, in order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.childCount)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}

	return out
}

// ReplaceWith splices repl into n's exact former position (same parent,
// same sibling neighbors) and detaches n. If n is the tree root (no
// parent), repl is simply marked rootless; the caller is responsible for
// updating whatever external reference held the old root.
func (n *Node) ReplaceWith(repl *Node) {
	parent := n.Parent
	repl.Parent = parent

	if parent == nil {
		repl.NextSibling = nil
		repl.PrevSiblingOrLastChild = nil
		n.Parent = nil
		n.NextSibling = nil
		n.PrevSiblingOrLastChild = nil

		return
	}

	prev := n.prevSibling()
	next := n.NextSibling
	isFirst := prev == nil
	isLast := next == nil

	repl.NextSibling = next

	switch {
	case isFirst && isLast:
		parent.FirstChild = repl
		repl.PrevSiblingOrLastChild = repl
	case isFirst:
		lastChild := parent.FirstChild.PrevSiblingOrLastChild
		parent.FirstChild = repl
		repl.PrevSiblingOrLastChild = lastChild
		next.PrevSiblingOrLastChild = repl
	case isLast:
		prev.NextSibling = repl
		repl.PrevSiblingOrLastChild = prev
		parent.FirstChild.PrevSiblingOrLastChild = repl
	default:
		prev.NextSibling = repl
		repl.PrevSiblingOrLastChild = prev
		next.PrevSiblingOrLastChild = repl
	}

	n.Parent = nil
	n.NextSibling = nil
	n.PrevSiblingOrLastChild = nil
}

// IndexOf returns the position of child among n's children, or -1 if child
// is not a child of n.
func (n *Node) IndexOf(child *Node) int {
	idx := 0

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return idx
		}

		idx++
	}

	return -1
}
