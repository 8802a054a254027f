package arena

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is the sentinel error kind for programmer-error
// invariant failures detected by the check routines (spec §7).
var ErrInvariantViolation = errors.New("invariant violation")

// violation wraps ErrInvariantViolation with a reason, matching the
// "InvariantViolation(reason)" error shape called for in the design notes.
func violation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, reason)
}

// CheckRank asserts that n's number of children equals its label's rank.
func CheckRank(n *Node) error {
	if n.Label == nil {
		return violation("node has no label")
	}

	if n.Rank() != n.Label.Rank {
		return fmt.Errorf("%w: node %s has %d children, want rank %d",
			ErrInvariantViolation, n.Label.Name, n.Rank(), n.Label.Rank)
	}

	return nil
}

// CheckTree asserts every structural invariant from spec §3 on the subtree
// rooted at root: rank, sibling linkage, and absence of cycles. Cycle
// detection uses a tortoise-and-hare walk over the pre-order sequence: a
// well-formed finite tree enumerates each node exactly once in pre-order,
// so if a slow cursor (1 step/round) and a fast cursor (2 steps/round)
// ever observe the identical *Node while the fast cursor has not yet
// exhausted, the traversal is cyclic.
func CheckTree(root *Node) error {
	if root == nil {
		return nil
	}

	if root.Parent != nil {
		return violation("root has a parent")
	}

	if err := detectCycle(root); err != nil {
		return err
	}

	var walkErr error

	Each(root, func(n *Node) {
		if walkErr != nil {
			return
		}

		if err := CheckRank(n); err != nil {
			walkErr = err

			return
		}

		if err := checkSiblingLinkage(n); err != nil {
			walkErr = err
		}
	})

	return walkErr
}

func checkSiblingLinkage(n *Node) error {
	if n.Parent == nil {
		return nil
	}

	if n.IsFirstChild() {
		if n.Parent.FirstChild != n {
			return violation("first child does not match parent.FirstChild")
		}

		last := n.Parent.LastChild()
		if last == nil || n.PrevSiblingOrLastChild != last {
			return violation("first child's PrevSiblingOrLastChild is not parent's last child")
		}

		return nil
	}

	prev := n.PrevSiblingOrLastChild
	if prev == nil || prev.NextSibling != n {
		return violation("sibling linkage broken: prev.next != n")
	}

	return nil
}

func detectCycle(root *Node) error {
	slow := PreOrder(root)
	fast := PreOrder(root)

	for {
		slowNode, slowOK := slow.Next()
		if !slowOK {
			return nil
		}

		fastNode1, fastOK1 := fast.Next()
		if !fastOK1 {
			return nil
		}

		fastNode2, fastOK2 := fast.Next()

		if slowNode == fastNode1 && fastOK1 {
			// Only the very first step can coincide trivially (both start
			// at root); treat any further coincidence as a cycle.
			if slowNode != root {
				return violation("cyclic tree detected (tortoise-hare)")
			}
		}

		if fastOK2 && slowNode == fastNode2 {
			return violation("cyclic tree detected (tortoise-hare)")
		}

		if !fastOK2 {
			return nil
		}
	}
}
