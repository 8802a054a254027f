// Package digram maintains the Digram interning table, the per-Digram
// occurrence index (set, intrusive list, heap membership), and the
// max-heap that the TreeRePair engine consults to find the next digram to
// replace.
package digram

import (
	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/symbol"
)

// Digram is the interned triple (parent label, child index, child label)
// from spec §3. Two structurally equal triples share identity because
// Index interns them.
type Digram struct {
	ParentLabel *symbol.Symbol
	ChildIndex  int
	ChildLabel  *symbol.Symbol
}

// List is the per-Digram record: its occurrence set (parent nodes of each
// occurrence), the intrusive list's head/tail, and its position in the
// frequency heap.
type List struct {
	Digram *Digram

	occ  map[*arena.Node]struct{}
	head *arena.Node
	tail *arena.Node

	heapIndex int
	seq       int // Add counter at the list's most recent Add, used only to break heap ties deterministically
}

// Count returns the number of non-overlapping occurrences currently
// indexed for this digram.
func (l *List) Count() int { return len(l.occ) }

// Occurrences returns the occurrence parent nodes. The order is the
// intrusive list order (insertion order), not map iteration order, so
// callers that need determinism should use this rather than ranging occ.
func (l *List) Occurrences() []*arena.Node {
	out := make([]*arena.Node, 0, len(l.occ))
	for n := l.head; n != nil; n = n.NextDigram[l.Digram.ChildIndex] {
		out = append(out, n)
	}

	return out
}

func (l *List) contains(n *arena.Node) bool {
	_, ok := l.occ[n]

	return ok
}

// Index interns Digrams and maintains their occurrence lists and the
// frequency heap.
type Index struct {
	intern map[*symbol.Symbol]map[int]map[*symbol.Symbol]*Digram
	lists  map[*Digram]*List
	heap   *heap

	// MaxRank bounds the combined rank of newly introduced Nonterminals.
	// Zero means unbounded.
	MaxRank int

	nextSeq int
}

// NewIndex creates an empty Index. maxRank of 0 means unbounded (spec
// §4.2's "when set" condition).
func NewIndex(maxRank int) *Index {
	return &Index{
		intern:  make(map[*symbol.Symbol]map[int]map[*symbol.Symbol]*Digram),
		lists:   make(map[*Digram]*List),
		heap:    newHeap(),
		MaxRank: maxRank,
	}
}

// InternDigram returns the canonical Digram for (parentLabel, i, childLabel).
func (idx *Index) InternDigram(parentLabel *symbol.Symbol, i int, childLabel *symbol.Symbol) *Digram {
	byIndex, ok := idx.intern[parentLabel]
	if !ok {
		byIndex = make(map[int]map[*symbol.Symbol]*Digram)
		idx.intern[parentLabel] = byIndex
	}

	byChild, ok := byIndex[i]
	if !ok {
		byChild = make(map[*symbol.Symbol]*Digram)
		byIndex[i] = byChild
	}

	d, ok := byChild[childLabel]
	if !ok {
		d = &Digram{ParentLabel: parentLabel, ChildIndex: i, ChildLabel: childLabel}
		byChild[childLabel] = d
	}

	return d
}

func (idx *Index) listFor(d *Digram) *List {
	l, ok := idx.lists[d]
	if !ok {
		l = &List{Digram: d, occ: make(map[*arena.Node]struct{}), heapIndex: -1}
		idx.lists[d] = l
	}

	return l
}

// Build populates the index from a post-order walk of root's edges.
func (idx *Index) Build(root *arena.Node) {
	arena.EachPostOrder(root, func(n *arena.Node) {
		idx.addOutgoingEdges(n)
	})
}

func (idx *Index) addOutgoingEdges(n *arena.Node) {
	if n.Label == nil {
		return
	}

	for i, child := range n.Children() {
		idx.Add(n, i, child)
	}
}

// Add records the edge (parent, i, child) as an occurrence of digram
// (parent.Label, i, child.Label), enforcing the max_rank policy and the
// overlap rule.
func (idx *Index) Add(parent *arena.Node, i int, child *arena.Node) {
	if idx.MaxRank > 0 && parent.Label.Rank+child.Label.Rank-1 > idx.MaxRank {
		return
	}

	d := idx.InternDigram(parent.Label, i, child.Label)
	l := idx.listFor(d)

	if l.contains(child) {
		// Overlap rule: child is already an occurrence-parent of this same
		// digram, so admitting parent too would overlap. Skip.
		return
	}

	if l.contains(parent) {
		return
	}

	l.occ[parent] = struct{}{}
	l.seq = idx.nextSeq
	idx.nextSeq++

	parent.PrevDigram[i] = l.tail
	parent.NextDigram[i] = nil

	if l.tail != nil {
		l.tail.NextDigram[i] = parent
	} else {
		l.head = parent
	}

	l.tail = parent

	idx.heap.upsert(l)
}

// Remove un-indexes the edge (parent, i, child).
func (idx *Index) Remove(parent *arena.Node, i int, child *arena.Node) {
	byIndex, ok := idx.intern[parent.Label]
	if !ok {
		return
	}

	byChild, ok := byIndex[i]
	if !ok {
		return
	}

	d, ok := byChild[child.Label]
	if !ok {
		return
	}

	l, ok := idx.lists[d]
	if !ok || !l.contains(parent) {
		return
	}

	delete(l.occ, parent)

	prev := parent.PrevDigram[i]
	next := parent.NextDigram[i]

	if prev != nil {
		prev.NextDigram[i] = next
	} else {
		l.head = next
	}

	if next != nil {
		next.PrevDigram[i] = prev
	} else {
		l.tail = prev
	}

	parent.PrevDigram[i] = nil
	parent.NextDigram[i] = nil

	idx.heap.upsert(l)
}

// AddNode indexes the edge incoming to n (from n.Parent) and all of n's
// outgoing edges (to its children). Call after splicing n into the tree.
func (idx *Index) AddNode(n *arena.Node) {
	if n.Parent != nil {
		i := n.Parent.IndexOf(n)
		if i >= 0 {
			idx.Add(n.Parent, i, n)
		}
	}

	idx.addOutgoingEdges(n)
}

// RemoveNode un-indexes the edge incoming to n and all of n's outgoing
// edges. Call before detaching n from the tree.
func (idx *Index) RemoveNode(n *arena.Node) {
	if n.Parent != nil {
		i := n.Parent.IndexOf(n)
		if i >= 0 {
			idx.Remove(n.Parent, i, n)
		}
	}

	for i, child := range n.Children() {
		idx.Remove(n, i, child)
	}
}

// Best returns the digram List with the largest occurrence count, or nil
// if the most frequent digram occurs at most once (spec §4.2's best()).
func (idx *Index) Best() *List {
	top := idx.heap.peek()
	if top == nil || top.Count() <= 1 {
		return nil
	}

	return top
}
