package digram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/digram"
	"github.com/astenc/binjs/internal/symbol"
)

// chainOfA builds A(A(A(...A(leaf)))) with n "A" nodes (rank 1) above a
// single rank-0 leaf, the shape spec §8's S6 scenario uses.
func chainOfA(a *arena.Arena, aLabel, leafLabel *symbol.Symbol, n int) *arena.Node {
	cur := a.NewNode(leafLabel)

	for range n {
		parent := a.NewNode(aLabel)
		parent.AppendChild(cur)
		cur = parent
	}

	return cur
}

func TestBestReturnsNilWhenNoDigramRepeats(t *testing.T) {
	t.Parallel()

	a := arena.New()
	root := a.NewNode(symbol.NewTerminal("Root", 1))
	root.AppendChild(a.NewNode(symbol.NewTerminal("Leaf", 0)))

	idx := digram.NewIndex(0)
	idx.Build(root)

	assert.Nil(t, idx.Best())
}

func TestBestFindsMostFrequentDigram(t *testing.T) {
	t.Parallel()

	a := arena.New()
	rootLabel := symbol.NewTerminal("Root", 3)
	aLabel := symbol.NewTerminal("A", 1)
	bLabel := symbol.NewTerminal("B", 0)

	root := a.NewNode(rootLabel)
	for range 3 {
		child := a.NewNode(aLabel)
		child.AppendChild(a.NewNode(bLabel))
		root.AppendChild(child)
	}

	idx := digram.NewIndex(0)
	idx.Build(root)

	best := idx.Best()
	require.NotNil(t, best)
	assert.Equal(t, 3, best.Count())
	assert.Equal(t, aLabel, best.Digram.ParentLabel)
	assert.Equal(t, 0, best.Digram.ChildIndex)
	assert.Equal(t, bLabel, best.Digram.ChildLabel)
}

// TestOverlapRuleHalvesChainOccurrences exercises spec §8's S6 scenario:
// a chain of 4 "A" nodes (rank 1) over a leaf yields exactly 2
// non-overlapping occurrences of digram A@0->A, not 3, because an edge is
// skipped when its child is already admitted as a parent occurrence.
func TestOverlapRuleHalvesChainOccurrences(t *testing.T) {
	t.Parallel()

	a := arena.New()
	aLabel := symbol.NewTerminal("A", 1)
	bLabel := symbol.NewTerminal("B", 0)

	root := chainOfA(a, aLabel, bLabel, 4)

	idx := digram.NewIndex(0)
	idx.Build(root)

	best := idx.Best()
	require.NotNil(t, best)
	assert.Equal(t, aLabel, best.Digram.ParentLabel)
	assert.Equal(t, aLabel, best.Digram.ChildLabel)
	assert.Equal(t, 2, best.Count())
}

// TestMaxRankFilterSkipsOverBudgetDigrams exercises spec §8's S5
// scenario: a frequent digram whose combined rank exceeds max_rank is
// never indexed, so Best() is nil and a subsequent Build() would be a
// no-op.
func TestMaxRankFilterSkipsOverBudgetDigrams(t *testing.T) {
	t.Parallel()

	a := arena.New()
	rootLabel := symbol.NewTerminal("Root", 3)
	aLabel := symbol.NewTerminal("A", 2) // rank 2
	bLabel := symbol.NewTerminal("B", 2) // combined rank 2+2-1=3

	root := a.NewNode(rootLabel)
	for range 3 {
		child := a.NewNode(aLabel)
		child.AppendChild(a.NewNode(bLabel))
		child.FirstChild.AppendChild(a.NewNode(symbol.NewTerminal("Leaf", 0)))
		child.FirstChild.AppendChild(a.NewNode(symbol.NewTerminal("Leaf", 0)))
		child.AppendChild(a.NewNode(symbol.NewTerminal("Leaf", 0)))
		root.AppendChild(child)
	}

	idx := digram.NewIndex(2) // combined rank 3 > max_rank 2, must be skipped
	idx.Build(root)

	assert.Nil(t, idx.Best())
}

func TestAddThenRemoveIsSymmetric(t *testing.T) {
	t.Parallel()

	a := arena.New()
	parentLabel := symbol.NewTerminal("P", 1)
	childLabel := symbol.NewTerminal("C", 0)

	parent := a.NewNode(parentLabel)
	child := a.NewNode(childLabel)
	parent.AppendChild(child)

	idx := digram.NewIndex(0)
	idx.Add(parent, 0, child)
	assert.NotNil(t, parent.NextDigram, "rank-1 node should carry a digram-thread slot")

	idx.Remove(parent, 0, child)

	assert.Nil(t, parent.PrevDigram[0])
	assert.Nil(t, parent.NextDigram[0])
}

func TestRemoveNodeUnindexesIncomingAndOutgoingEdges(t *testing.T) {
	t.Parallel()

	a := arena.New()
	rootLabel := symbol.NewTerminal("Root", 2)
	midLabel := symbol.NewTerminal("Mid", 1)
	leafLabel := symbol.NewTerminal("Leaf", 0)

	root := a.NewNode(rootLabel)
	mid1 := a.NewNode(midLabel)
	mid1.AppendChild(a.NewNode(leafLabel))
	mid2 := a.NewNode(midLabel)
	mid2.AppendChild(a.NewNode(leafLabel))
	root.AppendChild(mid1)
	root.AppendChild(mid2)

	idx := digram.NewIndex(0)
	idx.Build(root)

	before := idx.Best()
	require.NotNil(t, before)
	assert.Equal(t, 2, before.Count())

	idx.RemoveNode(mid1)

	// Only one occurrence of Mid@0->Leaf remains; Best() requires >1.
	assert.Nil(t, idx.Best())
}
