package treerepair

import (
	"fmt"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/digram"
	"github.com/astenc/binjs/internal/symbol"
)

// Engine runs TreeRePair over a Grammar, mutating its axiom tree, its
// rules, and the digram Index in lockstep.
type Engine struct {
	Grammar *Grammar
	Index   *digram.Index

	ntPrefix string
	ntSeq    int
}

// NewEngine creates an Engine over g, indexing g.Axiom with the given
// max_rank bound (0 = unbounded).
func NewEngine(g *Grammar, maxRank int) *Engine {
	idx := digram.NewIndex(maxRank)
	idx.Build(g.Axiom)

	return &Engine{Grammar: g, Index: idx, ntPrefix: "S"}
}

// Build runs the outer loop from spec §4.3: repeatedly replace the most
// frequent digram until none remains profitable, then prune.
func (e *Engine) Build() error {
	for {
		best := e.Index.Best()
		if best == nil {
			break
		}

		e.replace(best)
	}

	return e.Optimize()
}

func (e *Engine) freshNonterminal(rank int) *symbol.Symbol {
	e.ntSeq++
	name := fmt.Sprintf("%s%d", e.ntPrefix, e.ntSeq)

	return symbol.NewNonterminal(name, rank)
}

// replace introduces a fresh Nonterminal for list's digram and rewrites
// every occurrence in list's occurrence set (spec §4.3's replace()).
func (e *Engine) replace(list *digram.List) {
	d := list.Digram
	occurrences := list.Occurrences()

	rank := d.ParentLabel.Rank + d.ChildLabel.Rank - 1
	s := e.freshNonterminal(rank)
	e.Grammar.Rules[s] = e.buildRuleBody(d, s)

	for _, p := range occurrences {
		e.rewriteOccurrence(p, d, s)
	}
}

// buildRuleBody constructs S's production body: a node labelled
// d.ParentLabel whose child at d.ChildIndex is a node labelled
// d.ChildLabel, every other position (at both levels) a fresh formal
// Parameter leaf, in canonical left-to-right order (spec §4.3).
func (e *Engine) buildRuleBody(d *digram.Digram, s *symbol.Symbol) *arena.Node {
	body := e.Grammar.Arena.NewNode(d.ParentLabel)
	formalIdx := 0

	for i := range d.ParentLabel.Rank {
		if i == d.ChildIndex {
			child := e.Grammar.Arena.NewNode(d.ChildLabel)

			for range d.ChildLabel.Rank {
				leaf := e.Grammar.Arena.NewNode(s.Formals[formalIdx])
				formalIdx++
				child.AppendChild(leaf)
			}

			body.AppendChild(child)

			continue
		}

		leaf := e.Grammar.Arena.NewNode(s.Formals[formalIdx])
		formalIdx++
		body.AppendChild(leaf)
	}

	return body
}

// rewriteOccurrence replaces occurrence parent p (whose child at
// d.ChildIndex matches d.ChildLabel) with an invocation node of s,
// grafting p's other children and c's children as s's formal arguments in
// canonical order (spec §4.3, steps 1-6).
func (e *Engine) rewriteOccurrence(p *arena.Node, d *digram.Digram, s *symbol.Symbol) {
	wasAxiom := p == e.Grammar.Axiom

	e.Index.RemoveNode(p)

	c := p.NthChild(d.ChildIndex)
	e.Index.RemoveNode(c)

	invocation := e.Grammar.Arena.NewNode(s)
	pChildren := p.Children()

	for i, ch := range pChildren {
		if i == d.ChildIndex {
			for _, gc := range c.Children() {
				invocation.AppendChild(gc)
			}

			continue
		}

		invocation.AppendChild(ch)
	}

	if wasAxiom {
		invocation.Parent = nil
		invocation.NextSibling = nil
		invocation.PrevSiblingOrLastChild = nil
		e.Grammar.Axiom = invocation
	} else {
		p.ReplaceWith(invocation)
	}

	e.Grammar.Arena.Release(p)
	e.Grammar.Arena.Release(c)

	e.Index.AddNode(invocation)
}
