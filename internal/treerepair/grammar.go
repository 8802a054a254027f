// Package treerepair implements the TreeRePair grammar-inference engine:
// repeatedly replace the most frequent digram with a fresh Nonterminal
// until none remains profitable, then prune unprofitable rules.
package treerepair

import (
	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/symbol"
)

// Grammar is a straight-line tree grammar: an Axiom tree plus a mapping
// from Nonterminal to production body. Expanding the axiom (substituting
// Nonterminal invocations with their bodies, Parameters with matched
// arguments) reproduces the original tree.
type Grammar struct {
	Axiom *arena.Node
	Rules map[*symbol.Symbol]*arena.Node

	Arena *arena.Arena
}

// NewGrammar creates a Grammar whose axiom is the given tree (already
// built in a), with no rules.
func NewGrammar(a *arena.Arena, axiom *arena.Node) *Grammar {
	return &Grammar{
		Axiom: axiom,
		Rules: make(map[*symbol.Symbol]*arena.Node),
		Arena: a,
	}
}

// Size returns the axiom's node count plus the sum of all rule body node
// counts — the quantity spec §8's monotone-compression property bounds.
func (g *Grammar) Size() int {
	total := countNodes(g.Axiom)
	for _, body := range g.Rules {
		total += countNodes(body)
	}

	return total
}

func countNodes(root *arena.Node) int {
	n := 0
	arena.Each(root, func(*arena.Node) { n++ })

	return n
}
