// Package binfile assembles the outer file-format envelope (spec §6):
// the grammar-rules dump, the string table, and the tagged AST stream,
// each a straight serialization task layered over the core's
// Byte Stream Buffer, MRU-delta codec, and subtree memoization cache.
package binfile

import (
	"sort"

	"github.com/astenc/binjs/internal/symbol"
)

// Reserved AST-stream tags (spec §6). FirstGrammarNode is the base
// offset: every other node kind's tag is FirstGrammarNode plus that
// kind's position in the TagTable's deterministic ordering.
const (
	TagMemoReplay uint64 = iota
	TagMemoRecord
	TagNull
	TagUndefined
	TagTrue
	TagFalse
	TagNumber
	TagString
	TagList
	TagFirstGrammarNode
)

// TagTable assigns a deterministic AST-stream tag to every non-reserved
// Symbol the grammar and registry produced: Terminal kind-symbols (other
// than the six built-in primitive leaves, which use their own reserved
// tags) and every Nonterminal rule symbol. Ordering is by Symbol.Name so
// encoder and decoder agree without transmitting the assignment.
type TagTable struct {
	tagOf map[*symbol.Symbol]uint64
	symOf map[uint64]*symbol.Symbol
}

// NewTagTable builds a TagTable over symbols (typically: every used kind
// Terminal plus every surviving Nonterminal rule). Duplicates are
// harmless; order of the input slice does not matter.
func NewTagTable(symbols []*symbol.Symbol) *TagTable {
	sorted := append([]*symbol.Symbol(nil), symbols...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	t := &TagTable{
		tagOf: make(map[*symbol.Symbol]uint64, len(sorted)),
		symOf: make(map[uint64]*symbol.Symbol, len(sorted)),
	}

	for i, s := range sorted {
		tag := TagFirstGrammarNode + uint64(i)
		t.tagOf[s] = tag
		t.symOf[tag] = s
	}

	return t
}

// Tag returns the AST-stream tag assigned to s.
func (t *TagTable) Tag(s *symbol.Symbol) (uint64, bool) {
	tag, ok := t.tagOf[s]

	return tag, ok
}

// Symbol returns the Symbol assigned to tag, the decode-side inverse of Tag.
func (t *TagTable) Symbol(tag uint64) (*symbol.Symbol, bool) {
	s, ok := t.symOf[tag]

	return s, ok
}
