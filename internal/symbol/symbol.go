// Package symbol defines the label alphabet of the ranked tree grammar:
// Terminals (user-defined opaque labels), Nonterminals (grammar
// productions with formal Parameters), and Parameters (rank-0 leaves
// standing for a production's arguments).
package symbol

import "fmt"

// Kind distinguishes the three Symbol variants.
type Kind uint8

const (
	// KindTerminal is a user-defined opaque label with fixed rank.
	KindTerminal Kind = iota
	// KindNonterminal is a grammar production, carrying its formal Parameters.
	KindNonterminal
	// KindParameter is a rank-0 placeholder occupying a leaf in a production body.
	KindParameter
)

// Symbol is a label with a fixed rank. Symbols are value-identified by
// reference: two Symbols sharing a Name are distinct unless the same
// *Symbol pointer is used, matching spec's "value-identified by reference"
// rule.
type Symbol struct {
	Name string
	Kind Kind
	Rank int

	// Formals holds this Nonterminal's ordered Parameter symbols. Nil for
	// Terminal and Parameter symbols.
	Formals []*Symbol

	// Owner is the Nonterminal a Parameter belongs to. Nil for Terminal
	// and Nonterminal symbols. A Parameter may not appear in any
	// production other than Owner's.
	Owner *Symbol
}

// NewTerminal creates a fixed-rank Terminal symbol.
func NewTerminal(name string, rank int) *Symbol {
	return &Symbol{Name: name, Kind: KindTerminal, Rank: rank}
}

// NewNonterminal creates a Nonterminal of the given rank together with its
// rank fresh Parameter formals, each owned by the new Nonterminal.
func NewNonterminal(name string, rank int) *Symbol {
	nt := &Symbol{Name: name, Kind: KindNonterminal, Rank: rank}
	nt.Formals = make([]*Symbol, rank)

	for i := range rank {
		nt.Formals[i] = &Symbol{
			Name:  fmt.Sprintf("%s.p%d", name, i),
			Kind:  KindParameter,
			Rank:  0,
			Owner: nt,
		}
	}

	return nt
}

// IsTerminal reports whether s is a Terminal.
func (s *Symbol) IsTerminal() bool { return s.Kind == KindTerminal }

// IsNonterminal reports whether s is a Nonterminal.
func (s *Symbol) IsNonterminal() bool { return s.Kind == KindNonterminal }

// IsParameter reports whether s is a Parameter.
func (s *Symbol) IsParameter() bool { return s.Kind == KindParameter }

// ParamIndex returns s's position among its Owner's Formals. Panics if s
// is not a Parameter or has no Owner, since that is a construction bug.
func (s *Symbol) ParamIndex() int {
	for i, f := range s.Owner.Formals {
		if f == s {
			return i
		}
	}

	panic("symbol: parameter not found among owner's formals")
}

// String implements fmt.Stringer for diagnostics.
func (s *Symbol) String() string {
	if s == nil {
		return "<nil symbol>"
	}

	return fmt.Sprintf("%s/%d", s.Name, s.Rank)
}
