package astwalk

import (
	"errors"
	"fmt"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/parsetree"
	"github.com/astenc/binjs/internal/symbol"
)

// ErrSchemaMismatch is the SchemaMismatch error kind from spec §7: an
// unknown node kind, or a node whose child count differs from its kind's
// schema field count.
var ErrSchemaMismatch = errors.New("astwalk: schema mismatch")

// Undefined is the sentinel value.Kind uses for a JavaScript `undefined`
// literal, distinct from a JSON-style nil (which means "null").
type Undefined struct{}

// Registry interns the Terminal symbols the walker assigns to node
// kinds and to primitive leaves, so that every occurrence of the same
// kind (or the same childArray length) shares one Symbol — required for
// TreeRePair's digram matching to find repeats at all.
type Registry struct {
	kinds   map[string]*symbol.Symbol
	lists   map[string]*symbol.Symbol
	listSet map[*symbol.Symbol]struct{}

	Null, Undefined, True, False, Number, String *symbol.Symbol
}

// NewRegistry creates a Registry with the singleton primitive-leaf
// Terminals pre-interned.
func NewRegistry() *Registry {
	return &Registry{
		kinds:     make(map[string]*symbol.Symbol),
		lists:     make(map[string]*symbol.Symbol),
		listSet:   make(map[*symbol.Symbol]struct{}),
		Null:      symbol.NewTerminal("Null", 0),
		Undefined: symbol.NewTerminal("Undefined", 0),
		True:      symbol.NewTerminal("True", 0),
		False:     symbol.NewTerminal("False", 0),
		Number:    symbol.NewTerminal("Number", 0),
		String:    symbol.NewTerminal("String", 0),
	}
}

// KindSymbols returns every Terminal symbol interned for a node kind,
// i.e. exactly the kinds this Registry's Walker actually encountered.
func (r *Registry) KindSymbols() []*symbol.Symbol {
	out := make([]*symbol.Symbol, 0, len(r.kinds))
	for _, s := range r.kinds {
		out = append(out, s)
	}

	return out
}

// IsList reports whether s is a childArray-length Terminal this Registry
// interned, which the wire format represents with the generic LIST tag
// rather than an individual grammar-kind tag.
func (r *Registry) IsList(s *symbol.Symbol) bool {
	_, ok := r.listSet[s]

	return ok
}

// kindSymbol returns the Terminal for a schema-described node kind,
// whose rank is fixed at the kind's field count.
func (r *Registry) kindSymbol(kind string, rank int) *symbol.Symbol {
	if s, ok := r.kinds[kind]; ok {
		return s
	}

	s := symbol.NewTerminal(kind, rank)
	r.kinds[kind] = s

	return s
}

// listSymbol returns the Terminal standing for a childArray field
// occurrence of length n, interned per (fieldKey, n) since rank must be
// fixed per Symbol but a field's array length varies occurrence to
// occurrence.
func (r *Registry) listSymbol(fieldKey string, n int) *symbol.Symbol {
	key := fmt.Sprintf("%s#%d", fieldKey, n)
	if s, ok := r.lists[key]; ok {
		return s
	}

	s := symbol.NewTerminal(fieldKey+"List", n)
	r.lists[key] = s
	r.listSet[s] = struct{}{}

	return s
}

// Walker drives the schema-described traversal from the external
// parser's untyped tree (internal/parsetree) to the ranked tree
// TreeRePair consumes, recording primitive leaf payloads and string
// interning alongside it.
type Walker struct {
	reg    *Registry
	arena  *arena.Arena
	Values map[*arena.Node]any

	Strings   *StringTable
	UsedKinds map[string]struct{}
}

// NewWalker creates a Walker writing ranked-tree nodes into a.
func NewWalker(a *arena.Arena) *Walker {
	return &Walker{
		reg:       NewRegistry(),
		arena:     a,
		Values:    make(map[*arena.Node]any),
		Strings:   NewStringTable(),
		UsedKinds: make(map[string]struct{}),
	}
}

// Registry returns the Registry this Walker interned its Terminal
// symbols into, needed by the encoder to build the file format's tag
// table (internal/binfile.EncodeInput.Registry).
func (w *Walker) Registry() *Registry {
	return w.reg
}

// Walk converts n (and its subtree) into a ranked-tree node. A nil n
// becomes a Null leaf, matching ESTree's convention for an absent
// optional child (e.g. IfStatement.alternate).
func (w *Walker) Walk(n *parsetree.Node) (*arena.Node, error) {
	if n == nil {
		return w.arena.NewNode(w.reg.Null), nil
	}

	switch v := n.Value.(type) {
	case nil:
		if n.Kind == "" || n.Kind == "Literal" {
			return w.arena.NewNode(w.reg.Null), nil
		}
	case Undefined:
		return w.arena.NewNode(w.reg.Undefined), nil
	case bool:
		if v {
			return w.arena.NewNode(w.reg.True), nil
		}

		return w.arena.NewNode(w.reg.False), nil
	case float64:
		leaf := w.arena.NewNode(w.reg.Number)
		w.Values[leaf] = v

		return leaf, nil
	case string:
		leaf := w.arena.NewNode(w.reg.String)
		w.Strings.Intern(v)
		w.Values[leaf] = v

		return leaf, nil
	}

	schema, ok := Schema[n.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrSchemaMismatch, n.Kind)
	}

	if len(n.Children) != len(schema.Fields) {
		return nil, fmt.Errorf("%w: kind %q has %d children, schema wants %d fields",
			ErrSchemaMismatch, n.Kind, len(n.Children), len(schema.Fields))
	}

	w.UsedKinds[n.Kind] = struct{}{}

	out := w.arena.NewNode(w.reg.kindSymbol(n.Kind, len(schema.Fields)))

	for i, field := range schema.Fields {
		fieldChild := n.Children[i]

		switch field.Kind {
		case FieldChildArray:
			elems := childArrayElements(fieldChild)

			listSym := w.reg.listSymbol(n.Kind+"."+field.Name, len(elems))
			list := w.arena.NewNode(listSym)

			for _, e := range elems {
				encoded, err := w.Walk(e)
				if err != nil {
					return nil, err
				}

				list.AppendChild(encoded)
			}

			out.AppendChild(list)
		case FieldChild, FieldPrimitive:
			encoded, err := w.Walk(fieldChild)
			if err != nil {
				return nil, err
			}

			out.AppendChild(encoded)
		}
	}

	return out, nil
}

// childArrayElements reads a childArray field's elements off the
// parser's representation: a dedicated "List" wrapper node whose
// children are the elements, or nil if the array is empty/absent.
func childArrayElements(n *parsetree.Node) []*parsetree.Node {
	if n == nil {
		return nil
	}

	return n.Children
}
