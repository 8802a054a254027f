package binfile

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/astwalk"
	"github.com/astenc/binjs/internal/bytestream"
	"github.com/astenc/binjs/internal/memo"
	"github.com/astenc/binjs/internal/mrucodec"
	"github.com/astenc/binjs/internal/symbol"
	"github.com/astenc/binjs/internal/treerepair"
)

// ErrMalformedInput is the MalformedInput error kind from spec §7: a
// short read, an unrecognized tag, a string index out of range, or
// leftover bytes in a stream that decode requires to be fully consumed.
var ErrMalformedInput = errors.New("binfile: malformed input")

// defaultNumCellBits is the MRU codec cell-count parameter used for the
// string index stream, absent an explicit override.
const defaultNumCellBits = 4

// defaultMemoCapacity bounds the MEMO_RECORD/MEMO_REPLAY recency window.
const defaultMemoCapacity = 256

// EncodeInput gathers everything the AST Walker produced that Encode
// needs to serialize: the optimized grammar, the symbol registry it was
// built with, each leaf's primitive payload, and the (not yet finalized)
// string table.
type EncodeInput struct {
	Grammar  *treerepair.Grammar
	Registry *astwalk.Registry
	Values   map[*arena.Node]any
	Strings  *astwalk.StringTable

	// NumCellBits parameterizes the string-index MRU codec; 0 means
	// defaultNumCellBits.
	NumCellBits int
	// MemoCapacity bounds the subtree memoization window; 0 means
	// defaultMemoCapacity, negative means unbounded.
	MemoCapacity int
}

// Encode writes the full binary file format (spec §6) to out: the
// grammar rules section, the string table section, then the tagged AST
// stream for in.Grammar.Axiom.
func Encode(out io.Writer, in EncodeInput) error {
	numCellBits := in.NumCellBits
	if numCellBits == 0 {
		numCellBits = defaultNumCellBits
	}

	memoCapacity := in.MemoCapacity
	if memoCapacity == 0 {
		memoCapacity = defaultMemoCapacity
	}

	buf := bytestream.NewBuffer()

	kindSymbols := in.Registry.KindSymbols()

	ruleBytes, err := EncodeRules(in.Grammar.Rules, kindSymbols)
	if err != nil {
		return fmt.Errorf("binfile: encode rules: %w", err)
	}

	if err := bytestream.WriteVarint(buf, uint64(len(ruleBytes))); err != nil {
		return err
	}

	if _, err := buf.Write(ruleBytes); err != nil {
		return err
	}

	strs := in.Strings.Finalize()

	tagSymbols := append([]*symbol.Symbol(nil), kindSymbols...)
	for nt := range in.Grammar.Rules {
		tagSymbols = append(tagSymbols, nt)
	}

	tagTable := NewTagTable(tagSymbols)

	astBuf := bytestream.NewBuffer()
	stringIndices, err := encodeTree(astBuf, in.Grammar.Axiom, in.Registry, in.Values, in.Strings, tagTable, memoCapacity)
	if err != nil {
		return err
	}

	if err := writeStringTableSection(buf, strs, stringIndices, numCellBits); err != nil {
		return err
	}

	if _, err := astBuf.WriteTo(buf); err != nil {
		return err
	}

	_, err = buf.WriteTo(out)

	return err
}

// encodeTree writes the tagged AST stream for root, returning the
// sequence of string-table indices encountered in traversal order (the
// payload of the separately-encoded string index stream).
func encodeTree(
	buf *bytestream.Buffer,
	root *arena.Node,
	reg *astwalk.Registry,
	values map[*arena.Node]any,
	strings *astwalk.StringTable,
	tagTable *TagTable,
	memoCapacity int,
) ([]int, error) {
	recorder := memo.NewRecorder(memoCapacity)

	valueOf := func(n *arena.Node) any { return values[n] }

	var stringIndices []int

	var visit func(n *arena.Node) error
	visit = func(n *arena.Node) error {
		if n.Rank() > 0 {
			hash := memo.StructuralHash(n, valueOf)

			if ordinal, ok := recorder.Lookup(hash); ok {
				if err := bytestream.WriteVarint(buf, TagMemoReplay); err != nil {
					return err
				}

				return bytestream.WriteVarint(buf, uint64(ordinal))
			}

			if err := bytestream.WriteVarint(buf, TagMemoRecord); err != nil {
				return err
			}

			recorder.Record(hash)
		}

		lbl := n.Label

		switch {
		case lbl == reg.Null:
			return bytestream.WriteVarint(buf, TagNull)
		case lbl == reg.Undefined:
			return bytestream.WriteVarint(buf, TagUndefined)
		case lbl == reg.True:
			return bytestream.WriteVarint(buf, TagTrue)
		case lbl == reg.False:
			return bytestream.WriteVarint(buf, TagFalse)
		case lbl == reg.Number:
			if err := bytestream.WriteVarint(buf, TagNumber); err != nil {
				return err
			}

			v, _ := values[n].(float64)

			var tmp [8]byte

			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
			_, err := buf.Write(tmp[:])

			return err
		case lbl == reg.String:
			if err := bytestream.WriteVarint(buf, TagString); err != nil {
				return err
			}

			s, _ := values[n].(string)

			idx, ok := strings.Index(s)
			if !ok {
				return fmt.Errorf("binfile: string %q missing from finalized table", s)
			}

			stringIndices = append(stringIndices, idx)

			return nil
		case reg.IsList(lbl):
			if err := bytestream.WriteVarint(buf, TagList); err != nil {
				return err
			}

			if err := bytestream.WriteVarint(buf, uint64(lbl.Rank)); err != nil {
				return err
			}

			for _, c := range n.Children() {
				if err := visit(c); err != nil {
					return err
				}
			}

			return nil
		default:
			tag, ok := tagTable.Tag(lbl)
			if !ok {
				return fmt.Errorf("binfile: no tag assigned for symbol %s", lbl)
			}

			if err := bytestream.WriteVarint(buf, tag); err != nil {
				return err
			}

			for _, c := range n.Children() {
				if err := visit(c); err != nil {
					return err
				}
			}

			return nil
		}
	}

	if err := visit(root); err != nil {
		return nil, err
	}

	return stringIndices, nil
}

func writeStringTableSection(buf *bytestream.Buffer, strs []string, indices []int, numCellBits int) error {
	if err := bytestream.WriteVarint(buf, uint64(len(strs))); err != nil {
		return err
	}

	for _, s := range strs {
		if err := bytestream.WriteVarint(buf, uint64(len(s))); err != nil {
			return err
		}

		if _, err := buf.Write([]byte(s)); err != nil {
			return err
		}
	}

	idxBuf := bytestream.NewBuffer()

	w, err := mrucodec.NewWriter(idxBuf, numCellBits)
	if err != nil {
		return err
	}

	for _, idx := range indices {
		if err := w.Write(uint32(idx)); err != nil {
			return err
		}
	}

	if err := bytestream.WriteVarint(buf, uint64(idxBuf.Len())); err != nil {
		return err
	}

	_, err = idxBuf.WriteTo(buf)

	return err
}

// DecodeInput gathers the shared state a Decode call needs to rebuild
// Symbols consistently: a fresh arena to allocate into and a Terminal
// interner shared between the rule-set and the AST stream (so a Terminal
// referenced from both a rule body and the axiom resolves to one Symbol).
type DecodeInput struct {
	Arena        *arena.Arena
	NumCellBits  int
	MemoCapacity int
}

// DecodeResult is everything Decode recovers: the axiom tree exactly as
// written (Nonterminal invocations still in place; callers that want the
// original unabridged tree run it through treerepair.ExpandValues), the
// surviving rule set (for diagnostics/inspect), and each leaf's
// primitive payload.
type DecodeResult struct {
	Tree   *arena.Node
	Rules  map[*symbol.Symbol]*arena.Node
	Values map[*arena.Node]any
}

// Decode reads a file produced by Encode back into a DecodeResult.
func Decode(in io.Reader, cfg DecodeInput) (*DecodeResult, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	src := bytestream.NewSource(data)

	numCellBits := cfg.NumCellBits
	if numCellBits == 0 {
		numCellBits = defaultNumCellBits
	}

	memoCapacity := cfg.MemoCapacity
	if memoCapacity == 0 {
		memoCapacity = defaultMemoCapacity
	}

	ruleLen, err := src.ReadVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading rule section length: %v", ErrMalformedInput, err)
	}

	ruleBytes, err := src.ReadBytes(int(ruleLen))
	if err != nil {
		return nil, fmt.Errorf("%w: reading rule section: %v", ErrMalformedInput, err)
	}

	interner := newTerminalInterner()

	rules, nonterminals, err := DecodeRules(ruleBytes, cfg.Arena, interner)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding rules: %v", ErrMalformedInput, err)
	}

	strCount, err := src.ReadVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading string count: %v", ErrMalformedInput, err)
	}

	strs := make([]string, strCount)

	for i := range strs {
		n, err := src.ReadVarint()
		if err != nil {
			return nil, fmt.Errorf("%w: reading string %d length: %v", ErrMalformedInput, i, err)
		}

		b, err := src.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("%w: reading string %d bytes: %v", ErrMalformedInput, i, err)
		}

		strs[i] = string(b)
	}

	idxStreamLen, err := src.ReadVarint()
	if err != nil {
		return nil, fmt.Errorf("%w: reading string index stream length: %v", ErrMalformedInput, err)
	}

	idxStreamBytes, err := src.ReadBytes(int(idxStreamLen))
	if err != nil {
		return nil, fmt.Errorf("%w: reading string index stream: %v", ErrMalformedInput, err)
	}

	idxSrc := bytestream.NewSource(idxStreamBytes)

	idxReader, err := mrucodec.NewReader(idxSrc, numCellBits)
	if err != nil {
		return nil, err
	}

	tagSymbols := make([]*symbol.Symbol, 0, len(nonterminals))
	for _, nt := range nonterminals {
		tagSymbols = append(tagSymbols, nt)
	}

	var section ruleSectionJSON
	if err := json.Unmarshal(ruleBytes, &section); err != nil {
		return nil, fmt.Errorf("%w: decoding rule section: %v", ErrMalformedInput, err)
	}

	for _, k := range section.TerminalKinds {
		tagSymbols = append(tagSymbols, interner.resolve(k.Name, k.Rank))
	}

	tagTable := NewTagTable(tagSymbols)

	values := make(map[*arena.Node]any)
	replayer := memo.NewReplayer(memoCapacity)

	tree, err := decodeTree(src, cfg.Arena, tagTable, interner, strs, idxReader, values, replayer)
	if err != nil {
		return nil, err
	}

	if idxSrc.Remaining() {
		return nil, fmt.Errorf("%w: string index stream has unconsumed trailing bytes", ErrMalformedInput)
	}

	if src.Remaining() {
		return nil, fmt.Errorf("%w: unconsumed trailing bytes after the AST stream", ErrMalformedInput)
	}

	return &DecodeResult{Tree: tree, Rules: rules, Values: values}, nil
}

func decodeTree(
	src *bytestream.Source,
	a *arena.Arena,
	tagTable *TagTable,
	interner *terminalInterner,
	strs []string,
	idxReader *mrucodec.Reader,
	values map[*arena.Node]any,
	replayer *memo.Replayer,
) (*arena.Node, error) {
	nextOrdinal := 0

	// clone copies a recorded subtree (and its leaf payloads) for a replay,
	// since the recorded node already sits at its first position.
	var clone func(n *arena.Node) *arena.Node
	clone = func(n *arena.Node) *arena.Node {
		out := a.NewNode(n.Label)
		if v, ok := values[n]; ok {
			values[out] = v
		}

		for _, c := range n.Children() {
			out.AppendChild(clone(c))
		}

		return out
	}

	var decodeOne func() (*arena.Node, error)
	decodeOne = func() (*arena.Node, error) {
		tag, err := src.ReadVarint()
		if err != nil {
			return nil, fmt.Errorf("%w: reading tag: %v", ErrMalformedInput, err)
		}

		switch tag {
		case TagMemoReplay:
			ordinal, err := src.ReadVarint()
			if err != nil {
				return nil, fmt.Errorf("%w: reading memo replay ordinal: %v", ErrMalformedInput, err)
			}

			n, ok := replayer.Replay(int(ordinal))
			if !ok {
				return nil, fmt.Errorf("%w: memo replay ordinal %d not recorded", ErrMalformedInput, ordinal)
			}

			return clone(n), nil
		case TagMemoRecord:
			ordinal := nextOrdinal
			nextOrdinal++

			n, err := decodeOne()
			if err != nil {
				return nil, err
			}

			replayer.Record(ordinal, n)

			return n, nil
		case TagNull:
			return a.NewNode(interner.resolve("Null", 0)), nil
		case TagUndefined:
			return a.NewNode(interner.resolve("Undefined", 0)), nil
		case TagTrue:
			return a.NewNode(interner.resolve("True", 0)), nil
		case TagFalse:
			return a.NewNode(interner.resolve("False", 0)), nil
		case TagNumber:
			b, err := src.ReadBytes(8)
			if err != nil {
				return nil, fmt.Errorf("%w: reading number payload: %v", ErrMalformedInput, err)
			}

			v := math.Float64frombits(binary.LittleEndian.Uint64(b))
			n := a.NewNode(interner.resolve("Number", 0))
			values[n] = v

			return n, nil
		case TagString:
			idx, err := idxReader.Read()
			if err != nil {
				return nil, fmt.Errorf("%w: reading string index: %v", ErrMalformedInput, err)
			}

			if int(idx) >= len(strs) {
				return nil, fmt.Errorf("%w: string index %d out of range", ErrMalformedInput, idx)
			}

			n := a.NewNode(interner.resolve("String", 0))
			values[n] = strs[idx]

			return n, nil
		case TagList:
			count, err := src.ReadVarint()
			if err != nil {
				return nil, fmt.Errorf("%w: reading list length: %v", ErrMalformedInput, err)
			}

			n := a.NewNode(interner.resolve(fmt.Sprintf("list#%d", count), int(count)))

			for i := uint64(0); i < count; i++ {
				c, err := decodeOne()
				if err != nil {
					return nil, err
				}

				n.AppendChild(c)
			}

			return n, nil
		default:
			sym, ok := tagTable.Symbol(tag)
			if !ok {
				return nil, fmt.Errorf("%w: unrecognized tag %d", ErrMalformedInput, tag)
			}

			n := a.NewNode(sym)

			for i := 0; i < sym.Rank; i++ {
				c, err := decodeOne()
				if err != nil {
					return nil, err
				}

				n.AppendChild(c)
			}

			return n, nil
		}
	}

	return decodeOne()
}

// ruleJSON is the canonical on-disk shape of one grammar rule. Spec §6
// leaves the rule-set encoding unspecified beyond "any canonical
// representation that a matching decoder can replay is acceptable."
type ruleJSON struct {
	Name string   `json:"name"`
	Rank int      `json:"rank"`
	Body nodeJSON `json:"body"`
}

type nodeJSON struct {
	Kind       string     `json:"kind"` // "Terminal" | "Nonterminal" | "Parameter"
	Name       string     `json:"name,omitempty"`
	Rank       int        `json:"rank"`
	ParamIndex int        `json:"paramIndex,omitempty"`
	Children   []nodeJSON `json:"children,omitempty"`
}

// terminalKindJSON names one kind Terminal the walker interned, carried
// alongside the rule list so a decoder can rebuild the exact tag table the
// encoder used even for a Terminal that never ended up inside a rule body
// (an axiom-only node kind, e.g. one that occurs only once in the tree).
type terminalKindJSON struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// ruleSectionJSON is the rule section's on-disk envelope: the rule map
// plus the full set of kind Terminals the tag table needs, independent of
// which of them a rule body happens to reference.
type ruleSectionJSON struct {
	Rules         []ruleJSON         `json:"rules"`
	TerminalKinds []terminalKindJSON `json:"terminalKinds"`
}

// EncodeRules serializes rules, plus the full set of kind Terminals
// (typically astwalk.Registry.KindSymbols()) needed to reconstruct the tag
// table on decode, to the JSON rule section described in spec §6.
func EncodeRules(rules map[*symbol.Symbol]*arena.Node, terminalKinds []*symbol.Symbol) ([]byte, error) {
	list := make([]ruleJSON, 0, len(rules))

	for nt, body := range rules {
		list = append(list, ruleJSON{Name: nt.Name, Rank: nt.Rank, Body: encodeRuleNode(body)})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	kinds := make([]terminalKindJSON, 0, len(terminalKinds))
	for _, s := range terminalKinds {
		kinds = append(kinds, terminalKindJSON{Name: s.Name, Rank: s.Rank})
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })

	return json.Marshal(ruleSectionJSON{Rules: list, TerminalKinds: kinds})
}

func encodeRuleNode(n *arena.Node) nodeJSON {
	lbl := n.Label

	nj := nodeJSON{Name: lbl.Name, Rank: lbl.Rank}

	switch {
	case lbl.IsParameter():
		nj.Kind = "Parameter"
		nj.ParamIndex = lbl.ParamIndex()
	case lbl.IsNonterminal():
		nj.Kind = "Nonterminal"
	default:
		nj.Kind = "Terminal"
	}

	for _, c := range n.Children() {
		nj.Children = append(nj.Children, encodeRuleNode(c))
	}

	return nj
}

// DecodeRules is EncodeRules's inverse. It returns the reconstructed rule
// map and, separately, the map of rule name to the Nonterminal symbol
// that names it (useful to callers assembling the full tag table). Every
// name in the section's TerminalKinds list is interned into interner
// before returning, regardless of whether a rule body references it. The
// interner also holds the primitive and list Terminals that rule bodies
// reference, so Decode builds its tag table from TerminalKinds, the set
// the encoder used, rather than from interner.all().
func DecodeRules(
	data []byte,
	a *arena.Arena,
	interner *terminalInterner,
) (map[*symbol.Symbol]*arena.Node, map[string]*symbol.Symbol, error) {
	var section ruleSectionJSON

	if err := json.Unmarshal(data, &section); err != nil {
		return nil, nil, err
	}

	nonterminals := make(map[string]*symbol.Symbol, len(section.Rules))
	for _, r := range section.Rules {
		nonterminals[r.Name] = symbol.NewNonterminal(r.Name, r.Rank)
	}

	for _, k := range section.TerminalKinds {
		interner.resolve(k.Name, k.Rank)
	}

	rules := make(map[*symbol.Symbol]*arena.Node, len(section.Rules))

	for _, r := range section.Rules {
		nt := nonterminals[r.Name]
		rules[nt] = decodeRuleNode(r.Body, nt, nonterminals, interner, a)
	}

	return rules, nonterminals, nil
}

func decodeRuleNode(
	nj nodeJSON,
	owner *symbol.Symbol,
	nonterminals map[string]*symbol.Symbol,
	interner *terminalInterner,
	a *arena.Arena,
) *arena.Node {
	var label *symbol.Symbol

	switch nj.Kind {
	case "Parameter":
		label = owner.Formals[nj.ParamIndex]
	case "Nonterminal":
		label = nonterminals[nj.Name]
	default:
		label = interner.resolve(nj.Name, nj.Rank)
	}

	n := a.NewNode(label)
	for _, c := range nj.Children {
		n.AppendChild(decodeRuleNode(c, owner, nonterminals, interner, a))
	}

	return n
}

// terminalInterner interns Terminal symbols by name during decode, so a
// Terminal shared between a rule body and the AST stream resolves to one
// Symbol (matching the encoder's astwalk.Registry identity discipline).
type terminalInterner struct {
	byName map[string]*symbol.Symbol
}

func newTerminalInterner() *terminalInterner {
	return &terminalInterner{byName: make(map[string]*symbol.Symbol)}
}

func (ti *terminalInterner) resolve(name string, rank int) *symbol.Symbol {
	if s, ok := ti.byName[name]; ok {
		return s
	}

	s := symbol.NewTerminal(name, rank)
	ti.byName[name] = s

	return s
}

func (ti *terminalInterner) all() []*symbol.Symbol {
	out := make([]*symbol.Symbol, 0, len(ti.byName))
	for _, s := range ti.byName {
		out = append(out, s)
	}

	return out
}
