package treerepair

import (
	"fmt"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/symbol"
	"github.com/astenc/binjs/pkg/toposort"
)

// stats holds the per-Nonterminal bookkeeping compute_stats() needs: how
// many nodes a rule's own body contributes (not counting what its callees
// contribute) and how many invocation sites reference it.
type stats struct {
	size     map[*symbol.Symbol]int
	refCount map[*symbol.Symbol]int
	order    []*symbol.Symbol // usedNT before nt, i.e. deepest rules first
}

// computeStats walks every rule body and the axiom, counting each
// Nonterminal's own body size and the number of invocation sites referring
// to it, and derives a hierarchical processing order (callees before
// callers) via toposort so Phase B can assume a callee's stats are already
// final by the time its caller is visited.
func (e *Engine) computeStats() (*stats, error) {
	st := &stats{
		size:     make(map[*symbol.Symbol]int),
		refCount: make(map[*symbol.Symbol]int),
	}

	g := toposort.NewGraph()

	for nt := range e.Grammar.Rules {
		g.AddNode(nt.Name)
		st.size[nt] = countNodes(e.Grammar.Rules[nt])
	}

	countRefs := func(root *arena.Node) {
		arena.Each(root, func(n *arena.Node) {
			if n.Label.IsNonterminal() {
				st.refCount[n.Label]++
			}
		})
	}

	for nt, body := range e.Grammar.Rules {
		arena.Each(body, func(n *arena.Node) {
			if n.Label.IsNonterminal() && n.Label != nt {
				g.AddEdge(n.Label.Name, nt.Name)
			}
		})
	}

	countRefs(e.Grammar.Axiom)

	for _, body := range e.Grammar.Rules {
		countRefs(body)
	}

	order, ok := g.Toposort()
	if !ok {
		nameOf := make(map[string]*symbol.Symbol, len(e.Grammar.Rules))
		for nt := range e.Grammar.Rules {
			nameOf[nt.Name] = nt
		}

		var start string
		for name := range nameOf {
			start = name
			break
		}

		cycle := g.FindCycle(start)

		return nil, fmt.Errorf("%w: grammar is not linear, cycle through %v", arena.ErrInvariantViolation, cycle)
	}

	byName := make(map[string]*symbol.Symbol, len(e.Grammar.Rules))
	for nt := range e.Grammar.Rules {
		byName[nt.Name] = nt
	}

	st.order = make([]*symbol.Symbol, 0, len(order))
	for _, name := range order {
		st.order = append(st.order, byName[name])
	}

	return st, nil
}

// RuleStats is one Nonterminal's diagnostic row, the same numbers
// computeStats tracks internally, surfaced for tooling like the
// inspect CLI command.
type RuleStats struct {
	Name     string
	Rank     int
	Size     int
	RefCount int
	Savings  int
}

// Stats computes a RuleStats row for every rule currently in e.Grammar,
// in the same callee-first order Phase B processes them.
func (e *Engine) Stats() ([]RuleStats, error) {
	st, err := e.computeStats()
	if err != nil {
		return nil, err
	}

	out := make([]RuleStats, 0, len(st.order))

	for _, nt := range st.order {
		size := st.size[nt]
		refs := st.refCount[nt]
		savings := refs*(size-nt.Rank-1) - size

		out = append(out, RuleStats{Name: nt.Name, Rank: nt.Rank, Size: size, RefCount: refs, Savings: savings})
	}

	return out, nil
}

// Optimize runs the two pruning phases from spec §4.3 over e.Grammar,
// mutating it in place: Phase A inlines every Nonterminal referenced
// exactly once to a fixpoint, then Phase B walks the remaining rules
// callee-first and inlines any whose savings are non-positive.
func (e *Engine) Optimize() error {
	st, err := e.computeStats()
	if err != nil {
		return err
	}

	if err := e.phaseA(st); err != nil {
		return err
	}

	st, err = e.computeStats()
	if err != nil {
		return err
	}

	return e.phaseB(st)
}

// phaseA iteratively inlines every Nonterminal with ref_count == 1, to a
// fixpoint: inlining one rule can drop another rule's ref_count to 1 (its
// only remaining use was inside the inlined body), so the pass repeats
// until a full sweep finds nothing left to inline.
func (e *Engine) phaseA(st *stats) error {
	for {
		var target *symbol.Symbol

		for nt, refs := range st.refCount {
			if refs == 1 {
				target = nt
				break
			}
		}

		if target == nil {
			return nil
		}

		e.prune(target)

		var err error

		st, err = e.computeStats()
		if err != nil {
			return err
		}
	}
}

// phaseB walks the remaining rules in callee-first order, computing each
// one's savings and pruning it when keeping it around costs more than
// inlining it everywhere would.
func (e *Engine) phaseB(st *stats) error {
	for _, nt := range st.order {
		body, ok := e.Grammar.Rules[nt]
		if !ok {
			continue // already pruned, e.g. by an earlier iteration inlining its last use
		}

		size := countNodes(body)
		refs := st.refCount[nt]
		savings := refs*(size-nt.Rank-1) - size

		if savings <= 0 {
			e.prune(nt)

			var err error

			st, err = e.computeStats()
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// prune removes nt's rule entirely, replacing every invocation of nt (in
// the axiom and in every remaining rule body) with a freshly substituted
// copy of nt's body.
func (e *Engine) prune(nt *symbol.Symbol) {
	body := e.Grammar.Rules[nt]
	delete(e.Grammar.Rules, nt)

	e.inlineIn(&e.Grammar.Axiom, nt, body)

	for other, otherBody := range e.Grammar.Rules {
		ob := otherBody
		e.inlineIn(&ob, nt, body)
		e.Grammar.Rules[other] = ob
	}
}

// inlineIn replaces every invocation of nt reachable from *root (root may
// itself be such an invocation) with a substituted copy of body. It is the
// single place that releases a node once it has been substituted away, so
// inlineInBody itself never releases the root it was called with — only
// its caller, holding the pointer slot that node occupied, owns that.
func (e *Engine) inlineIn(root **arena.Node, nt *symbol.Symbol, body *arena.Node) {
	old := *root
	replaced := e.inlineInBody(old, nt, body)

	if replaced != old {
		e.Grammar.Arena.Release(old)
	}

	*root = replaced
}

// inlineInBody returns root with every invocation of nt replaced by a
// substituted copy of body, recursing first so nested invocations are
// handled bottom-up. It releases a child it replaces (the loop below owns
// each c), but never releases root itself — that is inlineIn's job, since
// root's own release depends on where its pointer slot lives (the axiom
// field vs. a rule-body entry vs. a parent's child link).
func (e *Engine) inlineInBody(root *arena.Node, nt *symbol.Symbol, body *arena.Node) *arena.Node {
	children := root.Children()
	for _, c := range children {
		replaced := e.inlineInBody(c, nt, body)
		if replaced != c {
			c.ReplaceWith(replaced)
			e.Grammar.Arena.Release(c)
		}
	}

	if root.Label != nt {
		return root
	}

	args := root.Children()

	return e.cloneSubstitute(body, args)
}

// cloneSubstitute deep-clones tmpl, replacing each Parameter leaf with the
// argument subtree at its ParamIndex. Argument subtrees are moved (not
// cloned): each appears at exactly one Parameter position in tmpl, since a
// well-formed production body references every formal exactly once.
func (e *Engine) cloneSubstitute(tmpl *arena.Node, args []*arena.Node) *arena.Node {
	if tmpl.Label.IsParameter() {
		return args[tmpl.Label.ParamIndex()]
	}

	clone := e.Grammar.Arena.NewNode(tmpl.Label)
	for _, c := range tmpl.Children() {
		clone.AppendChild(e.cloneSubstitute(c, args))
	}

	return clone
}
