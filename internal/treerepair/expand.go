package treerepair

import "github.com/astenc/binjs/internal/arena"

// Expand rebuilds the original tree from g: every Nonterminal invocation
// is replaced by a fresh copy of that Nonterminal's rule body with its
// Parameter leaves bound to the invocation's (already expanded) argument
// subtrees. This is the Axiom's defining property from the GLOSSARY:
// expanding it reproduces the source tree exactly.
func Expand(g *Grammar) *arena.Node {
	return expand(g, g.Axiom, nil)
}

// expand evaluates n under the Parameter bindings args (nil outside any
// rule body). A Parameter leaf resolves directly to its bound argument,
// which is always already fully expanded. A Nonterminal invocation
// expands its children under the current bindings to get fresh argument
// values, then expands its rule body under those new bindings. Anything
// else is a Terminal: clone it and expand its children under the same
// bindings.
func expand(g *Grammar, n *arena.Node, args []*arena.Node) *arena.Node {
	if n.Label.IsParameter() {
		return args[n.Label.ParamIndex()]
	}

	if body, isInvocation := g.Rules[n.Label]; isInvocation {
		callArgs := make([]*arena.Node, 0, n.Rank())
		for _, c := range n.Children() {
			callArgs = append(callArgs, expand(g, c, args))
		}

		return expand(g, body, callArgs)
	}

	out := g.Arena.NewNode(n.Label)
	for _, c := range n.Children() {
		out.AppendChild(expand(g, c, args))
	}

	return out
}

// ExpandValues is Expand plus payload propagation: every leaf clone
// Expand would normally produce carries forward whatever value in
// associates with its source node (a Number/String literal payload),
// keyed in the returned map by the expanded tree's own nodes. Decoding
// needs this variant since a rule body's leaves get cloned once per
// invocation site and a plain Expand would otherwise orphan their
// payloads.
func ExpandValues(g *Grammar, in map[*arena.Node]any) (*arena.Node, map[*arena.Node]any) {
	out := make(map[*arena.Node]any, len(in))
	root := expandValues(g, g.Axiom, nil, in, out)

	return root, out
}

func expandValues(g *Grammar, n *arena.Node, args []*arena.Node, in, out map[*arena.Node]any) *arena.Node {
	if n.Label.IsParameter() {
		return args[n.Label.ParamIndex()]
	}

	if body, isInvocation := g.Rules[n.Label]; isInvocation {
		callArgs := make([]*arena.Node, 0, n.Rank())
		for _, c := range n.Children() {
			callArgs = append(callArgs, expandValues(g, c, args, in, out))
		}

		return expandValues(g, body, callArgs, in, out)
	}

	clone := g.Arena.NewNode(n.Label)
	if v, ok := in[n]; ok {
		out[clone] = v
	}

	for _, c := range n.Children() {
		clone.AppendChild(expandValues(g, c, args, in, out))
	}

	return clone
}
