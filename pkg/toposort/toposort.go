// Package toposort provides topological sorting and cycle detection over a
// directed graph of named nodes, used by the grammar optimizer to verify
// Nonterminal linearity and to compute the reverse-hierarchical (uses
// resolved before users) processing order spec §4.3 requires for
// compute_stats(). The engine is single-threaded per spec §5, so — unlike
// the originating implementation this package is trimmed from — none of
// this needs a lock: it is owned by one call chain for its entire
// lifetime.
package toposort

import "sort"

// Graph is a directed graph over string-named nodes.
type Graph struct {
	strToID map[string]int
	idToStr []string

	adjacency [][]int
	inDegree  []int
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{strToID: make(map[string]int)}
}

func (g *Graph) intern(name string) int {
	if id, ok := g.strToID[name]; ok {
		return id
	}

	id := len(g.idToStr)
	g.idToStr = append(g.idToStr, name)
	g.strToID[name] = id
	g.adjacency = append(g.adjacency, nil)
	g.inDegree = append(g.inDegree, 0)

	return id
}

// AddNode registers name as a node if not already present.
func (g *Graph) AddNode(name string) {
	g.intern(name)
}

// AddEdge records that from must be processed before to.
func (g *Graph) AddEdge(from, to string) {
	src := g.intern(from)
	dst := g.intern(to)

	for _, existing := range g.adjacency[src] {
		if existing == dst {
			return
		}
	}

	g.adjacency[src] = append(g.adjacency[src], dst)
	g.inDegree[dst]++
}

// Toposort returns all node names in an order that respects every AddEdge
// call (from before to), using Kahn's algorithm with a lexicographically
// sorted frontier for deterministic output. ok is false if the graph has a
// cycle.
func (g *Graph) Toposort() (order []string, ok bool) {
	n := len(g.idToStr)
	if n == 0 {
		return nil, true
	}

	inDegree := make([]int, n)
	copy(inDegree, g.inDegree)

	queue := make([]int, 0, n)

	for id := range n {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sort.Slice(queue, func(i, j int) bool { return g.idToStr[queue[i]] < g.idToStr[queue[j]] })

	result := make([]int, 0, n)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		result = append(result, cur)

		for _, next := range g.adjacency[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				insertSorted(&queue, next, g.idToStr)
			}
		}
	}

	if len(result) != n {
		return nil, false
	}

	names := make([]string, n)
	for i, id := range result {
		names[i] = g.idToStr[id]
	}

	return names, true
}

// FindCycle returns the node names forming a cycle reachable from start,
// or nil if none exists. Used to produce a diagnostic for a non-linear
// (cyclic) grammar, which spec §4.3 treats as an invariant bug.
func (g *Graph) FindCycle(start string) []string {
	startID, ok := g.strToID[start]
	if !ok {
		return nil
	}

	parent := map[int]int{startID: -1}
	queue := []int{startID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range g.adjacency[cur] {
			if next == startID {
				return g.reconstructCycle(parent, cur, startID)
			}

			if _, seen := parent[next]; !seen {
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}

	return nil
}

func (g *Graph) reconstructCycle(parent map[int]int, cur, startID int) []string {
	path := []int{startID}
	for c := cur; c != startID && c != -1; c = parent[c] {
		path = append(path, c)
	}

	path = append(path, startID)

	names := make([]string, len(path))
	for i, id := range path {
		names[len(path)-1-i] = g.idToStr[id]
	}

	return names
}

func insertSorted(queue *[]int, id int, names []string) {
	idx := sort.Search(len(*queue), func(i int) bool { return names[(*queue)[i]] >= names[id] })
	*queue = append(*queue, 0)
	copy((*queue)[idx+1:], (*queue)[idx:])
	(*queue)[idx] = id
}
