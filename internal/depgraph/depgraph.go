// Package depgraph is a small directed graph over string node IDs. It is
// shared by the module, package and deploy-job graphs.
package depgraph

import "sort"

// Node holds both edge directions. Edge lists stay sorted and unique.
type Node struct {
	ID       string
	OutEdges []string
	InEdges  []string
}

type Graph struct {
	Nodes map[string]*Node
}

func New() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode is a no-op for an existing node.
func (g *Graph) AddNode(id string) *Node {
	if n, ok := g.Nodes[id]; ok {
		return n
	}
	n := &Node{ID: id}
	g.Nodes[id] = n
	return n
}

// AddEdge adds from -> to, creating both nodes. It reports whether the
// edge is new.
func (g *Graph) AddEdge(from, to string) bool {
	src := g.AddNode(from)
	dst := g.AddNode(to)
	if containsSorted(src.OutEdges, to) {
		return false
	}
	src.OutEdges = insertSorted(src.OutEdges, to)
	dst.InEdges = insertSorted(dst.InEdges, from)
	return true
}

func (g *Graph) HasEdge(from, to string) bool {
	n, ok := g.Nodes[from]
	return ok && containsSorted(n.OutEdges, to)
}

// IDs returns every node ID in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Graph) Successors(id string) []string {
	if n, ok := g.Nodes[id]; ok {
		return n.OutEdges
	}
	return nil
}

func (g *Graph) Predecessors(id string) []string {
	if n, ok := g.Nodes[id]; ok {
		return n.InEdges
	}
	return nil
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.Nodes {
		total += len(n.OutEdges)
	}
	return total
}

// Unreferenced returns nodes with no incoming edge, sorted.
func (g *Graph) Unreferenced() []string {
	var out []string
	for _, id := range g.IDs() {
		if len(g.Nodes[id].InEdges) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Roots returns nodes with no outgoing edge, sorted.
func (g *Graph) Roots() []string {
	var out []string
	for _, id := range g.IDs() {
		if len(g.Nodes[id].OutEdges) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Reachable returns every node reachable from starts along outgoing edges,
// starts included.
func (g *Graph) Reachable(starts ...string) map[string]bool {
	return g.walk(starts, (*Node).out)
}

// ReachableReverse follows incoming edges instead.
func (g *Graph) ReachableReverse(starts ...string) map[string]bool {
	return g.walk(starts, (*Node).in)
}

func (n *Node) out() []string { return n.OutEdges }
func (n *Node) in() []string  { return n.InEdges }

func (g *Graph) walk(starts []string, next func(*Node) []string) map[string]bool {
	seen := make(map[string]bool)
	queue := make([]string, 0, len(starts))
	for _, s := range starts {
		if _, ok := g.Nodes[s]; ok && !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, nb := range next(g.Nodes[id]) {
			if !seen[nb] {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return seen
}

func containsSorted(values []string, v string) bool {
	i := sort.SearchStrings(values, v)
	return i < len(values) && values[i] == v
}

func insertSorted(values []string, v string) []string {
	i := sort.SearchStrings(values, v)
	values = append(values, "")
	copy(values[i+1:], values[i:])
	values[i] = v
	return values
}
