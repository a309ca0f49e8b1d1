package depgraph

import "strings"

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// Cycle is a closed path: the first node is repeated at the end.
type Cycle []string

func (c Cycle) String() string {
	return strings.Join(c, " -> ")
}

// Cycles finds every distinct cycle reachable by a depth-first walk over
// sorted nodes. Each cycle is rotated to start at its smallest node, so
// a <-> b is reported once however it was entered.
func (g *Graph) Cycles() []Cycle {
	states := make(map[string]visitState, len(g.Nodes))
	seen := make(map[string]bool)
	var stack []string
	var cycles []Cycle

	var visit func(id string)
	visit = func(id string) {
		states[id] = stateVisiting
		stack = append(stack, id)
		for _, next := range g.Nodes[id].OutEdges {
			switch states[next] {
			case stateVisiting:
				c := canonical(stack, next)
				key := c.String()
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, c)
				}
			case stateDone:
			default:
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		states[id] = stateDone
	}

	for _, id := range g.IDs() {
		if states[id] == 0 {
			visit(id)
		}
	}
	return cycles
}

// HasCycle reports whether any cycle exists.
func (g *Graph) HasCycle() bool {
	return len(g.Cycles()) > 0
}

// canonical cuts the cycle entered at back out of the DFS stack and
// rotates it to its smallest node.
func canonical(stack []string, back string) Cycle {
	start := len(stack) - 1
	for start > 0 && stack[start] != back {
		start--
	}
	ring := stack[start:]

	lo := 0
	for i, id := range ring {
		if id < ring[lo] {
			lo = i
		}
	}
	out := make(Cycle, 0, len(ring)+1)
	out = append(out, ring[lo:]...)
	out = append(out, ring[:lo]...)
	return append(out, out[0])
}
