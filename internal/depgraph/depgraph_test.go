package depgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestMutualDependencyYieldsOneCycle(t *testing.T) {
	g := New()
	g.AddEdge("mod.b", "mod.a")
	g.AddEdge("mod.a", "mod.b")

	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("expected exactly one cycle, got %v", cycles)
	}
	if diff := cmp.Diff(Cycle{"mod.a", "mod.b", "mod.a"}, cycles[0]); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "mod.a -> mod.b -> mod.a", cycles[0].String())
}

func TestCyclesAreCanonicalAndDeduped(t *testing.T) {
	g := New()
	g.AddEdge("c", "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("d", "b")
	g.AddEdge("self", "self")

	cycles := g.Cycles()
	want := []Cycle{
		{"a", "b", "c", "a"},
		{"self", "self"},
	}
	if diff := cmp.Diff(want, cycles); diff != "" {
		t.Fatalf("cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestAcyclicGraph(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")
	assert.False(t, g.HasCycle())
	assert.Empty(t, g.Cycles())
}

func TestEdgesAreDeduplicated(t *testing.T) {
	g := New()
	assert.True(t, g.AddEdge("a", "b"))
	assert.False(t, g.AddEdge("a", "b"))
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.HasEdge("a", "b"))
	assert.False(t, g.HasEdge("b", "a"))
	assert.Equal(t, []string{"a"}, g.Predecessors("b"))
}

func TestReachabilityAndReferences(t *testing.T) {
	g := New()
	g.AddNode("lonely")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("x", "c")

	assert.Equal(t, []string{"a", "lonely", "x"}, g.Unreferenced())
	assert.Equal(t, []string{"c", "lonely"}, g.Roots())
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, g.Reachable("a"))
	assert.Equal(t, map[string]bool{"c": true, "b": true, "a": true, "x": true}, g.ReachableReverse("c"))
	assert.Empty(t, g.Reachable("missing"))
}
