package resolve

import (
	"sort"

	"github.com/morozRed/blueprint/internal/symbol"
)

// Relations a symbol can hold to the symbols it names.
const (
	RelInput    = "input"
	RelOutput   = "output"
	RelFrom     = "from"
	RelTo       = "to"
	RelBase     = "base"
	RelOver     = "over"
	RelSchemas  = "schemas"
	RelFuncs    = "funcs"
	RelPipeline = "pipeline"
	RelRequires = "requires"
	RelField    = "field:"
)

// Link is one reference position in a declaration, resolved or not.
type Link struct {
	From     symbol.ID
	Relation string
	Raw      string
	Target   symbol.ID
	Status   Status
	Line     int
}

func (l Link) Resolved() bool {
	return l.Status == Resolved && l.Target != symbol.NoID
}

// Index answers outgoing and incoming link queries over a frozen set.
type Index struct {
	links []Link
	out   map[symbol.ID][]int
	in    map[symbol.ID][]int
}

// NewIndex keeps links in (From, original position) order.
func NewIndex(links []Link) *Index {
	sorted := append([]Link(nil), links...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	idx := &Index{
		links: sorted,
		out:   make(map[symbol.ID][]int),
		in:    make(map[symbol.ID][]int),
	}
	for i, l := range sorted {
		idx.out[l.From] = append(idx.out[l.From], i)
		if l.Resolved() {
			idx.in[l.Target] = append(idx.in[l.Target], i)
		}
	}
	return idx
}

func (x *Index) All() []Link {
	return x.links
}

// Outgoing returns every link declared by id.
func (x *Index) Outgoing(id symbol.ID) []Link {
	return x.collect(x.out[id])
}

// Incoming returns resolved links that target id.
func (x *Index) Incoming(id symbol.ID) []Link {
	return x.collect(x.in[id])
}

// Targets returns the resolved targets of id's links for the given
// relations (all relations when none are given), deduplicated.
func (x *Index) Targets(id symbol.ID, relations ...string) []symbol.ID {
	var out []symbol.ID
	seen := make(map[symbol.ID]bool)
	for _, l := range x.Outgoing(id) {
		if !l.Resolved() || seen[l.Target] || !matches(l.Relation, relations) {
			continue
		}
		seen[l.Target] = true
		out = append(out, l.Target)
	}
	return out
}

func (x *Index) collect(positions []int) []Link {
	out := make([]Link, 0, len(positions))
	for _, i := range positions {
		out = append(out, x.links[i])
	}
	return out
}

func matches(relation string, relations []string) bool {
	if len(relations) == 0 {
		return true
	}
	for _, r := range relations {
		if r == relation || (r == RelField && len(relation) > len(RelField) && relation[:len(RelField)] == RelField) {
			return true
		}
	}
	return false
}
