package nav

import (
	"sort"

	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

// closureRelations are the links a closure follows out of each kind.
// Module requires are deliberately not followed.
var closureRelations = map[document.Kind][]string{
	document.KindMod:    {resolve.RelSchemas, resolve.RelFuncs, resolve.RelPipeline},
	document.KindFunc:   {resolve.RelInput, resolve.RelOutput},
	document.KindSchema: {resolve.RelFrom, resolve.RelTo, resolve.RelBase, resolve.RelOver, resolve.RelField},
}

// ClosureIDs returns root and every symbol it transitively needs, in
// discovery order.
func ClosureIDs(t *symbol.Table, idx *resolve.Index, root symbol.ID) []symbol.ID {
	seen := map[symbol.ID]bool{root: true}
	order := []symbol.ID{root}
	for i := 0; i < len(order); i++ {
		sym := t.Get(order[i])
		for _, next := range idx.Targets(sym.ID, closureRelations[sym.Kind]...) {
			if !seen[next] {
				seen[next] = true
				order = append(order, next)
			}
		}
	}
	return order
}

type UnresolvedRef struct {
	From     string `json:"from"`
	Relation string `json:"relation"`
	Raw      string `json:"raw"`
}

type ClosureResult struct {
	Root       SymbolRecord    `json:"root"`
	Schemas    []SymbolRecord  `json:"schemas"`
	Funcs      []SymbolRecord  `json:"funcs"`
	Mods       []SymbolRecord  `json:"mods"`
	Unresolved []UnresolvedRef `json:"unresolved,omitempty"`
	IDs        []symbol.ID     `json:"-"`
}

// Closure computes the transitive definitions root depends on. References
// that did not resolve are listed rather than followed.
func Closure(p *project.Project, root *symbol.Symbol) ClosureResult {
	ids := ClosureIDs(p.Table, p.Links, root.ID)
	res := ClosureResult{Root: RecordOf(root), IDs: ids}
	for _, id := range ids {
		sym := p.Table.Get(id)
		rec := RecordOf(sym)
		switch sym.Kind {
		case document.KindSchema:
			res.Schemas = append(res.Schemas, rec)
		case document.KindFunc:
			res.Funcs = append(res.Funcs, rec)
		case document.KindMod:
			res.Mods = append(res.Mods, rec)
		}
		follow := closureRelations[sym.Kind]
		for _, l := range p.Links.Outgoing(id) {
			if !l.Resolved() && followed(l.Relation, follow) {
				res.Unresolved = append(res.Unresolved, UnresolvedRef{From: sym.Name, Relation: l.Relation, Raw: l.Raw})
			}
		}
	}
	sortRecords(res.Schemas)
	sortRecords(res.Funcs)
	sortRecords(res.Mods)
	return res
}

func followed(relation string, relations []string) bool {
	for _, r := range relations {
		if r == relation || (r == resolve.RelField && len(relation) > len(r) && relation[:len(r)] == r) {
			return true
		}
	}
	return false
}

// Referrers lists every declaration that names target, tagged with the
// relation it names it through.
func Referrers(p *project.Project, target *symbol.Symbol) []EdgeRecord {
	var out []EdgeRecord
	for _, l := range p.Links.All() {
		if !l.Resolved() || l.Target != target.ID {
			continue
		}
		out = append(out, EdgeRecord{
			Symbol:   RecordOf(p.Table.Get(l.From)),
			Relation: l.Relation,
			Line:     l.Line,
		})
	}
	sortEdges(out)
	return dedupeEdges(out)
}

type TraceResult struct {
	Target     SymbolRecord   `json:"target"`
	Upstream   []EdgeRecord   `json:"upstream"`
	Downstream []EdgeRecord   `json:"downstream"`
	Shared     []EdgeRecord   `json:"shared,omitempty"`
	Producers  []SymbolRecord `json:"producers,omitempty"`
	Consumers  []SymbolRecord `json:"consumers,omitempty"`
}

// Trace reports target's direct neighbors; it never walks further than
// one hop.
func Trace(p *project.Project, target *symbol.Symbol) TraceResult {
	res := TraceResult{Target: RecordOf(target)}
	switch target.Kind {
	case document.KindMod:
		for _, name := range p.Dependents(target.Name) {
			res.Upstream = append(res.Upstream, moduleEdge(p, name, resolve.RelRequires))
		}
		for _, name := range p.Dependencies(target.Name) {
			res.Downstream = append(res.Downstream, moduleEdge(p, name, resolve.RelRequires))
		}
		res.Shared = sharedModules(p, target)
	case document.KindSchema:
		res.Producers = records(p.Table, users(p, target.ID, resolve.RelOutput))
		res.Consumers = records(p.Table, users(p, target.ID, resolve.RelInput))
	case document.KindFunc:
		res.Upstream = flowNeighbors(p, target, resolve.RelInput, resolve.RelOutput)
		res.Downstream = flowNeighbors(p, target, resolve.RelOutput, resolve.RelInput)
	}
	return res
}

func moduleEdge(p *project.Project, name, relation string) EdgeRecord {
	rec := SymbolRecord{Name: name, Kind: string(document.KindMod)}
	if id, ok := p.Table.Lookup(name); ok {
		rec = RecordOf(p.Table.Get(id))
	}
	return EdgeRecord{Symbol: rec, Relation: relation}
}

// users returns the symbols linking to id through relation.
func users(p *project.Project, id symbol.ID, relation string) []symbol.ID {
	var out []symbol.ID
	seen := make(map[symbol.ID]bool)
	for _, l := range p.Links.Incoming(id) {
		if l.Relation == relation && !seen[l.From] {
			seen[l.From] = true
			out = append(out, l.From)
		}
	}
	return out
}

// flowNeighbors finds funcs on the other side of fn's schemas: for each
// schema fn reaches through own, the funcs reaching it through other.
func flowNeighbors(p *project.Project, fn *symbol.Symbol, own, other string) []EdgeRecord {
	via := make(map[symbol.ID][]string)
	for _, schema := range p.Links.Targets(fn.ID, own) {
		for _, neighbor := range users(p, schema, other) {
			if neighbor == fn.ID {
				continue
			}
			via[neighbor] = append(via[neighbor], p.Table.Get(schema).Name)
		}
	}
	out := make([]EdgeRecord, 0, len(via))
	for id, schemas := range via {
		sort.Strings(schemas)
		out = append(out, EdgeRecord{Symbol: RecordOf(p.Table.Get(id)), Relation: other, Via: schemas})
	}
	sortEdges(out)
	return out
}

func sharedModules(p *project.Project, mod *symbol.Symbol) []EdgeRecord {
	via := make(map[symbol.ID][]string)
	for _, schema := range p.Links.Targets(mod.ID, resolve.RelSchemas) {
		for _, other := range users(p, schema, resolve.RelSchemas) {
			if other == mod.ID {
				continue
			}
			via[other] = append(via[other], p.Table.Get(schema).Name)
		}
	}
	out := make([]EdgeRecord, 0, len(via))
	for id, schemas := range via {
		sort.Strings(schemas)
		out = append(out, EdgeRecord{Symbol: RecordOf(p.Table.Get(id)), Relation: resolve.RelSchemas, Via: schemas})
	}
	sortEdges(out)
	return out
}

func dedupeEdges(es []EdgeRecord) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range es {
		if n := len(out); n > 0 && out[n-1].Symbol.Name == e.Symbol.Name && out[n-1].Relation == e.Relation {
			continue
		}
		out = append(out, e)
	}
	return out
}
