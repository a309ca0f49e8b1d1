// Package nav answers navigation queries over a built project: closure,
// referrers, one-hop traces and module views.
package nav

import (
	"sort"

	"github.com/morozRed/blueprint/internal/symbol"
)

type SymbolRecord struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Package   string `json:"package,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	File      string `json:"file"`
	Line      int    `json:"line"`
}

func RecordOf(sym *symbol.Symbol) SymbolRecord {
	return SymbolRecord{
		Name:      sym.Name,
		Kind:      string(sym.Kind),
		Package:   sym.Package,
		Namespace: sym.Namespace,
		File:      sym.File,
		Line:      sym.Line,
	}
}

// EdgeRecord is a neighbor with the relation that links it.
type EdgeRecord struct {
	Symbol   SymbolRecord `json:"symbol"`
	Relation string       `json:"relation"`
	Line     int          `json:"line,omitempty"`
	Via      []string     `json:"via,omitempty"`
}

func records(t *symbol.Table, ids []symbol.ID) []SymbolRecord {
	out := make([]SymbolRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, RecordOf(t.Get(id)))
	}
	sortRecords(out)
	return out
}

// sortRecords orders by kind (schema, func, mod) then name.
func sortRecords(rs []SymbolRecord) {
	rank := map[string]int{"schema": 0, "func": 1, "mod": 2}
	sort.SliceStable(rs, func(i, j int) bool {
		if rank[rs[i].Kind] != rank[rs[j].Kind] {
			return rank[rs[i].Kind] < rank[rs[j].Kind]
		}
		return rs[i].Name < rs[j].Name
	})
}

func sortEdges(es []EdgeRecord) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].Symbol.Name != es[j].Symbol.Name {
			return es[i].Symbol.Name < es[j].Symbol.Name
		}
		return es[i].Relation < es[j].Relation
	})
}
