package nav

import (
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

type SchemaView struct {
	SymbolRecord
	SchemaKind string         `json:"schema_kind,omitempty"`
	Producers  []SymbolRecord `json:"producers,omitempty"`
	Consumers  []SymbolRecord `json:"consumers,omitempty"`
}

type FuncView struct {
	SymbolRecord
	Intent  string         `json:"intent,omitempty"`
	Inputs  []SymbolRecord `json:"inputs,omitempty"`
	Outputs []SymbolRecord `json:"outputs,omitempty"`
}

type StatusView struct {
	State     string   `json:"state,omitempty"`
	Coverage  *float64 `json:"coverage,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// ModuleView is a module as the rest of the project sees it.
type ModuleView struct {
	Module     SymbolRecord             `json:"module"`
	Purpose    string                   `json:"purpose,omitempty"`
	Schemas    []SchemaView             `json:"schemas"`
	Funcs      []FuncView               `json:"funcs"`
	Pipeline   []FuncView               `json:"pipeline,omitempty"`
	Boundary   []document.BoundaryEntry `json:"boundary,omitempty"`
	Requires   []string                 `json:"requires,omitempty"`
	Dependents []string                 `json:"dependents,omitempty"`
	Unresolved []UnresolvedRef          `json:"unresolved,omitempty"`
	Status     *StatusView              `json:"status,omitempty"`
}

// Inspect builds the effective view of mod. Listings are kept in
// declaration order.
func Inspect(p *project.Project, mod *symbol.Symbol) ModuleView {
	view := ModuleView{
		Module:     RecordOf(mod),
		Purpose:    mod.Mod.Purpose,
		Boundary:   mod.Mod.Boundary,
		Requires:   p.Dependencies(mod.Name),
		Dependents: p.Dependents(mod.Name),
	}

	for _, l := range p.Links.Outgoing(mod.ID) {
		if !l.Resolved() {
			if l.Relation != resolve.RelRequires {
				view.Unresolved = append(view.Unresolved, UnresolvedRef{From: mod.Name, Relation: l.Relation, Raw: l.Raw})
			}
			continue
		}
		target := p.Table.Get(l.Target)
		switch l.Relation {
		case resolve.RelSchemas:
			view.Schemas = append(view.Schemas, schemaView(p, target))
		case resolve.RelFuncs:
			view.Funcs = append(view.Funcs, funcView(p, target))
		case resolve.RelPipeline:
			view.Pipeline = append(view.Pipeline, funcView(p, target))
		}
	}
	view.Status = moduleStatus(p, mod)
	return view
}

func schemaView(p *project.Project, sym *symbol.Symbol) SchemaView {
	v := SchemaView{
		SymbolRecord: RecordOf(sym),
		Producers:    records(p.Table, users(p, sym.ID, resolve.RelOutput)),
		Consumers:    records(p.Table, users(p, sym.ID, resolve.RelInput)),
	}
	if sym.Schema != nil {
		v.SchemaKind = sym.Schema.Kind
	}
	return v
}

func funcView(p *project.Project, sym *symbol.Symbol) FuncView {
	v := FuncView{
		SymbolRecord: RecordOf(sym),
		Inputs:       records(p.Table, p.Links.Targets(sym.ID, resolve.RelInput)),
		Outputs:      records(p.Table, p.Links.Targets(sym.ID, resolve.RelOutput)),
	}
	if sym.Func != nil {
		v.Intent = sym.Func.Intent
	}
	return v
}

// moduleStatus finds the status entry for mod in its own file.
func moduleStatus(p *project.Project, mod *symbol.Symbol) *StatusView {
	doc, ok := p.Document(mod.File)
	if !ok || doc.Status == nil {
		return nil
	}
	for _, entry := range doc.Status.Modules {
		if entry.Module != mod.Local {
			continue
		}
		v := &StatusView{State: entry.State, Notes: entry.Notes, UpdatedAt: doc.Status.UpdatedAt}
		if entry.HasCoverage {
			coverage := entry.Coverage
			v.Coverage = &coverage
		}
		return v
	}
	return nil
}
