package project

import (
	"fmt"
	"strings"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

// Require sources.
const (
	SourceModule = "module"
	SourceFile   = "file"
)

// Edge is a resolved module dependency: From requires To.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Raw    string `json:"raw"`
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Source string `json:"source"`
}

// Requirement is an unresolved require entry attributed to one module.
type Requirement struct {
	From   string
	Raw    string
	File   string
	Line   int
	Source string
}

// ExpandRequires fans a file-level require list out to every module the
// file declares, deduplicated on (module, target).
func ExpandRequires(file string, mods []string, requires []document.Require) []Requirement {
	var out []Requirement
	seen := make(map[[2]string]bool)
	for _, req := range requires {
		raw := strings.TrimSpace(req.Target)
		for _, mod := range mods {
			key := [2]string{mod, raw}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Requirement{From: mod, Raw: raw, File: file, Line: req.Line, Source: SourceFile})
		}
	}
	return out
}

// buildModuleGraph resolves both require sources into p.Modules and
// p.Edges and reports require, cycle and orphan problems. It returns the
// input links plus one requires link per file-level edge.
func (p *Project) buildModuleGraph(links []resolve.Link) ([]resolve.Link, []diag.Diagnostic) {
	var diags []diag.Diagnostic
	mods := p.ModuleSymbols()
	p.Modules = newGraph(mods)

	type edgeKey struct{ from, to string }
	seen := make(map[edgeKey]bool)
	addEdge := func(e Edge) {
		key := edgeKey{e.From, e.To}
		if seen[key] {
			return
		}
		seen[key] = true
		p.Edges = append(p.Edges, e)
		p.Modules.AddEdge(e.From, e.To)
	}

	for _, doc := range p.Documents {
		nctx := p.Contexts[doc.Path]
		var inFile []*symbol.Symbol
		for _, sym := range p.Table.InFile(doc.Path) {
			if sym.Kind == document.KindMod {
				inFile = append(inFile, sym)
			}
		}

		// module-level requires, in declaration order
		for _, mod := range inFile {
			for _, req := range mod.Mod.Requires {
				target, d, ok := p.resolveRequire(nctx, req.Target)
				if !ok {
					diags = append(diags, located(d, doc.Path, mod, req.Line, resolve.RelRequires))
					continue
				}
				addEdge(Edge{From: mod.Name, To: target.Name, Raw: req.Target, File: doc.Path, Line: req.Line, Source: SourceModule})
			}
		}

		// file-level requires: validated once per entry, then fanned out
		names := make([]string, len(inFile))
		byName := make(map[string]*symbol.Symbol, len(inFile))
		for i, mod := range inFile {
			names[i] = mod.Name
			byName[mod.Name] = mod
		}
		targets := make(map[string]*symbol.Symbol)
		for _, req := range doc.Requires {
			raw := strings.TrimSpace(req.Target)
			if _, done := targets[raw]; done {
				continue
			}
			target, d, ok := p.resolveRequire(nctx, raw)
			targets[raw] = target
			if !ok {
				diags = append(diags, located(d, doc.Path, nil, req.Line, "require"))
			}
		}
		for _, r := range ExpandRequires(doc.Path, names, doc.Requires) {
			target := targets[r.Raw]
			if target == nil {
				continue
			}
			addEdge(Edge{From: r.From, To: target.Name, Raw: r.Raw, File: r.File, Line: r.Line, Source: SourceFile})
			links = append(links, resolve.Link{
				From:     byName[r.From].ID,
				Relation: resolve.RelRequires,
				Raw:      r.Raw,
				Target:   target.ID,
				Status:   resolve.Resolved,
				Line:     r.Line,
			})
		}
	}

	diags = append(diags, p.cycleDiagnostics()...)
	diags = append(diags, p.orphanDiagnostics(mods)...)
	return links, diags
}

// resolveRequire validates the shape of a require entry and resolves it
// to a module.
func (p *Project) resolveRequire(nctx symbol.NamespaceContext, raw string) (*symbol.Symbol, diag.Diagnostic, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "->") {
		return nil, diag.Errorf(diag.CodeInvalidRequire,
			fmt.Sprintf("require %q uses chained syntax; list each module separately", raw)), false
	}
	ref, ok := symbol.ParseRef(raw)
	if !ok || ref.Kind != document.KindMod {
		return nil, diag.Errorf(diag.CodeInvalidRequire,
			fmt.Sprintf("require %q must name a module (mod.<name>)", raw)), false
	}

	res := p.Resolver.Resolve(nctx, raw, document.KindMod)
	switch res.Status {
	case resolve.Resolved:
		return p.Table.Get(res.ID), diag.Diagnostic{}, true
	case resolve.Ambiguous:
		return nil, diag.Errorf(diag.CodeUnresolvedRequire,
			fmt.Sprintf("required module %q is ambiguous: %s", raw, strings.Join(res.Candidates, ", "))), false
	default:
		return nil, diag.Errorf(diag.CodeUnresolvedRequire,
			fmt.Sprintf("required module %q does not exist", raw)), false
	}
}

func (p *Project) cycleDiagnostics() []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, cycle := range p.Modules.Cycles() {
		d := diag.Errorf(diag.CodeCircularDependency, "module dependency cycle: "+cycle.String())
		d.Path = cycle
		d.Symbol = cycle[0]
		if from, ok := p.Table.Lookup(cycle[0]); ok {
			sym := p.Table.Get(from)
			d.File = sym.File
			d.Order = sym.Order
			d.Line = p.edgeLine(cycle[0], cycle[1])
		}
		d.Location = resolve.RelRequires
		diags = append(diags, d)
	}
	return diags
}

func (p *Project) edgeLine(from, to string) int {
	for _, e := range p.Edges {
		if e.From == from && e.To == to {
			return e.Line
		}
	}
	return 0
}

// orphanDiagnostics flags modules nothing requires and that expose no
// boundary. A single-module project has no orphans: its one module is
// the entry point.
func (p *Project) orphanDiagnostics(mods []*symbol.Symbol) []diag.Diagnostic {
	if !p.Manifest.Check.OrphansEnabled() || len(mods) < 2 {
		return nil
	}
	var diags []diag.Diagnostic
	for _, mod := range mods {
		if len(p.Modules.Predecessors(mod.Name)) > 0 || len(mod.Mod.Boundary) > 0 {
			continue
		}
		d := diag.Warnf(diag.CodeOrphanModule,
			fmt.Sprintf("module %s is not required by any module and declares no boundary", mod.Name))
		diags = append(diags, located(d, mod.File, mod, mod.Line, ""))
	}
	return diags
}

// Dependents returns the modules that require mod, sorted.
func (p *Project) Dependents(mod string) []string {
	return p.Modules.Predecessors(mod)
}

// Dependencies returns the modules mod requires, sorted.
func (p *Project) Dependencies(mod string) []string {
	return p.Modules.Successors(mod)
}

func located(d diag.Diagnostic, file string, sym *symbol.Symbol, line int, location string) diag.Diagnostic {
	d.File = file
	d.Line = line
	d.Location = location
	if sym != nil {
		d.Symbol = sym.Name
		d.Order = sym.Order
	}
	return d
}
