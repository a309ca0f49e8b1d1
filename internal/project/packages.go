package project

import (
	"fmt"
	"path/filepath"

	"github.com/morozRed/blueprint/internal/depgraph"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/symbol"
)

func newGraph(mods []*symbol.Symbol) *depgraph.Graph {
	g := depgraph.New()
	for _, mod := range mods {
		g.AddNode(mod.Name)
	}
	return g
}

// PackageOf returns the package of a qualified symbol name.
func (p *Project) PackageOf(name string) string {
	id, ok := p.Table.Lookup(name)
	if !ok {
		return ""
	}
	return p.Table.Get(id).Package
}

// DeclaredPackageGraph is the graph of manifest depends entries.
func (p *Project) DeclaredPackageGraph() *depgraph.Graph {
	g := depgraph.New()
	for _, pkg := range p.Manifest.PackageList() {
		g.AddNode(pkg.Name)
		for _, dep := range pkg.Depends {
			if _, ok := p.Manifest.Packages[dep]; ok {
				g.AddEdge(pkg.Name, dep)
			}
		}
	}
	return g
}

// PackageGraph is the graph of package dependencies implied by module
// edges that cross package boundaries.
func (p *Project) PackageGraph() *depgraph.Graph {
	g := depgraph.New()
	for _, sym := range p.Table.All() {
		g.AddNode(sym.Package)
	}
	for _, e := range p.Edges {
		from, to := p.PackageOf(e.From), p.PackageOf(e.To)
		if from != "" && to != "" && from != to {
			g.AddEdge(from, to)
		}
	}
	return g
}

// CrossPackageEdges returns module edges whose endpoints live in
// different packages.
func (p *Project) CrossPackageEdges() []Edge {
	var out []Edge
	for _, e := range p.Edges {
		if p.PackageOf(e.From) != p.PackageOf(e.To) {
			out = append(out, e)
		}
	}
	return out
}

func (p *Project) packageRules() []diag.Diagnostic {
	if len(p.Manifest.Packages) == 0 {
		return nil
	}
	var diags []diag.Diagnostic

	for _, e := range p.CrossPackageEdges() {
		from, to := p.PackageOf(e.From), p.PackageOf(e.To)
		pkg, ok := p.Manifest.Package(from)
		if !ok || containsString(pkg.Depends, to) {
			continue
		}
		d := diag.Warnf(diag.CodePackageDependency,
			fmt.Sprintf("module %s (package %s) requires %s from package %s, which is not in depends", e.From, from, e.To, to))
		var sym *symbol.Symbol
		if id, ok := p.Table.Lookup(e.From); ok {
			sym = p.Table.Get(id)
		}
		diags = append(diags, located(d, e.File, sym, e.Line, "requires"))
	}

	manifestFile := filepath.Base(p.Manifest.Path)
	for _, cycle := range p.DeclaredPackageGraph().Cycles() {
		d := diag.Errorf(diag.CodeCircularDependency, "package dependency cycle: "+cycle.String())
		d.File = manifestFile
		d.Symbol = "packages." + cycle[0]
		d.Location = "depends"
		d.Path = cycle
		diags = append(diags, d)
	}
	return diags
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
