// Package project builds the immutable, fully resolved view of a project:
// documents, packages, the symbol table, links and the module graph.
package project

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/morozRed/blueprint/internal/check"
	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/depgraph"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/ignore"
	"github.com/morozRed/blueprint/internal/loader"
	"github.com/morozRed/blueprint/internal/manifest"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

// Options tunes a load. Strict forces the strict ambiguity policy over the
// manifest's choice.
type Options struct {
	Strict  bool
	Ignore  *ignore.Matcher
	Skip    []string
	Workers int
}

type Project struct {
	Manifest  *manifest.Manifest
	Documents []*document.Document
	// Packages maps document path to package name.
	Packages map[string]string
	Table    *symbol.Table
	Resolver *resolve.Resolver
	Contexts map[string]symbol.NamespaceContext
	Links    *resolve.Index
	Edges    []Edge
	Modules  *depgraph.Graph

	Diagnostics []diag.Diagnostic
}

// Load reads the manifest, walks its IR root and builds the project.
func Load(ctx context.Context, manifestPath string, opts Options) (*Project, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	matcher := opts.Ignore
	if matcher == nil {
		if matcher, err = ignore.Load(m.Root); err != nil {
			return nil, err
		}
	}
	loaded, err := loader.Load(ctx, loader.Options{
		Root:    m.Root,
		IRRoot:  m.IRRoot(),
		Ignore:  matcher,
		Skip:    append([]string{m.Path}, opts.Skip...),
		Workers: opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	p, err := FromDocuments(ctx, m, loaded.Documents, opts)
	if err != nil {
		return nil, err
	}
	p.Diagnostics = finish(append(p.Diagnostics, loaded.Diagnostics...))
	return p, nil
}

// FromDocuments builds a project from already parsed documents. A nil
// manifest stands for a project without packages.
func FromDocuments(ctx context.Context, m *manifest.Manifest, docs []*document.Document, opts Options) (*Project, error) {
	logger := ctxlog.FromContext(ctx)
	if m == nil {
		m = &manifest.Manifest{Project: manifest.ProjectSection{Name: "blueprint"}}
	}

	sorted := append([]*document.Document(nil), docs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	p := &Project{
		Manifest:  m,
		Documents: sorted,
		Contexts:  make(map[string]symbol.NamespaceContext, len(sorted)),
	}

	headers := make([]manifest.FileHeader, len(sorted))
	for i, doc := range sorted {
		headers[i] = manifest.FileHeader{Path: doc.Path, Package: doc.Package}
	}
	var diags []diag.Diagnostic
	assigned, assignDiags := m.Assign(headers)
	p.Packages = assigned
	diags = append(diags, assignDiags...)
	diags = append(diags, m.CheckDepends()...)

	pkgNamespaces := make(map[string]string)
	for _, pkg := range m.PackageList() {
		pkgNamespaces[pkg.Name] = pkg.Namespace
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Phase 1: collect declarations per file, then freeze the table.
	collected := make([]symbol.Collected, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pkg := p.Packages[doc.Path]
			collected[i] = symbol.Collect(doc, pkg, p.namespaceOf(doc, pkgNamespaces[pkg]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect symbols: %w", err)
	}
	table, mergeDiags := symbol.Merge(collected, pkgNamespaces)
	p.Table = table
	diags = append(diags, mergeDiags...)
	logger.Debug("symbol table built", "symbols", table.Len(), "files", len(sorted))

	policy := resolve.Lenient
	if opts.Strict || m.Check.StrictAmbiguity() {
		policy = resolve.Strict
	}
	p.Resolver = resolve.New(table, policy)

	// Phase 2: resolve and check every file against the frozen table.
	units := make([]check.Unit, len(sorted))
	for i, doc := range sorted {
		c := collected[i]
		nctx, importDiags := symbol.NewContext(doc, c.Package, c.Namespace, table)
		p.Contexts[doc.Path] = nctx
		units[i] = check.Unit{Doc: doc, Context: nctx}
		diags = append(diags, importDiags...)
	}
	checked, err := check.Project(ctx, p.Resolver, units, workers)
	if err != nil {
		return nil, fmt.Errorf("failed to check documents: %w", err)
	}
	diags = append(diags, checked.Diagnostics...)

	links, graphDiags := p.buildModuleGraph(checked.Links)
	p.Links = resolve.NewIndex(links)
	diags = append(diags, graphDiags...)
	diags = append(diags, p.packageRules()...)

	p.Diagnostics = finish(diags)
	logger.Debug("project checked", "diagnostics", len(p.Diagnostics), "modules", len(p.Modules.Nodes))
	return p, nil
}

func (p *Project) namespaceOf(doc *document.Document, pkgDefault string) string {
	if doc.Namespace != "" {
		return doc.Namespace
	}
	return pkgDefault
}

func finish(diags []diag.Diagnostic) []diag.Diagnostic {
	diag.Sort(diags)
	return diag.Dedupe(diags)
}

// Document returns the document at path, which may be given relative to
// the manifest directory or absolute.
func (p *Project) Document(path string) (*document.Document, bool) {
	rel := filepath.ToSlash(filepath.Clean(path))
	if filepath.IsAbs(path) && p.Manifest.Root != "" {
		if r, err := filepath.Rel(p.Manifest.Root, path); err == nil {
			rel = filepath.ToSlash(r)
		}
	}
	for _, doc := range p.Documents {
		if doc.Path == rel {
			return doc, true
		}
	}
	return nil, false
}

// DiagnosticsFor filters diagnostics down to one file.
func (p *Project) DiagnosticsFor(file string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range p.Diagnostics {
		if d.File == file {
			out = append(out, d)
		}
	}
	return out
}

// Find resolves a user-typed symbol name to exactly one symbol.
func (p *Project) Find(name string) (*symbol.Symbol, error) {
	ids, ok := p.Table.Find(name)
	if ok {
		return p.Table.Get(ids[0]), nil
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("symbol %q not found", name)
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = p.Table.Get(id).Name
	}
	sort.Strings(names)
	return nil, fmt.Errorf("symbol %q is ambiguous: %v", name, names)
}

// ModuleSymbols returns module symbols sorted by qualified name.
func (p *Project) ModuleSymbols() []*symbol.Symbol {
	return p.Table.OfKind(document.KindMod)
}
