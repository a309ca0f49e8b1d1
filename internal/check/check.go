// Package check runs the structural rules over resolved documents. Every
// rule runs even when an earlier one fails; findings are diagnostics.
package check

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

// Unit is one document with the context its references resolve in.
type Unit struct {
	Doc     *document.Document
	Context symbol.NamespaceContext
}

type Result struct {
	Links       []resolve.Link
	Diagnostics []diag.Diagnostic
}

// Project links every unit, then runs the file rules against the shared
// link index. Both phases fan out per file over at most workers
// goroutines (runtime.NumCPU when workers <= 0); output follows unit order.
func Project(ctx context.Context, r *resolve.Resolver, units []Unit, workers int) (Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	links := make([][]resolve.Link, len(units))
	linkDiags := make([][]diag.Diagnostic, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			links[i], linkDiags[i] = Link(r, unit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var all []resolve.Link
	for _, l := range links {
		all = append(all, l...)
	}
	idx := resolve.NewIndex(all)

	ruleDiags := make([][]diag.Diagnostic, len(units))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ruleDiags[i] = File(r, idx, unit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Links: all}
	for i := range units {
		res.Diagnostics = append(res.Diagnostics, linkDiags[i]...)
		res.Diagnostics = append(res.Diagnostics, ruleDiags[i]...)
	}
	return res, nil
}

// Link resolves every reference declared in the unit's document.
func Link(r *resolve.Resolver, unit Unit) ([]resolve.Link, []diag.Diagnostic) {
	var links []resolve.Link
	var diags []diag.Diagnostic
	for _, sym := range r.Table().InFile(unit.Doc.Path) {
		l, d := r.LinkSymbol(unit.Context, sym)
		links = append(links, l...)
		diags = append(diags, d...)
	}
	return links, diags
}

// File runs the structural rules for one document. idx must hold the
// links of every file, since pipelines and unions cross files.
func File(r *resolve.Resolver, idx *resolve.Index, unit Unit) []diag.Diagnostic {
	c := &checker{r: r, idx: idx, table: r.Table(), unit: unit}
	for _, sym := range c.table.InFile(unit.Doc.Path) {
		switch sym.Kind {
		case document.KindSchema:
			c.schemaKind(sym)
			c.endpoints(sym)
			c.fieldTypes(sym)
		case document.KindMod:
			c.pipeline(sym)
			c.unused(sym)
		}
	}
	c.status()
	return c.diags
}

type checker struct {
	r     *resolve.Resolver
	idx   *resolve.Index
	table *symbol.Table
	unit  Unit
	diags []diag.Diagnostic
}

func (c *checker) report(d diag.Diagnostic, sym *symbol.Symbol, line int, location string) {
	d.File = c.unit.Doc.Path
	d.Location = location
	d.Line = line
	if sym != nil {
		d.Symbol = sym.Name
		d.Order = sym.Order
	} else {
		// status sections sort after every declaration
		d.Order = len(c.unit.Doc.Decls()) + 1
	}
	c.diags = append(c.diags, d)
}

func (c *checker) schemaKind(sym *symbol.Symbol) {
	switch sym.Schema.Kind {
	case "", document.SchemaNode, document.SchemaEdge, document.SchemaValue, document.SchemaBoundary:
		return
	}
	c.report(diag.Errorf(diag.CodeInvalidSchemaKind,
		fmt.Sprintf("schema kind %q is not one of node, edge, value, boundary", sym.Schema.Kind)),
		sym, sym.Line, "kind")
}

func (c *checker) endpoints(sym *symbol.Symbol) {
	s := sym.Schema
	if s.Kind == document.SchemaEdge {
		for _, end := range []struct{ key, value string }{{"from", s.From}, {"to", s.To}} {
			if end.value == "" {
				c.report(diag.Errorf(diag.CodeEdgeEndpointMissing,
					fmt.Sprintf("edge schema is missing %q", end.key)), sym, sym.Line, end.key)
			}
		}
		return
	}
	for _, end := range []struct{ key, value string }{{"from", s.From}, {"to", s.To}} {
		if end.value != "" {
			c.report(diag.Errorf(diag.CodeUnexpectedEndpoint,
				fmt.Sprintf("%q is only allowed on edge schemas", end.key)), sym, sym.Line, end.key)
		}
	}
}

func (c *checker) fieldTypes(sym *symbol.Symbol) {
	for _, field := range sym.Schema.Fields {
		if _, err := document.ParseType(field.Type); err != nil {
			c.report(diag.Errorf(diag.CodeInvalidType,
				fmt.Sprintf("field %q: %v", field.Name, err)), sym, field.Line, resolve.RelField+field.Name)
		}
	}
}

type step struct {
	raw string
	id  symbol.ID
}

func (c *checker) steps(mod *symbol.Symbol) []step {
	var out []step
	for _, l := range c.idx.Outgoing(mod.ID) {
		if l.Relation != resolve.RelPipeline {
			continue
		}
		id := symbol.NoID
		if l.Resolved() {
			id = l.Target
		}
		out = append(out, step{raw: l.Raw, id: id})
	}
	return out
}

func (c *checker) pipeline(mod *symbol.Symbol) {
	steps := c.steps(mod)

	seen := make(map[string]bool)
	for _, s := range steps {
		key := s.raw
		if s.id != symbol.NoID {
			key = c.table.Get(s.id).Name
		}
		if seen[key] {
			c.report(diag.Errorf(diag.CodePipelineDuplicateStep,
				fmt.Sprintf("pipeline step %q appears more than once", s.raw)), mod, mod.Line, resolve.RelPipeline)
			continue
		}
		seen[key] = true
	}

	for i := 0; i+1 < len(steps); i++ {
		a, b := steps[i], steps[i+1]
		if a.id == symbol.NoID || b.id == symbol.NoID {
			continue
		}
		outputs := c.idx.Targets(a.id, resolve.RelOutput)
		inputs := c.idx.Targets(b.id, resolve.RelInput)
		location := fmt.Sprintf("pipeline(%s->%s)", a.raw, b.raw)

		satisfied := 0
		for _, in := range inputs {
			for _, out := range outputs {
				if c.compatible(out, in) {
					satisfied++
					break
				}
			}
		}
		switch {
		case satisfied == 0:
			c.report(diag.Errorf(diag.CodePipelineBroken,
				fmt.Sprintf("no output of %s feeds an input of %s", a.raw, b.raw)), mod, mod.Line, location)
		case satisfied < len(inputs):
			c.report(diag.Warnf(diag.CodePipelinePartial,
				fmt.Sprintf("%s satisfies %d of %d inputs of %s", a.raw, satisfied, len(inputs), b.raw)), mod, mod.Line, location)
		}
	}
}

// compatible reports whether output schema x can feed input schema y.
func (c *checker) compatible(x, y symbol.ID) bool {
	if x == y {
		return true
	}
	return contains(c.idx.Targets(x, resolve.RelOver), y) || contains(c.idx.Targets(y, resolve.RelOver), x)
}

// unused warns about listings the module never exercises. A module
// without funcs or a pipeline has nothing to judge its schemas against.
func (c *checker) unused(mod *symbol.Symbol) {
	funcs := c.idx.Targets(mod.ID, resolve.RelFuncs)
	pipeline := c.idx.Targets(mod.ID, resolve.RelPipeline)

	if len(funcs)+len(pipeline) > 0 {
		used := make(map[symbol.ID]bool)
		var frontier []symbol.ID
		for _, f := range append(append([]symbol.ID(nil), funcs...), pipeline...) {
			for _, s := range c.idx.Targets(f, resolve.RelInput, resolve.RelOutput) {
				if !used[s] {
					used[s] = true
					frontier = append(frontier, s)
				}
			}
		}
		for len(frontier) > 0 {
			next := frontier[0]
			frontier = frontier[1:]
			for _, s := range c.idx.Targets(next, resolve.RelFrom, resolve.RelTo, resolve.RelBase, resolve.RelOver, resolve.RelField) {
				if !used[s] {
					used[s] = true
					frontier = append(frontier, s)
				}
			}
		}
		for _, l := range c.idx.Outgoing(mod.ID) {
			if l.Relation == resolve.RelSchemas && l.Resolved() && !used[l.Target] {
				c.report(diag.Warnf(diag.CodeUnusedSymbol,
					fmt.Sprintf("schema %s is listed but no func of the module uses it", l.Raw)), mod, mod.Line, resolve.RelSchemas)
			}
		}
	}

	if len(mod.Mod.Pipeline) == 0 {
		return
	}
	for _, l := range c.idx.Outgoing(mod.ID) {
		if l.Relation == resolve.RelFuncs && l.Resolved() && !contains(pipeline, l.Target) {
			c.report(diag.Warnf(diag.CodeUnusedSymbol,
				fmt.Sprintf("func %s is listed but not part of the pipeline", l.Raw)), mod, mod.Line, resolve.RelFuncs)
		}
	}
}

func (c *checker) status() {
	st := c.unit.Doc.Status
	if st == nil {
		return
	}
	entries := append([]document.ModuleStatus(nil), st.Modules...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Line < entries[j].Line })

	for _, entry := range entries {
		location := "status.mod." + entry.Module
		if !document.ValidState(entry.State) {
			c.report(diag.Errorf(diag.CodeInvalidStatus,
				fmt.Sprintf("module %s: state %q is not one of %v", entry.Module, entry.State, document.States)), nil, entry.Line, location)
		}
		if entry.HasCoverage && (entry.Coverage < 0 || entry.Coverage > 1) {
			c.report(diag.Errorf(diag.CodeInvalidStatus,
				fmt.Sprintf("module %s: coverage %g is outside [0, 1]", entry.Module, entry.Coverage)), nil, entry.Line, location)
		}
		res := c.r.Resolve(c.unit.Context, "mod."+entry.Module, document.KindMod)
		if res.Status != resolve.Resolved {
			c.report(diag.Warnf(diag.CodeUnknownStatusModule,
				fmt.Sprintf("status entry names unknown module %q", entry.Module)), nil, entry.Line, location)
		}
	}
}

func contains(ids []symbol.ID, id symbol.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
