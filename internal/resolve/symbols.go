package resolve

import (
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/symbol"
)

// Ref is one reference position inside a declaration.
type Ref struct {
	Relation string
	Raw      string
	Want     document.Kind
	Line     int
}

// Refs lists the reference positions of sym in declaration order. Field
// types that do not parse contribute nothing here; the validator reports
// them.
func Refs(sym *symbol.Symbol) []Ref {
	var refs []Ref
	add := func(relation, raw string, want document.Kind, line int) {
		if raw == "" {
			return
		}
		refs = append(refs, Ref{Relation: relation, Raw: raw, Want: want, Line: line})
	}

	switch sym.Kind {
	case document.KindSchema:
		s := sym.Schema
		add(RelFrom, s.From, document.KindSchema, sym.Line)
		add(RelTo, s.To, document.KindSchema, sym.Line)
		add(RelBase, s.Base, document.KindSchema, sym.Line)
		for _, over := range s.Over {
			add(RelOver, over, document.KindSchema, sym.Line)
		}
		for _, field := range s.Fields {
			typ, err := document.ParseType(field.Type)
			if err != nil {
				continue
			}
			for _, ref := range typ.SchemaRefs() {
				add(RelField+field.Name, ref, document.KindSchema, field.Line)
			}
		}
	case document.KindFunc:
		f := sym.Func
		for _, in := range f.Input {
			add(RelInput, in, document.KindSchema, sym.Line)
		}
		for _, out := range f.Output {
			add(RelOutput, out, document.KindSchema, sym.Line)
		}
	case document.KindMod:
		m := sym.Mod
		for _, s := range m.Schemas {
			add(RelSchemas, s, document.KindSchema, sym.Line)
		}
		for _, f := range m.Funcs {
			add(RelFuncs, f, document.KindFunc, sym.Line)
		}
		for _, step := range m.Pipeline {
			add(RelPipeline, step, document.KindFunc, sym.Line)
		}
		for _, req := range m.Requires {
			add(RelRequires, req.Target, document.KindMod, req.Line)
		}
	}
	return refs
}

// LinkSymbol resolves every reference of sym. Requires are linked but not
// diagnosed; the dependency graph owns those diagnostics.
func (r *Resolver) LinkSymbol(ctx symbol.NamespaceContext, sym *symbol.Symbol) ([]Link, []diag.Diagnostic) {
	var links []Link
	var diags []diag.Diagnostic
	for _, ref := range Refs(sym) {
		res := r.Resolve(ctx, ref.Raw, ref.Want)
		target := res.ID
		if res.Status != Resolved {
			target = symbol.NoID
		}
		links = append(links, Link{
			From:     sym.ID,
			Relation: ref.Relation,
			Raw:      ref.Raw,
			Target:   target,
			Status:   res.Status,
			Line:     ref.Line,
		})
		if ref.Relation == RelRequires {
			continue
		}
		if d, ok := r.Diagnose(res, ref.Raw, ref.Want); ok {
			d.File = sym.File
			d.Symbol = sym.Name
			d.Order = sym.Order
			d.Line = ref.Line
			d.Location = ref.Relation
			diags = append(diags, d)
		}
	}
	return links, diags
}
