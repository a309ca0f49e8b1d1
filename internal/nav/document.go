package nav

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

// ClosureDocument copies the definitions behind ids into one document with
// no namespace or imports. Every resolved reference to a copied symbol is
// rewritten to "<kind>.<local>" so the document resolves on its own.
// References outside the set are kept as written.
//
// When two copied symbols share a kind and local name, the unnamespaced
// one (else the first by qualified name) keeps it and the others become
// "<namespace>_<local>", each reported as W_CLOSURE_RENAMED.
func ClosureDocument(t *symbol.Table, idx *resolve.Index, ids []symbol.ID) (*document.Document, []diag.Diagnostic) {
	syms := make([]*symbol.Symbol, 0, len(ids))
	for _, id := range ids {
		syms = append(syms, t.Get(id))
	}
	sort.SliceStable(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })

	locals, diags := localNames(syms)
	in := make(map[symbol.ID]bool, len(syms))
	for _, sym := range syms {
		in[sym.ID] = true
	}

	doc := &document.Document{}
	for _, sym := range syms {
		subs := make(map[string]string)
		for _, l := range idx.Outgoing(sym.ID) {
			if !l.Resolved() || !in[l.Target] {
				continue
			}
			target := t.Get(l.Target)
			subs[l.Relation+"\x00"+l.Raw] = string(target.Kind) + "." + locals[target.ID]
		}
		ref := func(relation, raw string) string {
			if v, ok := subs[relation+"\x00"+raw]; ok {
				return v
			}
			return raw
		}
		refs := func(relation string, raws []string) []string {
			if raws == nil {
				return nil
			}
			out := make([]string, len(raws))
			for i, raw := range raws {
				out[i] = ref(relation, raw)
			}
			return out
		}

		switch sym.Kind {
		case document.KindSchema:
			s := *sym.Schema
			s.Name = locals[sym.ID]
			s.From = ref(resolve.RelFrom, s.From)
			s.To = ref(resolve.RelTo, s.To)
			s.Base = ref(resolve.RelBase, s.Base)
			s.Over = refs(resolve.RelOver, s.Over)
			s.Fields = make([]document.Field, len(sym.Schema.Fields))
			for i, field := range sym.Schema.Fields {
				if typ, err := document.ParseType(field.Type); err == nil {
					relation := resolve.RelField + field.Name
					if typ.MapRefs(func(raw string) string { return ref(relation, raw) }) {
						field.Type = typ.String()
					}
				}
				s.Fields[i] = field
			}
			doc.Schemas = append(doc.Schemas, &s)
		case document.KindFunc:
			f := *sym.Func
			f.Name = locals[sym.ID]
			f.Input = refs(resolve.RelInput, f.Input)
			f.Output = refs(resolve.RelOutput, f.Output)
			doc.Funcs = append(doc.Funcs, &f)
		case document.KindMod:
			m := *sym.Mod
			m.Name = locals[sym.ID]
			m.Schemas = refs(resolve.RelSchemas, m.Schemas)
			m.Funcs = refs(resolve.RelFuncs, m.Funcs)
			m.Pipeline = refs(resolve.RelPipeline, m.Pipeline)
			m.Boundary = append([]document.BoundaryEntry(nil), m.Boundary...)
			if m.Requires != nil {
				m.Requires = make([]document.Require, len(sym.Mod.Requires))
				for i, req := range sym.Mod.Requires {
					req.Target = ref(resolve.RelRequires, req.Target)
					m.Requires[i] = req
				}
			}
			doc.Mods = append(doc.Mods, &m)
		}
	}
	return doc, diags
}

// localNames picks the local name each symbol is written under.
func localNames(syms []*symbol.Symbol) (map[symbol.ID]string, []diag.Diagnostic) {
	groups := make(map[string][]*symbol.Symbol)
	var keys []string
	for _, sym := range syms {
		key := string(sym.Kind) + "." + sym.Local
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], sym)
	}

	names := make(map[symbol.ID]string, len(syms))
	taken := make(map[string]bool, len(syms))
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			if (group[i].Namespace == "") != (group[j].Namespace == "") {
				return group[i].Namespace == ""
			}
			return group[i].Name < group[j].Name
		})
		names[group[0].ID] = group[0].Local
		taken[key] = true
	}

	var diags []diag.Diagnostic
	for _, key := range keys {
		group := groups[key]
		for _, sym := range group[1:] {
			base := strings.ReplaceAll(sym.Namespace, ".", "_") + "_" + sym.Local
			local := base
			for n := 2; taken[string(sym.Kind)+"."+local]; n++ {
				local = base + "_" + strconv.Itoa(n)
			}
			taken[string(sym.Kind)+"."+local] = true
			names[sym.ID] = local

			d := diag.Warnf(diag.CodeClosureRenamed,
				fmt.Sprintf("%s is written as %s.%s; %s is taken by %s", sym.Name, sym.Kind, local, key, group[0].Name))
			d.File = sym.File
			d.Symbol = sym.Name
			d.Order = sym.Order
			d.Line = sym.Line
			diags = append(diags, d)
		}
	}
	diag.Sort(diags)
	return names, diags
}
