package document

import "github.com/morozRed/blueprint/internal/tomltree"

// Render writes d back out as TOML. Sections keep their slice order.
func Render(d *Document) []byte {
	return tomltree.Encode(Tree(d))
}

func Tree(d *Document) *tomltree.Table {
	root := tomltree.NewTable()
	if d.Package != "" {
		root.Set("package", tomltree.StringValue(d.Package))
	}
	if d.Namespace != "" {
		root.Set("namespace", tomltree.StringValue(d.Namespace))
	}
	if len(d.Imports) > 0 {
		raw := make([]string, len(d.Imports))
		for i, imp := range d.Imports {
			raw[i] = imp.Raw
		}
		root.Set("import", tomltree.StringArray(raw))
	}
	if len(d.Requires) > 0 {
		root.Set("require", tomltree.StringArray(requireTargets(d.Requires)))
	}

	if d.Meta != (Meta{}) {
		meta := tomltree.NewTable()
		setString(meta, "name", d.Meta.Name)
		setString(meta, "version", d.Meta.Version)
		setString(meta, "description", d.Meta.Description)
		root.Set("meta", tomltree.TableValue(meta))
	}

	if len(d.Schemas) > 0 {
		schemas := tomltree.NewTable()
		for _, s := range d.Schemas {
			schemas.Set(s.Name, tomltree.TableValue(schemaTable(s)))
		}
		root.Set("schema", tomltree.TableValue(schemas))
	}
	if len(d.Funcs) > 0 {
		funcs := tomltree.NewTable()
		for _, f := range d.Funcs {
			funcs.Set(f.Name, tomltree.TableValue(funcTable(f)))
		}
		root.Set("func", tomltree.TableValue(funcs))
	}
	if len(d.Mods) > 0 {
		mods := tomltree.NewTable()
		for _, m := range d.Mods {
			mods.Set(m.Name, tomltree.TableValue(modTable(m)))
		}
		root.Set("mod", tomltree.TableValue(mods))
	}
	if d.Status != nil {
		root.Set("status", tomltree.TableValue(statusTable(d.Status)))
	}
	return root
}

func setString(t *tomltree.Table, key, value string) {
	if value != "" {
		t.Set(key, tomltree.StringValue(value))
	}
}

func setStrings(t *tomltree.Table, key string, values []string) {
	if len(values) > 0 {
		t.Set(key, tomltree.StringArray(values))
	}
}

func setImpl(t *tomltree.Table, impl Impl) {
	if impl.IsZero() {
		return
	}
	table := tomltree.NewTable()
	setString(table, "bind", impl.Bind)
	setString(table, "lang", impl.Lang)
	setString(table, "path", impl.Path)
	t.Set("impl", tomltree.TableValue(table))
}

func requireTargets(requires []Require) []string {
	out := make([]string, len(requires))
	for i, r := range requires {
		out[i] = r.Target
	}
	return out
}

func schemaTable(s *Schema) *tomltree.Table {
	t := tomltree.NewTable()
	setString(t, "kind", s.Kind)
	setString(t, "role", s.Role)
	setString(t, "type", s.Type)
	setString(t, "from", s.From)
	setString(t, "to", s.To)
	setString(t, "base", s.Base)
	setString(t, "label", s.Label)
	setStrings(t, "over", s.Over)
	if len(s.Fields) > 0 {
		fields := tomltree.NewTable()
		fields.Inline = true
		for _, f := range s.Fields {
			fields.Set(f.Name, tomltree.StringValue(f.Type))
		}
		t.Set("fields", tomltree.TableValue(fields))
	}
	setImpl(t, s.Impl)
	return t
}

func funcTable(f *Func) *tomltree.Table {
	t := tomltree.NewTable()
	setString(t, "intent", f.Intent)
	t.Set("input", tomltree.StringArray(f.Input))
	t.Set("output", tomltree.StringArray(f.Output))
	setString(t, "design_notes", f.DesignNotes)
	setImpl(t, f.Impl)
	return t
}

func modTable(m *Mod) *tomltree.Table {
	t := tomltree.NewTable()
	setString(t, "purpose", m.Purpose)
	t.Set("schemas", tomltree.StringArray(m.Schemas))
	t.Set("funcs", tomltree.StringArray(m.Funcs))
	setStrings(t, "pipeline", m.Pipeline)
	setStrings(t, "require", requireTargets(m.Requires))
	if len(m.Boundary) > 0 {
		boundary := tomltree.NewTable()
		boundary.Inline = true
		for _, entry := range m.Boundary {
			boundary.Set(entry.Name, tomltree.StringValue(entry.Description))
		}
		t.Set("boundary", tomltree.TableValue(boundary))
	}
	return t
}

func statusTable(s *Status) *tomltree.Table {
	t := tomltree.NewTable()
	setString(t, "updated_at", s.UpdatedAt)
	if len(s.Modules) == 0 {
		return t
	}
	mods := tomltree.NewTable()
	for _, entry := range s.Modules {
		m := tomltree.NewTable()
		setString(m, "state", entry.State)
		if entry.HasCoverage {
			m.Set("coverage", &tomltree.Value{Kind: tomltree.Float, Float: entry.Coverage})
		}
		setString(m, "notes", entry.Notes)
		mods.Set(entry.Module, tomltree.TableValue(m))
	}
	t.Set("mod", tomltree.TableValue(mods))
	return t
}
